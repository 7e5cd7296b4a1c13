package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/prosetlive/proset-backend/internal/hub"
	"github.com/prosetlive/proset-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, allowedOrigin string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/lobbies", CreateLobby(h))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, allowedOrigin, log))
	return r
}
