package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/prosetlive/proset-backend/internal/hub"
	"github.com/prosetlive/proset-backend/internal/room"
)

// CreateLobby is a REST fallback for clients that want a code before
// opening the socket. The returned playerId is the host's session id; the
// follow-up ws join with ?player_id= lands on the reserved seat.
func CreateLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PlayerName string `json:"playerName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PlayerName == "" {
			http.Error(w, "playerName required", http.StatusBadRequest)
			return
		}

		hostID := uuid.NewString()
		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.CreateRoom{HostID: hostID, HostName: body.PlayerName, Reply: reply}
		rm := <-reply
		if rm == nil {
			http.Error(w, "failed to create lobby", http.StatusInternalServerError)
			return
		}

		view := make(chan room.View, 1)
		rm.Inbox() <- room.GetState{Reply: view}
		v := <-view

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code     string `json:"code"`
			PlayerID string `json:"playerId"`
		}{Code: v.Lobby.Code, PlayerID: hostID})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
