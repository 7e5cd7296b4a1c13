package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prosetlive/proset-backend/internal/hub"
	"github.com/prosetlive/proset-backend/internal/protocol"
	"github.com/prosetlive/proset-backend/internal/room"
)

const writeTimeout = 3 * time.Second

// Handler upgrades the connection, assigns (or resumes) a session id, and
// shuttles protocol messages between the socket and the player's room
// actor. A reconnecting client passes its previous id as ?player_id= so the
// room's idempotent join treats it as a rejoin.
func Handler(h *hub.Hub, allowedOrigin string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := &websocket.AcceptOptions{}
		if allowedOrigin != "" {
			opts.OriginPatterns = []string{allowedOrigin}
		}
		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		playerID := r.URL.Query().Get("player_id")
		if playerID == "" {
			playerID = uuid.NewString()
		}
		log.Debug("client connected", zap.String("player", playerID))
		writeJSON(r.Context(), conn, protocol.ServerMessage{
			Type:     protocol.SConnEstablished,
			PlayerID: playerID,
		})

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()

		var current *room.Room
		defer func() {
			if current != nil {
				deliver(current, room.Leave{PlayerID: playerID})
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm protocol.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeJSON(r.Context(), conn, protocol.Error(protocol.ErrInvalidRequest, "bad json"))
				continue
			}

			switch cm.Type {
			case protocol.CLobbyCreate:
				if current != nil {
					writeJSON(r.Context(), conn, protocol.Error(protocol.ErrInvalidRequest, "already in a lobby"))
					continue
				}
				reply := make(chan *room.Room, 1)
				h.Inbox() <- hub.CreateRoom{HostID: playerID, HostName: cm.PlayerName, Reply: reply}
				rm := <-reply
				if rm == nil {
					writeJSON(r.Context(), conn, protocol.Error(protocol.ErrInvalidRequest, "could not create lobby"))
					continue
				}
				current = join(writeCtx, conn, rm, playerID, cm.PlayerName, true)

			case protocol.CLobbyJoin, protocol.CLobbyRejoin:
				if current != nil {
					writeJSON(r.Context(), conn, protocol.Error(protocol.ErrInvalidRequest, "already in a lobby"))
					continue
				}
				reply := make(chan *room.Room, 1)
				h.Inbox() <- hub.GetRoom{Code: cm.Code, Reply: reply}
				rm := <-reply
				if rm == nil {
					writeJSON(r.Context(), conn, protocol.Error(protocol.ErrLobbyNotFound, "no lobby with that code"))
					continue
				}
				current = join(writeCtx, conn, rm, playerID, cm.PlayerName, false)

			case protocol.CLobbyLeave:
				if current != nil {
					deliver(current, room.Leave{PlayerID: playerID})
					current = nil
				}

			default:
				if current == nil {
					writeJSON(r.Context(), conn, protocol.Error(protocol.ErrInvalidRequest, "join a lobby first"))
					continue
				}
				if !deliver(current, room.FromClient{PlayerID: playerID, Msg: cm}) {
					// Room is gone (game over or emptied).
					current = nil
					writeJSON(r.Context(), conn, protocol.Error(protocol.ErrGameNotStarted, "room no longer exists"))
				}
			}
		}
	}
}

// join registers an outbox with the room and pumps it to the socket until
// the room closes it (leave, drop, or teardown). Returns nil when the room
// refuses the seat, so the connection stays free to join elsewhere.
func join(writeCtx context.Context, conn *websocket.Conn, rm *room.Room, playerID, name string, created bool) *room.Room {
	out := make(chan protocol.ServerMessage, 16)
	go func() {
		for msg := range out {
			writeJSON(writeCtx, conn, msg)
		}
	}()
	seated := make(chan bool, 1)
	if !deliver(rm, room.Join{PlayerID: playerID, Name: name, Created: created, Outbox: out, Seated: seated}) {
		close(out)
		return nil
	}
	select {
	case ok := <-seated:
		if !ok {
			return nil
		}
		return rm
	case <-rm.Done():
		return nil
	}
}

// deliver sends to the room unless it has already torn down.
func deliver(rm *room.Room, msg room.Msg) bool {
	select {
	case rm.Inbox() <- msg:
		return true
	case <-rm.Done():
		return false
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, msg protocol.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
