package hub

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/prosetlive/proset-backend/internal/lobby"
	"github.com/prosetlive/proset-backend/internal/room"
)

type Msg interface{ isHubMsg() }

// CreateRoom allocates an unused code, seats the host, and spawns the room
// actor.
type CreateRoom struct {
	HostID   string
	HostName string
	Reply    chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room // nil when the code is unknown
}

type RemoveRoom struct{ Code string }

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Options come from the composition root; no ambient globals.
type Options struct {
	MaxPlayers   int
	CodeLength   int
	TickInterval time.Duration
}

// Hub is the registry actor: the lobby-code -> room map is only touched
// inside its loop, so code uniqueness and room lifecycle are race-free.
type Hub struct {
	inbox  chan Msg
	rooms  map[string]*room.Room
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func NewHub(parent context.Context, opts Options, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan Msg, 64),
		rooms:  make(map[string]*room.Room),
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				code, err := h.freeCode()
				if err != nil {
					h.log.Error("code generation failed", zap.Error(err))
					msg.Reply <- nil
					break
				}
				lob := lobby.New(code, msg.HostID, msg.HostName, h.opts.MaxPlayers)
				rm := room.New(h.ctx, lob, h.opts.TickInterval, h.removeFunc(code), h.log)
				h.rooms[code] = rm
				h.log.Info("room created", zap.String("code", code))
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code]

			case RemoveRoom:
				delete(h.rooms, msg.Code)

			case ShutdownHub:
				for _, rm := range h.rooms {
					select {
					case rm.Inbox() <- room.Shutdown{}:
					default:
					}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

// freeCode draws codes until one is not in use.
func (h *Hub) freeCode() (string, error) {
	for {
		code, err := lobby.GenerateCode(h.opts.CodeLength)
		if err != nil {
			return "", err
		}
		if _, taken := h.rooms[code]; !taken {
			return code, nil
		}
	}
}

// removeFunc hands each room a way to deregister itself on teardown.
func (h *Hub) removeFunc(code string) func() {
	return func() {
		select {
		case h.inbox <- RemoveRoom{Code: code}:
		case <-h.ctx.Done():
		}
	}
}
