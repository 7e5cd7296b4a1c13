package hub

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/prosetlive/proset-backend/internal/protocol"
	"github.com/prosetlive/proset-backend/internal/room"
)

func testOptions() Options {
	return Options{MaxPlayers: 8, CodeLength: 6, TickInterval: 20 * time.Millisecond}
}

func TestHub_CreateThenGet_SamePointer(t *testing.T) {
	h := NewHub(context.Background(), testOptions(), zap.NewNop())
	reply := make(chan *room.Room, 1)

	h.Inbox() <- CreateRoom{HostID: "host", HostName: "Hanna", Reply: reply}
	rm1 := <-reply
	if rm1 == nil {
		t.Fatalf("create returned nil room")
	}

	view := make(chan room.View, 1)
	rm1.Inbox() <- room.GetState{Reply: view}
	v := <-view
	if v.Lobby.HostID != "host" || len(v.Lobby.Players) != 1 {
		t.Fatalf("host not seated: %+v", v.Lobby)
	}

	h.Inbox() <- GetRoom{Code: v.Lobby.Code, Reply: reply}
	rm2 := <-reply
	if rm1 != rm2 {
		t.Fatalf("expected same room pointer")
	}
}

func TestHub_UnknownCode(t *testing.T) {
	h := NewHub(context.Background(), testOptions(), zap.NewNop())
	reply := make(chan *room.Room, 1)
	h.Inbox() <- GetRoom{Code: "NOPE22", Reply: reply}
	if rm := <-reply; rm != nil {
		t.Fatalf("unknown code should return nil")
	}
}

func TestHub_RoomDeregistersWhenEmptied(t *testing.T) {
	h := NewHub(context.Background(), testOptions(), zap.NewNop())
	reply := make(chan *room.Room, 1)
	h.Inbox() <- CreateRoom{HostID: "host", HostName: "Hanna", Reply: reply}
	rm := <-reply

	out := make(chan protocol.ServerMessage, 16)
	rm.Inbox() <- room.Join{PlayerID: "host", Name: "Hanna", Created: true, Outbox: out}
	view := make(chan room.View, 1)
	rm.Inbox() <- room.GetState{Reply: view}
	code := (<-view).Lobby.Code

	rm.Inbox() <- room.Leave{PlayerID: "host"}

	deadline := time.After(2 * time.Second)
	for {
		h.Inbox() <- GetRoom{Code: code, Reply: reply}
		if got := <-reply; got == nil {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("room still registered after last player left")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
