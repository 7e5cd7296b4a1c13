package lobby

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prosetlive/proset-backend/internal/engine"
)

func newTestLobby() State {
	return New("ABCDEF", "host", "Hanna", 8)
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateCode(6)
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("want 6 chars, got %q", code)
		}
		for _, c := range code {
			if strings.ContainsRune("0OI1L", c) {
				t.Fatalf("ambiguous character %q in %q", c, code)
			}
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("character %q outside alphabet in %q", c, code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatalf("codes do not vary")
	}
}

func TestJoin_AssignsNumbersAndColors(t *testing.T) {
	s := newTestLobby()
	var err error
	for i := 2; i <= 4; i++ {
		s, _, err = Join(s, fmt.Sprintf("p%d", i), fmt.Sprintf("Player %d", i))
		if err != nil {
			t.Fatalf("join p%d: %v", i, err)
		}
	}
	for i, p := range s.Players {
		if p.Number != i+1 {
			t.Fatalf("player %d has number %d", i, p.Number)
		}
		if p.Color != engine.ColorFor(i+1) {
			t.Fatalf("player %d has color %q", i, p.Color)
		}
	}
}

func TestJoin_IdempotentForKnownID(t *testing.T) {
	s := newTestLobby()
	s, _, _ = Join(s, "p2", "Two")

	again, p, err := Join(s, "p2", "Two Again")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if len(again.Players) != 2 {
		t.Fatalf("rejoin duplicated the player: %d seats", len(again.Players))
	}
	if p.Name != "Two" || p.Number != 2 {
		t.Fatalf("rejoin changed membership: %+v", p)
	}
}

func TestJoin_Full(t *testing.T) {
	s := New("ABCDEF", "host", "Hanna", 2)
	s, _, _ = Join(s, "p2", "Two")
	if _, _, err := Join(s, "p3", "Three"); err != ErrLobbyFull {
		t.Fatalf("want ErrLobbyFull, got %v", err)
	}
}

func TestLeave(t *testing.T) {
	s := newTestLobby()
	s, _, _ = Join(s, "p2", "Two")
	s, _, _ = Join(s, "p3", "Three")

	// A middle player leaves: the rest renumber and recolor.
	s, res := Leave(s, "p2")
	if res.Deleted || res.NewHostID != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if s.Players[1].ID != "p3" || s.Players[1].Number != 2 || s.Players[1].Color != engine.ColorFor(2) {
		t.Fatalf("renumbering failed: %+v", s.Players[1])
	}

	// Host leaves: new player #1 is promoted.
	s, res = Leave(s, "host")
	if res.NewHostID != "p3" || s.HostID != "p3" {
		t.Fatalf("host transfer failed: %+v host=%s", res, s.HostID)
	}

	// Last player leaves: lobby is deleted.
	s, res = Leave(s, "p3")
	if !res.Deleted {
		t.Fatalf("expected deletion, got %+v", res)
	}
	_ = s
}

func TestUpdateSettings_LockPolicy(t *testing.T) {
	s := newTestLobby()
	s, _, _ = Join(s, "p2", "Two")
	on := true

	if _, err := UpdateSettings(s, "p2", SettingsPatch{InfiniteDeck: &on}); err != ErrSettingsLocked {
		t.Fatalf("locked lobby should reject non-host, got %v", err)
	}

	s2, err := UpdateSettings(s, "host", SettingsPatch{InfiniteDeck: &on})
	if err != nil || !s2.Settings.InfiniteDeck {
		t.Fatalf("host update failed: %v %+v", err, s2.Settings)
	}
	if !s2.Settings.ColorsEnabled {
		t.Fatalf("merge must not clobber unset fields")
	}

	if _, err := ToggleLock(s, "p2"); err != ErrNotHost {
		t.Fatalf("lock toggle is host-only, got %v", err)
	}
	s, err = ToggleLock(s, "host")
	if err != nil || !s.SettingsUnlocked {
		t.Fatalf("unlock failed: %v", err)
	}
	if _, err := UpdateSettings(s, "p2", SettingsPatch{InfiniteDeck: &on}); err != nil {
		t.Fatalf("unlocked lobby should accept non-host: %v", err)
	}
}

func TestReadyAndStartGate(t *testing.T) {
	s := newTestLobby()
	s, _, _ = Join(s, "p2", "Two")

	s = ToggleReady(s, "p2")
	if !s.Players[1].Ready {
		t.Fatalf("ready flag not set")
	}
	s = ToggleReady(s, "p2")
	if s.Players[1].Ready {
		t.Fatalf("ready flag not cleared")
	}

	if err := CanStart(s, "p2"); err != ErrNotHost {
		t.Fatalf("want ErrNotHost, got %v", err)
	}
	// Nobody is ready, but the host may still start.
	if err := CanStart(s, "host"); err != nil {
		t.Fatalf("host start rejected: %v", err)
	}
}

func TestChatCap(t *testing.T) {
	s := newTestLobby()
	for i := 0; i < 105; i++ {
		s, _ = AddChat(s, "host", fmt.Sprintf("msg %d", i))
	}
	if len(s.Chat) != 100 {
		t.Fatalf("want 100 messages, got %d", len(s.Chat))
	}
	if s.Chat[0].Content != "msg 5" {
		t.Fatalf("oldest not evicted first: %q", s.Chat[0].Content)
	}
	if s.Chat[0].PlayerName != "Hanna" {
		t.Fatalf("sender name not resolved: %q", s.Chat[0].PlayerName)
	}
}
