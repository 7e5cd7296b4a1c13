package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr default: %q", cfg.Addr)
	}
	if cfg.TickInterval != 100*time.Millisecond {
		t.Fatalf("tick default: %v", cfg.TickInterval)
	}
	if cfg.MaxPlayers != 8 || cfg.CodeLength != 6 {
		t.Fatalf("room defaults: %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PROSET_ADDR", ":9999")
	t.Setenv("PROSET_TICK_MS", "50")
	t.Setenv("PROSET_MAX_PLAYERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.TickInterval != 50*time.Millisecond || cfg.MaxPlayers != 4 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("PROSET_TICK_MS", "-5")
	t.Setenv("PROSET_CODE_LENGTH", "2")
	if _, err := Load(); err == nil {
		t.Fatalf("expected validation errors")
	}
}
