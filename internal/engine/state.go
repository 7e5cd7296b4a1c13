package engine

import (
	"time"

	"github.com/prosetlive/proset-backend/internal/proset"
)

type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

type EndReason string

const (
	EndDeckEmpty    EndReason = "deck_empty"
	EndTimerExpired EndReason = "timer_expired"
	EndPlayerQuit   EndReason = "player_quit"
)

type ScoringMode string

const (
	ScoreByCards ScoringMode = "cards"
	ScoreBySets  ScoringMode = "sets"
)

type SetBehavior string

const (
	ClaimImmediate SetBehavior = "immediate"
	ClaimOnClick   SetBehavior = "click"
)

// Settings is frozen into a GameState at game start. Timer fields are
// milliseconds; zero disables the timer.
type Settings struct {
	ColorsEnabled bool        `json:"colorsEnabled"`
	BinaryMode    bool        `json:"binaryMode"`
	TurnTimerMs   int64       `json:"turnTimerMs"`
	GameTimerMs   int64       `json:"gameTimerMs"`
	SetBehavior   SetBehavior `json:"setFoundBehavior"`
	InfiniteDeck  bool        `json:"infiniteDeck"`
	ScoringMode   ScoringMode `json:"scoringMode"`
}

func DefaultSettings() Settings {
	return Settings{
		ColorsEnabled: true,
		SetBehavior:   ClaimImmediate,
		ScoringMode:   ScoreByCards,
	}
}

type Player struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Number    int           `json:"playerNumber"`
	Color     string        `json:"color"`
	Claimed   []proset.Card `json:"claimedCards"`
	Selected  []string      `json:"selectedCardIds"`
	Score     int           `json:"score"`
	Connected bool          `json:"isConnected"`
	Ready     bool          `json:"isReady"`
}

// Palette is the fixed player color order; assignment cycles past the end.
var Palette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c",
}

func ColorFor(number int) string {
	return Palette[(number-1)%len(Palette)]
}

// GameState is a value: transition functions return new states and never
// mutate their input. The deck's top is the end of the slice.
type GameState struct {
	Phase           Phase         `json:"phase"`
	Deck            []proset.Card `json:"-"`
	Active          []proset.Card `json:"activeCards"`
	Players         []Player      `json:"players"`
	Settings        Settings      `json:"settings"`
	TurnRemainingMs *int64        `json:"turnTimeRemainingMs"`
	GameRemainingMs *int64        `json:"gameTimeRemainingMs"`
	EndReason       EndReason     `json:"endReason,omitempty"`
	StartedAt       time.Time     `json:"startedAt"`
}

const TableSize = 7

// NewMultiplayerGame freezes the lobby roster into a playing state: fresh
// shuffled deck, seven active cards, scores and selections zeroed, players
// renumbered 1..n by slice order.
func NewMultiplayerGame(players []Player, settings Settings) GameState {
	roster := make([]Player, len(players))
	for i, p := range players {
		roster[i] = Player{
			ID:        p.ID,
			Name:      p.Name,
			Number:    i + 1,
			Color:     ColorFor(i + 1),
			Claimed:   []proset.Card{},
			Selected:  []string{},
			Connected: p.Connected,
		}
	}
	deck := proset.NewDeck()
	proset.Shuffle(deck)
	active, deck := proset.Deal(deck, TableSize)

	s := GameState{
		Phase:     PhasePlaying,
		Deck:      deck,
		Active:    active,
		Players:   roster,
		Settings:  settings,
		StartedAt: time.Now(),
	}
	if settings.TurnTimerMs > 0 {
		s.TurnRemainingMs = ptr(settings.TurnTimerMs)
	}
	if settings.GameTimerMs > 0 {
		s.GameRemainingMs = ptr(settings.GameTimerMs)
	}
	return s
}

// NewSinglePlayerGame starts a solo game for one player.
func NewSinglePlayerGame(playerID, name string, settings Settings) GameState {
	return NewMultiplayerGame([]Player{{ID: playerID, Name: name, Connected: true}}, settings)
}

func ptr(v int64) *int64 { return &v }

// clone deep-copies everything a transition might touch.
func clone(s GameState) GameState {
	out := s
	out.Deck = append([]proset.Card(nil), s.Deck...)
	out.Active = append([]proset.Card(nil), s.Active...)
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		cp := p
		cp.Claimed = append([]proset.Card(nil), p.Claimed...)
		cp.Selected = append([]string(nil), p.Selected...)
		out.Players[i] = cp
	}
	if s.TurnRemainingMs != nil {
		out.TurnRemainingMs = ptr(*s.TurnRemainingMs)
	}
	if s.GameRemainingMs != nil {
		out.GameRemainingMs = ptr(*s.GameRemainingMs)
	}
	return out
}

func playerIndex(s GameState, playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func activeCard(s GameState, cardID string) (proset.Card, bool) {
	for _, c := range s.Active {
		if c.ID == cardID {
			return c, true
		}
	}
	return proset.Card{}, false
}
