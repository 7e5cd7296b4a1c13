package lobby

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/prosetlive/proset-backend/internal/engine"
)

var ErrLobbyFull = errors.New("lobby is full")
var ErrNotHost = errors.New("only the host may do that")
var ErrSettingsLocked = errors.New("settings are locked")

// codeAlphabet omits 0/O/I/1/L so codes survive being read aloud.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const maxChatMessages = 100

// GenerateCode draws a random lobby code. Uniqueness against live lobbies
// is the registry's job; it retries on collision.
func GenerateCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}

type ChatMessage struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sentAt"`
}

// SettingsPatch carries only the fields a client wants to change; nil
// fields keep their current value.
type SettingsPatch struct {
	ColorsEnabled *bool               `json:"colorsEnabled,omitempty"`
	BinaryMode    *bool               `json:"binaryMode,omitempty"`
	TurnTimerMs   *int64              `json:"turnTimerMs,omitempty"`
	GameTimerMs   *int64              `json:"gameTimerMs,omitempty"`
	SetBehavior   *engine.SetBehavior `json:"setFoundBehavior,omitempty"`
	InfiniteDeck  *bool               `json:"infiniteDeck,omitempty"`
	ScoringMode   *engine.ScoringMode `json:"scoringMode,omitempty"`
}

// State is a pre-game room. Like engine.GameState it is a value: the
// functions below return new states instead of mutating.
type State struct {
	Code             string          `json:"code"`
	HostID           string          `json:"hostId"`
	Players          []engine.Player `json:"players"`
	Settings         engine.Settings `json:"settings"`
	SettingsUnlocked bool            `json:"settingsUnlocked"`
	Chat             []ChatMessage   `json:"chatMessages"`
	MaxPlayers       int             `json:"maxPlayers"`
}

// New creates a lobby with the host seated as player #1, unready.
func New(code, hostID, hostName string, maxPlayers int) State {
	return State{
		Code:   code,
		HostID: hostID,
		Players: []engine.Player{{
			ID:        hostID,
			Name:      hostName,
			Number:    1,
			Color:     engine.ColorFor(1),
			Connected: true,
		}},
		Settings:   engine.DefaultSettings(),
		MaxPlayers: maxPlayers,
	}
}

func clone(s State) State {
	out := s
	out.Players = append([]engine.Player(nil), s.Players...)
	out.Chat = append([]ChatMessage(nil), s.Chat...)
	return out
}

func playerIndex(s State, playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// Join seats a new player with the next number and palette color. Joining
// twice with the same id is idempotent and returns the existing seat, which
// is how a rejoin after disconnect lands.
func Join(s State, playerID, name string) (State, engine.Player, error) {
	if i := playerIndex(s, playerID); i >= 0 {
		out := clone(s)
		out.Players[i].Connected = true
		return out, out.Players[i], nil
	}
	if len(s.Players) >= s.MaxPlayers {
		return s, engine.Player{}, ErrLobbyFull
	}
	out := clone(s)
	p := engine.Player{
		ID:        playerID,
		Name:      name,
		Number:    len(out.Players) + 1,
		Color:     engine.ColorFor(len(out.Players) + 1),
		Connected: true,
	}
	out.Players = append(out.Players, p)
	return out, p, nil
}

type LeaveResult struct {
	Deleted   bool
	NewHostID string
}

// Leave removes the player and renumbers everyone left by their new order,
// which reassigns colors too. An emptied lobby reports Deleted; a departed
// host hands the room to the new player #1.
func Leave(s State, playerID string) (State, LeaveResult) {
	i := playerIndex(s, playerID)
	if i < 0 {
		return s, LeaveResult{}
	}
	out := clone(s)
	out.Players = append(out.Players[:i], out.Players[i+1:]...)
	if len(out.Players) == 0 {
		return out, LeaveResult{Deleted: true}
	}
	for j := range out.Players {
		out.Players[j].Number = j + 1
		out.Players[j].Color = engine.ColorFor(j + 1)
	}
	var res LeaveResult
	if s.HostID == playerID {
		out.HostID = out.Players[0].ID
		res.NewHostID = out.HostID
	}
	return out, res
}

// UpdateSettings shallow-merges the patch. Only the host may change
// settings while the lobby is locked.
func UpdateSettings(s State, playerID string, patch SettingsPatch) (State, error) {
	if playerID != s.HostID && !s.SettingsUnlocked {
		return s, ErrSettingsLocked
	}
	out := clone(s)
	if patch.ColorsEnabled != nil {
		out.Settings.ColorsEnabled = *patch.ColorsEnabled
	}
	if patch.BinaryMode != nil {
		out.Settings.BinaryMode = *patch.BinaryMode
	}
	if patch.TurnTimerMs != nil {
		out.Settings.TurnTimerMs = *patch.TurnTimerMs
	}
	if patch.GameTimerMs != nil {
		out.Settings.GameTimerMs = *patch.GameTimerMs
	}
	if patch.SetBehavior != nil {
		out.Settings.SetBehavior = *patch.SetBehavior
	}
	if patch.InfiniteDeck != nil {
		out.Settings.InfiniteDeck = *patch.InfiniteDeck
	}
	if patch.ScoringMode != nil {
		out.Settings.ScoringMode = *patch.ScoringMode
	}
	return out, nil
}

// ToggleLock flips whether non-hosts may edit settings. Host only.
func ToggleLock(s State, playerID string) (State, error) {
	if playerID != s.HostID {
		return s, ErrNotHost
	}
	out := clone(s)
	out.SettingsUnlocked = !out.SettingsUnlocked
	return out, nil
}

// ToggleReady flips one player's ready flag. Readiness is advisory: the
// host may start regardless.
func ToggleReady(s State, playerID string) State {
	i := playerIndex(s, playerID)
	if i < 0 {
		return s
	}
	out := clone(s)
	out.Players[i].Ready = !out.Players[i].Ready
	return out
}

// CanStart is the authorization check for starting the game.
func CanStart(s State, playerID string) error {
	if playerID != s.HostID {
		return ErrNotHost
	}
	return nil
}

// AddChat appends a message and evicts the oldest past the cap.
func AddChat(s State, playerID, content string) (State, ChatMessage) {
	name := ""
	if i := playerIndex(s, playerID); i >= 0 {
		name = s.Players[i].Name
	}
	msg := ChatMessage{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		PlayerName: name,
		Content:    content,
		SentAt:     time.Now(),
	}
	out := clone(s)
	out.Chat = append(out.Chat, msg)
	if len(out.Chat) > maxChatMessages {
		out.Chat = out.Chat[len(out.Chat)-maxChatMessages:]
	}
	return out, msg
}
