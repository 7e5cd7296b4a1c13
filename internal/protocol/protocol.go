package protocol

import (
	"time"

	"github.com/prosetlive/proset-backend/internal/engine"
	"github.com/prosetlive/proset-backend/internal/lobby"
	"github.com/prosetlive/proset-backend/internal/proset"
)

// Client -> server message types.
const (
	CLobbyCreate     = "lobby.create"
	CLobbyJoin       = "lobby.join"
	CLobbyRejoin     = "lobby.rejoin"
	CLobbyLeave      = "lobby.leave"
	CLobbySettings   = "lobby.updateSettings"
	CLobbyToggleLock = "lobby.toggleSettingsLock"
	CLobbyReady      = "lobby.toggleReady"
	CLobbyStart      = "lobby.startGame"
	CLobbyChat       = "lobby.chat"
	CLobbyGetState   = "lobby.getState"
	CGameToggleCard  = "game.toggleCard"
	CGameConfirmSet  = "game.confirmSet"
	CGameClearSel    = "game.clearSelection"
)

// Server -> client message types.
const (
	SConnEstablished   = "connection.established"
	SError             = "error"
	SLobbyCreated      = "lobby.created"
	SLobbyJoined       = "lobby.joined"
	SLobbyUpdated      = "lobby.updated"
	SLobbyPlayerLeft   = "lobby.playerLeft"
	SLobbyChatMessage  = "lobby.chatMessage"
	SLobbyGameStarting = "lobby.gameStarting"
	SGameState         = "game.state"
	SGameSelection     = "game.selectionChanged"
	SGameSetClaimed    = "game.setClaimed"
	SGameSetPending    = "game.setPending"
	SGameCardsDealt    = "game.cardsDealt"
	SGameTimerUpdate   = "game.timerUpdate"
	SGameEnded         = "game.ended"
)

type ErrorCode string

const (
	ErrLobbyNotFound   ErrorCode = "LOBBY_NOT_FOUND"
	ErrLobbyFull       ErrorCode = "LOBBY_FULL"
	ErrGameInProgress  ErrorCode = "GAME_ALREADY_IN_PROGRESS"
	ErrNotHost         ErrorCode = "NOT_HOST"
	ErrSettingsLocked  ErrorCode = "SETTINGS_LOCKED"
	ErrPlayersNotReady ErrorCode = "PLAYERS_NOT_READY" // reserved; start is not gated on readiness
	ErrGameNotStarted  ErrorCode = "GAME_NOT_STARTED"
	ErrInvalidCard     ErrorCode = "INVALID_CARD"
	ErrCardClaimed     ErrorCode = "CARD_ALREADY_CLAIMED"
	ErrNotAValidSet    ErrorCode = "NOT_A_VALID_SET"
	ErrNoPendingSet    ErrorCode = "NO_PENDING_SET"
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"
	ErrUnauthorized    ErrorCode = "UNAUTHORIZED"
)

type ClientMessage struct {
	Type       string               `json:"type"`
	Code       string               `json:"code,omitempty"`
	PlayerName string               `json:"playerName,omitempty"`
	Settings   *lobby.SettingsPatch `json:"settings,omitempty"`
	Content    string               `json:"content,omitempty"`
	CardID     string               `json:"cardId,omitempty"`
}

// ServerMessage is a flat envelope; each message type fills the fields its
// payload needs and omits the rest.
type ServerMessage struct {
	Type            string             `json:"type"`
	PlayerID        string             `json:"playerId,omitempty"`
	ErrCode         ErrorCode          `json:"code,omitempty"`
	Message         string             `json:"message,omitempty"`
	Lobby           *lobby.State       `json:"lobby,omitempty"`
	Chat            *lobby.ChatMessage `json:"chatMessage,omitempty"`
	State           *GameView          `json:"state,omitempty"`
	SelectedCardIDs []string           `json:"selectedCardIds,omitempty"`
	CardIDs         []string           `json:"cardIds,omitempty"`
	PointsAwarded   int                `json:"pointsAwarded,omitempty"`
	Cards           []proset.Card      `json:"cards,omitempty"`
	TurnRemainingMs *int64             `json:"turnTimeRemainingMs,omitempty"`
	GameRemainingMs *int64             `json:"gameTimeRemainingMs,omitempty"`
	Reason          engine.EndReason   `json:"reason,omitempty"`
	FinalState      *GameView          `json:"finalState,omitempty"`
}

func Error(code ErrorCode, message string) ServerMessage {
	return ServerMessage{Type: SError, ErrCode: code, Message: message}
}

// GameView is the client-visible projection of a GameState. The deck stays
// server-side; clients only learn how many cards remain.
type GameView struct {
	Phase           engine.Phase     `json:"phase"`
	DeckCount       int              `json:"deckCount"`
	ActiveCards     []proset.Card    `json:"activeCards"`
	Players         []engine.Player  `json:"players"`
	Settings        engine.Settings  `json:"settings"`
	TurnRemainingMs *int64           `json:"turnTimeRemainingMs"`
	GameRemainingMs *int64           `json:"gameTimeRemainingMs"`
	EndReason       engine.EndReason `json:"endReason,omitempty"`
	StartedAt       time.Time        `json:"startedAt"`
	Winners         []engine.Player  `json:"winners,omitempty"`
}

func NewGameView(s engine.GameState) *GameView {
	return &GameView{
		Phase:           s.Phase,
		DeckCount:       len(s.Deck),
		ActiveCards:     s.Active,
		Players:         s.Players,
		Settings:        s.Settings,
		TurnRemainingMs: s.TurnRemainingMs,
		GameRemainingMs: s.GameRemainingMs,
		EndReason:       s.EndReason,
		StartedAt:       s.StartedAt,
		Winners:         engine.Winners(s),
	}
}
