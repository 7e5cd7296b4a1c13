package room

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/prosetlive/proset-backend/internal/engine"
	"github.com/prosetlive/proset-backend/internal/lobby"
	"github.com/prosetlive/proset-backend/internal/protocol"
	"github.com/prosetlive/proset-backend/internal/proset"
)

type Msg interface{ isRoomMsg() }

// Join registers a client connection and seats the player (idempotently for
// a rejoining id). Created selects the lobby.created reply over lobby.joined.
// When a seat is refused (full lobby, mid-game stranger) the outbox receives
// the error and is closed; Seated, if set, learns the outcome either way.
type Join struct {
	PlayerID string
	Name     string
	Created  bool
	Outbox   chan protocol.ServerMessage
	Seated   chan bool
}

func (Join) isRoomMsg() {}

// Leave is both the explicit lobby.leave and the disconnect path.
type Leave struct{ PlayerID string }

func (Leave) isRoomMsg() {}

// FromClient carries one protocol message from an already-joined player.
type FromClient struct {
	PlayerID string
	Msg      protocol.ClientMessage
}

func (FromClient) isRoomMsg() {}

// GetState reflects internal state without data races; test hook.
type GetState struct{ Reply chan View }

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type tick struct{ at time.Time }

func (tick) isRoomMsg() {}

// PendingSet is a claim reservation awaiting confirmation in click mode.
// At most one exists per room.
type PendingSet struct {
	PlayerID string
	CardIDs  []string
	At       time.Time
}

type View struct {
	Lobby      lobby.State
	Game       *engine.GameState
	Pending    *PendingSet
	NumClients int
}

// Room serializes every operation for one game room through a single
// goroutine: player messages and timer ticks are discrete run-to-completion
// steps, so the first claim to execute wins by construction.
type Room struct {
	inbox        chan Msg
	code         string
	lob          lobby.State
	game         *engine.GameState
	pending      *PendingSet
	clients      map[string]chan protocol.ServerMessage
	tickInterval time.Duration
	lastTick     time.Time
	stopTick     context.CancelFunc
	ctx          context.Context
	cancel       context.CancelFunc
	onRemove     func()
	log          *zap.Logger
}

func New(parent context.Context, initial lobby.State, tickInterval time.Duration, onRemove func(), log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		inbox:        make(chan Msg, 64),
		code:         initial.Code,
		lob:          initial,
		clients:      make(map[string]chan protocol.ServerMessage),
		tickInterval: tickInterval,
		ctx:          ctx,
		cancel:       cancel,
		onRemove:     onRemove,
		log:          log.With(zap.String("room", initial.Code)),
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done closes once the room has torn down; senders select on it so a dead
// room never blocks them.
func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.teardown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)

			case Leave:
				if r.handleLeave(msg.PlayerID) {
					return
				}

			case FromClient:
				if r.handleClient(msg.PlayerID, msg.Msg) {
					return
				}

			case tick:
				if r.handleTick(msg.at) {
					return
				}

			case GetState:
				var pending *PendingSet
				if r.pending != nil {
					cp := *r.pending
					pending = &cp
				}
				msg.Reply <- View{
					Lobby:      r.lob,
					Game:       r.game,
					Pending:    pending,
					NumClients: len(r.clients),
				}

			case Shutdown:
				r.teardown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	if r.game != nil && r.game.Phase == engine.PhasePlaying {
		// Mid-game only known players may come back.
		known := false
		for _, p := range r.lob.Players {
			if p.ID == msg.PlayerID {
				known = true
				break
			}
		}
		if !known {
			msg.Outbox <- protocol.Error(protocol.ErrGameInProgress, "game already in progress")
			close(msg.Outbox)
			seat(msg.Seated, false)
			return
		}
		r.lob, _, _ = lobby.Join(r.lob, msg.PlayerID, msg.Name)
		g := engine.SetConnected(*r.game, msg.PlayerID, true)
		r.game = &g
		r.register(msg.PlayerID, msg.Outbox)
		seat(msg.Seated, true)
		r.send(msg.PlayerID, protocol.ServerMessage{Type: protocol.SLobbyJoined, Lobby: r.lobbySnapshot()})
		r.broadcast(protocol.ServerMessage{Type: protocol.SGameState, State: protocol.NewGameView(*r.game)})
		return
	}

	next, _, err := lobby.Join(r.lob, msg.PlayerID, msg.Name)
	if err != nil {
		msg.Outbox <- protocol.Error(protocol.ErrLobbyFull, err.Error())
		close(msg.Outbox)
		seat(msg.Seated, false)
		return
	}
	r.lob = next
	r.register(msg.PlayerID, msg.Outbox)
	seat(msg.Seated, true)

	replyType := protocol.SLobbyJoined
	if msg.Created {
		replyType = protocol.SLobbyCreated
	}
	r.send(msg.PlayerID, protocol.ServerMessage{Type: replyType, Lobby: r.lobbySnapshot()})
	for id := range r.clients {
		if id != msg.PlayerID {
			r.send(id, protocol.ServerMessage{Type: protocol.SLobbyUpdated, Lobby: r.lobbySnapshot()})
		}
	}
	r.log.Info("player joined", zap.String("player", msg.PlayerID))
}

// handleLeave covers lobby.leave and disconnects; reports whether the room
// tore itself down.
func (r *Room) handleLeave(playerID string) bool {
	if ch, ok := r.clients[playerID]; ok {
		close(ch)
		delete(r.clients, playerID)
	}

	if r.game != nil && r.game.Phase == engine.PhasePlaying {
		g := engine.SetConnected(*r.game, playerID, false)
		g = engine.ClearSelection(g, playerID)
		r.game = &g
		if r.pending != nil && r.pending.PlayerID == playerID {
			r.pending = nil
		}
		if r.lob.HostID == playerID {
			// Same rule as the pre-game path: the lowest-numbered player
			// still connected takes over.
			for _, p := range r.lob.Players {
				if _, ok := r.clients[p.ID]; ok {
					r.lob.HostID = p.ID
					break
				}
			}
		}
		r.broadcast(protocol.ServerMessage{Type: protocol.SLobbyPlayerLeft, PlayerID: playerID})
		r.broadcast(protocol.ServerMessage{Type: protocol.SGameState, State: protocol.NewGameView(*r.game)})

		if len(r.clients) == 0 {
			return r.endGame(engine.EndPlayerQuit)
		}
		return false
	}

	next, res := lobby.Leave(r.lob, playerID)
	r.lob = next
	if res.Deleted {
		r.log.Info("lobby emptied, removing room")
		r.teardown()
		return true
	}
	r.broadcast(protocol.ServerMessage{Type: protocol.SLobbyPlayerLeft, PlayerID: playerID})
	r.broadcast(protocol.ServerMessage{Type: protocol.SLobbyUpdated, Lobby: r.lobbySnapshot()})
	return false
}

func (r *Room) handleClient(pid string, msg protocol.ClientMessage) bool {
	switch msg.Type {
	case protocol.CLobbySettings:
		if r.game != nil {
			r.send(pid, protocol.Error(protocol.ErrGameInProgress, "settings are frozen once the game starts"))
			return false
		}
		if msg.Settings == nil {
			r.send(pid, protocol.Error(protocol.ErrInvalidRequest, "missing settings"))
			return false
		}
		next, err := lobby.UpdateSettings(r.lob, pid, *msg.Settings)
		if err != nil {
			r.send(pid, protocol.Error(protocol.ErrSettingsLocked, err.Error()))
			return false
		}
		r.lob = next
		r.broadcast(protocol.ServerMessage{Type: protocol.SLobbyUpdated, Lobby: r.lobbySnapshot()})

	case protocol.CLobbyToggleLock:
		next, err := lobby.ToggleLock(r.lob, pid)
		if err != nil {
			r.send(pid, protocol.Error(protocol.ErrNotHost, err.Error()))
			return false
		}
		r.lob = next
		r.broadcast(protocol.ServerMessage{Type: protocol.SLobbyUpdated, Lobby: r.lobbySnapshot()})

	case protocol.CLobbyReady:
		r.lob = lobby.ToggleReady(r.lob, pid)
		r.broadcast(protocol.ServerMessage{Type: protocol.SLobbyUpdated, Lobby: r.lobbySnapshot()})

	case protocol.CLobbyChat:
		next, chat := lobby.AddChat(r.lob, pid, msg.Content)
		r.lob = next
		r.broadcast(protocol.ServerMessage{Type: protocol.SLobbyChatMessage, Chat: &chat})

	case protocol.CLobbyStart:
		return r.startGame(pid)

	case protocol.CLobbyGetState:
		if r.game != nil {
			r.send(pid, protocol.ServerMessage{Type: protocol.SGameState, State: protocol.NewGameView(*r.game)})
		} else {
			r.send(pid, protocol.ServerMessage{Type: protocol.SLobbyUpdated, Lobby: r.lobbySnapshot()})
		}

	case protocol.CGameToggleCard:
		return r.toggleCard(pid, msg.CardID)

	case protocol.CGameConfirmSet:
		return r.confirmSet(pid)

	case protocol.CGameClearSel:
		r.clearSelection(pid)

	default:
		r.send(pid, protocol.Error(protocol.ErrInvalidRequest, "unknown message type"))
	}
	return false
}

func (r *Room) startGame(pid string) bool {
	if err := lobby.CanStart(r.lob, pid); err != nil {
		r.send(pid, protocol.Error(protocol.ErrNotHost, err.Error()))
		return false
	}
	if r.game != nil {
		r.send(pid, protocol.Error(protocol.ErrGameInProgress, "game already started"))
		return false
	}
	r.broadcast(protocol.ServerMessage{Type: protocol.SLobbyGameStarting})
	g := engine.NewMultiplayerGame(r.lob.Players, r.lob.Settings)
	r.game = &g
	r.broadcast(protocol.ServerMessage{Type: protocol.SGameState, State: protocol.NewGameView(g)})
	r.startLoop()
	r.log.Info("game started", zap.Int("players", len(g.Players)))
	return false
}

// toggleCard applies the selection toggle and, when the resulting selection
// is a valid set, either claims it right away (immediate mode) or tries to
// reserve the pending slot (click mode). First valid attempt to execute
// here wins any race; losers see NOT_A_VALID_SET or simply no pending slot.
func (r *Room) toggleCard(pid, cardID string) bool {
	if r.game == nil || r.game.Phase != engine.PhasePlaying {
		r.send(pid, protocol.Error(protocol.ErrGameNotStarted, "no game running"))
		return false
	}
	onTable := false
	for _, c := range r.game.Active {
		if c.ID == cardID {
			onTable = true
			break
		}
	}
	if !onTable {
		r.send(pid, protocol.Error(protocol.ErrInvalidCard, "card is not on the table"))
		return false
	}

	g := engine.ToggleCardSelection(*r.game, pid, cardID)
	r.game = &g
	selected := selectionOf(g, pid)
	r.broadcast(protocol.ServerMessage{Type: protocol.SGameSelection, PlayerID: pid, SelectedCardIDs: selected})

	if !engine.SelectionValid(g, pid) {
		return false
	}
	switch g.Settings.SetBehavior {
	case engine.ClaimOnClick:
		if r.pending == nil {
			r.pending = &PendingSet{PlayerID: pid, CardIDs: selected, At: time.Now()}
			r.broadcast(protocol.ServerMessage{Type: protocol.SGameSetPending, PlayerID: pid, CardIDs: selected})
		}
		// A held slot silently ignores later valid selections.
		return false
	default:
		return r.claim(pid, selected)
	}
}

func (r *Room) confirmSet(pid string) bool {
	if r.game == nil || r.game.Phase != engine.PhasePlaying {
		r.send(pid, protocol.Error(protocol.ErrGameNotStarted, "no game running"))
		return false
	}
	if r.pending == nil || r.pending.PlayerID != pid {
		r.send(pid, protocol.Error(protocol.ErrNoPendingSet, "no pending set for you to confirm"))
		return false
	}
	// The slot is consumed whether or not the claim lands.
	cardIDs := r.pending.CardIDs
	r.pending = nil
	return r.claim(pid, cardIDs)
}

func (r *Room) clearSelection(pid string) {
	if r.game == nil {
		r.send(pid, protocol.Error(protocol.ErrGameNotStarted, "no game running"))
		return
	}
	g := engine.ClearSelection(*r.game, pid)
	r.game = &g
	if r.pending != nil && r.pending.PlayerID == pid {
		r.pending = nil
	}
	r.broadcast(protocol.ServerMessage{Type: protocol.SGameSelection, PlayerID: pid, SelectedCardIDs: []string{}})
}

// claim executes one claim attempt against the current table. Validation
// happens inside engine.ClaimSet, so a second racer referencing already
// claimed ids fails here regardless of client-side timing.
func (r *Room) claim(pid string, cardIDs []string) bool {
	prev := *r.game
	next, points := engine.ClaimSet(prev, pid, cardIDs)
	if points == 0 {
		r.send(pid, protocol.Error(protocol.ErrNotAValidSet, "cards not found or not a valid set"))
		return false
	}
	r.game = &next

	r.broadcast(protocol.ServerMessage{
		Type:          protocol.SGameSetClaimed,
		PlayerID:      pid,
		CardIDs:       cardIDs,
		PointsAwarded: points,
	})
	if dealt := newlyDealt(prev, next); len(dealt) > 0 {
		r.broadcast(protocol.ServerMessage{Type: protocol.SGameCardsDealt, Cards: dealt})
	}
	r.broadcast(protocol.ServerMessage{Type: protocol.SGameState, State: protocol.NewGameView(next)})
	if next.TurnRemainingMs != nil || next.GameRemainingMs != nil {
		r.broadcast(protocol.ServerMessage{
			Type:            protocol.SGameTimerUpdate,
			TurnRemainingMs: next.TurnRemainingMs,
			GameRemainingMs: next.GameRemainingMs,
		})
	}

	if reason, over := engine.CheckGameEnd(next); over {
		return r.endGame(reason)
	}
	return false
}

func (r *Room) handleTick(at time.Time) bool {
	if r.game == nil || r.game.Phase != engine.PhasePlaying {
		r.stopLoop()
		return false
	}
	// True elapsed wall-clock time, not a fixed increment, so scheduler
	// jitter cannot stretch the countdown.
	elapsed := at.Sub(r.lastTick).Milliseconds()
	if elapsed <= 0 {
		return false
	}
	r.lastTick = at

	g := engine.UpdateTimers(*r.game, elapsed)
	r.game = &g
	if g.TurnRemainingMs != nil || g.GameRemainingMs != nil {
		r.broadcast(protocol.ServerMessage{
			Type:            protocol.SGameTimerUpdate,
			TurnRemainingMs: g.TurnRemainingMs,
			GameRemainingMs: g.GameRemainingMs,
		})
	}
	if reason, over := engine.CheckGameEnd(g); over {
		return r.endGame(reason)
	}
	return false
}

// endGame finishes the game, tells everyone why, and removes the room.
func (r *Room) endGame(reason engine.EndReason) bool {
	g := engine.EndGame(*r.game, reason)
	r.game = &g
	r.stopLoop()
	r.broadcast(protocol.ServerMessage{
		Type:       protocol.SGameEnded,
		Reason:     reason,
		FinalState: protocol.NewGameView(g),
	})
	r.log.Info("game ended", zap.String("reason", string(reason)))
	r.teardown()
	return true
}

func (r *Room) startLoop() {
	if r.stopTick != nil {
		return
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.stopTick = cancel
	r.lastTick = time.Now()
	go func() {
		t := time.NewTicker(r.tickInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case at := <-t.C:
				select {
				case r.inbox <- tick{at: at}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

// stopLoop is idempotent.
func (r *Room) stopLoop() {
	if r.stopTick != nil {
		r.stopTick()
		r.stopTick = nil
	}
}

func (r *Room) teardown() {
	r.stopLoop()
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	if r.onRemove != nil {
		r.onRemove()
	}
	r.cancel()
}

// lobbySnapshot copies the lobby value before it crosses a goroutine
// boundary: client writer goroutines marshal messages while this loop keeps
// reassigning r.lob, so they must never share the field itself. The slices
// inside are safe to share because lobby transitions clone before mutating.
func (r *Room) lobbySnapshot() *lobby.State {
	lob := r.lob
	return &lob
}

func (r *Room) register(playerID string, out chan protocol.ServerMessage) {
	if old, ok := r.clients[playerID]; ok && old != out {
		close(old)
	}
	r.clients[playerID] = out
}

// send delivers to one client; errors go only to the originating actor.
func (r *Room) send(playerID string, msg protocol.ServerMessage) {
	ch, ok := r.clients[playerID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		// Slow or wedged client: drop it.
		close(ch)
		delete(r.clients, playerID)
	}
}

func (r *Room) broadcast(msg protocol.ServerMessage) {
	for id, ch := range r.clients {
		select {
		case ch <- msg:
		default:
			close(ch)
			delete(r.clients, id)
		}
	}
}

func seat(ch chan bool, ok bool) {
	if ch != nil {
		ch <- ok
	}
}

func selectionOf(g engine.GameState, pid string) []string {
	for _, p := range g.Players {
		if p.ID == pid {
			return append([]string(nil), p.Selected...)
		}
	}
	return nil
}

func newlyDealt(prev, next engine.GameState) []proset.Card {
	onTable := make(map[string]bool, len(prev.Active))
	for _, c := range prev.Active {
		onTable[c.ID] = true
	}
	var dealt []proset.Card
	for _, c := range next.Active {
		if !onTable[c.ID] {
			dealt = append(dealt, c)
		}
	}
	return dealt
}
