package engine

import (
	"slices"

	"github.com/prosetlive/proset-backend/internal/proset"
)

// ToggleCardSelection adds the card to the player's selection if absent, or
// removes it if present. Unknown players and cards not on the table leave
// the state untouched; validity is not checked here.
func ToggleCardSelection(s GameState, playerID, cardID string) GameState {
	pi := playerIndex(s, playerID)
	if pi < 0 {
		return s
	}
	if _, ok := activeCard(s, cardID); !ok {
		return s
	}
	out := clone(s)
	sel := out.Players[pi].Selected
	if i := slices.Index(sel, cardID); i >= 0 {
		out.Players[pi].Selected = slices.Delete(sel, i, i+1)
	} else {
		out.Players[pi].Selected = append(sel, cardID)
	}
	return out
}

// SelectedValues maps a player's selected ids to table values in selection
// order. Ids no longer on the table (claimed out from under them) are
// silently dropped.
func SelectedValues(s GameState, playerID string) []proset.Value {
	pi := playerIndex(s, playerID)
	if pi < 0 {
		return nil
	}
	values := make([]proset.Value, 0, len(s.Players[pi].Selected))
	for _, id := range s.Players[pi].Selected {
		if c, ok := activeCard(s, id); ok {
			values = append(values, c.Value)
		}
	}
	return values
}

func SelectionValid(s GameState, playerID string) bool {
	return proset.IsValidSet(SelectedValues(s, playerID))
}

// ClaimSet moves the named cards from the table to the player's claimed
// pile. It fails closed: an unknown player, a card id not on the table, or
// values that do not form a set all return the state unchanged with zero
// points. On success the claimer's selection clears, claimed ids drop out
// of everyone else's selections, the table refills toward seven, and the
// turn timer resets for the whole room.
func ClaimSet(s GameState, playerID string, cardIDs []string) (GameState, int) {
	pi := playerIndex(s, playerID)
	if pi < 0 || s.Phase != PhasePlaying {
		return s, 0
	}
	claimed := make([]proset.Card, 0, len(cardIDs))
	values := make([]proset.Value, 0, len(cardIDs))
	seen := make(map[string]bool, len(cardIDs))
	for _, id := range cardIDs {
		c, ok := activeCard(s, id)
		if !ok || seen[id] {
			return s, 0
		}
		seen[id] = true
		claimed = append(claimed, c)
		values = append(values, c.Value)
	}
	if !proset.IsValidSet(values) {
		return s, 0
	}

	points := len(cardIDs)
	if s.Settings.ScoringMode == ScoreBySets {
		points = 1
	}

	out := clone(s)
	out.Active = slices.DeleteFunc(out.Active, func(c proset.Card) bool {
		return slices.Contains(cardIDs, c.ID)
	})
	out.Players[pi].Claimed = append(out.Players[pi].Claimed, claimed...)
	out.Players[pi].Score += points
	out.Players[pi].Selected = []string{}
	for i := range out.Players {
		if i == pi {
			continue
		}
		out.Players[i].Selected = slices.DeleteFunc(out.Players[i].Selected, func(id string) bool {
			return slices.Contains(cardIDs, id)
		})
	}

	if out.Settings.InfiniteDeck {
		out.Deck = append(out.Deck, proset.Reissue(claimed)...)
		proset.Shuffle(out.Deck)
	}
	dealt, rest := proset.Deal(out.Deck, TableSize-len(out.Active))
	out.Deck = rest
	out.Active = append(out.Active, dealt...)

	if out.Settings.TurnTimerMs > 0 {
		out.TurnRemainingMs = ptr(out.Settings.TurnTimerMs)
	}
	return out, points
}

// ClearSelection empties one player's selection.
func ClearSelection(s GameState, playerID string) GameState {
	pi := playerIndex(s, playerID)
	if pi < 0 || len(s.Players[pi].Selected) == 0 {
		return s
	}
	out := clone(s)
	out.Players[pi].Selected = []string{}
	return out
}

// SetConnected flags a player's connection status without touching any
// game-scoped field.
func SetConnected(s GameState, playerID string, connected bool) GameState {
	pi := playerIndex(s, playerID)
	if pi < 0 || s.Players[pi].Connected == connected {
		return s
	}
	out := clone(s)
	out.Players[pi].Connected = connected
	return out
}

// CheckGameEnd reports whether the game should end now: an expired timer,
// or (finite deck only) an empty deck with no set left on the table.
func CheckGameEnd(s GameState) (EndReason, bool) {
	if s.Phase != PhasePlaying {
		return "", false
	}
	if s.TurnRemainingMs != nil && *s.TurnRemainingMs <= 0 {
		return EndTimerExpired, true
	}
	if s.GameRemainingMs != nil && *s.GameRemainingMs <= 0 {
		return EndTimerExpired, true
	}
	if !s.Settings.InfiniteDeck && len(s.Deck) == 0 {
		values := make([]proset.Value, len(s.Active))
		for i, c := range s.Active {
			values[i] = c.Value
		}
		if !proset.HasValidSet(values) {
			return EndDeckEmpty, true
		}
	}
	return "", false
}

// EndGame moves to the terminal phase. Ended is sticky: a second call with
// a different reason changes nothing.
func EndGame(s GameState, reason EndReason) GameState {
	if s.Phase == PhaseEnded {
		return s
	}
	out := clone(s)
	out.Phase = PhaseEnded
	out.EndReason = reason
	return out
}

// UpdateTimers decrements both running timers by elapsedMs, flooring at 0.
func UpdateTimers(s GameState, elapsedMs int64) GameState {
	if s.TurnRemainingMs == nil && s.GameRemainingMs == nil {
		return s
	}
	out := clone(s)
	if out.TurnRemainingMs != nil {
		*out.TurnRemainingMs = max(0, *out.TurnRemainingMs-elapsedMs)
	}
	if out.GameRemainingMs != nil {
		*out.GameRemainingMs = max(0, *out.GameRemainingMs-elapsedMs)
	}
	return out
}

// Winners returns every player tied for the top score, or nothing while the
// game is still running.
func Winners(s GameState) []Player {
	if s.Phase != PhaseEnded {
		return nil
	}
	best := -1
	for _, p := range s.Players {
		if p.Score > best {
			best = p.Score
		}
	}
	var winners []Player
	for _, p := range s.Players {
		if p.Score == best {
			winners = append(winners, p)
		}
	}
	return winners
}
