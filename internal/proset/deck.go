package proset

import "math/rand"

// NewDeck returns all 63 cards in ascending value order with fresh ids.
func NewDeck() []Card {
	deck := make([]Card, 0, MaxValue)
	for v := MinValue; v <= MaxValue; v++ {
		deck = append(deck, NewCard(v))
	}
	return deck
}

// Shuffle permutes the deck in place with a uniform Fisher-Yates.
func Shuffle(deck []Card) {
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}

// Deal removes up to n cards from the top of the deck (the end of the
// slice). A short deck deals whatever remains; Deal never errors.
func Deal(deck []Card, n int) (dealt, rest []Card) {
	if n > len(deck) {
		n = len(deck)
	}
	cut := len(deck) - n
	dealt = make([]Card, n)
	copy(dealt, deck[cut:])
	return dealt, deck[:cut]
}

// Reissue returns copies of the cards with freshly minted ids. Infinite-deck
// games feed claimed cards back through this so a card id claimed earlier
// never collides with one still in circulation.
func Reissue(cards []Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = NewCard(c.Value)
	}
	return out
}
