package proset

import (
	"fmt"

	"github.com/google/uuid"
)

// Value is a card encoded as a 6-bit number: bit i (0-indexed) means the
// dot at position i+1 is present. Zero never occurs in play.
type Value int

const (
	MinValue Value = 1
	MaxValue Value = 63
)

// Card is a dealt instance of a value. Two cards with the same value dealt
// at different times carry different IDs.
type Card struct {
	ID    string `json:"id"`
	Value Value  `json:"value"`
}

func NewCard(v Value) Card {
	return Card{ID: uuid.NewString(), Value: v}
}

// Dots reports which of the six dot positions are present.
func (v Value) Dots() [6]bool {
	var d [6]bool
	for i := 0; i < 6; i++ {
		d[i] = v&(1<<i) != 0
	}
	return d
}

// Binary renders the value as a 6-character binary string, MSB first.
func (v Value) Binary() string {
	return fmt.Sprintf("%06b", int(v))
}
