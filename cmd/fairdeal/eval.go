package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fairdeal/holdem/internal/deck"
	"github.com/fairdeal/holdem/internal/evaluator"
	"github.com/fairdeal/holdem/internal/shuffle"
)

type EvalCmd struct {
	Cards string `arg:"" help:"Seven cards in compact notation, e.g. 'AsKsQsJsTs2h3d'"`
}

func (c *EvalCmd) Run() error {
	cards, err := deck.ParseCards(c.Cards)
	if err != nil {
		return err
	}
	if len(cards) != 7 {
		return fmt.Errorf("need exactly 7 cards, got %d", len(cards))
	}

	var hand [7]deck.Card
	copy(hand[:], cards)
	ranking := evaluator.Evaluate(hand)

	var shown []string
	for _, card := range cards {
		shown = append(shown, card.String())
	}
	fmt.Printf("%s\n", strings.Join(shown, " "))
	fmt.Printf("%s (tiebreaker %013x)\n", ranking.Category, ranking.Tiebreaker)
	return nil
}

type ShuffleCmd struct {
	Secrets []string `arg:"" help:"One secret per seat, 16 to 32 bytes each"`
	Top     int      `short:"t" default:"9" help:"How many cards of the order to print"`
}

// Run replays the commit-reveal protocol with the given secrets and
// prints the commitments, the seed, and the resulting deck order, so any
// observer can audit a finished hand.
func (c *ShuffleCmd) Run() error {
	seats := make([]int, len(c.Secrets))
	for i := range c.Secrets {
		seats[i] = i
	}
	p := shuffle.NewProtocol(seats)

	for seat, secret := range c.Secrets {
		commitment := shuffle.CommitmentFor([]byte(secret))
		if err := p.Commit(seat, commitment); err != nil {
			return err
		}
		fmt.Printf("seat %d commitment: %s\n", seat, hex.EncodeToString(commitment[:]))
	}
	for seat, secret := range c.Secrets {
		if err := p.Reveal(seat, []byte(secret)); err != nil {
			return fmt.Errorf("seat %d: %w", seat, err)
		}
	}

	seed := p.Seed()
	fmt.Printf("seed: %s\n", hex.EncodeToString(seed[:]))

	cards := p.Deck().Cards()
	top := c.Top
	if top > len(cards) {
		top = len(cards)
	}
	var shown []string
	for _, card := range cards[:top] {
		shown = append(shown, card.String())
	}
	fmt.Printf("deck: %s ...\n", strings.Join(shown, " "))
	return nil
}
