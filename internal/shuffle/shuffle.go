// Package shuffle implements the commit-reveal deck ordering protocol:
// every participant commits to a private secret, reveals it, and the deck
// order becomes a deterministic public function of all revealed secrets.
// No single party can bias the shuffle, and nobody can predict it before
// the last reveal.
package shuffle

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"sort"

	"github.com/fairdeal/holdem/internal/deck"
)

const (
	// CommitmentSize is the required commitment length in bytes.
	CommitmentSize = sha256.Size

	// MinSecretSize and MaxSecretSize bound the private secret length.
	MinSecretSize = 16
	MaxSecretSize = 32
)

var (
	ErrUnknownSeat        = errors.New("seat is not part of this shuffle")
	ErrAlreadyCommitted   = errors.New("seat already committed")
	ErrAlreadyRevealed    = errors.New("seat already revealed")
	ErrNotCommitted       = errors.New("seat has not committed")
	ErrSecretSize         = errors.New("secret length out of bounds")
	ErrCommitmentMismatch = errors.New("secret does not match commitment")
)

// Protocol runs one hand's commit-reveal exchange for a fixed set of seats.
type Protocol struct {
	seats   []int
	commits map[int][CommitmentSize]byte
	secrets map[int][]byte
}

// NewProtocol creates a protocol for the given participating seats.
func NewProtocol(seats []int) *Protocol {
	sorted := make([]int, len(seats))
	copy(sorted, seats)
	sort.Ints(sorted)
	return &Protocol{
		seats:   sorted,
		commits: make(map[int][CommitmentSize]byte, len(sorted)),
		secrets: make(map[int][]byte, len(sorted)),
	}
}

// CommitmentFor computes the commitment a participant publishes for a secret.
func CommitmentFor(secret []byte) [CommitmentSize]byte {
	return sha256.Sum256(secret)
}

// Commit records a seat's commitment. Commitments are immutable once set.
func (p *Protocol) Commit(seat int, commitment [CommitmentSize]byte) error {
	if !p.participant(seat) {
		return ErrUnknownSeat
	}
	if _, ok := p.commits[seat]; ok {
		return ErrAlreadyCommitted
	}
	p.commits[seat] = commitment
	return nil
}

// Reveal verifies and records a seat's secret. A mismatching or malformed
// secret is rejected without advancing state.
func (p *Protocol) Reveal(seat int, secret []byte) error {
	if !p.participant(seat) {
		return ErrUnknownSeat
	}
	commitment, ok := p.commits[seat]
	if !ok {
		return ErrNotCommitted
	}
	if _, ok := p.secrets[seat]; ok {
		return ErrAlreadyRevealed
	}
	if len(secret) < MinSecretSize || len(secret) > MaxSecretSize {
		return ErrSecretSize
	}
	sum := sha256.Sum256(secret)
	if !bytes.Equal(sum[:], commitment[:]) {
		return ErrCommitmentMismatch
	}
	p.secrets[seat] = append([]byte(nil), secret...)
	return nil
}

// Committed reports whether the seat has submitted a commitment.
func (p *Protocol) Committed(seat int) bool {
	_, ok := p.commits[seat]
	return ok
}

// Revealed reports whether the seat has revealed a valid secret.
func (p *Protocol) Revealed(seat int) bool {
	_, ok := p.secrets[seat]
	return ok
}

// AllCommitted reports whether every participant has committed.
func (p *Protocol) AllCommitted() bool {
	return len(p.commits) == len(p.seats)
}

// AllRevealed reports whether every participant has revealed.
func (p *Protocol) AllRevealed() bool {
	return len(p.secrets) == len(p.seats)
}

// RevealedSeats returns the seats with verified secrets, ascending.
func (p *Protocol) RevealedSeats() []int {
	out := make([]int, 0, len(p.secrets))
	for _, seat := range p.seats {
		if p.Revealed(seat) {
			out = append(out, seat)
		}
	}
	return out
}

// Secret returns the revealed secret for a seat, or nil.
func (p *Protocol) Secret(seat int) []byte {
	s, ok := p.secrets[seat]
	if !ok {
		return nil
	}
	return append([]byte(nil), s...)
}

// Seed hashes the revealed secrets concatenated in seat order. It is only
// meaningful once the reveal phase has closed.
func (p *Protocol) Seed() [sha256.Size]byte {
	h := sha256.New()
	for _, seat := range p.seats {
		if s, ok := p.secrets[seat]; ok {
			h.Write(s)
		}
	}
	var seed [sha256.Size]byte
	copy(seed[:], h.Sum(nil))
	return seed
}

// Deck returns the canonical deck shuffled by a Fisher-Yates walk driven
// by a hash chain over the seed: the running state is re-hashed for every
// swap and reduced modulo the remaining count. Publicly recomputable from
// the revealed secrets.
func (p *Protocol) Deck() *deck.Deck {
	cards := make([]deck.Card, deck.NumCards)
	for i := range cards {
		cards[i] = deck.Card(i)
	}

	state := p.Seed()
	for i := len(cards) - 1; i > 0; i-- {
		state = sha256.Sum256(state[:])
		j := binary.BigEndian.Uint64(state[:8]) % uint64(i+1)
		cards[i], cards[j] = cards[j], cards[i]
	}

	return deck.FromOrder(cards)
}

// Exclude removes a seat from the protocol, discarding any commitment or
// secret it submitted. The seed is then computed over the remaining
// participants only.
func (p *Protocol) Exclude(seat int) error {
	if !p.participant(seat) {
		return ErrUnknownSeat
	}
	delete(p.commits, seat)
	delete(p.secrets, seat)
	for i, s := range p.seats {
		if s == seat {
			p.seats = append(p.seats[:i], p.seats[i+1:]...)
			break
		}
	}
	return nil
}

// Participants returns the remaining participating seats, ascending.
func (p *Protocol) Participants() []int {
	return append([]int(nil), p.seats...)
}

func (p *Protocol) participant(seat int) bool {
	for _, s := range p.seats {
		if s == seat {
			return true
		}
	}
	return false
}
