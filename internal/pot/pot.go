// Package pot tracks per-seat contributions for a hand, builds layered
// side pots as betting rounds close, and settles each layer to its best
// eligible hand.
package pot

import (
	"sort"

	"github.com/thoas/go-funk"

	"github.com/fairdeal/holdem/internal/evaluator"
)

// Layer is one slice of the pot. Seats contribute up to Cap per layer;
// Eligible lists the non-folded seats whose contribution reached the cap
// when the layer formed. Folded chips fill layers but never win them.
type Layer struct {
	Cap      uint64
	Amount   uint64
	Eligible []int
}

// Payout is a settlement instruction for one seat.
type Payout struct {
	Seat   int
	Amount uint64
}

// Manager owns the betting state for a single hand.
type Manager struct {
	seatCount int
	current   []uint64 // current-round contribution per seat
	roundMax  uint64
	dead      uint64 // forfeited chips awaiting collection (missed blinds)
	layers    []Layer
	collected uint64
}

// New creates a pot manager for a table with seatCount seats.
func New(seatCount int) *Manager {
	return &Manager{
		seatCount: seatCount,
		current:   make([]uint64, seatCount),
	}
}

// AddBet records amount chips moved from seat's stack into the current round.
func (m *Manager) AddBet(seat int, amount uint64) {
	m.current[seat] += amount
	if m.current[seat] > m.roundMax {
		m.roundMax = m.current[seat]
	}
}

// AddDead records forfeited chips that belong to no seat. They join the
// lowest layer formed at the next collection.
func (m *Manager) AddDead(amount uint64) {
	m.dead += amount
}

// CurrentBet returns seat's contribution in the current round.
func (m *Manager) CurrentBet(seat int) uint64 {
	return m.current[seat]
}

// RoundMax returns the running maximum contribution of the current round.
func (m *Manager) RoundMax() uint64 {
	return m.roundMax
}

// CallAmount returns the chips seat must add to match the round maximum,
// clamped at zero.
func (m *Manager) CallAmount(seat int) uint64 {
	if m.current[seat] >= m.roundMax {
		return 0
	}
	return m.roundMax - m.current[seat]
}

// Total returns all chips in the pot, collected and uncollected.
func (m *Manager) Total() uint64 {
	total := m.collected + m.dead
	for _, c := range m.current {
		total += c
	}
	return total
}

// Layers returns the collected layers in formation order.
func (m *Manager) Layers() []Layer {
	out := make([]Layer, len(m.layers))
	copy(out, m.layers)
	return out
}

// CollectRound closes the current betting round, partitioning its
// contributions into ascending side-pot layers. Caps are the distinct
// contributions of non-folded seats; every seat's chips (folded included)
// fill the layers they reached, and a folded seat's bet past the top cap
// is forfeited into the top layer.
func (m *Manager) CollectRound(nonFolded map[int]bool) {
	caps := make([]uint64, 0, m.seatCount)
	for seat := 0; seat < m.seatCount; seat++ {
		if nonFolded[seat] && m.current[seat] > 0 {
			caps = append(caps, m.current[seat])
		}
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	caps = dedupe(caps)

	if len(caps) == 0 {
		// Checked-around round. Dead money and forfeited folded bets
		// still need a home.
		forfeited := m.dead
		for seat := 0; seat < m.seatCount; seat++ {
			forfeited += m.current[seat]
		}
		if forfeited > 0 {
			m.layers = append(m.layers, Layer{
				Cap:      0,
				Amount:   forfeited,
				Eligible: sortedSeats(nonFolded),
			})
			m.collected += forfeited
			m.dead = 0
		}
		m.resetRound()
		return
	}

	prev := uint64(0)
	for i, cap := range caps {
		layer := Layer{Cap: cap}
		for seat := 0; seat < m.seatCount; seat++ {
			contrib := m.current[seat]
			layer.Amount += clamp(contrib, cap) - clamp(contrib, prev)
			if nonFolded[seat] && contrib >= cap {
				layer.Eligible = append(layer.Eligible, seat)
			}
		}
		if i == 0 && m.dead > 0 {
			layer.Amount += m.dead
			m.dead = 0
		}
		if layer.Amount > 0 {
			m.collected += layer.Amount
			m.layers = append(m.layers, layer)
		}
		prev = cap
	}

	// A folded seat may have bet past every surviving contribution. The
	// uncovered excess stays in the pot as dead money in the top layer
	// rather than vanishing at reset.
	topCap := caps[len(caps)-1]
	for seat := 0; seat < m.seatCount; seat++ {
		if m.current[seat] > topCap {
			excess := m.current[seat] - topCap
			m.layers[len(m.layers)-1].Amount += excess
			m.collected += excess
		}
	}

	m.resetRound()
}

// Distribute settles every collected layer: the best ranking among each
// layer's eligible, still-active seats takes it, ties split evenly, and
// odd chips go one at a time to seats clockwise from the dealer button.
// The manager is drained afterwards.
func (m *Manager) Distribute(rankings map[int]evaluator.Ranking, active map[int]bool, dealerSeat int) []Payout {
	amounts := make(map[int]uint64)

	for _, layer := range m.layers {
		candidates := make([]int, 0, len(layer.Eligible))
		for _, seat := range layer.Eligible {
			if active[seat] {
				candidates = append(candidates, seat)
			}
		}
		if len(candidates) == 0 {
			// Every eligible seat folded in a later round; the layer falls
			// back to its contributors so no chips are orphaned.
			candidates = layer.Eligible
		}

		winners := bestSeats(candidates, rankings)
		if len(winners) == 0 {
			continue
		}

		share := layer.Amount / uint64(len(winners))
		rem := layer.Amount % uint64(len(winners))
		for _, seat := range winners {
			amounts[seat] += share
		}
		// Odd-chip rule: one chip at a time starting at the seat after the
		// button, proceeding clockwise.
		for offset := 1; rem > 0 && offset <= m.seatCount; offset++ {
			seat := (dealerSeat + offset) % m.seatCount
			if funk.ContainsInt(winners, seat) {
				amounts[seat]++
				rem--
			}
		}
	}

	m.drain()
	return payoutsFromMap(amounts)
}

// FoldWin awards the entire pot, collected and uncollected, to the sole
// surviving seat without any hand evaluation.
func (m *Manager) FoldWin(seat int) Payout {
	amount := m.Total()
	m.drain()
	return Payout{Seat: seat, Amount: amount}
}

// Refunds returns each seat's total contribution so a voided hand can be
// unwound. Dead money has no owner and is not refunded.
func (m *Manager) Refunds() []Payout {
	amounts := make(map[int]uint64)
	for seat := 0; seat < m.seatCount; seat++ {
		if m.current[seat] > 0 {
			amounts[seat] += m.current[seat]
		}
	}
	m.drain()
	return payoutsFromMap(amounts)
}

func (m *Manager) drain() {
	m.layers = nil
	m.collected = 0
	m.dead = 0
	m.resetRound()
}

func (m *Manager) resetRound() {
	for i := range m.current {
		m.current[i] = 0
	}
	m.roundMax = 0
}

// bestSeats returns all candidate seats tied for the maximum ranking.
func bestSeats(candidates []int, rankings map[int]evaluator.Ranking) []int {
	var winners []int
	var best evaluator.Ranking
	for _, seat := range candidates {
		r, ok := rankings[seat]
		if !ok {
			continue
		}
		if len(winners) == 0 {
			winners = []int{seat}
			best = r
			continue
		}
		switch evaluator.Compare(r, best) {
		case 1:
			winners = []int{seat}
			best = r
		case 0:
			winners = append(winners, seat)
		}
	}
	if len(winners) == 0 {
		// No candidate holds a ranking: a sole candidate reclaiming an
		// uncalled over-bet, or a layer falling back to its contributors.
		winners = candidates
	}
	return winners
}

func payoutsFromMap(amounts map[int]uint64) []Payout {
	payouts := make([]Payout, 0, len(amounts))
	for seat, amount := range amounts {
		payouts = append(payouts, Payout{Seat: seat, Amount: amount})
	}
	sort.Slice(payouts, func(i, j int) bool { return payouts[i].Seat < payouts[j].Seat })
	return payouts
}

func clamp(v, max uint64) uint64 {
	if v > max {
		return max
	}
	return v
}

func dedupe(sorted []uint64) []uint64 {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func sortedSeats(set map[int]bool) []int {
	seats := make([]int, 0, len(set))
	for seat, in := range set {
		if in {
			seats = append(seats, seat)
		}
	}
	sort.Ints(seats)
	return seats
}
