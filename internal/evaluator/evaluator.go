package evaluator

import (
	"math/bits"

	"github.com/fairdeal/holdem/internal/deck"
)

// Evaluate scores the best 5-card poker hand contained in 7 cards.
// It is pure and total: any 7 valid cards produce exactly one ranking.
//
// Rank and suit tallies are built in a single pass; every category except
// straights falls out of the frequency counts, and straights come from a
// bitwise cascade over the distinct-rank mask.
func Evaluate(cards [7]deck.Card) Ranking {
	var suitMasks [4]uint16
	var rankCounts [13]uint8
	var rankMask uint16

	for _, c := range cards {
		r := uint(c.Rank())
		suitMasks[c.Suit()] |= 1 << r
		rankCounts[r]++
		rankMask |= 1 << r
	}

	// Flush branch. With 7 cards a flush excludes quads and full houses,
	// so a flush suit means the best category is flush or straight flush.
	for _, sm := range suitMasks {
		if bits.OnesCount16(sm) < 5 {
			continue
		}
		if high, ok := straightHigh(sm); ok {
			if high == deck.Ace {
				return Ranking{Category: RoyalFlush}
			}
			return Ranking{Category: StraightFlush, Tiebreaker: packRanks(high)}
		}
		return Ranking{Category: Flush, Tiebreaker: packRanks(topRanks(sm, 5)...)}
	}

	var quad, trips, pairs []deck.Rank
	for r := deck.Ace; r >= deck.Two; r-- {
		switch rankCounts[r] {
		case 4:
			quad = append(quad, r)
		case 3:
			trips = append(trips, r)
		case 2:
			pairs = append(pairs, r)
		}
	}

	if len(quad) > 0 {
		kicker := topRanksExcluding(rankMask, 1, quad[0])
		return Ranking{
			Category:   FourOfAKind,
			Tiebreaker: packRanks(quad[0], kicker[0]),
		}
	}

	if len(trips) > 0 {
		// A second trips or any pair completes a full house.
		var pairRank deck.Rank
		haveBoat := false
		if len(trips) > 1 {
			pairRank = trips[1]
			haveBoat = true
		} else if len(pairs) > 0 {
			pairRank = pairs[0]
			haveBoat = true
		}
		if haveBoat {
			return Ranking{
				Category:   FullHouse,
				Tiebreaker: packRanks(trips[0], pairRank),
			}
		}
	}

	if high, ok := straightHigh(rankMask); ok {
		return Ranking{Category: Straight, Tiebreaker: packRanks(high)}
	}

	if len(trips) > 0 {
		kickers := topRanksExcluding(rankMask, 2, trips[0])
		return Ranking{
			Category:   ThreeOfAKind,
			Tiebreaker: packRanks(trips[0], kickers[0], kickers[1]),
		}
	}

	if len(pairs) >= 2 {
		kicker := topRanksExcluding(rankMask, 1, pairs[0], pairs[1])
		return Ranking{
			Category:   TwoPair,
			Tiebreaker: packRanks(pairs[0], pairs[1], kicker[0]),
		}
	}

	if len(pairs) == 1 {
		kickers := topRanksExcluding(rankMask, 3, pairs[0])
		return Ranking{
			Category:   OnePair,
			Tiebreaker: packRanks(pairs[0], kickers[0], kickers[1], kickers[2]),
		}
	}

	return Ranking{Category: HighCard, Tiebreaker: packRanks(topRanks(rankMask, 5)...)}
}

// straightHigh returns the high-card rank of the best straight present in
// the rank mask. The wheel (A-2-3-4-5) scores as a 5-high straight.
func straightHigh(mask uint16) (deck.Rank, bool) {
	// Bitwise cascade identifies five consecutive ranks in one pass.
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		low := bits.Len16(seq) - 1
		return deck.Rank(low + 4), true
	}

	const wheelMask = 1<<uint(deck.Ace) | 1<<uint(deck.Two) | 1<<uint(deck.Three) | 1<<uint(deck.Four) | 1<<uint(deck.Five)
	if mask&wheelMask == wheelMask {
		return deck.Five, true
	}
	return 0, false
}

// topRanks returns the n highest ranks set in the mask, descending.
func topRanks(mask uint16, n int) []deck.Rank {
	return topRanksExcluding(mask, n)
}

// topRanksExcluding returns the n highest ranks set in the mask that are
// not in the exclusion list, descending.
func topRanksExcluding(mask uint16, n int, exclude ...deck.Rank) []deck.Rank {
	for _, r := range exclude {
		mask &^= 1 << uint(r)
	}
	out := make([]deck.Rank, 0, n)
	for len(out) < n && mask != 0 {
		top := bits.Len16(mask) - 1
		out = append(out, deck.Rank(top))
		mask &^= 1 << uint(top)
	}
	return out
}

// packRanks packs ranks into a tiebreaker, most significant first,
// 4 bits per rank. Higher packed values are stronger within a category.
func packRanks(ranks ...deck.Rank) uint64 {
	var v uint64
	for _, r := range ranks {
		v = v<<4 | uint64(r)
	}
	return v
}
