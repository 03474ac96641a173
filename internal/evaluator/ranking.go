package evaluator

// Category enumerates poker hand categories ordered from weakest to strongest.
type Category uint8

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns a human-readable hand description
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// Ranking is a totally ordered hand score: higher category wins, equal
// categories compare on the packed tiebreaker, equal tiebreakers tie.
type Ranking struct {
	Category   Category
	Tiebreaker uint64
}

// Compare returns 1 if a beats b, -1 if b beats a, and 0 for a tie.
func Compare(a, b Ranking) int {
	if a.Category != b.Category {
		if a.Category > b.Category {
			return 1
		}
		return -1
	}
	if a.Tiebreaker != b.Tiebreaker {
		if a.Tiebreaker > b.Tiebreaker {
			return 1
		}
		return -1
	}
	return 0
}
