package deck

import "fmt"

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Rank represents a card rank, indexed from Two (0) to Ace (12)
type Rank int

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Two:
		return "2"
	case Three:
		return "3"
	case Four:
		return "4"
	case Five:
		return "5"
	case Six:
		return "6"
	case Seven:
		return "7"
	case Eight:
		return "8"
	case Nine:
		return "9"
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// Card is a playing card encoded as an integer in [0,51].
// Rank is card mod 13, suit is card div 13.
type Card uint8

// NumCards is the size of a standard deck.
const NumCards = 52

// NewCard creates a card from a suit and rank
func NewCard(suit Suit, rank Rank) Card {
	return Card(int(suit)*13 + int(rank))
}

// Rank returns the card's rank
func (c Card) Rank() Rank {
	return Rank(c % 13)
}

// Suit returns the card's suit
func (c Card) Suit() Suit {
	return Suit(c / 13)
}

// Valid reports whether the encoded value names a real card
func (c Card) Valid() bool {
	return c < NumCards
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return fmt.Sprintf("%s%s", c.Rank(), c.Suit())
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank() == Ace
}
