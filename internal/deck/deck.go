package deck

// Deck is an ordered sequence of unique cards. Ordering is produced
// externally (see the shuffle package); the deck itself only consumes
// cards from the top.
type Deck struct {
	cards []Card
}

// New creates a standard 52-card deck in canonical order
func New() *Deck {
	d := &Deck{cards: make([]Card, 0, NumCards)}
	for c := Card(0); c < NumCards; c++ {
		d.cards = append(d.cards, c)
	}
	return d
}

// FromOrder creates a deck with an explicit card order. The caller is
// responsible for the cards being unique.
func FromOrder(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Burn removes and returns the top card. Used once before each
// community-card reveal so the next public card is never predictable
// from an exposed top card.
func (d *Deck) Burn() (Card, bool) {
	return d.deal()
}

// Deal removes and returns the top n cards
func (d *Deck) Deal(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		if c, ok := d.deal(); ok {
			cards = append(cards, c)
		}
	}
	return cards
}

func (d *Deck) deal() (Card, bool) {
	if len(d.cards) == 0 {
		return 0, false
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, true
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards in order
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
