package shuffle

import (
	"crypto/sha256"

	"github.com/fairdeal/holdem/internal/deck"
)

// holeMaskDomain separates the hole-card keystream from the commitment
// and shuffle-chain uses of the same secret.
const holeMaskDomain = "fairdeal/holdem/holemask/v1"

// MaskHole XOR-masks a seat's hole cards with a keystream derived from
// that seat's own revealed secret. The shared state layer stores only the
// masked bytes, so the cards are recoverable only by someone who already
// holds the secret that produced them.
func MaskHole(cards [2]deck.Card, secret []byte) [2]byte {
	ks := holeKeystream(secret)
	return [2]byte{byte(cards[0]) ^ ks[0], byte(cards[1]) ^ ks[1]}
}

// UnmaskHole recovers hole cards from their masked form. A wrong secret
// yields garbage, not an error; callers validate with Card.Valid.
func UnmaskHole(masked [2]byte, secret []byte) [2]deck.Card {
	ks := holeKeystream(secret)
	return [2]deck.Card{deck.Card(masked[0] ^ ks[0]), deck.Card(masked[1] ^ ks[1])}
}

func holeKeystream(secret []byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(holeMaskDomain))
	h.Write(secret)
	var ks [sha256.Size]byte
	copy(ks[:], h.Sum(nil))
	return ks
}
