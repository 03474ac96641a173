package table

import (
	"time"

	"github.com/google/uuid"

	"github.com/fairdeal/holdem/internal/deck"
	"github.com/fairdeal/holdem/internal/evaluator"
	"github.com/fairdeal/holdem/internal/pot"
	"github.com/fairdeal/holdem/internal/shuffle"
)

// handState is the live state of one hand, from the commit phase through
// settlement. It is created by StartHand and discarded at settlement or
// void; the table holds at most one.
type handState struct {
	id       string
	phase    Phase
	protocol *shuffle.Protocol
	cards    *deck.Deck

	participants []int
	folded       map[int]bool
	allIn        map[int]bool
	withdrawn    map[int]bool

	hole      map[int][2]deck.Card
	masked    map[int][2]byte
	community []deck.Card
	burnt     []deck.Card

	pot        *pot.Manager
	bet        *bettingRound
	actionSeat int
	deadline   time.Time // zero means no deadline armed

	sbSeat, bbSeat int
	straddleSeat   int

	// Posted forced chips tracked separately so a void can unwind them.
	antePosted  map[int]uint64
	deadPosted  map[int]uint64
	debtAccrued map[int]uint64

	// Sum of all escrowed stacks when the hand started, adjusted as chips
	// cross the table boundary mid-hand. Checked at settlement.
	conservation uint64
}

func (h *handState) participates(seat int) bool {
	if h.withdrawn[seat] {
		return false
	}
	for _, s := range h.participants {
		if s == seat {
			return true
		}
	}
	return false
}

func (h *handState) live(seat int) bool {
	return h.participates(seat) && !h.folded[seat]
}

// liveSeats returns non-folded participants in seat order.
func (h *handState) liveSeats() []int {
	var out []int
	for _, s := range h.participants {
		if h.live(s) {
			out = append(out, s)
		}
	}
	return out
}

func (h *handState) liveSet() map[int]bool {
	set := make(map[int]bool)
	for _, s := range h.liveSeats() {
		set[s] = true
	}
	return set
}

// actableSeats returns live seats that still have chips behind.
func (h *handState) actableSeats() []int {
	var out []int
	for _, s := range h.liveSeats() {
		if !h.allIn[s] {
			out = append(out, s)
		}
	}
	return out
}

// nextLive walks clockwise from the seat after from to the next live seat.
func (h *handState) nextLive(from int) int {
	for i := 1; i <= NumSeats; i++ {
		seat := (from + i) % NumSeats
		if h.live(seat) {
			return seat
		}
	}
	return -1
}

// nextActable walks clockwise to the next live seat with chips behind.
func (h *handState) nextActable(from int) int {
	for i := 1; i <= NumSeats; i++ {
		seat := (from + i) % NumSeats
		if h.live(seat) && !h.allIn[seat] {
			return seat
		}
	}
	return -1
}

// StartHand deals in every eligible seat, posts antes, missed-blind debt,
// and blinds, and opens the commit phase. At least two eligible seats are
// required.
func (t *Table) StartHand() error {
	if t.halted {
		return conflictf("table halted")
	}
	if t.paused {
		return conflictf("table paused")
	}
	if t.hand != nil {
		return conflictf("hand %s in progress", t.hand.id)
	}

	eligible := t.eligibleSeats()
	if len(eligible) < 2 {
		return conflictf("need at least 2 active seats, have %d", len(eligible))
	}

	if !contains(eligible, t.button) {
		t.button = nextIn(eligible, t.button)
	}

	h := &handState{
		id:           uuid.NewString(),
		phase:        PhaseCommit,
		protocol:     shuffle.NewProtocol(eligible),
		participants: eligible,
		folded:       make(map[int]bool),
		allIn:        make(map[int]bool),
		withdrawn:    make(map[int]bool),
		hole:         make(map[int][2]deck.Card),
		masked:       make(map[int][2]byte),
		pot:          pot.New(NumSeats),
		actionSeat:   -1,
		straddleSeat: -1,
		antePosted:   make(map[int]uint64),
		deadPosted:   make(map[int]uint64),
		debtAccrued:  make(map[int]uint64),
	}
	for i := range t.seats {
		h.conservation += t.seats[i].Stack
	}

	// Heads-up the button posts the small blind and acts first preflop;
	// otherwise the blinds are the two seats after the button.
	if len(eligible) == 2 {
		h.sbSeat = t.button
		h.bbSeat = nextIn(eligible, t.button)
	} else {
		h.sbSeat = nextIn(eligible, t.button)
		h.bbSeat = nextIn(eligible, h.sbSeat)
	}

	// Occupied seats the blinds pass over while sitting out owe a big
	// blind before they play again.
	for i := 1; i <= NumSeats; i++ {
		seat := (t.button + i) % NumSeats
		if seat == h.bbSeat {
			break
		}
		if t.seats[seat].occupied() && t.seats[seat].SittingOut {
			t.seats[seat].MissedBlindDebt += t.cfg.BigBlind
			h.debtAccrued[seat] += t.cfg.BigBlind
		}
	}

	t.hand = h
	t.publish(Event{Type: EventHandStarted, HandID: h.id, Seat: t.button})

	for _, seat := range eligible {
		if debt := t.seats[seat].MissedBlindDebt; debt > 0 {
			pay := minUint64(debt, t.seats[seat].Stack)
			t.seats[seat].Stack -= pay
			t.seats[seat].MissedBlindDebt -= pay
			h.pot.AddDead(pay)
			h.deadPosted[seat] = pay
			if t.seats[seat].Stack == 0 {
				h.allIn[seat] = true
			}
		}
		if t.cfg.Ante > 0 {
			ante := minUint64(t.cfg.Ante, t.seats[seat].Stack)
			t.seats[seat].Stack -= ante
			h.pot.AddDead(ante)
			h.antePosted[seat] = ante
			if t.seats[seat].Stack == 0 {
				h.allIn[seat] = true
			}
		}
	}

	t.postBet(h.sbSeat, t.cfg.SmallBlind)
	t.postBet(h.bbSeat, t.cfg.BigBlind)
	t.publish(Event{Type: EventBlindsPosted, HandID: h.id, Seat: h.bbSeat, Amount: t.cfg.BigBlind})

	t.armDeadline(t.cfg.CommitTimeout)
	t.logger.Info("hand started", "hand", h.id, "button", t.button, "players", len(eligible))
	return nil
}

// postBet moves up to amount chips from the seat's stack into the current
// betting round, marking the seat all-in when the stack empties.
func (t *Table) postBet(seat int, amount uint64) uint64 {
	pay := minUint64(amount, t.seats[seat].Stack)
	t.seats[seat].Stack -= pay
	t.hand.pot.AddBet(seat, pay)
	if t.seats[seat].Stack == 0 {
		t.hand.allIn[seat] = true
	}
	return pay
}

func (t *Table) armDeadline(d time.Duration) {
	if d > 0 {
		t.hand.deadline = t.clock.Now().Add(d)
	} else {
		t.hand.deadline = time.Time{}
	}
}

// Straddle lets the seat after the big blind voluntarily post twice the
// big blind before cards are dealt, buying last action preflop. Only
// available during the commit phase on tables that allow it.
func (t *Table) Straddle(player PlayerID) error {
	if !t.cfg.StraddleEnabled {
		return conflictf("straddles are not enabled")
	}
	h := t.hand
	if h == nil || h.phase != PhaseCommit {
		return conflictf("straddle is only available before the deal")
	}
	seat := t.seatOf(player)
	if seat == -1 {
		return accessf("player %s not seated", player)
	}
	if !h.live(seat) {
		return sequencef("seat %d is not in this hand", seat)
	}
	if h.straddleSeat != -1 {
		return conflictf("straddle already posted")
	}
	if want := h.nextLive(h.bbSeat); seat != want {
		return sequencef("straddle belongs to seat %d", want)
	}

	amount := t.postBet(seat, 2*t.cfg.BigBlind)
	h.straddleSeat = seat
	t.publish(Event{Type: EventStraddlePosted, Player: player, Seat: seat, Amount: amount, HandID: h.id})
	return nil
}

// CommitSecret records a participant's shuffle commitment. When the last
// participant commits the hand advances to the reveal phase.
func (t *Table) CommitSecret(player PlayerID, commitment [shuffle.CommitmentSize]byte) error {
	h := t.hand
	if h == nil || h.phase != PhaseCommit {
		return conflictf("no commit phase in progress")
	}
	seat := t.seatOf(player)
	if seat == -1 {
		return accessf("player %s not seated", player)
	}
	if !h.live(seat) {
		return sequencef("seat %d is not in this hand", seat)
	}
	if err := h.protocol.Commit(seat, commitment); err != nil {
		return shuffleErr(err)
	}
	t.publish(Event{Type: EventSecretCommitted, Player: player, Seat: seat, HandID: h.id})
	if h.protocol.AllCommitted() {
		t.beginReveal()
	}
	return nil
}

func (t *Table) beginReveal() {
	h := t.hand
	h.phase = PhaseReveal
	t.armDeadline(t.cfg.RevealTimeout)
	t.publish(Event{Type: EventRevealStarted, HandID: h.id})
}

// RevealSecret verifies a participant's secret against their commitment.
// When the last participant reveals, the deck order is fixed and hole
// cards are dealt.
func (t *Table) RevealSecret(player PlayerID, secret []byte) error {
	h := t.hand
	if h == nil || h.phase != PhaseReveal {
		return conflictf("no reveal phase in progress")
	}
	seat := t.seatOf(player)
	if seat == -1 {
		return accessf("player %s not seated", player)
	}
	if !h.live(seat) {
		return sequencef("seat %d is not in this hand", seat)
	}
	if err := h.protocol.Reveal(seat, secret); err != nil {
		return shuffleErr(err)
	}
	t.publish(Event{Type: EventSecretRevealed, Player: player, Seat: seat, HandID: h.id})
	if h.protocol.AllRevealed() {
		t.dealAndBegin()
	}
	return nil
}

// shuffleErr maps protocol errors onto the table error kinds.
func shuffleErr(err error) error {
	switch err {
	case shuffle.ErrUnknownSeat:
		return accessf("shuffle: %v", err)
	case shuffle.ErrAlreadyCommitted, shuffle.ErrAlreadyRevealed:
		return conflictf("shuffle: %v", err)
	case shuffle.ErrNotCommitted:
		return sequencef("shuffle: %v", err)
	default:
		return invalidf("shuffle: %v", err)
	}
}

// dealAndBegin fixes the deck from the revealed secrets, deals two hole
// cards to each live seat one card at a time starting left of the button,
// and opens the preflop betting round.
func (t *Table) dealAndBegin() {
	h := t.hand
	h.cards = h.protocol.Deck()
	t.publish(Event{Type: EventDeckShuffled, HandID: h.id})

	var order []int
	for seat := h.nextLive(t.button); len(order) < len(h.liveSeats()); seat = h.nextLive(seat) {
		order = append(order, seat)
	}
	for pass := 0; pass < 2; pass++ {
		for _, seat := range order {
			pair := h.hole[seat]
			pair[pass] = h.cards.Deal(1)[0]
			h.hole[seat] = pair
		}
	}
	for _, seat := range order {
		h.masked[seat] = shuffle.MaskHole(h.hole[seat], h.protocol.Secret(seat))
	}
	t.publish(Event{Type: EventHoleCardsDealt, HandID: h.id})

	h.phase = PhasePreflop
	h.bet = newBettingRound(t.cfg.BigBlind)
	from := h.bbSeat
	if h.straddleSeat != -1 {
		from = h.straddleSeat
	}
	h.actionSeat = h.nextActable(from)
	t.armDeadline(t.cfg.ActionTimeout)

	if t.roundComplete() {
		t.advanceStreet()
	}
}

// ExpireDeadlines applies the configured timeout policy if the armed
// deadline has passed: commit and reveal stragglers are dropped from the
// hand and sat out, and a seat slow to act is checked or folded for them.
// It reports whether a deadline fired.
func (t *Table) ExpireDeadlines() bool {
	h := t.hand
	if h == nil || h.deadline.IsZero() || t.clock.Now().Before(h.deadline) {
		return false
	}

	switch {
	case h.phase == PhaseCommit:
		t.expireShufflePhase(func(seat int) bool { return h.protocol.Committed(seat) })
	case h.phase == PhaseReveal:
		t.expireShufflePhase(func(seat int) bool { return h.protocol.Revealed(seat) })
	case h.phase.betting():
		seat := h.actionSeat
		player := t.seats[seat].Occupant
		if h.pot.CallAmount(seat) == 0 {
			t.publish(Event{Type: EventTimeoutAction, Player: player, Seat: seat, Action: ActionCheck, HandID: h.id})
			t.applyAction(seat, ActionCheck, 0)
		} else {
			t.publish(Event{Type: EventTimeoutAction, Player: player, Seat: seat, Action: ActionFold, HandID: h.id})
			t.applyAction(seat, ActionFold, 0)
		}
	}
	return true
}

// expireShufflePhase drops every live seat failing done from the hand and
// sits it out. With one seat left the pot is theirs; with none the hand
// is voided and all forced chips returned.
func (t *Table) expireShufflePhase(done func(seat int) bool) {
	h := t.hand
	for _, seat := range h.liveSeats() {
		if done(seat) {
			continue
		}
		h.protocol.Exclude(seat)
		h.folded[seat] = true
		t.seats[seat].SittingOut = true
		t.publish(Event{Type: EventTimeoutAction, Player: t.seats[seat].Occupant, Seat: seat, Action: ActionFold, HandID: h.id})
	}

	live := h.liveSeats()
	switch {
	case len(live) == 0:
		t.voidHand("every seat timed out")
	case len(live) == 1:
		t.settleFoldWin(live[0])
	case h.phase == PhaseCommit:
		t.beginReveal()
	default:
		t.dealAndBegin()
	}
}

// forceFold folds a seat outside its turn, used when a player is kicked
// or force-sat-out mid-hand. Chips already bet stay in the pot.
func (t *Table) forceFold(seat int) {
	h := t.hand
	if h == nil || !h.live(seat) {
		return
	}
	h.folded[seat] = true
	t.publish(Event{Type: EventActionTaken, Player: t.seats[seat].Occupant, Seat: seat, Action: ActionFold, HandID: h.id})

	switch {
	case h.phase == PhaseCommit || h.phase == PhaseReveal:
		h.protocol.Exclude(seat)
		live := h.liveSeats()
		switch {
		case len(live) == 0:
			t.voidHand("every seat withdrew")
		case len(live) == 1:
			t.settleFoldWin(live[0])
		case h.phase == PhaseCommit && h.protocol.AllCommitted():
			t.beginReveal()
		case h.phase == PhaseReveal && h.protocol.AllRevealed():
			t.dealAndBegin()
		}
	case h.phase.betting():
		if live := h.liveSeats(); len(live) == 1 {
			t.settleFoldWin(live[0])
			return
		}
		if h.actionSeat == seat {
			h.actionSeat = h.nextActable(seat)
			t.armDeadline(t.cfg.ActionTimeout)
		}
		if t.roundComplete() {
			t.advanceStreet()
		}
	}
}

// showdown evaluates every live seat's best seven-card hand and settles
// the layered pot.
func (t *Table) showdown() {
	h := t.hand
	h.phase = PhaseShowdown
	t.publish(Event{Type: EventShowdownReached, HandID: h.id, Community: h.communityCopy()})

	rankings := make(map[int]evaluator.Ranking)
	active := make(map[int]bool)
	for _, seat := range h.liveSeats() {
		var cards [7]deck.Card
		cards[0], cards[1] = h.hole[seat][0], h.hole[seat][1]
		copy(cards[2:], h.community)
		rankings[seat] = evaluator.Evaluate(cards)
		active[seat] = true
	}

	payouts := h.pot.Distribute(rankings, active, t.button)
	t.finishHand(payouts)
}

// settleFoldWin awards the whole pot to the last seat standing. No cards
// are shown and none need to have been dealt.
func (t *Table) settleFoldWin(seat int) {
	h := t.hand
	h.phase = PhaseFoldWin
	p := h.pot.FoldWin(seat)
	t.finishHand([]pot.Payout{p})
}

// finishHand skims the rake, credits payouts to stacks, verifies chip
// conservation, and retires the hand. The fee accrues in basis-point
// units and only whole chips are ever skimmed; the remainder carries to
// the next hand. Fees come out of the largest payouts first.
func (t *Table) finishHand(payouts []pot.Payout) {
	h := t.hand

	var potTotal uint64
	for _, p := range payouts {
		potTotal += p.Amount
	}

	var fee uint64
	if t.cfg.FeeBps > 0 && potTotal > 0 {
		t.feeAcc += potTotal * uint64(t.cfg.FeeBps)
		fee = t.feeAcc / 10000
		t.feeAcc %= 10000

		remaining := fee
		for remaining > 0 {
			largest := -1
			for i := range payouts {
				if largest == -1 || payouts[i].Amount > payouts[largest].Amount {
					largest = i
				}
			}
			take := minUint64(remaining, payouts[largest].Amount)
			payouts[largest].Amount -= take
			remaining -= take
		}
	}

	for _, p := range payouts {
		t.seats[p.Seat].Stack += p.Amount
		t.publish(Event{Type: EventPotAwarded, Player: t.seats[p.Seat].Occupant, Seat: p.Seat, Amount: p.Amount, HandID: h.id})
	}
	if fee > 0 {
		t.ledger.Credit(string(t.cfg.FeeCollector), fee)
		t.publish(Event{Type: EventFeeCollected, Player: t.cfg.FeeCollector, Amount: fee, HandID: h.id})
	}

	var sum uint64
	for i := range t.seats {
		sum += t.seats[i].Stack
	}
	if sum+fee != h.conservation {
		t.halted = true
		t.hand = nil
		t.logger.Error("chip conservation violated, halting table",
			"hand", h.id, "want", h.conservation, "have", sum+fee)
		t.publish(Event{Type: EventTableHalted, HandID: h.id, Detail: "chip conservation violated"})
		return
	}

	h.phase = PhaseSettled
	t.publish(Event{Type: EventHandSettled, HandID: h.id, Payouts: payouts, Community: h.communityCopy()})
	t.logger.Info("hand settled", "hand", h.id, "pot", potTotal, "fee", fee)

	t.hand = nil
	t.handNum++
	if next := t.nextOccupied(t.button); next != -1 {
		t.button = next
	}
	for i := range t.seats {
		if t.seats[i].occupied() && t.seats[i].PendingLeave {
			t.clearSeat(i)
		}
	}
}

// voidHand unwinds a hand that cannot continue: every posted chip returns
// to the stack it came from and collected missed-blind debt is owed again.
func (t *Table) voidHand(reason string) {
	h := t.hand
	for _, r := range h.pot.Refunds() {
		t.seats[r.Seat].Stack += r.Amount
	}
	for seat, a := range h.antePosted {
		t.seats[seat].Stack += a
	}
	for seat, d := range h.deadPosted {
		t.seats[seat].Stack += d
		t.seats[seat].MissedBlindDebt += d
	}
	for seat, d := range h.debtAccrued {
		t.seats[seat].MissedBlindDebt -= d
	}

	t.logger.Warn("hand voided", "hand", h.id, "reason", reason)
	t.publish(Event{Type: EventHandVoided, HandID: h.id, Detail: reason})
	t.hand = nil
}

// Phase returns the current hand phase, or PhaseJoining between hands.
func (t *Table) Phase() Phase {
	if t.hand == nil {
		return PhaseJoining
	}
	return t.hand.phase
}

// HandID returns the current hand's identifier, or empty between hands.
func (t *Table) HandID() string {
	if t.hand == nil {
		return ""
	}
	return t.hand.id
}

// ActionSeat returns the seat due to act, or -1 outside a betting round.
func (t *Table) ActionSeat() int {
	if t.hand == nil || !t.hand.phase.betting() {
		return -1
	}
	return t.hand.actionSeat
}

// Deadline returns the armed timeout deadline, zero if none.
func (t *Table) Deadline() time.Time {
	if t.hand == nil {
		return time.Time{}
	}
	return t.hand.deadline
}

// Community returns the community cards dealt so far.
func (t *Table) Community() []deck.Card {
	if t.hand == nil {
		return nil
	}
	return t.hand.communityCopy()
}

func (h *handState) communityCopy() []deck.Card {
	return append([]deck.Card(nil), h.community...)
}

// PotTotal returns all chips in the current hand's pot.
func (t *Table) PotTotal() uint64 {
	if t.hand == nil {
		return 0
	}
	return t.hand.pot.Total()
}

// Positions returns the small and big blind seats of the current hand.
func (t *Table) Positions() (sb, bb int, err error) {
	if t.hand == nil {
		return 0, 0, conflictf("no hand in progress")
	}
	return t.hand.sbSeat, t.hand.bbSeat, nil
}

// HoleCards returns the caller's own hole cards. Nobody else's cards are
// reachable through the table.
func (t *Table) HoleCards(player PlayerID) ([2]deck.Card, error) {
	seat := t.seatOf(player)
	if seat == -1 {
		return [2]deck.Card{}, accessf("player %s not seated", player)
	}
	h := t.hand
	if h == nil || h.cards == nil {
		return [2]deck.Card{}, conflictf("no cards dealt")
	}
	cards, ok := h.hole[seat]
	if !ok {
		return [2]deck.Card{}, sequencef("seat %d was not dealt in", seat)
	}
	return cards, nil
}

// MaskedHole returns the publicly shareable masked hole bytes for a seat.
func (t *Table) MaskedHole(seat int) ([2]byte, error) {
	h := t.hand
	if h == nil || h.cards == nil {
		return [2]byte{}, conflictf("no cards dealt")
	}
	masked, ok := h.masked[seat]
	if !ok {
		return [2]byte{}, invalidf("seat %d was not dealt in", seat)
	}
	return masked, nil
}

func contains(seats []int, seat int) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}

// nextIn walks clockwise from the seat after from to the next seat in set.
func nextIn(set []int, from int) int {
	for i := 1; i <= NumSeats; i++ {
		seat := (from + i) % NumSeats
		if contains(set, seat) {
			return seat
		}
	}
	return -1
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
