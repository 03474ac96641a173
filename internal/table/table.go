// Package table owns the poker table: seats, configuration, and the
// per-hand state machine that sequences the commit-reveal shuffle, the
// betting streets, and pot settlement. All operations against one table
// must be serialized by the caller (see the room package); operations
// against different tables are independent.
package table

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/fairdeal/holdem/internal/ledger"
)

// NumSeats is the fixed seat count per table.
const NumSeats = 5

// PlayerID identifies a ledger account occupying a seat.
type PlayerID string

// Seat is one table slot.
type Seat struct {
	Occupant        PlayerID // empty string means vacant
	Stack           uint64
	SittingOut      bool
	PendingLeave    bool
	MissedBlindDebt uint64
}

func (s *Seat) occupied() bool {
	return s.Occupant != ""
}

// Config is the table configuration. Blinds and buy-in bounds are
// mutable by the admin between hands; the rest is fixed at creation.
type Config struct {
	SmallBlind      uint64
	BigBlind        uint64
	MinBuyIn        uint64
	MaxBuyIn        uint64
	Ante            uint64
	StraddleEnabled bool
	FeeBps          uint16
	FeeCollector    PlayerID

	// Zero disables the corresponding deadline.
	CommitTimeout time.Duration
	RevealTimeout time.Duration
	ActionTimeout time.Duration
}

func (c Config) validate() error {
	if c.SmallBlind == 0 {
		return invalidf("small blind must be positive")
	}
	if c.SmallBlind >= c.BigBlind {
		return invalidf("small blind %d must be below big blind %d", c.SmallBlind, c.BigBlind)
	}
	if c.MinBuyIn == 0 {
		return invalidf("min buy-in must be positive")
	}
	if c.MaxBuyIn < c.MinBuyIn {
		return invalidf("max buy-in %d below min buy-in %d", c.MaxBuyIn, c.MinBuyIn)
	}
	if c.FeeBps > 10000 {
		return invalidf("fee %d bps exceeds 10000", c.FeeBps)
	}
	return nil
}

// Table is a 5-seat poker table and its escrowed chips.
type Table struct {
	cfg    Config
	admin  PlayerID
	seats  [NumSeats]Seat
	button int

	handNum uint64
	feeAcc  uint64
	paused  bool
	halted  bool

	hand *handState // nil between hands

	ledger ledger.Ledger
	clock  quartz.Clock
	logger *log.Logger
	events EventSink
}

// Option configures a Table at creation.
type Option func(*Table)

// WithClock injects the clock used for deadlines.
func WithClock(c quartz.Clock) Option {
	return func(t *Table) { t.clock = c }
}

// WithLogger injects the structured logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Table) { t.logger = l }
}

// WithEventSink injects the observer sink.
func WithEventSink(s EventSink) Option {
	return func(t *Table) { t.events = s }
}

// New creates a table administered by admin, settling against l.
func New(admin PlayerID, cfg Config, l ledger.Ledger, opts ...Option) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if admin == "" {
		return nil, invalidf("admin must be set")
	}

	t := &Table{
		cfg:    cfg,
		admin:  admin,
		ledger: l,
		clock:  quartz.NewReal(),
		logger: log.Default().WithPrefix("table"),
		events: NopSink{},
	}
	for _, opt := range opts {
		opt(t)
	}

	t.publish(Event{Type: EventTableCreated, Player: admin})
	return t, nil
}

// Admin returns the current table admin.
func (t *Table) Admin() PlayerID {
	return t.admin
}

// Paused reports whether the table is paused.
func (t *Table) Paused() bool {
	return t.paused
}

// Halted reports whether the table froze after an invariant violation.
func (t *Table) Halted() bool {
	return t.halted
}

// HandNumber returns the number of settled hands.
func (t *Table) HandNumber() uint64 {
	return t.handNum
}

// Button returns the dealer button seat index.
func (t *Table) Button() int {
	return t.button
}

// Seats returns a snapshot of all seats.
func (t *Table) Seats() [NumSeats]Seat {
	return t.seats
}

// Seat returns a snapshot of one seat.
func (t *Table) Seat(idx int) (Seat, error) {
	if idx < 0 || idx >= NumSeats {
		return Seat{}, invalidf("seat index %d out of range", idx)
	}
	return t.seats[idx], nil
}

// FeeAccumulator returns the fractional fee carry, in bps-chips.
func (t *Table) FeeAccumulator() uint64 {
	return t.feeAcc
}

// seatOf returns the seat index occupied by player, or -1.
func (t *Table) seatOf(player PlayerID) int {
	for i := range t.seats {
		if t.seats[i].Occupant == player {
			return i
		}
	}
	return -1
}

// Join seats a player with a buy-in debited from their ledger account.
func (t *Table) Join(player PlayerID, seatIdx int, buyIn uint64) error {
	if t.halted {
		return conflictf("table halted")
	}
	if t.paused {
		return conflictf("table paused")
	}
	if seatIdx < 0 || seatIdx >= NumSeats {
		return invalidf("seat index %d out of range", seatIdx)
	}
	if t.seats[seatIdx].occupied() {
		return conflictf("seat %d already taken", seatIdx)
	}
	if t.seatOf(player) != -1 {
		return conflictf("player %s already seated", player)
	}
	if buyIn < t.cfg.MinBuyIn || buyIn > t.cfg.MaxBuyIn {
		return invalidf("buy-in %d outside [%d, %d]", buyIn, t.cfg.MinBuyIn, t.cfg.MaxBuyIn)
	}
	if err := t.ledger.Debit(string(player), buyIn); err != nil {
		return exhaustedf("buy-in %d for %s", buyIn, player)
	}

	t.seats[seatIdx] = Seat{Occupant: player, Stack: buyIn}
	t.conserveAdd(buyIn)
	t.logger.Info("player joined", "player", player, "seat", seatIdx, "buyIn", buyIn)
	t.publish(Event{Type: EventSeatJoined, Player: player, Seat: seatIdx, Amount: buyIn})
	return nil
}

// Leave returns the seat's stack to the player's ledger account and
// vacates the seat. A seat still in a live hand must use LeaveAfterHand.
func (t *Table) Leave(player PlayerID) error {
	idx := t.seatOf(player)
	if idx == -1 {
		return accessf("player %s not seated", player)
	}
	if t.hand != nil && t.hand.participates(idx) {
		return conflictf("seat %d is in a live hand, use leave_after_hand", idx)
	}
	t.clearSeat(idx)
	return nil
}

// LeaveAfterHand queues a leave to be honored at the next hand boundary.
func (t *Table) LeaveAfterHand(player PlayerID) error {
	idx := t.seatOf(player)
	if idx == -1 {
		return accessf("player %s not seated", player)
	}
	t.seats[idx].PendingLeave = true
	t.publish(Event{Type: EventLeaveQueued, Player: player, Seat: idx})
	return nil
}

// TopUp adds chips to the seat's stack, debited from the ledger. The
// resulting stack may not exceed the max buy-in.
func (t *Table) TopUp(player PlayerID, amount uint64) error {
	if t.halted {
		return conflictf("table halted")
	}
	idx := t.seatOf(player)
	if idx == -1 {
		return accessf("player %s not seated", player)
	}
	if t.hand != nil && t.hand.participates(idx) {
		return conflictf("cannot top up during a hand")
	}
	if amount == 0 {
		return invalidf("top-up must be positive")
	}
	if t.seats[idx].Stack+amount > t.cfg.MaxBuyIn {
		return invalidf("top-up %d would exceed max buy-in %d", amount, t.cfg.MaxBuyIn)
	}
	if err := t.ledger.Debit(string(player), amount); err != nil {
		return exhaustedf("top-up %d for %s", amount, player)
	}
	t.seats[idx].Stack += amount
	t.conserveAdd(amount)
	t.publish(Event{Type: EventSeatToppedUp, Player: player, Seat: idx, Amount: amount})
	return nil
}

// SitOut marks the seat as sitting out from the next hand. A live hand
// continues to completion.
func (t *Table) SitOut(player PlayerID) error {
	idx := t.seatOf(player)
	if idx == -1 {
		return accessf("player %s not seated", player)
	}
	t.seats[idx].SittingOut = true
	t.publish(Event{Type: EventSeatSatOut, Player: player, Seat: idx})
	return nil
}

// SitIn returns a sitting-out seat to play. Accrued missed-blind debt is
// collected as dead money at the next hand the seat participates in.
func (t *Table) SitIn(player PlayerID) error {
	idx := t.seatOf(player)
	if idx == -1 {
		return accessf("player %s not seated", player)
	}
	if !t.seats[idx].SittingOut {
		return conflictf("seat %d is not sitting out", idx)
	}
	t.seats[idx].SittingOut = false
	t.publish(Event{Type: EventSeatSatIn, Player: player, Seat: idx})
	return nil
}

// Pause stops new joins and new hands. Pending leaves and returns remain
// allowed so escrowed chips are never trapped.
func (t *Table) Pause(caller PlayerID) error {
	if err := t.requireAdmin(caller); err != nil {
		return err
	}
	if t.paused {
		return conflictf("table already paused")
	}
	t.paused = true
	t.publish(Event{Type: EventTablePaused, Player: caller})
	return nil
}

// Resume lifts a pause.
func (t *Table) Resume(caller PlayerID) error {
	if err := t.requireAdmin(caller); err != nil {
		return err
	}
	if !t.paused {
		return conflictf("table is not paused")
	}
	t.paused = false
	t.publish(Event{Type: EventTableResumed, Player: caller})
	return nil
}

// Kick removes a player, returning their stack. A seat in a live hand is
// force-folded first; chips already bet stay in the pot.
func (t *Table) Kick(caller PlayerID, target PlayerID) error {
	if err := t.requireAdmin(caller); err != nil {
		return err
	}
	idx := t.seatOf(target)
	if idx == -1 {
		return invalidf("player %s not seated", target)
	}
	if t.hand != nil && t.hand.participates(idx) {
		t.forceFold(idx)
		if t.hand != nil {
			t.hand.withdrawn[idx] = true
		}
	}
	t.publish(Event{Type: EventSeatKicked, Player: target, Seat: idx})
	t.clearSeat(idx)
	return nil
}

// ForceSitOut sits a player out against their will. A live hand is
// force-folded.
func (t *Table) ForceSitOut(caller PlayerID, target PlayerID) error {
	if err := t.requireAdmin(caller); err != nil {
		return err
	}
	idx := t.seatOf(target)
	if idx == -1 {
		return invalidf("player %s not seated", target)
	}
	if t.hand != nil && t.hand.participates(idx) {
		t.forceFold(idx)
	}
	t.seats[idx].SittingOut = true
	t.publish(Event{Type: EventSeatSatOut, Player: target, Seat: idx})
	return nil
}

// UpdateBlinds changes the blind sizes between hands.
func (t *Table) UpdateBlinds(caller PlayerID, smallBlind, bigBlind uint64) error {
	if err := t.requireAdmin(caller); err != nil {
		return err
	}
	if t.hand != nil {
		return conflictf("cannot change blinds during a hand")
	}
	if smallBlind == 0 || smallBlind >= bigBlind {
		return invalidf("blinds %d/%d", smallBlind, bigBlind)
	}
	t.cfg.SmallBlind = smallBlind
	t.cfg.BigBlind = bigBlind
	t.publish(Event{Type: EventBlindsUpdated, Player: caller, Amount: bigBlind})
	return nil
}

// UpdateBuyInLimits changes the buy-in bounds.
func (t *Table) UpdateBuyInLimits(caller PlayerID, minBuyIn, maxBuyIn uint64) error {
	if err := t.requireAdmin(caller); err != nil {
		return err
	}
	if minBuyIn == 0 || maxBuyIn < minBuyIn {
		return invalidf("buy-in bounds %d/%d", minBuyIn, maxBuyIn)
	}
	t.cfg.MinBuyIn = minBuyIn
	t.cfg.MaxBuyIn = maxBuyIn
	t.publish(Event{Type: EventBuyInUpdated, Player: caller, Amount: maxBuyIn})
	return nil
}

// TransferOwnership hands the admin role to another player.
func (t *Table) TransferOwnership(caller PlayerID, newAdmin PlayerID) error {
	if err := t.requireAdmin(caller); err != nil {
		return err
	}
	if newAdmin == "" {
		return invalidf("new admin must be set")
	}
	t.admin = newAdmin
	t.publish(Event{Type: EventOwnerChanged, Player: newAdmin})
	return nil
}

// Close destroys the table. It is rejected while any seat holds escrowed
// chips; a residual fee accumulator below one chip is forfeited.
func (t *Table) Close(caller PlayerID) error {
	if err := t.requireAdmin(caller); err != nil {
		return err
	}
	if t.hand != nil {
		return conflictf("hand in progress")
	}
	for i := range t.seats {
		if t.seats[i].occupied() {
			return conflictf("seat %d still holds escrowed chips", i)
		}
	}
	t.halted = true
	t.feeAcc = 0
	return nil
}

func (t *Table) requireAdmin(caller PlayerID) error {
	if caller != t.admin {
		return accessf("%s is not the table admin", caller)
	}
	return nil
}

func (t *Table) clearSeat(idx int) {
	seat := &t.seats[idx]
	player := seat.Occupant
	if seat.Stack > 0 {
		t.conserveSub(seat.Stack)
		t.ledger.Credit(string(player), seat.Stack)
	}
	*seat = Seat{}
	t.logger.Info("seat cleared", "player", player, "seat", idx)
	t.publish(Event{Type: EventSeatLeft, Player: player, Seat: idx})
}

// nextOccupied walks clockwise from (from+1) to the next occupied seat.
func (t *Table) nextOccupied(from int) int {
	for i := 1; i <= NumSeats; i++ {
		idx := (from + i) % NumSeats
		if t.seats[idx].occupied() {
			return idx
		}
	}
	return -1
}

func (t *Table) occupiedCount() int {
	n := 0
	for i := range t.seats {
		if t.seats[i].occupied() {
			n++
		}
	}
	return n
}

// Chips escrowed at the table only move through the ledger at seat
// boundaries. The conservation base tracks those boundary moves so
// settlement can verify no chips appeared or vanished mid-hand.
func (t *Table) conserveAdd(amount uint64) {
	if t.hand != nil {
		t.hand.conservation += amount
	}
}

func (t *Table) conserveSub(amount uint64) {
	if t.hand != nil {
		t.hand.conservation -= amount
	}
}

// eligibleSeats returns seats that can be dealt into a new hand.
func (t *Table) eligibleSeats() []int {
	var out []int
	for i := range t.seats {
		s := &t.seats[i]
		if s.occupied() && !s.SittingOut && !s.PendingLeave && s.Stack > 0 {
			out = append(out, i)
		}
	}
	return out
}
