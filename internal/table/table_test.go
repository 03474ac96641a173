package table

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairdeal/holdem/internal/ledger"
	"github.com/fairdeal/holdem/internal/shuffle"
)

func testConfig() Config {
	return Config{
		SmallBlind:   10,
		BigBlind:     20,
		MinBuyIn:     100,
		MaxBuyIn:     100000,
		FeeCollector: "house",
	}
}

// newTestTable builds a table with a mock clock, a silent logger, and an
// event recorder, and seats the given players in order with buyIn each.
func newTestTable(t *testing.T, cfg Config, buyIn uint64, players ...PlayerID) (*Table, *ledger.MemLedger, *quartz.Mock, *SliceSink) {
	t.Helper()

	l := ledger.NewMemLedger()
	clock := quartz.NewMock(t)
	sink := &SliceSink{}

	tbl, err := New("admin", cfg, l,
		WithClock(clock),
		WithLogger(log.New(io.Discard)),
		WithEventSink(sink),
	)
	require.NoError(t, err)

	for i, p := range players {
		l.Credit(string(p), buyIn)
		require.NoError(t, tbl.Join(p, i, buyIn))
	}
	return tbl, l, clock, sink
}

// runShuffle commits and reveals a deterministic secret for each player
// and returns the secrets for later unmasking.
func runShuffle(t *testing.T, tbl *Table, players ...PlayerID) map[PlayerID][]byte {
	t.Helper()

	secrets := make(map[PlayerID][]byte)
	for i, p := range players {
		secrets[p] = bytes.Repeat([]byte{byte(i + 1)}, shuffle.MinSecretSize)
		require.NoError(t, tbl.CommitSecret(p, shuffle.CommitmentFor(secrets[p])))
	}
	for _, p := range players {
		require.NoError(t, tbl.RevealSecret(p, secrets[p]))
	}
	return secrets
}

func stackTotal(tbl *Table) uint64 {
	var sum uint64
	for _, s := range tbl.Seats() {
		sum += s.Stack
	}
	return sum
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	l := ledger.NewMemLedger()
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"zero small blind", func(c *Config) { c.SmallBlind = 0 }},
		{"small not below big", func(c *Config) { c.SmallBlind = c.BigBlind }},
		{"zero min buy-in", func(c *Config) { c.MinBuyIn = 0 }},
		{"max below min", func(c *Config) { c.MaxBuyIn = c.MinBuyIn - 1 }},
		{"fee over 10000 bps", func(c *Config) { c.FeeBps = 10001 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mut(&cfg)
			_, err := New("admin", cfg, l)
			require.ErrorIs(t, err, ErrValueValidation)
		})
	}

	_, err := New("", testConfig(), l)
	require.ErrorIs(t, err, ErrValueValidation)
}

func TestJoinLeaveTopUp(t *testing.T) {
	t.Parallel()

	tbl, l, _, _ := newTestTable(t, testConfig(), 1000, "alice")
	assert.Equal(t, uint64(0), l.Balance("alice"))

	l.Credit("bob", 50)
	err := tbl.Join("bob", 1, 50)
	require.ErrorIs(t, err, ErrValueValidation, "buy-in below minimum")

	l.Credit("bob", 450)
	err = tbl.Join("bob", 0, 500)
	require.ErrorIs(t, err, ErrStateConflict, "seat taken")
	err = tbl.Join("alice", 1, 500)
	require.ErrorIs(t, err, ErrStateConflict, "already seated")
	require.NoError(t, tbl.Join("bob", 1, 500))

	err = tbl.Join("carol", 2, 500)
	require.ErrorIs(t, err, ErrResourceExhaustion, "no ledger funds")

	err = tbl.TopUp("bob", 0)
	require.ErrorIs(t, err, ErrValueValidation)
	l.Credit("bob", 200)
	require.NoError(t, tbl.TopUp("bob", 200))
	seat, err := tbl.Seat(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), seat.Stack)

	require.NoError(t, tbl.Leave("bob"))
	assert.Equal(t, uint64(700), l.Balance("bob"))
	seat, err = tbl.Seat(1)
	require.NoError(t, err)
	assert.Equal(t, PlayerID(""), seat.Occupant, "seat should be vacant")

	err = tbl.Leave("bob")
	require.ErrorIs(t, err, ErrAccessControl)
}

func TestAdminPermissions(t *testing.T) {
	t.Parallel()

	tbl, _, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob")

	require.ErrorIs(t, tbl.Pause("alice"), ErrAccessControl)
	require.ErrorIs(t, tbl.Kick("alice", "bob"), ErrAccessControl)
	require.ErrorIs(t, tbl.UpdateBlinds("alice", 5, 10), ErrAccessControl)

	require.NoError(t, tbl.Pause("admin"))
	require.ErrorIs(t, tbl.Pause("admin"), ErrStateConflict)
	require.ErrorIs(t, tbl.StartHand(), ErrStateConflict)
	require.ErrorIs(t, tbl.Join("carol", 2, 500), ErrStateConflict)
	require.NoError(t, tbl.Resume("admin"))

	require.NoError(t, tbl.UpdateBlinds("admin", 25, 50))
	require.ErrorIs(t, tbl.UpdateBlinds("admin", 50, 50), ErrValueValidation)
	require.NoError(t, tbl.UpdateBuyInLimits("admin", 200, 2000))
	require.ErrorIs(t, tbl.UpdateBuyInLimits("admin", 0, 100), ErrValueValidation)

	require.NoError(t, tbl.TransferOwnership("admin", "alice"))
	require.ErrorIs(t, tbl.Pause("admin"), ErrAccessControl)
	require.NoError(t, tbl.Pause("alice"))
}

func TestStartHandRequiresTwoSeats(t *testing.T) {
	t.Parallel()

	tbl, _, _, _ := newTestTable(t, testConfig(), 1000, "alice")
	require.ErrorIs(t, tbl.StartHand(), ErrStateConflict)

	tbl2, _, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob")
	require.NoError(t, tbl2.SitOut("bob"))
	require.ErrorIs(t, tbl2.StartHand(), ErrStateConflict)
}

func TestHeadsUpOrdering(t *testing.T) {
	t.Parallel()

	tbl, _, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob")
	require.NoError(t, tbl.StartHand())

	sb, bb, err := tbl.Positions()
	require.NoError(t, err)
	assert.Equal(t, tbl.Button(), sb, "heads-up button posts the small blind")
	assert.Equal(t, 1, bb)

	runShuffle(t, tbl, "alice", "bob")
	require.Equal(t, PhasePreflop, tbl.Phase())
	assert.Equal(t, tbl.Button(), tbl.ActionSeat(), "heads-up button acts first preflop")

	require.NoError(t, tbl.Act("alice", ActionCall, 0))
	require.NoError(t, tbl.Act("bob", ActionCheck, 0))

	require.Equal(t, PhaseFlop, tbl.Phase())
	assert.Len(t, tbl.Community(), 3)
	assert.Equal(t, 1, tbl.ActionSeat(), "non-button acts first postflop")
}

func TestFoldWin(t *testing.T) {
	t.Parallel()

	tbl, _, _, sink := newTestTable(t, testConfig(), 1000, "alice", "bob", "carol")
	require.NoError(t, tbl.StartHand())
	runShuffle(t, tbl, "alice", "bob", "carol")

	// Button 0, blinds on 1 and 2, so action opens on the button.
	require.Equal(t, 0, tbl.ActionSeat())
	require.NoError(t, tbl.Act("alice", ActionFold, 0))
	require.NoError(t, tbl.Act("bob", ActionFold, 0))

	assert.Equal(t, PhaseJoining, tbl.Phase())
	assert.Equal(t, uint64(1), tbl.HandNumber())
	assert.Equal(t, 1, tbl.Button(), "button advances after settlement")

	seats := tbl.Seats()
	assert.Equal(t, uint64(1000), seats[0].Stack)
	assert.Equal(t, uint64(990), seats[1].Stack, "small blind forfeited")
	assert.Equal(t, uint64(1010), seats[2].Stack, "big blind takes the pot unshown")

	var settled bool
	for _, e := range sink.Events {
		if e.Type == EventHandSettled {
			settled = true
		}
	}
	assert.True(t, settled)
}

func TestFullHandConservesChips(t *testing.T) {
	t.Parallel()

	tbl, _, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob", "carol")
	require.NoError(t, tbl.StartHand())
	runShuffle(t, tbl, "alice", "bob", "carol")

	require.NoError(t, tbl.Act("alice", ActionCall, 0))
	require.NoError(t, tbl.Act("bob", ActionCall, 0))
	require.NoError(t, tbl.Act("carol", ActionCheck, 0))
	require.Equal(t, PhaseFlop, tbl.Phase())

	for _, phase := range []Phase{PhaseTurn, PhaseRiver, PhaseJoining} {
		require.NoError(t, tbl.Act("bob", ActionCheck, 0))
		require.NoError(t, tbl.Act("carol", ActionCheck, 0))
		require.NoError(t, tbl.Act("alice", ActionCheck, 0))
		require.Equal(t, phase, tbl.Phase())
	}

	assert.False(t, tbl.Halted())
	assert.Equal(t, uint64(0), tbl.PotTotal())
	assert.Equal(t, uint64(3000), stackTotal(tbl), "chips neither created nor destroyed")
	assert.Equal(t, uint64(1), tbl.HandNumber())
}

func TestBettingLegality(t *testing.T) {
	t.Parallel()

	tbl, _, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob", "carol")
	require.NoError(t, tbl.StartHand())
	runShuffle(t, tbl, "alice", "bob", "carol")

	require.ErrorIs(t, tbl.Act("bob", ActionFold, 0), ErrSequenceViolation, "out of turn")
	require.ErrorIs(t, tbl.Act("alice", ActionCheck, 0), ErrValueValidation, "cannot check facing the blind")
	require.ErrorIs(t, tbl.Act("alice", ActionRaise, 30), ErrValueValidation, "below min raise")
	require.ErrorIs(t, tbl.Act("alice", ActionRaise, 5000), ErrResourceExhaustion)

	minTo, err := tbl.MinRaiseTo()
	require.NoError(t, err)
	assert.Equal(t, uint64(40), minTo)

	require.NoError(t, tbl.Act("alice", ActionRaise, 60))
	minTo, err = tbl.MinRaiseTo()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), minTo, "full raise bumps the increment")

	owe, err := tbl.CallAmount("bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(50), owe)
	require.ErrorIs(t, tbl.Act("bob", ActionCheck, 0), ErrValueValidation)
	require.NoError(t, tbl.Act("bob", ActionCall, 0))
	require.NoError(t, tbl.Act("carol", ActionFold, 0))
	require.ErrorIs(t, tbl.Act("carol", ActionCall, 0), ErrSequenceViolation, "folded seat cannot act")
}

func TestShortAllInDoesNotReopen(t *testing.T) {
	t.Parallel()

	tbl, l, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob")
	l.Credit("carol", 75)
	require.NoError(t, tbl.UpdateBuyInLimits("admin", 50, 100000))
	require.NoError(t, tbl.Join("carol", 2, 75))

	require.NoError(t, tbl.StartHand())
	runShuffle(t, tbl, "alice", "bob", "carol")

	// Carol is the big blind with 55 behind. Alice raises to 60, Bob
	// calls, and Carol shoves 75 total, 15 short of a full raise.
	require.NoError(t, tbl.Act("alice", ActionRaise, 60))
	require.NoError(t, tbl.Act("bob", ActionCall, 0))
	require.NoError(t, tbl.Act("carol", ActionRaise, 75))

	minTo, err := tbl.MinRaiseTo()
	require.NoError(t, err)
	assert.Equal(t, uint64(115), minTo, "short all-in leaves the raise increment alone")

	require.ErrorIs(t, tbl.Act("alice", ActionRaise, 200), ErrSequenceViolation,
		"short all-in does not reopen the betting")
	require.NoError(t, tbl.Act("alice", ActionCall, 0))
	require.ErrorIs(t, tbl.Act("bob", ActionRaise, 200), ErrSequenceViolation)
	require.NoError(t, tbl.Act("bob", ActionCall, 0))

	require.Equal(t, PhaseFlop, tbl.Phase())
}

func TestFeeCarriesFractionsForward(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.FeeBps = 50
	cfg.MinBuyIn = 100
	tbl, l, _, _ := newTestTable(t, cfg, 5000, "alice", "bob")

	// Heads-up, the small blind folds preflop, so each pot is exactly one
	// small plus one big blind.
	blinds := []struct{ sb, bb, pot, fee uint64 }{
		{24, 48, 72, 0},
		{36, 72, 108, 0},
		{27, 53, 80, 1},
		{33, 67, 100, 0},
	}
	var collected uint64
	for _, step := range blinds {
		require.NoError(t, tbl.UpdateBlinds("admin", step.sb, step.bb))
		require.NoError(t, tbl.StartHand())
		runShuffle(t, tbl, "alice", "bob")

		sbSeat, _, err := tbl.Positions()
		require.NoError(t, err)
		folder := tbl.Seats()[sbSeat].Occupant
		require.NoError(t, tbl.Act(folder, ActionFold, 0))

		got := l.Balance("house") - collected
		assert.Equal(t, step.fee, got, "fee for pot of %d", step.pot)
		collected = l.Balance("house")
	}

	assert.Equal(t, uint64(1), l.Balance("house"))
	assert.Equal(t, uint64(8000), tbl.FeeAccumulator(), "fractional carry in bps-chips")
	assert.Equal(t, uint64(10000)-1, stackTotal(tbl), "stacks short exactly the skimmed fee")
}

func TestCommitTimeoutDropsStragglers(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.CommitTimeout = 30 * time.Second
	tbl, _, clock, _ := newTestTable(t, cfg, 1000, "alice", "bob", "carol")
	require.NoError(t, tbl.StartHand())

	secA := bytes.Repeat([]byte{1}, shuffle.MinSecretSize)
	secB := bytes.Repeat([]byte{2}, shuffle.MinSecretSize)
	require.NoError(t, tbl.CommitSecret("alice", shuffle.CommitmentFor(secA)))
	require.NoError(t, tbl.CommitSecret("bob", shuffle.CommitmentFor(secB)))

	assert.False(t, tbl.ExpireDeadlines(), "deadline not reached yet")
	clock.Advance(31 * time.Second)
	assert.True(t, tbl.ExpireDeadlines())

	require.Equal(t, PhaseReveal, tbl.Phase())
	assert.True(t, tbl.Seats()[2].SittingOut, "straggler sat out")

	require.NoError(t, tbl.RevealSecret("alice", secA))
	require.NoError(t, tbl.RevealSecret("bob", secB))
	require.Equal(t, PhasePreflop, tbl.Phase())
}

func TestRevealTimeoutVoidsHand(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RevealTimeout = 30 * time.Second
	tbl, _, clock, sink := newTestTable(t, cfg, 1000, "alice", "bob")
	require.NoError(t, tbl.StartHand())

	secA := bytes.Repeat([]byte{1}, shuffle.MinSecretSize)
	secB := bytes.Repeat([]byte{2}, shuffle.MinSecretSize)
	require.NoError(t, tbl.CommitSecret("alice", shuffle.CommitmentFor(secA)))
	require.NoError(t, tbl.CommitSecret("bob", shuffle.CommitmentFor(secB)))
	require.Equal(t, PhaseReveal, tbl.Phase())

	clock.Advance(31 * time.Second)
	require.True(t, tbl.ExpireDeadlines())

	assert.Equal(t, PhaseJoining, tbl.Phase())
	assert.Equal(t, uint64(0), tbl.HandNumber())
	assert.Equal(t, uint64(1000), tbl.Seats()[0].Stack, "blinds returned on void")
	assert.Equal(t, uint64(1000), tbl.Seats()[1].Stack)

	var voided bool
	for _, e := range sink.Events {
		if e.Type == EventHandVoided {
			voided = true
		}
	}
	assert.True(t, voided)
}

func TestActionTimeoutChecksOrFolds(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ActionTimeout = 15 * time.Second
	tbl, _, clock, _ := newTestTable(t, cfg, 1000, "alice", "bob", "carol")
	require.NoError(t, tbl.StartHand())
	runShuffle(t, tbl, "alice", "bob", "carol")

	// Alice faces the blind, so her timeout folds her.
	require.Equal(t, 0, tbl.ActionSeat())
	clock.Advance(16 * time.Second)
	require.True(t, tbl.ExpireDeadlines())
	assert.Equal(t, 1, tbl.ActionSeat())

	require.NoError(t, tbl.Act("bob", ActionCall, 0))

	// Carol can check, so her timeout checks for her and closes the round.
	clock.Advance(16 * time.Second)
	require.True(t, tbl.ExpireDeadlines())
	assert.Equal(t, PhaseFlop, tbl.Phase())
}

func TestMissedBlindDebt(t *testing.T) {
	t.Parallel()

	tbl, _, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob", "carol")
	require.NoError(t, tbl.SitOut("bob"))

	// Heads-up hand between alice and carol walks the blinds past bob.
	require.NoError(t, tbl.StartHand())
	runShuffle(t, tbl, "alice", "carol")
	sbSeat, _, err := tbl.Positions()
	require.NoError(t, err)
	require.NoError(t, tbl.Act(tbl.Seats()[sbSeat].Occupant, ActionFold, 0))

	assert.Equal(t, uint64(20), tbl.Seats()[1].MissedBlindDebt)

	require.NoError(t, tbl.SitIn("bob"))
	require.NoError(t, tbl.StartHand())

	seat, err := tbl.Seat(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seat.MissedBlindDebt, "debt collected at deal-in")
	assert.Equal(t, uint64(980), seat.Stack, "one big blind of debt posted dead")
}

func TestStraddle(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.StraddleEnabled = true
	tbl, _, _, _ := newTestTable(t, cfg, 1000, "alice", "bob", "carol", "dave")
	require.NoError(t, tbl.StartHand())

	// Button 0, blinds 1 and 2; the straddle belongs to seat 3.
	require.ErrorIs(t, tbl.Straddle("alice"), ErrSequenceViolation)
	require.NoError(t, tbl.Straddle("dave"))
	require.ErrorIs(t, tbl.Straddle("dave"), ErrStateConflict)
	assert.Equal(t, uint64(70), tbl.PotTotal())

	runShuffle(t, tbl, "alice", "bob", "carol", "dave")
	assert.Equal(t, 0, tbl.ActionSeat(), "action opens after the straddler")

	owe, err := tbl.CallAmount("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(40), owe)

	minTo, err := tbl.MinRaiseTo()
	require.NoError(t, err)
	assert.Equal(t, uint64(60), minTo, "straddle does not grow the raise increment")
}

func TestStraddleDisabled(t *testing.T) {
	t.Parallel()

	tbl, _, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob", "carol")
	require.NoError(t, tbl.StartHand())
	require.ErrorIs(t, tbl.Straddle("alice"), ErrStateConflict)
}

func TestKickDuringHand(t *testing.T) {
	t.Parallel()

	tbl, l, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob", "carol")
	require.NoError(t, tbl.StartHand())
	runShuffle(t, tbl, "alice", "bob", "carol")

	require.NoError(t, tbl.Act("alice", ActionCall, 0))
	require.NoError(t, tbl.Kick("admin", "bob"))
	assert.Equal(t, uint64(990), l.Balance("bob"), "stack returned, posted blind stays")

	// Hand plays on between the remaining two seats.
	require.NoError(t, tbl.Act("carol", ActionCheck, 0))
	require.Equal(t, PhaseFlop, tbl.Phase())
	for tbl.Phase() != PhaseJoining {
		require.NoError(t, tbl.Act("carol", ActionCheck, 0))
		require.NoError(t, tbl.Act("alice", ActionCheck, 0))
	}

	assert.False(t, tbl.Halted(), "boundary-adjusted conservation holds")
	assert.Equal(t, uint64(2010), stackTotal(tbl), "pot includes bob's forfeited blind")
}

func TestKickTopBettorKeepsChips(t *testing.T) {
	t.Parallel()

	tbl, l, _, _ := newTestTable(t, testConfig(), 1000, "alice")
	require.NoError(t, tbl.UpdateBuyInLimits("admin", 50, 100000))
	l.Credit("bob", 150)
	require.NoError(t, tbl.Join("bob", 1, 150))
	l.Credit("carol", 90)
	require.NoError(t, tbl.Join("carol", 2, 90))

	require.NoError(t, tbl.StartHand())
	runShuffle(t, tbl, "alice", "bob", "carol")

	// Alice raises far beyond what the short stacks can cover, then gets
	// kicked. Her uncovered 250 must stay in the pot, not evaporate.
	require.NoError(t, tbl.Act("alice", ActionRaise, 400))
	require.NoError(t, tbl.Kick("admin", "alice"))
	assert.Equal(t, uint64(600), l.Balance("alice"), "stack behind returned, bet forfeited")

	require.NoError(t, tbl.Act("bob", ActionCall, 0))
	require.NoError(t, tbl.Act("carol", ActionCall, 0))

	require.Equal(t, PhaseJoining, tbl.Phase(), "all-in hand runs out to settlement")
	assert.False(t, tbl.Halted(), "conservation holds with the forfeited excess collected")
	assert.Equal(t, uint64(640), stackTotal(tbl), "pot keeps every forfeited chip")
	assert.GreaterOrEqual(t, tbl.Seats()[1].Stack, uint64(370),
		"sole eligible seat of the top layer takes the forfeited excess")
	assert.Equal(t, uint64(1), tbl.HandNumber())
}

func TestCommitTimeoutForfeitsBigBlindExcess(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.CommitTimeout = 30 * time.Second
	tbl, l, clock, _ := newTestTable(t, cfg, 0)
	require.NoError(t, tbl.UpdateBuyInLimits("admin", 10, 100000))

	// Survivors are shorter than the big blind the straggler posted.
	for seat, p := range []struct {
		player PlayerID
		buyIn  uint64
	}{
		{"alice", 12},
		{"bob", 15},
		{"carol", 1000},
	} {
		l.Credit(string(p.player), p.buyIn)
		require.NoError(t, tbl.Join(p.player, seat, p.buyIn))
	}

	require.NoError(t, tbl.StartHand())
	sec := bytes.Repeat([]byte{7}, shuffle.MinSecretSize)
	require.NoError(t, tbl.CommitSecret("alice", shuffle.CommitmentFor(sec)))
	require.NoError(t, tbl.CommitSecret("bob", shuffle.CommitmentFor(sec)))
	clock.Advance(31 * time.Second)
	require.True(t, tbl.ExpireDeadlines())

	require.NoError(t, tbl.RevealSecret("alice", sec))
	require.NoError(t, tbl.RevealSecret("bob", sec))
	require.NoError(t, tbl.Act("alice", ActionCall, 0))
	require.NoError(t, tbl.Act("bob", ActionCall, 0))

	require.Equal(t, PhaseJoining, tbl.Phase())
	assert.False(t, tbl.Halted())
	assert.Equal(t, uint64(980), tbl.Seats()[2].Stack, "blind forfeited, stack behind untouched")
	assert.Equal(t, uint64(1027), stackTotal(tbl), "uncovered slice of the blind stays in the pot")
}

func TestHaltedTableRefusesChips(t *testing.T) {
	t.Parallel()

	tbl, l, _, _ := newTestTable(t, testConfig(), 1000, "alice")
	tbl.halted = true

	l.Credit("alice", 100)
	require.ErrorIs(t, tbl.TopUp("alice", 100), ErrStateConflict)
	require.ErrorIs(t, tbl.Join("bob", 1, 500), ErrStateConflict)
	require.ErrorIs(t, tbl.StartHand(), ErrStateConflict)

	// Escrowed chips are never trapped.
	require.NoError(t, tbl.Leave("alice"))
	assert.Equal(t, uint64(1100), l.Balance("alice"))
}

func TestMaskedHoleRoundTrip(t *testing.T) {
	t.Parallel()

	tbl, _, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob")
	require.NoError(t, tbl.StartHand())
	secrets := runShuffle(t, tbl, "alice", "bob")

	for i, p := range []PlayerID{"alice", "bob"} {
		hole, err := tbl.HoleCards(p)
		require.NoError(t, err)
		masked, err := tbl.MaskedHole(i)
		require.NoError(t, err)
		assert.Equal(t, hole, shuffle.UnmaskHole(masked, secrets[p]))
	}

	_, err := tbl.HoleCards("mallory")
	require.ErrorIs(t, err, ErrAccessControl)
}

func TestLeaveAfterHandDefers(t *testing.T) {
	t.Parallel()

	tbl, l, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob", "carol")
	require.NoError(t, tbl.StartHand())
	runShuffle(t, tbl, "alice", "bob", "carol")

	require.ErrorIs(t, tbl.Leave("alice"), ErrStateConflict, "mid-hand leave must be deferred")
	require.NoError(t, tbl.LeaveAfterHand("alice"))

	require.NoError(t, tbl.Act("alice", ActionFold, 0))
	assert.Equal(t, PlayerID("alice"), tbl.Seats()[0].Occupant, "still seated until settlement")

	require.NoError(t, tbl.Act("bob", ActionFold, 0))
	require.Equal(t, PhaseJoining, tbl.Phase())
	assert.Equal(t, PlayerID(""), tbl.Seats()[0].Occupant)
	assert.Equal(t, uint64(1000), l.Balance("alice"))
}

func TestCloseRequiresEmptySeats(t *testing.T) {
	t.Parallel()

	tbl, l, _, _ := newTestTable(t, testConfig(), 1000, "alice")
	require.ErrorIs(t, tbl.Close("admin"), ErrStateConflict)

	require.NoError(t, tbl.Leave("alice"))
	require.NoError(t, tbl.Close("admin"))
	assert.True(t, tbl.Halted())
	assert.Equal(t, uint64(1000), l.Balance("alice"))
}

func TestShuffleErrorsMapToKinds(t *testing.T) {
	t.Parallel()

	tbl, _, _, _ := newTestTable(t, testConfig(), 1000, "alice", "bob")
	require.NoError(t, tbl.StartHand())

	sec := bytes.Repeat([]byte{9}, shuffle.MinSecretSize)
	commit := shuffle.CommitmentFor(sec)
	require.NoError(t, tbl.CommitSecret("alice", commit))
	require.ErrorIs(t, tbl.CommitSecret("alice", commit), ErrStateConflict)
	require.ErrorIs(t, tbl.RevealSecret("alice", sec), ErrStateConflict, "reveal before commit phase")

	require.NoError(t, tbl.CommitSecret("bob", shuffle.CommitmentFor(sec)))
	require.Equal(t, PhaseReveal, tbl.Phase())
	require.ErrorIs(t, tbl.RevealSecret("alice", bytes.Repeat([]byte{8}, shuffle.MinSecretSize)), ErrValueValidation)
	require.ErrorIs(t, tbl.RevealSecret("alice", []byte("short")), ErrValueValidation)
	require.NoError(t, tbl.RevealSecret("alice", sec))
	require.NoError(t, tbl.RevealSecret("bob", sec))
	require.Equal(t, PhasePreflop, tbl.Phase())
}
