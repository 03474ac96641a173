package main

import (
	"crypto/rand"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/fairdeal/holdem/internal/config"
	"github.com/fairdeal/holdem/internal/ledger"
	"github.com/fairdeal/holdem/internal/shuffle"
	"github.com/fairdeal/holdem/internal/table"
)

type SimulateCmd struct {
	Config  string `short:"c" default:"fairdeal.hcl" help:"Room configuration file"`
	Table   string `default:"main" help:"Table to simulate"`
	Players int    `short:"p" default:"3" help:"Number of seats to fill (2-5)"`
	Hands   int    `short:"n" default:"10" help:"Number of hands to play"`
	Verbose bool   `help:"Log every table event"`
}

// Run plays scripted hands: every seat commits and reveals a random
// secret, then calls or checks to showdown. It exercises the full hand
// loop against an in-memory ledger and prints the resulting stacks.
func (c *SimulateCmd) Run() error {
	if c.Players < 2 || c.Players > table.NumSeats {
		return fmt.Errorf("players must be between 2 and %d", table.NumSeats)
	}

	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	tc := cfg.TableByName(c.Table)
	if tc == nil {
		return fmt.Errorf("table %q not in configuration", c.Table)
	}

	logger := log.Default().WithPrefix("simulate")
	if lvl, err := log.ParseLevel(cfg.Room.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	l := ledger.NewMemLedger()
	tableCfg := tc.TableConfig(cfg.Room.FeeCollector)
	// Deadlines are pointless when every seat is scripted.
	tableCfg.CommitTimeout = 0
	tableCfg.RevealTimeout = 0
	tableCfg.ActionTimeout = 0

	opts := []table.Option{table.WithLogger(logger)}
	if c.Verbose {
		opts = append(opts, table.WithEventSink(logSink{logger}))
	}
	tbl, err := table.New(table.PlayerID(tc.Admin), tableCfg, l, opts...)
	if err != nil {
		return err
	}

	buyIn := tableCfg.MaxBuyIn
	players := make([]table.PlayerID, c.Players)
	for i := range players {
		players[i] = table.PlayerID(fmt.Sprintf("bot%d", i+1))
		l.Credit(string(players[i]), buyIn)
		if err := tbl.Join(players[i], i, buyIn); err != nil {
			return err
		}
	}

	for hand := 0; hand < c.Hands; hand++ {
		if err := playHand(tbl, players); err != nil {
			return fmt.Errorf("hand %d: %w", hand+1, err)
		}
	}

	fmt.Printf("hands played: %d\n", tbl.HandNumber())
	for i, p := range players {
		seat, err := tbl.Seat(i)
		if err != nil {
			return err
		}
		delta := int64(seat.Stack) - int64(buyIn)
		fmt.Printf("%-6s seat %d stack %8d (%+d)\n", p, i, seat.Stack, delta)
	}
	fmt.Printf("fees collected: %d (carry %d bps-chips)\n",
		l.Balance(cfg.Room.FeeCollector), tbl.FeeAccumulator())
	return nil
}

func playHand(tbl *table.Table, players []table.PlayerID) error {
	// Busted seats are not dealt in and must not commit.
	var active []table.PlayerID
	for i, p := range players {
		seat, err := tbl.Seat(i)
		if err != nil {
			return err
		}
		if seat.Stack > 0 {
			active = append(active, p)
		}
	}

	if err := tbl.StartHand(); err != nil {
		return err
	}

	secrets := make(map[table.PlayerID][]byte)
	for _, p := range active {
		secret := make([]byte, shuffle.MaxSecretSize)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		secrets[p] = secret
		if err := tbl.CommitSecret(p, shuffle.CommitmentFor(secret)); err != nil {
			return err
		}
	}
	for _, p := range active {
		if err := tbl.RevealSecret(p, secrets[p]); err != nil {
			return err
		}
	}

	// Call-or-check bots: every hand reaches showdown.
	for tbl.ActionSeat() != -1 {
		seat, err := tbl.Seat(tbl.ActionSeat())
		if err != nil {
			return err
		}
		owe, err := tbl.CallAmount(seat.Occupant)
		if err != nil {
			return err
		}
		action := table.ActionCheck
		if owe > 0 {
			action = table.ActionCall
		}
		if err := tbl.Act(seat.Occupant, action, 0); err != nil {
			return err
		}
	}

	if tbl.Phase() != table.PhaseJoining {
		return fmt.Errorf("hand stalled in phase %s", tbl.Phase())
	}
	return nil
}

// logSink forwards table events to the logger.
type logSink struct {
	logger *log.Logger
}

func (s logSink) Publish(e table.Event) {
	s.logger.Info(string(e.Type),
		"player", e.Player, "seat", e.Seat, "amount", e.Amount, "phase", e.Phase)
}
