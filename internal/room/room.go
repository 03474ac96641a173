// Package room hosts many tables behind a single-writer actor per table.
// All table operations funnel through the owning actor's goroutine, so
// the table layer itself never needs locks, and deadline expiry runs on
// the same goroutine as player actions.
package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/fairdeal/holdem/internal/ledger"
	"github.com/fairdeal/holdem/internal/table"
)

var (
	ErrTableExists   = errors.New("table already exists")
	ErrTableNotFound = errors.New("table not found")
)

// Room owns a set of tables and the goroutines that serialize access to
// them.
type Room struct {
	ledger ledger.Ledger
	clock  quartz.Clock
	logger *log.Logger

	mu     sync.Mutex
	tables map[string]*actor

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Room.
type Option func(*Room)

// WithClock injects the clock shared by every table in the room.
func WithClock(c quartz.Clock) Option {
	return func(r *Room) { r.clock = c }
}

// WithLogger injects the structured logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Room) { r.logger = l }
}

// Open creates a running room. Close releases it.
func Open(ctx context.Context, l ledger.Ledger, opts ...Option) *Room {
	r := &Room{
		ledger: l,
		clock:  quartz.NewReal(),
		logger: log.Default().WithPrefix("room"),
		tables: make(map[string]*actor),
	}
	for _, opt := range opts {
		opt(r)
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.group, r.ctx = errgroup.WithContext(ctx)
	return r
}

// CreateTable creates a named table and starts its actor.
func (r *Room) CreateTable(name string, admin table.PlayerID, cfg table.Config, opts ...table.Option) error {
	base := []table.Option{
		table.WithClock(r.clock),
		table.WithLogger(r.logger.WithPrefix("table/" + name)),
	}
	tbl, err := table.New(admin, cfg, r.ledger, append(base, opts...)...)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrTableExists)
	}

	a := &actor{
		table: tbl,
		clock: r.clock,
		calls: make(chan call),
	}
	r.tables[name] = a
	r.group.Go(func() error {
		a.run(r.ctx)
		return nil
	})

	r.logger.Info("table created", "table", name, "admin", admin)
	return nil
}

// Do runs fn on the named table's actor goroutine and returns its error.
// fn must not retain the table beyond the call.
func (r *Room) Do(ctx context.Context, name string, fn func(*table.Table) error) error {
	r.mu.Lock()
	a, ok := r.tables[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrTableNotFound)
	}

	c := call{fn: fn, done: make(chan error, 1)}
	select {
	case a.calls <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tables returns the table names hosted by the room.
func (r *Room) Tables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	return names
}

// Close stops every actor and waits for them to drain.
func (r *Room) Close() error {
	r.cancel()
	return r.group.Wait()
}

type call struct {
	fn   func(*table.Table) error
	done chan error
}

// actor serializes all access to one table.
type actor struct {
	table *table.Table
	clock quartz.Clock
	calls chan call
}

func (a *actor) run(ctx context.Context) {
	timer := a.clock.NewTimer(time.Hour)
	timer.Stop()

	for {
		a.rearm(timer)
		select {
		case <-ctx.Done():
			return
		case c := <-a.calls:
			c.done <- c.fn(a.table)
		case <-timer.C:
			a.table.ExpireDeadlines()
		}
	}
}

// rearm points the wakeup timer at the table's next deadline, if any. A
// stale fire is harmless: expiry is a no-op before the deadline.
func (a *actor) rearm(timer *quartz.Timer) {
	deadline := a.table.Deadline()
	if deadline.IsZero() {
		timer.Stop()
		return
	}
	d := deadline.Sub(a.clock.Now())
	if d < 0 {
		d = 0
	}
	timer.Reset(d)
}
