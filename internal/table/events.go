package table

import (
	"time"

	"github.com/fairdeal/holdem/internal/deck"
	"github.com/fairdeal/holdem/internal/pot"
)

// EventType identifies a table state transition for observers.
type EventType string

const (
	EventTableCreated      EventType = "table_created"
	EventSeatJoined        EventType = "seat_joined"
	EventSeatLeft          EventType = "seat_left"
	EventSeatToppedUp      EventType = "seat_topped_up"
	EventSeatSatOut        EventType = "seat_sat_out"
	EventSeatSatIn         EventType = "seat_sat_in"
	EventLeaveQueued       EventType = "leave_queued"
	EventSeatKicked        EventType = "seat_kicked"
	EventTablePaused       EventType = "table_paused"
	EventTableResumed      EventType = "table_resumed"
	EventBlindsUpdated     EventType = "blinds_updated"
	EventBuyInUpdated      EventType = "buy_in_updated"
	EventOwnerChanged      EventType = "owner_changed"
	EventHandStarted       EventType = "hand_started"
	EventBlindsPosted      EventType = "blinds_posted"
	EventStraddlePosted    EventType = "straddle_posted"
	EventSecretCommitted   EventType = "secret_committed"
	EventRevealStarted     EventType = "reveal_started"
	EventSecretRevealed    EventType = "secret_revealed"
	EventDeckShuffled      EventType = "deck_shuffled"
	EventHoleCardsDealt    EventType = "hole_cards_dealt"
	EventActionTaken       EventType = "action_taken"
	EventTimeoutAction     EventType = "timeout_action"
	EventStreetAdvanced    EventType = "street_advanced"
	EventShowdownReached   EventType = "showdown_reached"
	EventPotAwarded        EventType = "pot_awarded"
	EventFeeCollected      EventType = "fee_collected"
	EventHandSettled       EventType = "hand_settled"
	EventHandVoided        EventType = "hand_voided"
	EventTableHalted       EventType = "table_halted"
)

// Event is a structured record of one state transition.
type Event struct {
	Type      EventType
	Timestamp time.Time

	// Set where meaningful for the event type.
	Player    PlayerID
	Seat      int
	Amount    uint64
	Phase     Phase
	Action    Action
	HandID    string
	Community []deck.Card
	Payouts   []pot.Payout
	Detail    string
}

// EventSink receives events as they are published. Implementations must
// not call back into the table.
type EventSink interface {
	Publish(Event)
}

// NopSink discards all events.
type NopSink struct{}

// Publish implements EventSink.
func (NopSink) Publish(Event) {}

// SliceSink collects events in order, for tests and replay tooling.
type SliceSink struct {
	Events []Event
}

// Publish implements EventSink.
func (s *SliceSink) Publish(e Event) {
	s.Events = append(s.Events, e)
}

func (t *Table) publish(e Event) {
	e.Timestamp = t.clock.Now()
	t.events.Publish(e)
}
