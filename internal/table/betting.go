package table

// bettingRound tracks who still owes a decision in the current street.
type bettingRound struct {
	// minRaise is the smallest legal raise increment, reset to the big
	// blind each street and bumped to the last full raise's size.
	minRaise uint64

	// acted marks seats that have had their say since the last full raise.
	acted map[int]bool

	// raiseBarred marks seats a short all-in has locked out of re-raising:
	// they may still call or fold, but the betting is not reopened for them.
	raiseBarred map[int]bool

	lastAggressor int
}

func newBettingRound(bigBlind uint64) *bettingRound {
	return &bettingRound{
		minRaise:      bigBlind,
		acted:         make(map[int]bool),
		raiseBarred:   make(map[int]bool),
		lastAggressor: -1,
	}
}

// Act applies a player's betting action. For ActionRaise, amount is the
// raise-to total for the street, not the increment. Out-of-turn actions
// are rejected without changing state.
func (t *Table) Act(player PlayerID, action Action, amount uint64) error {
	if t.halted {
		return conflictf("table halted")
	}
	h := t.hand
	if h == nil || !h.phase.betting() {
		return conflictf("no betting round in progress")
	}
	seat := t.seatOf(player)
	if seat == -1 {
		return accessf("player %s not seated", player)
	}
	if !h.participates(seat) {
		return sequencef("seat %d is not in this hand", seat)
	}
	if h.folded[seat] {
		return sequencef("seat %d has folded", seat)
	}
	if seat != h.actionSeat {
		return sequencef("seat %d acted out of turn, action is on seat %d", seat, h.actionSeat)
	}

	if err := t.checkAction(seat, action, amount); err != nil {
		return err
	}
	t.publish(Event{Type: EventActionTaken, Player: player, Seat: seat, Action: action, Amount: amount, HandID: h.id, Phase: h.phase})
	t.applyAction(seat, action, amount)
	return nil
}

// checkAction validates legality without mutating anything, so a rejected
// action leaves the hand exactly as it was.
func (t *Table) checkAction(seat int, action Action, amount uint64) error {
	h := t.hand
	owe := h.pot.CallAmount(seat)
	stack := t.seats[seat].Stack

	switch action {
	case ActionFold:
		return nil
	case ActionCheck:
		if owe > 0 {
			return invalidf("cannot check facing a bet of %d", owe)
		}
		return nil
	case ActionCall:
		if owe == 0 {
			return invalidf("nothing to call")
		}
		return nil
	case ActionRaise:
		if h.bet.raiseBarred[seat] {
			return sequencef("betting is not reopened for seat %d", seat)
		}
		if amount <= h.pot.RoundMax() {
			return invalidf("raise to %d must exceed the current bet of %d", amount, h.pot.RoundMax())
		}
		cur := h.pot.CurrentBet(seat)
		delta := amount - cur
		if delta > stack {
			return exhaustedf("raise to %d needs %d chips, stack has %d", amount, delta, stack)
		}
		if full := h.pot.RoundMax() + h.bet.minRaise; amount < full && delta < stack {
			return invalidf("raise to %d below the minimum of %d", amount, full)
		}
		return nil
	default:
		return invalidf("unknown action %d", action)
	}
}

// applyAction mutates hand state for a validated action and advances the
// turn, the street, or the whole hand as the action dictates.
func (t *Table) applyAction(seat int, action Action, amount uint64) {
	h := t.hand

	switch action {
	case ActionFold:
		h.folded[seat] = true
	case ActionCheck:
		// No chips move.
	case ActionCall:
		t.postBet(seat, h.pot.CallAmount(seat))
	case ActionRaise:
		before := h.pot.RoundMax()
		t.postBet(seat, amount-h.pot.CurrentBet(seat))
		if raisedTo := h.pot.RoundMax(); raisedTo >= before+h.bet.minRaise {
			// A full raise reopens the betting for everyone.
			h.bet.minRaise = raisedTo - before
			h.bet.acted = make(map[int]bool)
			h.bet.raiseBarred = make(map[int]bool)
			h.bet.lastAggressor = seat
		} else {
			// Short all-in: the seats that already acted may call the extra
			// chips but may not raise again.
			for s := range h.bet.acted {
				h.bet.raiseBarred[s] = true
			}
		}
	}
	h.bet.acted[seat] = true

	if live := h.liveSeats(); len(live) == 1 {
		t.settleFoldWin(live[0])
		return
	}
	if t.roundComplete() {
		t.advanceStreet()
		return
	}
	h.actionSeat = h.nextActable(seat)
	t.armDeadline(t.cfg.ActionTimeout)
}

// roundComplete reports whether the current street needs no further
// action: every live seat with chips behind has acted and matched the
// round maximum, or nobody is left to bet against.
func (t *Table) roundComplete() bool {
	h := t.hand
	actable := h.actableSeats()
	if len(actable) == 0 {
		return true
	}
	if len(actable) == 1 && h.pot.CallAmount(actable[0]) == 0 {
		return true
	}
	for _, s := range actable {
		if !h.bet.acted[s] || h.pot.CallAmount(s) > 0 {
			return false
		}
	}
	return true
}

// advanceStreet collects the closed round into pot layers and deals the
// next street, or runs the showdown after the river. When nobody can act
// the remaining streets run out back to back.
func (t *Table) advanceStreet() {
	h := t.hand
	h.pot.CollectRound(h.liveSet())

	if h.phase == PhaseRiver {
		t.showdown()
		return
	}

	if burnt, ok := h.cards.Burn(); ok {
		h.burnt = append(h.burnt, burnt)
	}
	switch h.phase {
	case PhasePreflop:
		h.community = append(h.community, h.cards.Deal(3)...)
		h.phase = PhaseFlop
	case PhaseFlop:
		h.community = append(h.community, h.cards.Deal(1)...)
		h.phase = PhaseTurn
	case PhaseTurn:
		h.community = append(h.community, h.cards.Deal(1)...)
		h.phase = PhaseRiver
	}
	t.publish(Event{Type: EventStreetAdvanced, HandID: h.id, Phase: h.phase, Community: h.communityCopy()})

	h.bet = newBettingRound(t.cfg.BigBlind)
	h.actionSeat = h.nextActable(t.button)
	t.armDeadline(t.cfg.ActionTimeout)

	if t.roundComplete() {
		t.advanceStreet()
	}
}

// CallAmount returns the chips the player must add to match the current
// bet. Zero means a check is available.
func (t *Table) CallAmount(player PlayerID) (uint64, error) {
	h := t.hand
	if h == nil || !h.phase.betting() {
		return 0, conflictf("no betting round in progress")
	}
	seat := t.seatOf(player)
	if seat == -1 {
		return 0, accessf("player %s not seated", player)
	}
	return h.pot.CallAmount(seat), nil
}

// MinRaiseTo returns the smallest raise-to total a full raise must reach.
func (t *Table) MinRaiseTo() (uint64, error) {
	h := t.hand
	if h == nil || !h.phase.betting() {
		return 0, conflictf("no betting round in progress")
	}
	return h.pot.RoundMax() + h.bet.minRaise, nil
}
