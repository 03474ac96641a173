package table

import (
	"errors"
	"fmt"
)

// Error kinds. Operations fail atomically: a returned error means the
// table and hand state are exactly as they were before the call. Callers
// classify failures with errors.Is.
var (
	// ErrAccessControl covers callers lacking the required role (admin,
	// occupant, fee collector).
	ErrAccessControl = errors.New("access denied")

	// ErrStateConflict covers operations colliding with current state:
	// occupied seats, duplicate commits, paused or halted tables.
	ErrStateConflict = errors.New("state conflict")

	// ErrValueValidation covers malformed parameters: zero blinds,
	// inverted buy-in bounds, out-of-range amounts, bad secret sizes.
	ErrValueValidation = errors.New("invalid value")

	// ErrSequenceViolation covers operations arriving out of order:
	// acting out of turn, revealing before committing, betting after a fold.
	ErrSequenceViolation = errors.New("out of sequence")

	// ErrResourceExhaustion covers insufficient stack or ledger balance.
	ErrResourceExhaustion = errors.New("insufficient resources")
)

func accessf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrAccessControl)...)
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrStateConflict)...)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValueValidation)...)
}

func sequencef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrSequenceViolation)...)
}

func exhaustedf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrResourceExhaustion)...)
}
