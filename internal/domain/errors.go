package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Ledger errors
	ErrConflict       = errors.New("gamification state version conflict")
	ErrRetryExhausted = errors.New("credit retry attempts exhausted")
	ErrStateNotFound  = errors.New("gamification state not found")

	// Challenge errors
	ErrChallengeNotFound  = errors.New("challenge not found in today's set")
	ErrChallengeCompleted = errors.New("challenge already completed")

	// Medication errors
	ErrMedicationNotFound = errors.New("medication not found")
	ErrDoseLogNotFound    = errors.New("dose log entry not found")
)
