// Package storage defines the usage ledger behind the daily check limits:
// one account per caller identity plus a timestamped record of every check
// the caller was granted.
package storage

import (
	"context"
	"errors"
	"time"
)

// Plan names a subscription tier. The limits package maps plans to daily
// check caps; the store only persists the name.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanTrial   Plan = "trial"
	PlanPremium Plan = "premium"
)

var (
	// ErrNotFound is returned when a requested account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when creating an account whose ID is
	// already registered.
	ErrDuplicate = errors.New("duplicate account")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// Account is one registered caller of the check service.
type Account struct {
	ID        string // caller identity, e.g. a client ID header or chat ID
	Username  string // optional display name, may be empty
	Plan      Plan
	CreatedAt time.Time
}

// UsageStore persists accounts and their check usage.
type UsageStore interface {
	// GetAccount retrieves an account by ID. Returns ErrNotFound if it
	// does not exist.
	GetAccount(ctx context.Context, id string) (*Account, error)

	// CreateAccount registers a new account. Returns ErrDuplicate if the
	// ID is already taken.
	CreateAccount(ctx context.Context, a *Account) error

	// UpdatePlan moves an account to another plan. Returns ErrNotFound
	// if the account does not exist.
	UpdatePlan(ctx context.Context, id string, plan Plan) error

	// RecordCheck appends one granted check for the account. Returns
	// ErrNotFound if the account does not exist.
	RecordCheck(ctx context.Context, accountID string, at time.Time) error

	// CountChecksSince counts the account's checks at or after the given
	// instant. An unknown account counts as zero.
	CountChecksSince(ctx context.Context, accountID string, since time.Time) (int, error)
}
