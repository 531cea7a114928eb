package postgres

import (
	"context"
	"fmt"
	"time"

	"solguard/internal/storage"
)

// Store implements storage.UsageStore using PostgreSQL.
type Store struct {
	pool *Pool
}

// NewStore creates a usage store over the given pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Compile-time interface check.
var _ storage.UsageStore = (*Store)(nil)

// GetAccount retrieves an account by ID. Returns ErrNotFound if it does not exist.
func (s *Store) GetAccount(ctx context.Context, id string) (*storage.Account, error) {
	query := `
		SELECT id, username, plan, created_at
		FROM accounts
		WHERE id = $1
	`

	var a storage.Account
	var plan string
	err := s.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Username, &plan, &a.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	a.Plan = storage.Plan(plan)
	return &a, nil
}

// CreateAccount registers a new account. Returns ErrDuplicate if the ID is taken.
func (s *Store) CreateAccount(ctx context.Context, a *storage.Account) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO accounts (id, username, plan, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, a.ID, a.Username, string(a.Plan), createdAt)
	if err != nil {
		if isDuplicateError(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// UpdatePlan moves an account to another plan. Returns ErrNotFound if missing.
func (s *Store) UpdatePlan(ctx context.Context, id string, plan storage.Plan) error {
	query := `
		UPDATE accounts
		SET plan = $2
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, string(plan))
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// RecordCheck appends one granted check. Returns ErrNotFound if the account
// does not exist.
func (s *Store) RecordCheck(ctx context.Context, accountID string, at time.Time) error {
	query := `
		INSERT INTO checks (account_id, checked_at)
		VALUES ($1, $2)
	`

	_, err := s.pool.Exec(ctx, query, accountID, at)
	if err != nil {
		if isMissingParentError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("record check: %w", err)
	}
	return nil
}

// CountChecksSince counts checks at or after the given instant. An unknown
// account counts as zero.
func (s *Store) CountChecksSince(ctx context.Context, accountID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM checks
		WHERE account_id = $1 AND checked_at >= $2
	`

	var count int
	if err := s.pool.QueryRow(ctx, query, accountID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count checks: %w", err)
	}
	return count, nil
}
