// Package memory provides an in-memory UsageStore for tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"solguard/internal/storage"
)

// Store is an in-memory implementation of storage.UsageStore.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*storage.Account
	checks   map[string][]time.Time // keyed by account ID, append order
}

// NewStore creates an empty in-memory usage store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*storage.Account),
		checks:   make(map[string][]time.Time),
	}
}

// GetAccount retrieves an account by ID. Returns ErrNotFound if it does not exist.
func (s *Store) GetAccount(_ context.Context, id string) (*storage.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.accounts[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy to prevent external mutation
	accountCopy := *a
	return &accountCopy, nil
}

// CreateAccount registers a new account. Returns ErrDuplicate if the ID is taken.
func (s *Store) CreateAccount(_ context.Context, a *storage.Account) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID]; exists {
		return storage.ErrDuplicate
	}

	accountCopy := *a
	if accountCopy.CreatedAt.IsZero() {
		accountCopy.CreatedAt = time.Now().UTC()
	}
	s.accounts[a.ID] = &accountCopy
	return nil
}

// UpdatePlan moves an account to another plan. Returns ErrNotFound if missing.
func (s *Store) UpdatePlan(_ context.Context, id string, plan storage.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.accounts[id]
	if !exists {
		return storage.ErrNotFound
	}
	a.Plan = plan
	return nil
}

// RecordCheck appends one granted check. Returns ErrNotFound if the account
// does not exist.
func (s *Store) RecordCheck(_ context.Context, accountID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[accountID]; !exists {
		return storage.ErrNotFound
	}
	s.checks[accountID] = append(s.checks[accountID], at)
	return nil
}

// CountChecksSince counts checks at or after the given instant. An unknown
// account counts as zero.
func (s *Store) CountChecksSince(_ context.Context, accountID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, at := range s.checks[accountID] {
		if !at.Before(since) {
			count++
		}
	}
	return count, nil
}

// Verify interface compliance at compile time.
var _ storage.UsageStore = (*Store)(nil)
