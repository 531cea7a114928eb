// Package limits enforces per-account daily check caps over a usage store.
package limits

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"solguard/internal/observability"
	"solguard/internal/storage"
)

// Daily check caps. Every plan other than premium shares the free cap.
const (
	FreeDailyChecks    = 5
	PremiumDailyChecks = 100
)

// DailyCap returns the number of checks a plan may run per day.
func DailyCap(plan storage.Plan) int {
	if plan == storage.PlanPremium {
		return PremiumDailyChecks
	}
	return FreeDailyChecks
}

// Decision is the outcome of a permission check. Used counts today's
// checks including the one just granted; Limit 0 means no cap applies.
type Decision struct {
	Allowed bool
	Plan    storage.Plan
	Used    int
	Limit   int
}

// Gate decides whether a caller may run another check.
type Gate interface {
	MayProceed(ctx context.Context, identity, username string) Decision
}

// Option configures a Manager.
type Option func(*Manager)

// WithUnlimited grants the given usernames unlimited checks. Matching is
// case-insensitive.
func WithUnlimited(usernames ...string) Option {
	return func(m *Manager) {
		for _, u := range usernames {
			if u != "" {
				m.unlimited[strings.ToLower(u)] = struct{}{}
			}
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// Manager implements Gate over a UsageStore. A store failure never blocks
// a caller: the manager fails open and logs the error, so a degraded
// ledger degrades to an unmetered service rather than a dead one.
type Manager struct {
	store     storage.UsageStore
	unlimited map[string]struct{}
	now       func() time.Time
	log       zerolog.Logger
}

// NewManager creates a limits manager over the given store.
func NewManager(store storage.UsageStore, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		unlimited: make(map[string]struct{}),
		now:       time.Now,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Verify interface compliance at compile time.
var _ Gate = (*Manager)(nil)

// MayProceed decides whether the identity may run another check today and,
// when allowed, records the check against the current UTC day.
func (m *Manager) MayProceed(ctx context.Context, identity, username string) Decision {
	d := m.decide(ctx, identity, username)
	observability.RecordLimitDecision(d.Allowed)
	return d
}

func (m *Manager) decide(ctx context.Context, identity, username string) Decision {
	if username != "" {
		if _, ok := m.unlimited[strings.ToLower(username)]; ok {
			return Decision{Allowed: true}
		}
	}

	account, err := m.store.GetAccount(ctx, identity)
	if errors.Is(err, storage.ErrNotFound) {
		return m.register(ctx, identity, username)
	}
	if err != nil {
		m.log.Warn().Err(err).Str("identity", identity).Msg("usage store unavailable, allowing check")
		return Decision{Allowed: true}
	}

	limit := DailyCap(account.Plan)
	used, err := m.store.CountChecksSince(ctx, identity, m.windowStart())
	if err != nil {
		m.log.Warn().Err(err).Str("identity", identity).Msg("usage count failed, allowing check")
		return Decision{Allowed: true, Plan: account.Plan, Limit: limit}
	}

	if used >= limit {
		return Decision{Allowed: false, Plan: account.Plan, Used: used, Limit: limit}
	}

	if err := m.store.RecordCheck(ctx, identity, m.now().UTC()); err != nil {
		m.log.Warn().Err(err).Str("identity", identity).Msg("usage record failed")
	}
	return Decision{Allowed: true, Plan: account.Plan, Used: used + 1, Limit: limit}
}

// register creates a free account for a first-time caller and grants the
// check. The registration check itself is not recorded.
func (m *Manager) register(ctx context.Context, identity, username string) Decision {
	account := &storage.Account{
		ID:        identity,
		Username:  username,
		Plan:      storage.PlanFree,
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.CreateAccount(ctx, account); err != nil && !errors.Is(err, storage.ErrDuplicate) {
		m.log.Warn().Err(err).Str("identity", identity).Msg("account registration failed, allowing check")
	}
	return Decision{Allowed: true, Plan: storage.PlanFree, Limit: FreeDailyChecks}
}

// SetPlan moves an account to another plan.
func (m *Manager) SetPlan(ctx context.Context, identity string, plan storage.Plan) error {
	return m.store.UpdatePlan(ctx, identity, plan)
}

// windowStart returns the start of the current UTC day.
func (m *Manager) windowStart() time.Time {
	now := m.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
