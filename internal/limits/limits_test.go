package limits

import (
	"context"
	"errors"
	"testing"
	"time"

	"solguard/internal/storage"
	"solguard/internal/storage/memory"
)

// failStore errors on every operation.
type failStore struct {
	err error
}

func (s *failStore) GetAccount(context.Context, string) (*storage.Account, error) {
	return nil, s.err
}
func (s *failStore) CreateAccount(context.Context, *storage.Account) error  { return s.err }
func (s *failStore) UpdatePlan(context.Context, string, storage.Plan) error { return s.err }
func (s *failStore) RecordCheck(context.Context, string, time.Time) error   { return s.err }
func (s *failStore) CountChecksSince(context.Context, string, time.Time) (int, error) {
	return 0, s.err
}

// countErrStore delegates to a real store but fails the usage count.
type countErrStore struct {
	storage.UsageStore
	err error
}

func (s *countErrStore) CountChecksSince(context.Context, string, time.Time) (int, error) {
	return 0, s.err
}

func newAccount(t *testing.T, store storage.UsageStore, id string, plan storage.Plan) {
	t.Helper()
	err := store.CreateAccount(context.Background(), &storage.Account{ID: id, Plan: plan})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
}

func TestMayProceed_UnknownIdentityAutoRegisters(t *testing.T) {
	store := memory.NewStore()
	mgr := NewManager(store)
	ctx := context.Background()

	d := mgr.MayProceed(ctx, "newcomer", "alice")
	if !d.Allowed {
		t.Fatal("first-time caller must be allowed")
	}
	if d.Plan != storage.PlanFree || d.Limit != FreeDailyChecks {
		t.Errorf("expected free plan defaults, got %+v", d)
	}

	account, err := store.GetAccount(ctx, "newcomer")
	if err != nil {
		t.Fatalf("account was not registered: %v", err)
	}
	if account.Plan != storage.PlanFree || account.Username != "alice" {
		t.Errorf("unexpected registered account: %+v", account)
	}

	count, err := store.CountChecksSince(ctx, "newcomer", time.Time{})
	if err != nil {
		t.Fatalf("CountChecksSince failed: %v", err)
	}
	if count != 0 {
		t.Errorf("registration check must not be recorded, got %d", count)
	}
}

func TestMayProceed_FreePlanCap(t *testing.T) {
	store := memory.NewStore()
	mgr := NewManager(store)
	ctx := context.Background()
	newAccount(t, store, "c1", storage.PlanFree)

	for i := 0; i < FreeDailyChecks; i++ {
		d := mgr.MayProceed(ctx, "c1", "")
		if !d.Allowed {
			t.Fatalf("check %d should be allowed", i+1)
		}
		if d.Used != i+1 {
			t.Errorf("check %d: expected Used %d, got %d", i+1, i+1, d.Used)
		}
	}

	d := mgr.MayProceed(ctx, "c1", "")
	if d.Allowed {
		t.Fatal("check past the cap must be denied")
	}
	if d.Limit != FreeDailyChecks || d.Used != FreeDailyChecks || d.Plan != storage.PlanFree {
		t.Errorf("unexpected denial decision: %+v", d)
	}
}

func TestMayProceed_TrialSharesFreeCap(t *testing.T) {
	store := memory.NewStore()
	mgr := NewManager(store)
	ctx := context.Background()
	newAccount(t, store, "c1", storage.PlanTrial)

	for i := 0; i < FreeDailyChecks; i++ {
		if d := mgr.MayProceed(ctx, "c1", ""); !d.Allowed {
			t.Fatalf("trial check %d should be allowed", i+1)
		}
	}
	if d := mgr.MayProceed(ctx, "c1", ""); d.Allowed {
		t.Fatal("trial plan must share the free cap")
	}
}

func TestMayProceed_PremiumCap(t *testing.T) {
	store := memory.NewStore()
	mgr := NewManager(store)
	ctx := context.Background()
	newAccount(t, store, "whale", storage.PlanPremium)

	for i := 0; i < PremiumDailyChecks; i++ {
		if d := mgr.MayProceed(ctx, "whale", ""); !d.Allowed {
			t.Fatalf("premium check %d should be allowed", i+1)
		}
	}

	d := mgr.MayProceed(ctx, "whale", "")
	if d.Allowed {
		t.Fatal("premium check past the cap must be denied")
	}
	if d.Limit != PremiumDailyChecks {
		t.Errorf("expected limit %d, got %d", PremiumDailyChecks, d.Limit)
	}
}

func TestMayProceed_UnlimitedUsername(t *testing.T) {
	// The allow-list is checked before the store, so even a dead store
	// cannot block an unlimited caller.
	mgr := NewManager(&failStore{err: errors.New("store down")}, WithUnlimited("VIP"))

	for i := 0; i < 20; i++ {
		if d := mgr.MayProceed(context.Background(), "anyone", "vip"); !d.Allowed {
			t.Fatal("unlimited username must always be allowed")
		}
	}
}

func TestMayProceed_FailsOpenOnStoreErrors(t *testing.T) {
	mgr := NewManager(&failStore{err: errors.New("store down")})
	if d := mgr.MayProceed(context.Background(), "c1", ""); !d.Allowed {
		t.Fatal("store failure must fail open")
	}

	store := memory.NewStore()
	newAccount(t, store, "c1", storage.PlanFree)
	mgr = NewManager(&countErrStore{UsageStore: store, err: errors.New("count broken")})
	if d := mgr.MayProceed(context.Background(), "c1", ""); !d.Allowed {
		t.Fatal("count failure must fail open")
	}
}

func TestMayProceed_WindowResetsAtMidnightUTC(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2024, 6, 1, 23, 50, 0, 0, time.UTC)
	mgr := NewManager(store, WithClock(func() time.Time { return now }))
	ctx := context.Background()
	newAccount(t, store, "c1", storage.PlanFree)

	for i := 0; i < FreeDailyChecks; i++ {
		if d := mgr.MayProceed(ctx, "c1", ""); !d.Allowed {
			t.Fatalf("check %d should be allowed", i+1)
		}
	}
	if d := mgr.MayProceed(ctx, "c1", ""); d.Allowed {
		t.Fatal("cap must be reached before midnight")
	}

	now = now.Add(15 * time.Minute) // crosses into the next UTC day
	if d := mgr.MayProceed(ctx, "c1", ""); !d.Allowed {
		t.Fatal("cap must reset at midnight UTC")
	}
}

func TestSetPlan(t *testing.T) {
	store := memory.NewStore()
	mgr := NewManager(store)
	ctx := context.Background()
	newAccount(t, store, "c1", storage.PlanFree)

	if err := mgr.SetPlan(ctx, "c1", storage.PlanPremium); err != nil {
		t.Fatalf("SetPlan failed: %v", err)
	}
	account, err := store.GetAccount(ctx, "c1")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account.Plan != storage.PlanPremium {
		t.Errorf("expected premium plan, got %s", account.Plan)
	}

	if err := mgr.SetPlan(ctx, "nobody", storage.PlanPremium); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDailyCap(t *testing.T) {
	cases := []struct {
		plan storage.Plan
		want int
	}{
		{storage.PlanFree, FreeDailyChecks},
		{storage.PlanTrial, FreeDailyChecks},
		{storage.PlanPremium, PremiumDailyChecks},
		{storage.Plan("unknown"), FreeDailyChecks},
	}
	for _, tc := range cases {
		if got := DailyCap(tc.plan); got != tc.want {
			t.Errorf("DailyCap(%s) = %d, want %d", tc.plan, got, tc.want)
		}
	}
}
