package scoring

import (
	"reflect"
	"strings"
	"testing"

	"solguard/internal/domain"
)

// containsEntry reports whether any list entry contains the substring.
func containsEntry(list []string, sub string) bool {
	for _, entry := range list {
		if strings.Contains(entry, sub) {
			return true
		}
	}
	return false
}

// venues builds n qualifying market pairs.
func venues(n int) []domain.MarketPair {
	pairs := make([]domain.MarketPair, n)
	for i := range pairs {
		pairs[i] = domain.MarketPair{DexID: "RAYDIUM", LiquidityUSD: 50000}
	}
	return pairs
}

func healthySnapshot() *domain.TokenSnapshot {
	return &domain.TokenSnapshot{
		Mint:         "So11111111111111111111111111111111111111112",
		Name:         "Test Token",
		Symbol:       "TEST",
		LiquidityUSD: 1000000,
		Volume24h:    50000,
		Holders:      5000,
		MarketCap:    5000000,
		Pairs:        venues(5),
		Lock:         domain.LiquidityLock{Type: domain.LockTraditional, Percent: 98, Days: 365},
	}
}

func TestScore_RiskyProfile(t *testing.T) {
	snap := &domain.TokenSnapshot{
		LiquidityUSD: 5000,
		Volume24h:    50,
		Holders:      50,
		Pairs:        venues(1),
		Lock:         domain.LiquidityLock{Type: domain.LockNone},
	}

	a := NewScorer().Score(snap)

	if a.Score != 0 {
		t.Errorf("expected score 0, got %d", a.Score)
	}
	if a.Level != domain.LevelExtreme {
		t.Errorf("expected %s, got %s", domain.LevelExtreme, a.Level)
	}

	for _, sub := range []string{"low liquidity", "HONEYPOT", "not locked", "Single DEX"} {
		if !containsEntry(a.RiskFactors, sub) {
			t.Errorf("risk factors should mention %q: %v", sub, a.RiskFactors)
		}
	}
}

func TestScore_HealthyProfile(t *testing.T) {
	a := NewScorer().Score(healthySnapshot())

	if a.Score != 100 {
		t.Errorf("expected score 100, got %d", a.Score)
	}
	if a.Level != domain.LevelLow {
		t.Errorf("expected %s, got %s", domain.LevelLow, a.Level)
	}
	if a.Recommendation != domain.RecommendSafe {
		t.Errorf("expected safe recommendation, got %s", a.Recommendation)
	}
	if len(a.RiskFactors) != 0 {
		t.Errorf("expected no risk factors, got %v", a.RiskFactors)
	}
	if len(a.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", a.Warnings)
	}
	if len(a.Positives) < 4 {
		t.Errorf("expected multiple positives, got %v", a.Positives)
	}
}

func TestScore_RuggedForcesZero(t *testing.T) {
	snap := healthySnapshot()
	snap.Security.Rugged = true

	a := NewScorer().Score(snap)

	if a.Score != 0 {
		t.Errorf("rugged token must score 0, got %d", a.Score)
	}
	if !containsEntry(a.RiskFactors, "RUGGED") {
		t.Errorf("risk factors should mention the rugged flag: %v", a.RiskFactors)
	}
	// Factor collection still runs so the report can explain the zero.
	if len(a.Positives) == 0 {
		t.Error("positives should still be collected for a rugged token")
	}
}

func TestScore_TransferFeePenalty(t *testing.T) {
	snap := healthySnapshot()
	snap.Security.TransferFeePct = 5

	a := NewScorer().Score(snap)

	if a.Score != 60 {
		t.Errorf("expected 100-40=60, got %d", a.Score)
	}
	if !containsEntry(a.RiskFactors, "TRANSFER TAX: 5.0%") {
		t.Errorf("risk factors should mention the fee: %v", a.RiskFactors)
	}
	if a.Level != domain.LevelHigh {
		t.Errorf("expected %s, got %s", domain.LevelHigh, a.Level)
	}
}

func TestScore_ClampsAtZero(t *testing.T) {
	snap := &domain.TokenSnapshot{
		LiquidityUSD:   5000,
		Volume24h:      50,
		Holders:        50,
		PriceChange24h: -60,
		MarketCap:      50000,
		Pairs:          venues(1),
		Lock:           domain.LiquidityLock{Type: domain.LockNone},
	}
	snap.Security.TransferFeePct = 5

	a := NewScorer().Score(snap)
	if a.Score != 0 {
		t.Errorf("expected clamp at 0, got %d", a.Score)
	}
}

func TestScore_Deterministic(t *testing.T) {
	scorer := NewScorer()
	snap := healthySnapshot()

	first := scorer.Score(snap)
	second := scorer.Score(snap)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same snapshot must yield identical assessments:\n%+v\n%+v", first, second)
	}
}

func TestScore_UnknownFieldsSkipped(t *testing.T) {
	snap := &domain.TokenSnapshot{
		LiquidityUSD: 200000,
		Volume24h:    10000,
		Holders:      0,
		MarketCap:    0,
		Pairs:        venues(3),
		Lock:         domain.LiquidityLock{Type: domain.LockManaged},
	}

	a := NewScorer().Score(snap)

	if a.Score != 100 {
		t.Errorf("unknown holders and cap must not cost points, got %d", a.Score)
	}
	all := append(append(append([]string{}, a.RiskFactors...), a.Warnings...), a.Positives...)
	if containsEntry(all, "holders") {
		t.Errorf("no holder message expected for unknown count: %v", all)
	}
	if containsEntry(all, "cap") {
		t.Errorf("no market cap message expected for unknown cap: %v", all)
	}
}

func TestScore_DormantRatioBoundary(t *testing.T) {
	snap := &domain.TokenSnapshot{
		LiquidityUSD: 100000,
		Volume24h:    1000, // ratio exactly 0.01
		Holders:      5000,
		Pairs:        venues(3),
		Lock:         domain.LiquidityLock{Type: domain.LockManaged},
	}

	a := NewScorer().Score(snap)
	if !containsEntry(a.RiskFactors, "HONEYPOT") {
		t.Errorf("ratio of exactly 0.01 counts as dormant: %v", a.RiskFactors)
	}
	if a.Score != 80 {
		t.Errorf("expected 100-20=80, got %d", a.Score)
	}

	snap.Volume24h = 1100 // ratio 0.011, just above the threshold
	a = NewScorer().Score(snap)
	if containsEntry(a.RiskFactors, "HONEYPOT") {
		t.Errorf("ratio above 0.01 is not dormant: %v", a.RiskFactors)
	}
	if a.Score != 100 {
		t.Errorf("expected 100, got %d", a.Score)
	}
}

func TestScore_LockTiers(t *testing.T) {
	cases := []struct {
		name       string
		lock       domain.LiquidityLock
		adjustment int
	}{
		{"strong lock", domain.LiquidityLock{Type: domain.LockTraditional, Percent: 95, Days: 180}, 0},
		{"moderate lock", domain.LiquidityLock{Type: domain.LockTraditional, Percent: 94.9, Days: 365}, -10},
		{"moderate lock floor", domain.LiquidityLock{Type: domain.LockTraditional, Percent: 80, Days: 90}, -10},
		{"weak lock", domain.LiquidityLock{Type: domain.LockTraditional, Percent: 79, Days: 365}, -20},
		{"short lock", domain.LiquidityLock{Type: domain.LockTraditional, Percent: 98, Days: 30}, -20},
		{"managed pool", domain.LiquidityLock{Type: domain.LockManaged}, 0},
		{"unlocked", domain.LiquidityLock{Type: domain.LockNone}, -25},
	}

	for _, c := range cases {
		snap := healthySnapshot()
		snap.Lock = c.lock

		a := NewScorer().Score(snap)
		want := 100 + c.adjustment
		if a.Score != want {
			t.Errorf("%s: expected score %d, got %d", c.name, want, a.Score)
		}
	}
}
