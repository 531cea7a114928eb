// Package scoring derives the composite risk assessment for a token
// snapshot from fixed additive signal weights.
package scoring

import (
	"fmt"
	"math"

	"solguard/internal/domain"
)

// impactTradeUSD is the fixed trade size behind the price impact estimate.
const impactTradeUSD = 10000.0

// Scorer computes risk assessments. It is stateless and pure: the same
// snapshot always produces the same assessment, with no I/O, clock or
// randomness involved.
type Scorer struct{}

// NewScorer creates a risk scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score evaluates a snapshot against the weighted signal table. The score
// starts at 100, every signal contributes its fixed adjustment and a tagged
// message (risk factor, warning or positive), and the sum is clamped to
// [0,100]. Two overrides sit outside the table: a nonzero transfer fee
// costs a flat 40 points, and a rugged flag forces the final score to 0
// while the factor messages are still reported.
func (s *Scorer) Score(snap *domain.TokenSnapshot) *domain.RiskAssessment {
	a := &domain.RiskAssessment{
		RiskFactors: []string{},
		Warnings:    []string{},
		Positives:   []string{},
	}

	score := 100
	score += s.scoreLiquidity(snap, a)
	score += s.scoreTradingActivity(snap, a)
	score += s.scoreLiquidityLock(snap, a)
	score += s.scoreHolders(snap, a)
	score += s.scoreVolatility(snap, a)
	score += s.scorePriceImpact(snap, a)
	score += s.scoreVenues(snap, a)
	score += s.scoreMarketCap(snap, a)
	score += s.scoreSecurity(snap, a)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if snap.Security.Rugged {
		score = 0
	}

	a.Score = score
	a.Level = domain.LevelForScore(score)
	a.Recommendation = domain.RecommendationForScore(score)
	return a
}

// scoreLiquidity weighs the USD liquidity of the main pair.
func (s *Scorer) scoreLiquidity(snap *domain.TokenSnapshot, a *domain.RiskAssessment) int {
	switch {
	case snap.LiquidityUSD < 10000:
		a.RiskFactors = append(a.RiskFactors, "CRITICAL: Extremely low liquidity (< $10K) - High risk of price manipulation and rugpull")
		return -25
	case snap.LiquidityUSD < 50000:
		a.RiskFactors = append(a.RiskFactors, "Low liquidity (< $50K) - Moderate risk of price manipulation")
		return -15
	case snap.LiquidityUSD < 100000:
		a.Warnings = append(a.Warnings, "Moderate liquidity (< $100K) - Some price impact on large trades")
		return -10
	default:
		a.Positives = append(a.Positives, "Healthy liquidity pool (> $100K)")
		return 0
	}
}

// scoreTradingActivity weighs 24h volume relative to liquidity. A dormant
// ratio at or below 0.01 reads as a honeypot holders cannot sell out of;
// an extreme ratio reads as wash trading. Skipped when liquidity is zero.
func (s *Scorer) scoreTradingActivity(snap *domain.TokenSnapshot, a *domain.RiskAssessment) int {
	if snap.LiquidityUSD <= 0 {
		return 0
	}
	ratio := snap.Volume24h / snap.LiquidityUSD
	switch {
	case ratio <= 0.01:
		a.RiskFactors = append(a.RiskFactors, "POTENTIAL HONEYPOT: Extremely low trading volume relative to liquidity")
		return -20
	case ratio > 15:
		a.RiskFactors = append(a.RiskFactors, "Suspicious trading: Unusually high volume relative to liquidity - Likely wash trading")
		return -15
	case ratio > 10:
		a.Warnings = append(a.Warnings, "High volume relative to liquidity - Monitor for wash trading")
		return -10
	case ratio > 5:
		a.Warnings = append(a.Warnings, "Moderate volume relative to liquidity")
		return -5
	default:
		return 0
	}
}

// scoreLiquidityLock weighs the lock status: managed pools and strong
// traditional locks are favorable, weak locks and no lock at all carry the
// heaviest rugpull penalties.
func (s *Scorer) scoreLiquidityLock(snap *domain.TokenSnapshot, a *domain.RiskAssessment) int {
	lock := snap.Lock
	switch lock.Type {
	case domain.LockManaged:
		a.Positives = append(a.Positives, "Protected: Liquidity managed by automated market maker")
		return 0
	case domain.LockTraditional:
		switch {
		case lock.Percent >= 95 && lock.Days >= 180:
			a.Positives = append(a.Positives, fmt.Sprintf("Strong liquidity protection: %.1f%% locked for %d days", lock.Percent, lock.Days))
			return 0
		case lock.Percent >= 80 && lock.Days >= 90:
			a.Warnings = append(a.Warnings, fmt.Sprintf("Moderate liquidity protection: %.1f%% locked for %d days", lock.Percent, lock.Days))
			return -10
		default:
			a.RiskFactors = append(a.RiskFactors, fmt.Sprintf("Weak liquidity protection: Only %.1f%% locked for %d days", lock.Percent, lock.Days))
			return -20
		}
	default:
		a.RiskFactors = append(a.RiskFactors, "HIGH RUGPULL RISK: Liquidity is not locked")
		return -25
	}
}

// scoreHolders weighs the holder distribution. A zero count means the
// figure is unknown and is skipped rather than penalized.
func (s *Scorer) scoreHolders(snap *domain.TokenSnapshot, a *domain.RiskAssessment) int {
	if snap.Holders <= 0 {
		return 0
	}
	switch {
	case snap.Holders < 100:
		a.RiskFactors = append(a.RiskFactors, fmt.Sprintf("Extreme concentration risk: Only %s holders", domain.GroupDigits(snap.Holders)))
		return -15
	case snap.Holders < 500:
		a.Warnings = append(a.Warnings, fmt.Sprintf("High concentration risk: Only %s holders", domain.GroupDigits(snap.Holders)))
		return -10
	case snap.Holders > 1000:
		a.Positives = append(a.Positives, fmt.Sprintf("Healthy distribution: %s holders", domain.GroupDigits(snap.Holders)))
		return 0
	default:
		return 0
	}
}

// scoreVolatility weighs the magnitude of the 24h price move.
func (s *Scorer) scoreVolatility(snap *domain.TokenSnapshot, a *domain.RiskAssessment) int {
	change := math.Abs(snap.PriceChange24h)
	switch {
	case change > 50:
		a.RiskFactors = append(a.RiskFactors, fmt.Sprintf("Extreme volatility: %+.2f%% in 24h - High manipulation risk", snap.PriceChange24h))
		return -15
	case change > 30:
		a.Warnings = append(a.Warnings, fmt.Sprintf("High volatility: %+.2f%% in 24h", snap.PriceChange24h))
		return -10
	case change > 15:
		a.Warnings = append(a.Warnings, fmt.Sprintf("Notable price movement: %+.2f%% in 24h", snap.PriceChange24h))
		return -5
	default:
		return 0
	}
}

// scorePriceImpact estimates how much a $10K trade would move the price.
// An impact between 10% and 20% warns without a score penalty.
func (s *Scorer) scorePriceImpact(snap *domain.TokenSnapshot, a *domain.RiskAssessment) int {
	if snap.LiquidityUSD <= 0 {
		return 0
	}
	impact := impactTradeUSD / snap.LiquidityUSD * 100
	switch {
	case impact > 20:
		a.RiskFactors = append(a.RiskFactors, fmt.Sprintf("High price impact: $10K trade affects price by ~%.1f%%", impact))
		return -10
	case impact > 10:
		a.Warnings = append(a.Warnings, fmt.Sprintf("Moderate price impact: $10K trade affects price by ~%.1f%%", impact))
		return 0
	default:
		return 0
	}
}

// scoreVenues weighs how many qualifying venues trade the token.
func (s *Scorer) scoreVenues(snap *domain.TokenSnapshot, a *domain.RiskAssessment) int {
	venues := len(snap.Pairs)
	switch {
	case venues < 2:
		a.RiskFactors = append(a.RiskFactors, "Single DEX listing - High manipulation risk")
		return -15
	case venues < 3:
		a.Warnings = append(a.Warnings, "Limited DEX presence - Consider wider market coverage")
		return -10
	default:
		a.Positives = append(a.Positives, fmt.Sprintf("Good market presence: Listed on %d DEXes", venues))
		return 0
	}
}

// scoreMarketCap weighs the market capitalization tier. A zero cap means
// the figure is unknown and is skipped rather than penalized.
func (s *Scorer) scoreMarketCap(snap *domain.TokenSnapshot, a *domain.RiskAssessment) int {
	if snap.MarketCap <= 0 {
		return 0
	}
	switch {
	case snap.MarketCap < 100000:
		a.Warnings = append(a.Warnings, fmt.Sprintf("Micro-cap token: %s", domain.FormatUSD(snap.MarketCap)))
		return -10
	case snap.MarketCap < 500000:
		a.Warnings = append(a.Warnings, fmt.Sprintf("Small-cap token: %s", domain.FormatUSD(snap.MarketCap)))
		return -5
	case snap.MarketCap > 1000000:
		a.Positives = append(a.Positives, fmt.Sprintf("Established market cap: %s", domain.FormatUSD(snap.MarketCap)))
		return 0
	default:
		return 0
	}
}

// scoreSecurity applies the auditor override signals. The transfer fee
// penalty accumulates like a table adjustment; the rugged flag only emits
// its factor here, the zero forcing happens after clamping.
func (s *Scorer) scoreSecurity(snap *domain.TokenSnapshot, a *domain.RiskAssessment) int {
	adjustment := 0
	if snap.Security.TransferFeePct > 0 {
		a.RiskFactors = append(a.RiskFactors, fmt.Sprintf("TRANSFER TAX: %.1f%% fee charged on every trade - Common honeypot mechanism", snap.Security.TransferFeePct))
		adjustment -= 40
	}
	if snap.Security.Rugged {
		a.RiskFactors = append(a.RiskFactors, "RUGGED: Token flagged as rugged by security audit")
	}
	return adjustment
}
