package domain

// RiskLevel is the five-tier classification of a risk score.
type RiskLevel string

const (
	LevelExtreme  RiskLevel = "EXTREME RISK"  // score < 30
	LevelCritical RiskLevel = "CRITICAL RISK" // score < 50
	LevelHigh     RiskLevel = "HIGH RISK"     // score < 65
	LevelMedium   RiskLevel = "MEDIUM RISK"   // score < 80
	LevelLow      RiskLevel = "LOW RISK"      // score >= 80
)

// String returns the string representation of RiskLevel.
func (l RiskLevel) String() string {
	return string(l)
}

// Trade recommendations keyed to score bands.
const (
	RecommendSafe    = "SAFE TO TRADE - Low risk profile"
	RecommendCaution = "TRADE WITH CAUTION - Medium risk"
	RecommendRisky   = "HIGH RISK - Trade small or avoid"
	RecommendAvoid   = "DANGEROUS - Avoid trading"
)

// LevelForScore maps a clamped 0..100 score to its risk level.
func LevelForScore(score int) RiskLevel {
	switch {
	case score < 30:
		return LevelExtreme
	case score < 50:
		return LevelCritical
	case score < 65:
		return LevelHigh
	case score < 80:
		return LevelMedium
	default:
		return LevelLow
	}
}

// RecommendationForScore maps a clamped 0..100 score to a trade
// recommendation line.
func RecommendationForScore(score int) string {
	switch {
	case score >= 75:
		return RecommendSafe
	case score >= 60:
		return RecommendCaution
	case score >= 40:
		return RecommendRisky
	default:
		return RecommendAvoid
	}
}

// RiskAssessment is the scoring outcome for one snapshot.
type RiskAssessment struct {
	Score          int       // clamped to [0,100]
	Level          RiskLevel // five-tier classification
	Recommendation string    // trade recommendation line
	RiskFactors    []string  // score-reducing findings, tagged
	Warnings       []string  // advisory findings
	Positives      []string  // confidence-raising findings
}
