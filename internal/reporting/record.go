// Package reporting renders a scored snapshot into the structured record
// and the narrative presentation. Rendering is loss-tolerant: absent
// contributions come out as documented defaults, never as a panic.
package reporting

import "solguard/internal/domain"

// Record is the structured machine-readable analysis result. Every field
// is always present; absent upstream data renders as zero values, empty
// slices and empty maps.
type Record struct {
	TokenInfo    TokenInfoSection    `json:"token_info"`
	MarketData   MarketDataSection   `json:"market_data"`
	Security     SecuritySection     `json:"security"`
	Verification VerificationSection `json:"verification"`
	Community    CommunitySection    `json:"community"`
}

// TokenInfoSection identifies the token.
type TokenInfoSection struct {
	Mint   string  `json:"mint"`
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Supply float64 `json:"supply"`
}

// MarketDataSection carries liquidity figures and the auditor market list.
type MarketDataSection struct {
	TotalLiquidity float64       `json:"total_liquidity"`
	LPProviders    int           `json:"lp_providers"`
	Markets        []MarketEntry `json:"markets"`
}

// MarketEntry is one market as reported by the security auditor.
type MarketEntry struct {
	Type         string  `json:"type"`
	BaseMint     string  `json:"base_mint"`
	QuoteMint    string  `json:"quote_mint"`
	LiquidityUSD float64 `json:"liquidity_usd"`
}

// SecuritySection carries auditor findings plus both score figures: the
// auditor's own score and the composite risk score.
type SecuritySection struct {
	IsRugged      bool        `json:"is_rugged"`
	TransferFee   float64     `json:"transfer_fee"`
	Risks         []RiskEntry `json:"risks"`
	Score         float64     `json:"score"`
	SecurityScore int         `json:"security_score"`
}

// RiskEntry is one auditor risk finding.
type RiskEntry struct {
	Name        string  `json:"name"`
	Value       string  `json:"value"`
	Description string  `json:"description"`
	Level       string  `json:"level"`
	Score       float64 `json:"score"`
}

// VerificationSection carries registry verification state.
type VerificationSection struct {
	IsVerified bool              `json:"is_verified"`
	Links      map[string]string `json:"links"`
}

// CommunitySection carries community vote tallies.
type CommunitySection struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// BuildRecord assembles the structured record from a snapshot and its
// assessment.
func BuildRecord(snap *domain.TokenSnapshot, assessment *domain.RiskAssessment) *Record {
	record := &Record{
		TokenInfo: TokenInfoSection{
			Mint:   snap.Mint,
			Name:   snap.Name,
			Symbol: snap.Symbol,
			Supply: snap.Supply,
		},
		MarketData: MarketDataSection{
			TotalLiquidity: snap.LiquidityUSD,
			LPProviders:    snap.Security.LPProviders,
			Markets:        make([]MarketEntry, 0, len(snap.Security.Markets)),
		},
		Security: SecuritySection{
			IsRugged:      snap.Security.Rugged,
			TransferFee:   snap.Security.TransferFeePct,
			Risks:         make([]RiskEntry, 0, len(snap.Security.Risks)),
			Score:         snap.Security.ProviderScore,
			SecurityScore: assessment.Score,
		},
		Verification: VerificationSection{
			IsVerified: snap.Verification.Verified,
			Links:      make(map[string]string, len(snap.Verification.Links)),
		},
		Community: CommunitySection{
			Upvotes:   snap.Community.Upvotes,
			Downvotes: snap.Community.Downvotes,
		},
	}

	for _, market := range snap.Security.Markets {
		record.MarketData.Markets = append(record.MarketData.Markets, MarketEntry{
			Type:         market.Type,
			BaseMint:     market.BaseMint,
			QuoteMint:    market.QuoteMint,
			LiquidityUSD: market.LiquidityUSD,
		})
	}
	for _, risk := range snap.Security.Risks {
		record.Security.Risks = append(record.Security.Risks, RiskEntry{
			Name:        risk.Name,
			Value:       risk.Value,
			Description: risk.Description,
			Level:       risk.Level,
			Score:       risk.Score,
		})
	}
	for provider, link := range snap.Verification.Links {
		record.Verification.Links[provider] = link
	}

	return record
}
