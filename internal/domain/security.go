package domain

// SecurityRisk is one auditor-reported risk finding, passed through as-is.
type SecurityRisk struct {
	Name        string  // short risk name
	Value       string  // auditor-supplied value, often empty
	Description string  // human description
	Level       string  // auditor severity label
	Score       float64 // auditor-internal risk weight
}

// AuditorMarket is one market as listed by the security auditor.
type AuditorMarket struct {
	Type         string  // pool type (amm, clmm, ...)
	BaseMint     string  // base token mint
	QuoteMint    string  // quote token mint
	LiquidityUSD float64 // combined base+quote LP value in USD
}

// SecurityReport is the security auditor's contribution to a snapshot.
// The zero value means the auditor was unreachable and nothing is known.
type SecurityReport struct {
	Rugged         bool            // token flagged as rugged
	TransferFeePct float64         // transfer fee percent, 0 when none
	Risks          []SecurityRisk  // reported risk findings
	ProviderScore  float64         // auditor's own score figure
	TotalLiquidity float64         // auditor's total market liquidity in USD
	LPProviders    int             // count of LP providers across markets
	Markets        []AuditorMarket // auditor market list
	Name           string          // token name per auditor metadata
	Symbol         string          // token symbol per auditor metadata
	RawSupply      float64         // supply in base units
	Decimals       int             // decimals per auditor, 0 when unreported
}

// Verification carries third-party verification state for a token.
type Verification struct {
	Verified bool              // listed on a curated verification registry
	Links    map[string]string // provider -> URL
}

// Community holds community vote tallies for a token.
type Community struct {
	Upvotes   int
	Downvotes int
}

// AuditorView bundles everything the security auditor contributes.
type AuditorView struct {
	Report       SecurityReport
	Verification Verification
	Community    Community
}
