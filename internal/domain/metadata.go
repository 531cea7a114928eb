package domain

// TokenMeta is the chain RPC contribution: supply figures from the mint
// plus any name/symbol recovered from on-chain metadata.
type TokenMeta struct {
	Name      string  // on-chain metadata name, "" when absent
	Symbol    string  // on-chain metadata symbol, "" when absent
	RawAmount string  // raw supply in base units, as reported
	Decimals  int     // mint decimals
	UIAmount  float64 // supply scaled by decimals
}
