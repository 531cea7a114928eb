package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"solguard/internal/domain"
	"solguard/internal/fetch"
)

// DefaultRugcheckURL is the public security auditor endpoint.
const DefaultRugcheckURL = "https://api.rugcheck.xyz"

// Rugcheck fetches the security auditor's report and community votes.
type Rugcheck struct {
	baseURL string
	fetcher *fetch.Client
}

var _ SecuritySource = (*Rugcheck)(nil)

// RugcheckOption configures Rugcheck.
type RugcheckOption func(*Rugcheck)

// WithRugcheckURL overrides the auditor base URL.
func WithRugcheckURL(u string) RugcheckOption {
	return func(r *Rugcheck) {
		r.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRugcheckFetcher sets the underlying fetch client.
func WithRugcheckFetcher(f *fetch.Client) RugcheckOption {
	return func(r *Rugcheck) {
		r.fetcher = f
	}
}

// NewRugcheck creates the security auditor adapter.
func NewRugcheck(opts ...RugcheckOption) *Rugcheck {
	r := &Rugcheck{baseURL: DefaultRugcheckURL}
	for _, opt := range opts {
		opt(r)
	}
	if r.fetcher == nil {
		r.fetcher = fetch.NewClient("rugcheck")
	}
	return r
}

// rcReport mirrors the auditor report payload.
type rcReport struct {
	Rugged    bool `json:"rugged"`
	TokenMeta struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"tokenMeta"`
	Token struct {
		Supply   flexFloat `json:"supply"`
		Decimals flexFloat `json:"decimals"`
	} `json:"token"`
	TransferFee struct {
		Pct flexFloat `json:"pct"`
	} `json:"transferFee"`
	TotalMarketLiquidity flexFloat `json:"totalMarketLiquidity"`
	TotalLPProviders     flexFloat `json:"totalLPProviders"`
	Score                flexFloat `json:"score"`
	Risks                []struct {
		Name        string     `json:"name"`
		Value       flexString `json:"value"`
		Description string     `json:"description"`
		Level       string     `json:"level"`
		Score       flexFloat  `json:"score"`
	} `json:"risks"`
	Markets []struct {
		MarketType string `json:"marketType"`
		MintA      string `json:"mintA"`
		MintB      string `json:"mintB"`
		LP         struct {
			BaseUSD  flexFloat `json:"baseUSD"`
			QuoteUSD flexFloat `json:"quoteUSD"`
		} `json:"lp"`
	} `json:"markets"`
	Verification *struct {
		JupVerified bool `json:"jup_verified"`
		Links       []struct {
			Provider string `json:"provider"`
			Value    string `json:"value"`
		} `json:"links"`
	} `json:"verification"`
}

// rcVotes mirrors the community votes payload.
type rcVotes struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// Audit fetches the auditor report and vote tallies for a mint. A nil
// view means the auditor has no report; a missing votes payload degrades
// to zero tallies without failing the audit.
func (r *Rugcheck) Audit(ctx context.Context, mint domain.Mint) (*domain.AuditorView, error) {
	res := r.fetcher.Get(ctx, fmt.Sprintf("%s/v1/tokens/%s/report", r.baseURL, mint), nil)
	if !res.OK() {
		return nil, nil
	}

	var report rcReport
	if err := json.Unmarshal(res.Payload, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	view := &domain.AuditorView{
		Report: domain.SecurityReport{
			Rugged:         report.Rugged,
			TransferFeePct: float64(report.TransferFee.Pct),
			ProviderScore:  float64(report.Score),
			TotalLiquidity: float64(report.TotalMarketLiquidity),
			LPProviders:    int(report.TotalLPProviders),
			Name:           report.TokenMeta.Name,
			Symbol:         report.TokenMeta.Symbol,
			RawSupply:      float64(report.Token.Supply),
			Decimals:       int(report.Token.Decimals),
		},
	}

	for _, risk := range report.Risks {
		view.Report.Risks = append(view.Report.Risks, domain.SecurityRisk{
			Name:        risk.Name,
			Value:       string(risk.Value),
			Description: risk.Description,
			Level:       risk.Level,
			Score:       float64(risk.Score),
		})
	}
	for _, market := range report.Markets {
		view.Report.Markets = append(view.Report.Markets, domain.AuditorMarket{
			Type:         market.MarketType,
			BaseMint:     market.MintA,
			QuoteMint:    market.MintB,
			LiquidityUSD: float64(market.LP.BaseUSD) + float64(market.LP.QuoteUSD),
		})
	}
	if report.Verification != nil {
		view.Verification.Verified = report.Verification.JupVerified
		for _, link := range report.Verification.Links {
			if link.Provider == "" || link.Value == "" {
				continue
			}
			if view.Verification.Links == nil {
				view.Verification.Links = make(map[string]string)
			}
			view.Verification.Links[strings.ToLower(link.Provider)] = link.Value
		}
	}

	view.Community = r.votes(ctx, mint)
	return view, nil
}

// votes fetches community vote tallies, zero on any failure.
func (r *Rugcheck) votes(ctx context.Context, mint domain.Mint) domain.Community {
	res := r.fetcher.Get(ctx, fmt.Sprintf("%s/v1/tokens/%s/votes", r.baseURL, mint), nil)
	if !res.OK() {
		return domain.Community{}
	}

	var votes rcVotes
	if err := json.Unmarshal(res.Payload, &votes); err != nil {
		return domain.Community{}
	}
	return domain.Community{Upvotes: votes.Up, Downvotes: votes.Down}
}
