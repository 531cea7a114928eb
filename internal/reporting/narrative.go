package reporting

import (
	"fmt"
	"strings"

	"solguard/internal/domain"
)

// maxNarrativeVenues caps how many venues the narrative lists.
const maxNarrativeVenues = 3

// FailureText is the user-facing message for the no-market-data outcome.
const FailureText = "Token Analysis Failed\n\n" +
	"Unable to fetch token data. Possible reasons:\n" +
	"• Token is not actively trading\n" +
	"• Token has no liquidity\n" +
	"• Token address is incorrect\n" +
	"• Token is too new\n\n" +
	"Try again later or check the token address."

// htmlEscaper covers the characters with markup meaning in the narrative.
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// RenderNarrative renders the analysis as HTML-tagged text in a fixed
// section order: header, key metrics, security check, venue presence,
// risk assessment, factor lists, verdict.
func RenderNarrative(snap *domain.TokenSnapshot, assessment *domain.RiskAssessment) string {
	var sb strings.Builder

	// Header
	sb.WriteString("<b>SOLGUARD ANALYSIS</b>\n")
	sb.WriteString(fmt.Sprintf("<b>%s</b> (<code>%s</code>)\n\n", escapeHTML(snap.Name), escapeHTML(snap.Symbol)))

	// Key metrics
	sb.WriteString("<b>KEY METRICS</b>\n")
	sb.WriteString(fmt.Sprintf("• Price: <code>%s</code>\n", formatPrice(snap.PriceUSD)))
	sb.WriteString(fmt.Sprintf("• 24h Change: <code>%+.2f%%</code>\n", snap.PriceChange24h))
	sb.WriteString(fmt.Sprintf("• Volume: <code>%s</code>\n", domain.FormatUSD(snap.Volume24h)))
	sb.WriteString(fmt.Sprintf("• Liquidity: <code>%s</code>\n", domain.FormatUSD(snap.LiquidityUSD)))
	sb.WriteString(fmt.Sprintf("• Market Cap: <code>%s</code>\n", domain.FormatUSD(snap.MarketCap)))
	if snap.Holders > 0 {
		sb.WriteString(fmt.Sprintf("• Holders: <code>%s</code>\n", domain.GroupDigits(snap.Holders)))
	} else {
		sb.WriteString("• Holders: <code>Unknown</code>\n")
	}
	sb.WriteString("\n")

	// Security check
	sb.WriteString("<b>SECURITY CHECK</b>\n")
	switch snap.Lock.Type {
	case domain.LockTraditional:
		sb.WriteString(fmt.Sprintf("• <code>%.1f%%</code> liquidity locked\n", snap.Lock.Percent))
		sb.WriteString(fmt.Sprintf("• Lock period: <code>%d</code> days\n", snap.Lock.Days))
	case domain.LockManaged:
		sb.WriteString("• Liquidity managed by pool\n")
	default:
		sb.WriteString("• Liquidity not locked\n")
	}
	sb.WriteString("\n")

	// Venue presence
	sb.WriteString("<b>DEX PRESENCE</b>\n")
	if len(snap.Pairs) > 0 {
		for i, pair := range snap.Pairs {
			if i >= maxNarrativeVenues {
				break
			}
			sb.WriteString(fmt.Sprintf("• %s: <code>%s</code>\n", escapeHTML(pair.DexID), domain.FormatUSD(pair.LiquidityUSD)))
		}
	} else {
		sb.WriteString("• No active DEX pairs found\n")
	}
	sb.WriteString("\n")

	// Risk assessment
	sb.WriteString("<b>RISK ASSESSMENT</b>\n")
	sb.WriteString(fmt.Sprintf("Score: <code>%d/100</code>\n", assessment.Score))
	sb.WriteString(fmt.Sprintf("Level: <b>%s</b>\n\n", escapeHTML(string(assessment.Level))))

	// Factor lists, each section only when populated
	writeFactorSection(&sb, "CRITICAL RISKS", assessment.RiskFactors)
	writeFactorSection(&sb, "WARNINGS", assessment.Warnings)
	writeFactorSection(&sb, "POSITIVE FACTORS", assessment.Positives)

	// Verdict
	sb.WriteString("<b>VERDICT</b>\n")
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n\n", escapeHTML(assessment.Recommendation)))
	sb.WriteString("<i>Powered by SolGuard</i>")

	return sb.String()
}

// RenderFailure renders the fatal no-data outcome.
func RenderFailure() string {
	return FailureText
}

// writeFactorSection writes one titled bullet list, skipping empty lists.
func writeFactorSection(sb *strings.Builder, title string, entries []string) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n", title))
	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("• %s\n", escapeHTML(entry)))
	}
	sb.WriteString("\n")
}

// formatPrice picks decimal precision by price magnitude so sub-cent
// tokens stay readable.
func formatPrice(price float64) string {
	switch {
	case price < 0.000001:
		return fmt.Sprintf("$%.8f", price)
	case price < 0.01:
		return fmt.Sprintf("$%.6f", price)
	default:
		return fmt.Sprintf("$%.5f", price)
	}
}

// escapeHTML escapes the characters Telegram-style HTML treats specially.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
