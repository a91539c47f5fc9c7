package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Replay Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n",
		time.UnixMilli(r.GeneratedAt).UTC().Format(time.RFC3339)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.Summary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Wins | %d |\n", r.Summary.Wins))
	sb.WriteString(fmt.Sprintf("| Losses | %d |\n", r.Summary.Losses))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", r.Summary.WinRate))
	sb.WriteString(fmt.Sprintf("| Total PnL | %.6f |\n", r.Summary.TotalPnL))
	sb.WriteString(fmt.Sprintf("| Cumulative Return | %.2f%% |\n", r.Summary.CumulativeReturnPct))
	sb.WriteString(fmt.Sprintf("| Avg Win PnL | %.6f |\n", r.Summary.AvgWinPnL))
	sb.WriteString(fmt.Sprintf("| Avg Loss PnL | %.6f |\n", r.Summary.AvgLossPnL))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.6f |\n", r.Summary.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Stuck Positions | %d |\n", r.Summary.StuckPositions))
	sb.WriteString("\n")

	sb.WriteString("## Exit Breakdown\n\n")
	if len(r.ExitBreakdown) > 0 {
		sb.WriteString("| Reason | Count | PnL |\n")
		sb.WriteString("|--------|-------|-----|\n")
		for _, row := range r.ExitBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.6f |\n", row.Reason, row.Count, row.PnL))
		}
	} else {
		sb.WriteString("No trades closed.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Trades\n\n")
	if len(r.Trades) > 0 {
		sb.WriteString("| Trade | Symbol | Entry | Exit | Reason | PnL | PnL% | Hold (ms) |\n")
		sb.WriteString("|-------|--------|-------|------|--------|-----|------|-----------|\n")
		for _, t := range r.Trades {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.10f | %.10f | %s | %.6f | %.2f | %d |\n",
				shortID(t.TradeID), t.Symbol, t.EntryPrice, t.ExitPrice,
				t.ExitReason, t.PnL, t.PnLPercent, t.HoldMs))
		}
	} else {
		sb.WriteString("No trades closed.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// shortID truncates a 64-char trade ID for table display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
