package reporting

import (
	"sort"

	"meme-sniper/internal/domain"
)

// Build aggregates trades into a Report. Trades are expected in exit
// time order as delivered by the trade store; the builder does not
// re-sort them so store ordering and report ordering stay identical.
func Build(generatedAt int64, trades []*domain.ClosedTrade, stuckPositions int) *Report {
	r := &Report{
		GeneratedAt: generatedAt,
		Summary: Summary{
			TotalTrades:    len(trades),
			StuckPositions: stuckPositions,
		},
	}

	var (
		winPnL, lossPnL float64
		committed       float64
		cumPnL, peak    float64
		byReason        = make(map[string]*ExitReasonRow)
	)
	for _, t := range trades {
		r.Trades = append(r.Trades, tradeRow(t))

		if t.Win() {
			r.Summary.Wins++
			winPnL += t.RealizedPnL
		} else {
			r.Summary.Losses++
			lossPnL += t.RealizedPnL
		}
		r.Summary.TotalPnL += t.RealizedPnL
		committed += t.CapitalCommitted

		cumPnL += t.RealizedPnL
		if cumPnL > peak {
			peak = cumPnL
		}
		if dd := peak - cumPnL; dd > r.Summary.MaxDrawdown {
			r.Summary.MaxDrawdown = dd
		}

		row, ok := byReason[t.ExitReason]
		if !ok {
			row = &ExitReasonRow{Reason: t.ExitReason}
			byReason[t.ExitReason] = row
		}
		row.Count++
		row.PnL += t.RealizedPnL
	}

	if r.Summary.TotalTrades > 0 {
		r.Summary.WinRate = float64(r.Summary.Wins) / float64(r.Summary.TotalTrades)
	}
	if r.Summary.Wins > 0 {
		r.Summary.AvgWinPnL = winPnL / float64(r.Summary.Wins)
	}
	if r.Summary.Losses > 0 {
		r.Summary.AvgLossPnL = lossPnL / float64(r.Summary.Losses)
	}
	if committed > 0 {
		r.Summary.CumulativeReturnPct = r.Summary.TotalPnL / committed * 100
	}

	for _, row := range byReason {
		r.ExitBreakdown = append(r.ExitBreakdown, *row)
	}
	sort.Slice(r.ExitBreakdown, func(i, j int) bool {
		return r.ExitBreakdown[i].Reason < r.ExitBreakdown[j].Reason
	})

	return r
}
