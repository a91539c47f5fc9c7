// Package reporting turns closed trades into a replay result report
// and renders it. Rendering is deterministic: the same trades in the
// same order always produce byte-identical output.
package reporting

import "meme-sniper/internal/domain"

// Report is the result of one replay run.
type Report struct {
	// GeneratedAt is the logical end time of the run, Unix ms.
	GeneratedAt int64

	Summary       Summary
	ExitBreakdown []ExitReasonRow // sorted by reason
	Trades        []TradeRow      // exit-time order
}

// Summary aggregates run-level performance.
type Summary struct {
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64 // 0 when no trades

	TotalPnL            float64 // quote asset
	CumulativeReturnPct float64 // TotalPnL over total capital committed
	AvgWinPnL           float64
	AvgLossPnL          float64
	MaxDrawdown         float64 // largest peak-to-trough drop of cumulative PnL

	StuckPositions int
}

// ExitReasonRow counts trades and PnL for one exit reason.
type ExitReasonRow struct {
	Reason string
	Count  int
	PnL    float64
}

// TradeRow is one closed trade flattened for rendering.
type TradeRow struct {
	TradeID    string
	Instrument string
	Symbol     string
	EntryPrice float64
	ExitPrice  float64
	ExitReason string
	PnL        float64
	PnLPercent float64
	HoldMs     int64
}

// tradeRow flattens t.
func tradeRow(t *domain.ClosedTrade) TradeRow {
	return TradeRow{
		TradeID:    t.TradeID,
		Instrument: t.Instrument,
		Symbol:     t.Symbol,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		ExitReason: t.ExitReason,
		PnL:        t.RealizedPnL,
		PnLPercent: t.PnLPercent,
		HoldMs:     t.HoldDurationMs,
	}
}
