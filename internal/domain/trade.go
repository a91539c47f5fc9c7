package domain

// Exit reason constants recorded on closed trades.
const (
	ExitReasonTakeProfit       = "TAKE_PROFIT"
	ExitReasonStopLoss         = "STOP_LOSS"
	ExitReasonTimeStop         = "TIME_STOP"
	ExitReasonMoonshotProfit   = "MOONSHOT_PROFIT"
	ExitReasonMoonshotDrawdown = "MOONSHOT_DRAWDOWN"
	ExitReasonMoonshotTimeStop = "MOONSHOT_TIME_STOP"
	ExitReasonReplayEnd        = "REPLAY_END"
)

// ClosedTrade is the audit record of one completed position lifecycle.
type ClosedTrade struct {
	TradeID    string
	Instrument string
	Symbol     string

	EntryPrice float64
	EntryTime  int64 // Unix ms
	ExitPrice  float64
	ExitTime   int64 // Unix ms
	ExitReason string

	Quantity         float64 // total acquired
	CapitalCommitted float64
	Proceeds         float64  // total quote received across all fills
	FirstExitPrice   *float64 // partial take-profit price, nil if exited in one shot
	PeakPrice        float64

	RealizedPnL    float64 // Proceeds - CapitalCommitted
	PnLPercent     float64
	HoldDurationMs int64
}

// Win reports whether the trade realized a profit.
func (t *ClosedTrade) Win() bool {
	return t.RealizedPnL > 0
}
