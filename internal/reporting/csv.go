package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the trade table as a CSV string.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("trade_id,instrument,symbol,entry_price,exit_price,exit_reason,pnl,pnl_pct,hold_ms\n")
	for _, t := range r.Trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.10f,%.10f,%s,%.10f,%.6f,%d\n",
			t.TradeID,
			t.Instrument,
			t.Symbol,
			t.EntryPrice,
			t.ExitPrice,
			t.ExitReason,
			t.PnL,
			t.PnLPercent,
			t.HoldMs,
		))
	}

	return sb.String()
}
