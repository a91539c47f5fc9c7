package domain

// TransitionRecord is one append-only journal entry: a position
// transition or a processed event, keyed by (instrument, sequence).
// The journal is the audit trail and the input for state
// reconstruction after restart.
type TransitionRecord struct {
	Instrument string
	Sequence   uint64
	Timestamp  int64  // Unix ms
	Action     string // e.g. "entry_filled", "partial_exit", "sell_failed"
	Phase      Phase  // resulting lifecycle phase
	Price      float64
	Quantity   float64
	Detail     string // free-form context (exit reason, failure kind)
}

// Journal action constants.
const (
	ActionEntrySubmitted   = "entry_submitted"
	ActionEntryFilled      = "entry_filled"
	ActionEntryFailed      = "entry_failed"
	ActionEntryAbandoned   = "entry_abandoned"
	ActionPartialExit      = "partial_exit"
	ActionMoonshotPromoted = "moonshot_promoted"
	ActionFullExit         = "full_exit"
	ActionSellFailed       = "sell_failed"
	ActionStuck            = "stuck"
	ActionStaleFill        = "stale_fill_ignored"
)
