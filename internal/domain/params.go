package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfigInvalid wraps all startup parameter validation failures.
// It is the only fatal error class in the core.
var ErrConfigInvalid = errors.New("invalid configuration")

// StrategyParameters is the immutable configuration consumed by the
// admission filter and the position manager. Loaded once at startup,
// never mutated at runtime.
type StrategyParameters struct {
	// Entry
	EntrySize       float64 `yaml:"entry_size"`       // quote asset per entry
	SlippagePercent float64 `yaml:"slippage_percent"` // bound passed to the gateway
	CurvePortion    float64 `yaml:"curve_portion"`    // fraction of supply on the curve at launch

	// Phase 1 exits
	TakeProfitPercent  float64  `yaml:"take_profit_percent"`       // e.g. 200 means +200%
	TakeProfitFraction float64  `yaml:"take_profit_sell_fraction"` // fraction sold at take-profit, e.g. 0.9
	StopLossPercent    float64  `yaml:"stop_loss_percent"`         // negative, e.g. -50
	MaxHold            Duration `yaml:"max_hold"`

	// Phase 2 (moonshot) exits
	KeepMoonshot            bool     `yaml:"keep_moonshot"`
	MoonshotProfitPercent   float64  `yaml:"moonshot_profit_percent"`    // e.g. 500
	MoonshotStopLossPercent float64  `yaml:"moonshot_stop_loss_percent"` // drawdown from peak, negative
	MoonshotMaxHold         Duration `yaml:"moonshot_max_hold"`

	// Admission
	Blacklist          []string `yaml:"blacklist"`
	MinLiquidity       float64  `yaml:"min_liquidity"`
	MinNameLength      int      `yaml:"min_name_length"`
	MaxNameLength      int      `yaml:"max_name_length"`
	MinSymbolLength    int      `yaml:"min_symbol_length"`
	MaxSymbolLength    int      `yaml:"max_symbol_length"`
	MaxTokensPerDay    int      `yaml:"max_tokens_per_creator_24h"`
	MinCreatorInterval Duration `yaml:"min_creator_token_interval"`

	// Risk limits
	MaxDailyTrades         int     `yaml:"max_daily_trades"`
	MaxDailyCapital        float64 `yaml:"max_daily_capital"`
	MaxConcurrentPositions int     `yaml:"max_concurrent_positions"`

	// Order handling
	OrderRetryCeiling int      `yaml:"order_retry_ceiling"`
	OrderTimeout      Duration `yaml:"order_timeout"`
	TickInterval      Duration `yaml:"tick_interval"`
}

// DefaultParameters returns the stock parameter set.
func DefaultParameters() StrategyParameters {
	return StrategyParameters{
		EntrySize:       0.05,
		SlippagePercent: 15,
		CurvePortion:    0.8,

		TakeProfitPercent:  200,
		TakeProfitFraction: 0.9,
		StopLossPercent:    -50,
		MaxHold:            Duration(5 * time.Minute),

		KeepMoonshot:            true,
		MoonshotProfitPercent:   500,
		MoonshotStopLossPercent: -30,
		MoonshotMaxHold:         Duration(24 * time.Hour),

		Blacklist:          []string{"scam", "rug", "test"},
		MinLiquidity:       0.01,
		MinNameLength:      2,
		MaxNameLength:      32,
		MinSymbolLength:    2,
		MaxSymbolLength:    10,
		MaxTokensPerDay:    3,
		MinCreatorInterval: Duration(10 * time.Minute),

		MaxDailyTrades:         10,
		MaxDailyCapital:        0.5,
		MaxConcurrentPositions: 3,

		OrderRetryCeiling: 3,
		OrderTimeout:      Duration(10 * time.Second),
		TickInterval:      Duration(10 * time.Second),
	}
}

// Validate enforces startup invariants. Any violation is fatal.
func (p *StrategyParameters) Validate() error {
	if p.EntrySize <= 0 {
		return fmt.Errorf("%w: entry_size must be positive, got %v", ErrConfigInvalid, p.EntrySize)
	}
	if p.CurvePortion <= 0 || p.CurvePortion > 1 {
		return fmt.Errorf("%w: curve_portion must be in (0,1], got %v", ErrConfigInvalid, p.CurvePortion)
	}
	if p.TakeProfitPercent <= 0 {
		return fmt.Errorf("%w: take_profit_percent must be positive, got %v", ErrConfigInvalid, p.TakeProfitPercent)
	}
	if p.TakeProfitFraction <= 0 || p.TakeProfitFraction > 1 {
		return fmt.Errorf("%w: take_profit_sell_fraction must be in (0,1], got %v", ErrConfigInvalid, p.TakeProfitFraction)
	}
	if p.StopLossPercent >= 0 {
		return fmt.Errorf("%w: stop_loss_percent must be negative, got %v", ErrConfigInvalid, p.StopLossPercent)
	}
	if p.StopLossPercent <= -100 {
		return fmt.Errorf("%w: stop_loss_percent must be above -100, got %v", ErrConfigInvalid, p.StopLossPercent)
	}
	if p.MaxHold <= 0 {
		return fmt.Errorf("%w: max_hold must be positive, got %v", ErrConfigInvalid, p.MaxHold)
	}
	if p.KeepMoonshot {
		if p.MoonshotProfitPercent <= p.TakeProfitPercent {
			return fmt.Errorf("%w: moonshot_profit_percent (%v) must exceed take_profit_percent (%v)",
				ErrConfigInvalid, p.MoonshotProfitPercent, p.TakeProfitPercent)
		}
		if p.MoonshotStopLossPercent >= 0 || p.MoonshotStopLossPercent <= -100 {
			return fmt.Errorf("%w: moonshot_stop_loss_percent must be in (-100,0), got %v",
				ErrConfigInvalid, p.MoonshotStopLossPercent)
		}
		if p.MoonshotMaxHold <= p.MaxHold {
			return fmt.Errorf("%w: moonshot_max_hold (%v) must exceed max_hold (%v)",
				ErrConfigInvalid, p.MoonshotMaxHold, p.MaxHold)
		}
	}
	if p.MinLiquidity < 0 {
		return fmt.Errorf("%w: min_liquidity must be non-negative, got %v", ErrConfigInvalid, p.MinLiquidity)
	}
	if p.MaxDailyTrades <= 0 {
		return fmt.Errorf("%w: max_daily_trades must be positive, got %d", ErrConfigInvalid, p.MaxDailyTrades)
	}
	if p.MaxDailyCapital < p.EntrySize {
		return fmt.Errorf("%w: max_daily_capital (%v) below entry_size (%v)",
			ErrConfigInvalid, p.MaxDailyCapital, p.EntrySize)
	}
	if p.MaxConcurrentPositions <= 0 {
		return fmt.Errorf("%w: max_concurrent_positions must be positive, got %d", ErrConfigInvalid, p.MaxConcurrentPositions)
	}
	if p.OrderRetryCeiling <= 0 {
		return fmt.Errorf("%w: order_retry_ceiling must be positive, got %d", ErrConfigInvalid, p.OrderRetryCeiling)
	}
	if p.OrderTimeout <= 0 {
		return fmt.Errorf("%w: order_timeout must be positive, got %v", ErrConfigInvalid, p.OrderTimeout)
	}
	if p.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive, got %v", ErrConfigInvalid, p.TickInterval)
	}
	return nil
}
