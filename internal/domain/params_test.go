package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultParametersValidate(t *testing.T) {
	params := DefaultParameters()
	if err := params.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StrategyParameters)
	}{
		{"zero entry size", func(p *StrategyParameters) { p.EntrySize = 0 }},
		{"curve portion above one", func(p *StrategyParameters) { p.CurvePortion = 1.5 }},
		{"negative take profit", func(p *StrategyParameters) { p.TakeProfitPercent = -10 }},
		{"sell fraction above one", func(p *StrategyParameters) { p.TakeProfitFraction = 1.1 }},
		{"positive stop loss", func(p *StrategyParameters) { p.StopLossPercent = 10 }},
		{"stop loss at total loss", func(p *StrategyParameters) { p.StopLossPercent = -100 }},
		{"zero max hold", func(p *StrategyParameters) { p.MaxHold = 0 }},
		{"moonshot target below take profit", func(p *StrategyParameters) { p.MoonshotProfitPercent = 100 }},
		{"positive moonshot stop", func(p *StrategyParameters) { p.MoonshotStopLossPercent = 5 }},
		{"moonshot hold shorter than hold", func(p *StrategyParameters) {
			p.MoonshotMaxHold = Duration(time.Minute)
		}},
		{"negative min liquidity", func(p *StrategyParameters) { p.MinLiquidity = -1 }},
		{"zero daily trades", func(p *StrategyParameters) { p.MaxDailyTrades = 0 }},
		{"daily capital below entry size", func(p *StrategyParameters) { p.MaxDailyCapital = 0.01 }},
		{"zero concurrent positions", func(p *StrategyParameters) { p.MaxConcurrentPositions = 0 }},
		{"zero retry ceiling", func(p *StrategyParameters) { p.OrderRetryCeiling = 0 }},
		{"zero order timeout", func(p *StrategyParameters) { p.OrderTimeout = 0 }},
		{"zero tick interval", func(p *StrategyParameters) { p.TickInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParameters()
			tt.mutate(&params)
			if err := params.Validate(); !errors.Is(err, ErrConfigInvalid) {
				t.Errorf("want ErrConfigInvalid, got %v", err)
			}
		})
	}
}

func TestValidateSkipsMoonshotChecksWhenDisabled(t *testing.T) {
	params := DefaultParameters()
	params.KeepMoonshot = false
	params.MoonshotProfitPercent = 0
	params.MoonshotStopLossPercent = 0
	params.MoonshotMaxHold = 0
	if err := params.Validate(); err != nil {
		t.Errorf("moonshot fields must be ignored when disabled: %v", err)
	}
}
