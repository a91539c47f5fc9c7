package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Submitter is the opaque transaction signing/broadcast capability.
// Implementations live outside the decision core.
type Submitter interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
}

// RPCGatewayConfig configures the live gateway guards.
type RPCGatewayConfig struct {
	// Timeout bounds each submission.
	Timeout time.Duration
	// RPS and Burst configure the token-bucket limiter on submissions.
	RPS   float64
	Burst int
	// BreakerFailures is the consecutive-failure count that opens the
	// circuit; BreakerCooldown is how long it stays open.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultRPCGatewayConfig returns the stock guard settings.
func DefaultRPCGatewayConfig() RPCGatewayConfig {
	return RPCGatewayConfig{
		Timeout:         10 * time.Second,
		RPS:             2,
		Burst:           4,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// RPCGateway wraps a Submitter with a deadline, a rate limiter and a
// circuit breaker so one stalled venue cannot wedge the engine.
type RPCGateway struct {
	submitter Submitter
	timeout   time.Duration
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	log       zerolog.Logger
}

// NewRPCGateway creates a guarded live gateway around submitter.
func NewRPCGateway(submitter Submitter, cfg RPCGatewayConfig, log zerolog.Logger) *RPCGateway {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "order-gateway",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("gateway breaker state change")
		},
	})
	return &RPCGateway{
		submitter: submitter,
		timeout:   cfg.Timeout,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker:   breaker,
		log:       log,
	}
}

// Submit executes the order through the guarded submitter. Deadline
// expiry and an open breaker both surface as timeout failures, which
// the engine retries per its policy.
func (g *RPCGateway) Submit(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, &OrderError{Kind: FailureTimeout, Err: err}
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.submitter.SubmitOrder(ctx, req)
	})
	if err != nil {
		return nil, g.classify(req, err)
	}
	res := out.(*OrderResult)
	g.log.Debug().Str("instrument", req.Instrument).Str("side", string(req.Side)).
		Float64("qty", res.FilledQuantity).Float64("avg_price", res.AvgPrice).
		Str("txid", res.TxID).Msg("order filled")
	return res, nil
}

func (g *RPCGateway) classify(req OrderRequest, err error) error {
	var oe *OrderError
	switch {
	case errors.As(err, &oe):
		// Submitter already classified it.
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		oe = &OrderError{Kind: FailureTimeout, Err: err}
	default:
		oe = &OrderError{Kind: FailureRejected, Err: err}
	}
	g.log.Warn().Str("instrument", req.Instrument).Str("side", string(req.Side)).
		Str("kind", string(oe.Kind)).Err(err).Msg("order failed")
	return oe
}

var _ Gateway = (*RPCGateway)(nil)
