package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"meme-sniper/internal/domain"
)

// WSConfig configures websocket client behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// DedupWindow is how many recent (instrument, sequence) keys are
	// remembered for duplicate suppression across reconnects.
	DedupWindow int
}

// DefaultWSConfig returns default websocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		DedupWindow:       4096,
	}
}

// Handler consumes normalized events from the stream.
type Handler func(ctx context.Context, ev *domain.MarketEvent)

// WSClient streams platform events over a websocket, normalizes them
// and delivers ordered, deduplicated events to a handler. Malformed
// and out-of-order payloads are logged and skipped.
type WSClient struct {
	endpoint string
	config   WSConfig
	log      zerolog.Logger

	tracker *OrderTracker

	mu    sync.Mutex
	seen  map[string]struct{} // instrument|sequence dedup keys
	order []string            // insertion order for window eviction
}

// NewWSClient creates a websocket feed client for endpoint.
func NewWSClient(endpoint string, config WSConfig, log zerolog.Logger) *WSClient {
	return &WSClient{
		endpoint: endpoint,
		config:   config,
		log:      log,
		tracker:  NewOrderTracker(),
		seen:     make(map[string]struct{}),
	}
}

// Run connects and streams events to handler until ctx is cancelled,
// reconnecting with exponential backoff on connection loss.
func (c *WSClient) Run(ctx context.Context, handler Handler) error {
	delay := c.config.ReconnectDelay
	for {
		err := c.stream(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Dur("retry_in", delay).Msg("feed connection lost")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

// stream runs one connection lifetime.
func (c *WSClient) stream(ctx context.Context, handler Handler) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.config.WriteTimeout}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.endpoint, err)
	}
	defer conn.Close()
	c.log.Info().Str("endpoint", c.endpoint).Msg("feed connected")

	// Ping loop keeps the connection alive; exits with the reader.
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(c.config.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(c.config.WriteTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case <-pingDone:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		c.dispatch(ctx, raw, handler)
	}
}

// dispatch normalizes, dedupes and order-checks one payload, then
// hands it to the handler.
func (c *WSClient) dispatch(ctx context.Context, raw []byte, handler Handler) {
	ev, err := Normalize(raw)
	if err != nil {
		c.log.Warn().Err(err).Msg("skipping malformed payload")
		return
	}

	if c.duplicate(ev) {
		c.log.Debug().Str("instrument", ev.Instrument).Uint64("seq", ev.Sequence).
			Msg("dropping duplicate event")
		return
	}

	if err := c.tracker.Observe(ev); err != nil {
		// Feeds may redeliver; drop rather than fail the session.
		c.log.Warn().Err(err).Msg("dropping out-of-order event")
		return
	}

	handler(ctx, ev)
}

// duplicate records ev's dedup key and reports whether it was already
// seen inside the window.
func (c *WSClient) duplicate(ev *domain.MarketEvent) bool {
	key := fmt.Sprintf("%s|%d", ev.Instrument, ev.Sequence)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[key]; ok {
		return true
	}
	c.seen[key] = struct{}{}
	c.order = append(c.order, key)
	if c.config.DedupWindow > 0 && len(c.order) > c.config.DedupWindow {
		evict := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, evict)
	}
	return false
}
