package clickhouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/storage/clickhouse"
	"meme-sniper/internal/storage/migrations"
)

// setupTestDB starts a ClickHouse container, applies the embedded
// migrations and returns a connection plus a cleanup function.
func setupTestDB(t *testing.T) (*clickhouse.Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	conn, err := clickhouse.NewConn(ctx, fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port()))
	require.NoError(t, err)

	require.NoError(t, migrations.RunClickhouseMigrations(ctx, conn))

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

func launchEvent(instrument string, seq uint64, ts int64) *domain.MarketEvent {
	return &domain.MarketEvent{
		Type:       domain.EventTypeLaunch,
		Instrument: instrument,
		Timestamp:  ts,
		Sequence:   seq,
		Launch: &domain.LaunchInfo{
			Name:             "Moon Cat",
			Symbol:           "MCAT",
			Creator:          "CreatorAddr",
			InitialLiquidity: 0.5,
			TotalSupply:      1000000,
		},
	}
}

func tradeEvent(instrument string, seq uint64, ts int64) *domain.MarketEvent {
	return &domain.MarketEvent{
		Type:       domain.EventTypeTrade,
		Instrument: instrument,
		Timestamp:  ts,
		Sequence:   seq,
		Trade: &domain.TradeInfo{
			Direction:   domain.TradeBuy,
			BaseAmount:  1000,
			QuoteAmount: 0.05,
		},
	}
}

func TestEventStore_AppendAndGetByInstrument(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewEventStore(conn)

	want := launchEvent("MintArchive1", 1, 1700000000000)
	require.NoError(t, store.Append(ctx, want))

	got, err := store.GetByInstrument(ctx, want.Instrument)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, want.Type, got[0].Type)
	assert.Equal(t, want.Sequence, got[0].Sequence)
	assert.Equal(t, want.Timestamp, got[0].Timestamp)
	require.NotNil(t, got[0].Launch)
	assert.Equal(t, want.Launch.Name, got[0].Launch.Name)
	assert.Equal(t, want.Launch.Symbol, got[0].Launch.Symbol)
	assert.Equal(t, want.Launch.Creator, got[0].Launch.Creator)
	assert.InDelta(t, want.Launch.InitialLiquidity, got[0].Launch.InitialLiquidity, 1e-9)
	assert.InDelta(t, want.Launch.TotalSupply, got[0].Launch.TotalSupply, 1e-9)
}

func TestEventStore_AppendBulkAndOrdering(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewEventStore(conn)

	// Insert out of timestamp order.
	events := []*domain.MarketEvent{
		tradeEvent("MintArchive2", 3, 3000),
		launchEvent("MintArchive2", 1, 1000),
		tradeEvent("MintArchive2", 2, 2000),
	}
	require.NoError(t, store.AppendBulk(ctx, events))

	got, err := store.GetByInstrument(ctx, "MintArchive2")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(1), got[0].Sequence)
	assert.Equal(t, uint64(2), got[1].Sequence)
	assert.Equal(t, uint64(3), got[2].Sequence)
	assert.Equal(t, domain.EventTypeLaunch, got[0].Type)
	require.NotNil(t, got[1].Trade)
	assert.Equal(t, domain.TradeBuy, got[1].Trade.Direction)
}

func TestEventStore_DuplicateKeysCollapse(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewEventStore(conn)

	// The archive table replaces rows with the same (instrument,
	// sequence) key instead of rejecting them.
	require.NoError(t, store.Append(ctx, tradeEvent("MintArchive3", 1, 1000)))
	require.NoError(t, store.Append(ctx, tradeEvent("MintArchive3", 1, 1000)))

	got, err := store.GetByInstrument(ctx, "MintArchive3")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEventStore_GraduationRoundTrip(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewEventStore(conn)

	ev := &domain.MarketEvent{
		Type:       domain.EventTypeGraduation,
		Instrument: "MintArchive4",
		Timestamp:  5000,
		Sequence:   9,
		Graduation: &domain.GraduationInfo{FinalValuation: 69000},
	}
	require.NoError(t, store.Append(ctx, ev))

	got, err := store.GetByInstrument(ctx, ev.Instrument)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Graduation)
	assert.InDelta(t, 69000, got[0].Graduation.FinalValuation, 1e-9)
}

func TestEventStore_EmptyResult(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewEventStore(conn)

	got, err := store.GetByInstrument(ctx, "MintNobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}
