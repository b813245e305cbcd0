package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePriceAdapter struct {
	price float64
	ts    time.Time
	err   error
}

func (f *fakePriceAdapter) GetPrice(ctx context.Context, symbol string) (float64, time.Time, error) {
	return f.price, f.ts, f.err
}

func (f *fakePriceAdapter) GetOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]OHLCVBar, error) {
	return nil, f.err
}

func TestNew_LiveModeWhenSimulationTimeZero(t *testing.T) {
	gw := New(Config{Mode: ModeLive})
	assert.True(t, gw.IsLive())
}

func TestNew_NonLiveModeWithExplicitTime(t *testing.T) {
	simTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gw := New(Config{Mode: ModeStrict, SimulationTime: simTime})
	assert.False(t, gw.IsLive())
	assert.Equal(t, simTime, gw.SimulationTime())
}

func TestGetPrice_AllowedWithinBoundary(t *testing.T) {
	simTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	adapter := &fakePriceAdapter{price: 50000, ts: simTime.Add(-time.Hour)}
	gw := New(Config{Mode: ModeStrict, SimulationTime: simTime, Price: adapter})

	price, ok, err := gw.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 50000.0, price)
}

func TestGetPrice_StrictModeRejectsFutureData(t *testing.T) {
	simTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	adapter := &fakePriceAdapter{price: 50000, ts: simTime.Add(time.Hour)}
	gw := New(Config{Mode: ModeStrict, SimulationTime: simTime, Price: adapter})

	_, ok, err := gw.GetPrice(context.Background(), "BTC")
	assert.ErrorIs(t, err, ErrTemporalViolation)
	assert.False(t, ok)
}

func TestGetPrice_LaxModeSwallowsFutureData(t *testing.T) {
	simTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	adapter := &fakePriceAdapter{price: 50000, ts: simTime.Add(time.Hour)}
	gw := New(Config{Mode: ModeLax, SimulationTime: simTime, Price: adapter})

	_, ok, err := gw.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetPrice_AdapterErrorYieldsNullResult(t *testing.T) {
	simTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	adapter := &fakePriceAdapter{err: assertErr{"network down"}}
	gw := New(Config{Mode: ModeStrict, SimulationTime: simTime, Price: adapter})

	price, ok, err := gw.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, price)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }

func TestSetSimulationTime_RejectsFutureInNonLiveMode(t *testing.T) {
	gw := New(Config{Mode: ModeStrict, SimulationTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})
	err := gw.SetSimulationTime(context.Background(), time.Now().Add(24*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestAuditLog_BoundedAt10000(t *testing.T) {
	simTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	adapter := &fakePriceAdapter{price: 100, ts: simTime.Add(-time.Minute)}
	gw := New(Config{Mode: ModeLax, SimulationTime: simTime, Price: adapter, LogAccess: true})

	for i := 0; i < auditRingSize+50; i++ {
		_, _, _ = gw.GetPrice(context.Background(), "BTC")
	}
	assert.LessOrEqual(t, len(gw.AccessLog()), auditRingSize)
}

func TestStats_TracksViolationRate(t *testing.T) {
	simTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	adapter := &fakePriceAdapter{price: 100, ts: simTime.Add(time.Hour)}
	gw := New(Config{Mode: ModeLax, SimulationTime: simTime, Price: adapter, LogAccess: true})

	_, _, _ = gw.GetPrice(context.Background(), "BTC")
	stats := gw.Stats()
	assert.Equal(t, 1, stats.TotalRequests)
	assert.Equal(t, 1, stats.Violations)
	assert.Equal(t, 1.0, stats.ViolationRate)
}

func TestReset_ClearsAuditLog(t *testing.T) {
	simTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	adapter := &fakePriceAdapter{price: 100, ts: simTime.Add(-time.Minute)}
	gw := New(Config{Mode: ModeLax, SimulationTime: simTime, Price: adapter, LogAccess: true})
	_, _, _ = gw.GetPrice(context.Background(), "BTC")
	require.NotEmpty(t, gw.AccessLog())
	gw.Reset()
	assert.Empty(t, gw.AccessLog())
}
