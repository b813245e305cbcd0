package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofunk/engine/internal/state"
)

func setupTestStore(t *testing.T, cfg Config) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewWithClient(client, cfg)

	return store, mr
}

func TestStore_AddAndLast(t *testing.T) {
	store, mr := setupTestStore(t, Config{Prefix: "test:", MaxPerSymbol: 10})
	defer mr.Close()

	ctx := context.Background()
	rec := Record{Symbol: "BTC", Timestamp: time.Now(), Action: "buy", Confidence: 0.8}

	require.NoError(t, store.Add(ctx, rec))

	last, err := store.Last(ctx, "BTC")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "buy", last.Action)
	assert.InDelta(t, 0.8, last.Confidence, 1e-9)
}

func TestStore_LastWithNoHistoryReturnsNil(t *testing.T) {
	store, mr := setupTestStore(t, Config{Prefix: "test:"})
	defer mr.Close()

	last, err := store.Last(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestStore_TrimsToMaxPerSymbol(t *testing.T) {
	store, mr := setupTestStore(t, Config{Prefix: "test:", MaxPerSymbol: 3})
	defer mr.Close()

	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 5; i++ {
		rec := Record{
			Symbol:    "BTC",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Action:    "hold",
		}
		require.NoError(t, store.Add(ctx, rec))
	}

	recent, err := store.Recent(ctx, "BTC", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestStore_RecentOrdersNewestFirst(t *testing.T) {
	store, mr := setupTestStore(t, Config{Prefix: "test:", MaxPerSymbol: 10})
	defer mr.Close()

	ctx := context.Background()
	base := time.Now()
	require.NoError(t, store.Add(ctx, Record{Symbol: "BTC", Timestamp: base, Action: "hold"}))
	require.NoError(t, store.Add(ctx, Record{Symbol: "BTC", Timestamp: base.Add(time.Minute), Action: "buy"}))

	recent, err := store.Recent(ctx, "BTC", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "buy", recent[0].Action)
	assert.Equal(t, "hold", recent[1].Action)
}

func TestStore_Since(t *testing.T) {
	store, mr := setupTestStore(t, Config{Prefix: "test:", MaxPerSymbol: 10})
	defer mr.Close()

	ctx := context.Background()
	base := time.Now()
	require.NoError(t, store.Add(ctx, Record{Symbol: "BTC", Timestamp: base.Add(-time.Hour), Action: "hold"}))
	require.NoError(t, store.Add(ctx, Record{Symbol: "BTC", Timestamp: base, Action: "buy"}))

	recs, err := store.Since(ctx, "BTC", base.Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "buy", recs[0].Action)
}

func TestStore_Symbols(t *testing.T) {
	store, mr := setupTestStore(t, Config{Prefix: "test:", MaxPerSymbol: 10})
	defer mr.Close()

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, Record{Symbol: "BTC", Timestamp: time.Now(), Action: "hold"}))
	require.NoError(t, store.Add(ctx, Record{Symbol: "ETH", Timestamp: time.Now(), Action: "sell"}))

	symbols, err := store.Symbols(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"BTC", "ETH"}, symbols)
}

func TestStore_ClearSymbol(t *testing.T) {
	store, mr := setupTestStore(t, Config{Prefix: "test:", MaxPerSymbol: 10})
	defer mr.Close()

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, Record{Symbol: "BTC", Timestamp: time.Now(), Action: "hold"}))

	require.NoError(t, store.Clear(ctx, "BTC"))

	last, err := store.Last(ctx, "BTC")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestStore_ClearAll(t *testing.T) {
	store, mr := setupTestStore(t, Config{Prefix: "test:", MaxPerSymbol: 10})
	defer mr.Close()

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, Record{Symbol: "BTC", Timestamp: time.Now(), Action: "hold"}))
	require.NoError(t, store.Add(ctx, Record{Symbol: "ETH", Timestamp: time.Now(), Action: "sell"}))

	require.NoError(t, store.Clear(ctx, ""))

	symbols, err := store.Symbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestRecordFromState(t *testing.T) {
	s := state.New("BTC", nil, 3)
	s.BullArgument = "bullish"
	s.BearArgument = "bearish"
	s.ResearchSummary = "research notes"
	s.FinalDecision = &state.FinalDecision{
		Action:     "buy",
		Symbol:     "BTC",
		Confidence: 0.75,
		Sentiment:  0.4,
		Reason:     "strong momentum",
	}

	rec := RecordFromState("BTC", s)
	assert.Equal(t, "buy", rec.Action)
	assert.InDelta(t, 0.75, rec.Confidence, 1e-9)
	assert.Equal(t, "bullish", rec.BullArgument)
	assert.Equal(t, "bearish", rec.BearArgument)
	assert.NotNil(t, rec.Final)
}

func TestExplain(t *testing.T) {
	rec := Record{
		Symbol:     "BTC",
		Timestamp:  time.Now(),
		Action:     "buy",
		Confidence: 0.8,
		Sentiment:  0.3,
		Reason:     "reason text",
	}

	out := Explain(rec)
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "buy")
}
