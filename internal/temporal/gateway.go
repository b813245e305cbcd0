// Package temporal implements the anti-look-ahead substrate: every read of
// time-indexed external data is gated by a simulation clock and recorded
// to an audit log, enabling both live operation and historically-faithful
// backtest replay from the same agent code.
//
// Grounded on original_source/core/utils/temporal_gateway.py.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Mode governs how the Gateway treats boundary violations.
type Mode int

const (
	// ModeStrict raises ErrTemporalViolation on any future-time read.
	ModeStrict Mode = iota
	// ModeLax logs the violation and returns a null result.
	ModeLax
	// ModeLive tracks wall-clock time; price reads are cache-backed with
	// a 10s TTL.
	ModeLive
)

// DataType tags what kind of external data a read touches, for audit
// records and per-type violation statistics. FUNDAMENTALS is a supplement
// over the distilled spec's eight-value set, grounded in the original's
// DataType enum, added to give FundamentalsAdapter reads a matching tag.
type DataType string

const (
	DataTypePrice        DataType = "PRICE"
	DataTypeOHLCV        DataType = "OHLCV"
	DataTypeOrderbook    DataType = "ORDERBOOK"
	DataTypeNews         DataType = "NEWS"
	DataTypeSocial       DataType = "SOCIAL"
	DataTypeFinancials   DataType = "FINANCIALS"
	DataTypeSentiment    DataType = "SENTIMENT"
	DataTypeOnChain      DataType = "ON_CHAIN"
	DataTypeFundamentals DataType = "FUNDAMENTALS"
)

// ErrTemporalViolation is raised in strict mode when a read would cross the
// simulation boundary.
var ErrTemporalViolation = errors.New("temporal: read crosses simulation boundary")

// ErrInvalidTime is raised by SetSimulationTime when a non-live Gateway is
// asked to jump past wall-clock now.
var ErrInvalidTime = errors.New("temporal: simulation time cannot exceed wall clock in non-live mode")

const (
	auditRingSize    = 10000
	cacheFlushJump   = 60 * time.Second
	liveCacheTTL     = 10 * time.Second
)

// AccessRecord is one append-only audit log entry. Invariant:
// RequestedTime <= SimulationTime whenever Allowed is true.
type AccessRecord struct {
	Timestamp      time.Time
	DataType       DataType
	Symbol         string
	RequestedTime  time.Time
	SimulationTime time.Time
	Allowed        bool
	Reason         string
}

// PriceAdapter, NewsAdapter, FinancialsAdapter, SentimentAdapter are the
// narrow capability interfaces the Gateway mediates access through. Their
// concrete implementations live outside the core (internal/adapters).
type PriceAdapter interface {
	GetPrice(ctx context.Context, symbol string) (price float64, timestamp time.Time, err error)
	GetOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]OHLCVBar, error)
}

type NewsAdapter interface {
	Search(ctx context.Context, query string, symbols []string, limit int, publishedBefore time.Time) ([]NewsItem, error)
}

type FinancialsAdapter interface {
	GetReports(ctx context.Context, symbol, reportType string, releasedBefore time.Time) ([]FinancialReport, error)
}

type SentimentAdapter interface {
	GetSentiment(ctx context.Context, symbol string, asOf time.Time) (*SentimentReading, error)
}

// OHLCVBar is one candle: timestamp, open, high, low, close, volume.
type OHLCVBar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

type NewsItem struct {
	Title       string
	Body        string
	PublishedAt time.Time
	Source      string
}

type FinancialReport struct {
	Symbol     string
	ReportType string
	ReleasedAt time.Time
	Data       map[string]any
}

type SentimentReading struct {
	Symbol    string
	Score     float64
	Timestamp time.Time
}

// Gateway mediates all reads of time-indexed external data behind a
// simulation clock. The zero value is not usable; construct with New.
type Gateway struct {
	mu             sync.Mutex
	simulationTime time.Time
	isLive         bool
	mode           Mode
	logAccess      bool

	price      PriceAdapter
	news       NewsAdapter
	financials FinancialsAdapter
	sentiment  SentimentAdapter

	accessLog []AccessRecord

	redis      *redis.Client
	cachePfx   string
	log        zerolog.Logger
}

// Config controls Gateway construction.
type Config struct {
	Mode           Mode
	LogAccess      bool
	SimulationTime time.Time // zero value => live mode
	Price          PriceAdapter
	News           NewsAdapter
	Financials     FinancialsAdapter
	Sentiment      SentimentAdapter
	RedisClient    *redis.Client // optional; live-mode price cache
}

// New constructs a Gateway. A zero SimulationTime puts the Gateway in live
// mode regardless of the requested Mode, matching the original's
// `_is_live = simulation_time is None`.
func New(cfg Config) *Gateway {
	isLive := cfg.SimulationTime.IsZero()
	simTime := cfg.SimulationTime
	if isLive {
		simTime = time.Now().UTC()
	}
	return &Gateway{
		simulationTime: simTime,
		isLive:         isLive,
		mode:           cfg.Mode,
		logAccess:      cfg.LogAccess,
		price:          cfg.Price,
		news:           cfg.News,
		financials:     cfg.Financials,
		sentiment:      cfg.Sentiment,
		redis:          cfg.RedisClient,
		cachePfx:       "cryptofunk:price:",
		log:            log.With().Str("component", "temporal_gateway").Logger(),
	}
}

// SimulationTime returns the current clock value.
func (g *Gateway) SimulationTime() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.simulationTime
}

// IsLive reports whether the Gateway tracks wall-clock time.
func (g *Gateway) IsLive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isLive
}

// SetSimulationTime pins the clock to t. Non-live Gateways reject t in the
// future of wall-clock now. A jump of more than 60s flushes the live price
// cache, matching the original's cache invalidation on large time jumps.
func (g *Gateway) SetSimulationTime(ctx context.Context, t time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isLive && t.After(time.Now().UTC()) {
		return ErrInvalidTime
	}

	jump := t.Sub(g.simulationTime)
	if jump < 0 {
		jump = -jump
	}
	if jump > cacheFlushJump {
		g.flushPriceCacheLocked(ctx)
	}

	g.simulationTime = t
	return nil
}

// AdvanceTime is equivalent to SetSimulationTime(now + delta).
func (g *Gateway) AdvanceTime(ctx context.Context, delta time.Duration) error {
	g.mu.Lock()
	next := g.simulationTime.Add(delta)
	g.mu.Unlock()
	return g.SetSimulationTime(ctx, next)
}

func (g *Gateway) flushPriceCacheLocked(ctx context.Context) {
	if g.redis == nil {
		return
	}
	iter := g.redis.Scan(ctx, 0, g.cachePfx+"*", 100).Iterator()
	for iter.Next(ctx) {
		g.redis.Del(ctx, iter.Val())
	}
}

func (g *Gateway) record(rec AccessRecord) {
	if !g.logAccess {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accessLog = append(g.accessLog, rec)
	if len(g.accessLog) > auditRingSize {
		g.accessLog = g.accessLog[len(g.accessLog)-auditRingSize:]
	}
}

// validate checks a data timestamp against the simulation boundary and
// records the access. Returns the boundary-check error, if any (strict
// mode only — lax mode never errors).
func (g *Gateway) validate(dataType DataType, symbol string, dataTime time.Time) (allowed bool, err error) {
	g.mu.Lock()
	simTime := g.simulationTime
	mode := g.mode
	g.mu.Unlock()

	allowed = !dataTime.After(simTime)
	reason := ""
	if !allowed {
		reason = fmt.Sprintf("requested %s data from %s while simulating %s", dataType, dataTime, simTime)
		if mode == ModeStrict {
			err = fmt.Errorf("%w: %s", ErrTemporalViolation, reason)
		} else {
			g.log.Warn().Str("symbol", symbol).Str("data_type", string(dataType)).Msg(reason)
		}
	}

	g.record(AccessRecord{
		Timestamp:      time.Now().UTC(),
		DataType:       dataType,
		Symbol:         symbol,
		RequestedTime:  dataTime,
		SimulationTime: simTime,
		Allowed:        allowed,
		Reason:         reason,
	})
	return allowed, err
}

// recordAdapterError is used when the adapter call itself fails (network,
// parse, etc): the access is still recorded, with the error surfaced in
// Reason rather than propagated — matching the original's "catches
// exceptions, returns None, logs reason."
func (g *Gateway) recordAdapterError(dataType DataType, symbol string, requested time.Time, err error) {
	g.mu.Lock()
	simTime := g.simulationTime
	g.mu.Unlock()
	g.record(AccessRecord{
		Timestamp:      time.Now().UTC(),
		DataType:       dataType,
		Symbol:         symbol,
		RequestedTime:  requested,
		SimulationTime: simTime,
		Allowed:        false,
		Reason:         "adapter error: " + err.Error(),
	})
	g.log.Error().Err(err).Str("symbol", symbol).Str("data_type", string(dataType)).Msg("adapter call failed")
}

// GetPrice fetches the current or as-of price for symbol. Live mode
// consults a 10s-TTL cache first. Adapter errors and boundary violations
// (in lax mode) both yield (0, false, nil) — a null result, not an error.
func (g *Gateway) GetPrice(ctx context.Context, symbol string, asOf ...time.Time) (float64, bool, error) {
	if g.price == nil {
		return 0, false, nil
	}

	requested := g.SimulationTime()
	if len(asOf) > 0 {
		requested = asOf[0]
	}

	if g.IsLive() {
		if price, ok := g.cacheGet(ctx, symbol); ok {
			return price, true, nil
		}
	}

	price, ts, err := g.price.GetPrice(ctx, symbol)
	if err != nil {
		g.recordAdapterError(DataTypePrice, symbol, requested, err)
		return 0, false, nil
	}

	allowed, verr := g.validate(DataTypePrice, symbol, ts)
	if verr != nil {
		return 0, false, verr
	}
	if !allowed {
		return 0, false, nil
	}

	if g.IsLive() {
		g.cacheSet(ctx, symbol, price)
	}
	return price, true, nil
}

func (g *Gateway) cacheKey(symbol string) string {
	return g.cachePfx + symbol
}

func (g *Gateway) cacheGet(ctx context.Context, symbol string) (float64, bool) {
	if g.redis == nil {
		return 0, false
	}
	cctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	v, err := g.redis.Get(cctx, g.cacheKey(symbol)).Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

func (g *Gateway) cacheSet(ctx context.Context, symbol string, price float64) {
	if g.redis == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	g.redis.Set(cctx, g.cacheKey(symbol), price, liveCacheTTL)
}

// GetOHLCV fetches up to limit candles for symbol/timeframe, filtering out
// any bar whose timestamp exceeds the simulation boundary even if the
// adapter itself does not filter. In strict mode such a bar makes the
// whole call return ErrTemporalViolation instead.
func (g *Gateway) GetOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]OHLCVBar, error) {
	if g.price == nil {
		return nil, nil
	}
	bars, err := g.price.GetOHLCV(ctx, symbol, timeframe, limit)
	if err != nil {
		g.recordAdapterError(DataTypeOHLCV, symbol, g.SimulationTime(), err)
		return nil, nil
	}

	simTime := g.SimulationTime()
	filtered := make([]OHLCVBar, 0, len(bars))
	for _, bar := range bars {
		allowed, verr := g.validate(DataTypeOHLCV, symbol, bar.Timestamp)
		if verr != nil {
			return nil, verr
		}
		if allowed && !bar.Timestamp.After(simTime) {
			filtered = append(filtered, bar)
		}
	}
	return filtered, nil
}

// SearchNews returns news items published at or before the simulation
// time, double-filtering the adapter's own published_before contract —
// matching the original's belt-and-suspenders filtering.
func (g *Gateway) SearchNews(ctx context.Context, query string, symbols []string, limit int) ([]NewsItem, error) {
	if g.news == nil {
		return nil, nil
	}
	simTime := g.SimulationTime()
	items, err := g.news.Search(ctx, query, symbols, limit, simTime)
	if err != nil {
		g.recordAdapterError(DataTypeNews, joinSymbols(symbols), simTime, err)
		return nil, nil
	}
	out := make([]NewsItem, 0, len(items))
	for _, item := range items {
		allowed, verr := g.validate(DataTypeNews, joinSymbols(symbols), item.PublishedAt)
		if verr != nil {
			return nil, verr
		}
		if allowed && !item.PublishedAt.After(simTime) {
			out = append(out, item)
		}
	}
	return out, nil
}

// GetFinancials returns reports released at or before the simulation time.
func (g *Gateway) GetFinancials(ctx context.Context, symbol, reportType string) ([]FinancialReport, error) {
	if g.financials == nil {
		return nil, nil
	}
	simTime := g.SimulationTime()
	reports, err := g.financials.GetReports(ctx, symbol, reportType, simTime)
	if err != nil {
		g.recordAdapterError(DataTypeFinancials, symbol, simTime, err)
		return nil, nil
	}
	out := make([]FinancialReport, 0, len(reports))
	for _, r := range reports {
		allowed, verr := g.validate(DataTypeFinancials, symbol, r.ReleasedAt)
		if verr != nil {
			return nil, verr
		}
		if allowed && !r.ReleasedAt.After(simTime) {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetSentiment returns the sentiment reading as of the simulation time, or
// nil if no sentiment adapter is configured — the original leaves this a
// stub with no service wired; here it is a legitimate optional capability.
func (g *Gateway) GetSentiment(ctx context.Context, symbol string) (*SentimentReading, error) {
	if g.sentiment == nil {
		return nil, nil
	}
	simTime := g.SimulationTime()
	reading, err := g.sentiment.GetSentiment(ctx, symbol, simTime)
	if err != nil {
		g.recordAdapterError(DataTypeSentiment, symbol, simTime, err)
		return nil, nil
	}
	if reading == nil {
		return nil, nil
	}
	allowed, verr := g.validate(DataTypeSentiment, symbol, reading.Timestamp)
	if verr != nil {
		return nil, verr
	}
	if !allowed {
		return nil, nil
	}
	return reading, nil
}

// Stats summarizes audit-log activity: total accesses, violation count,
// and a per-data-type breakdown.
type Stats struct {
	Mode           Mode
	SimulationTime time.Time
	TotalRequests  int
	Violations     int
	ViolationRate  float64
	ByType         map[DataType]int
	CacheSize      int
}

func (g *Gateway) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	byType := make(map[DataType]int)
	violations := 0
	for _, rec := range g.accessLog {
		byType[rec.DataType]++
		if !rec.Allowed {
			violations++
		}
	}
	rate := 0.0
	if len(g.accessLog) > 0 {
		rate = float64(violations) / float64(len(g.accessLog))
	}
	return Stats{
		Mode:           g.mode,
		SimulationTime: g.simulationTime,
		TotalRequests:  len(g.accessLog),
		Violations:     violations,
		ViolationRate:  rate,
		ByType:         byType,
	}
}

// AccessLog returns a copy of the audit ring buffer.
func (g *Gateway) AccessLog() []AccessRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]AccessRecord, len(g.accessLog))
	copy(out, g.accessLog)
	return out
}

// Reset clears audit state, for reuse across backtest runs.
func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accessLog = nil
}

func joinSymbols(symbols []string) string {
	if len(symbols) == 0 {
		return ""
	}
	out := symbols[0]
	for _, s := range symbols[1:] {
		out += "," + s
	}
	return out
}
