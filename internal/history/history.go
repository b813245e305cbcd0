// Package history stores the last N decisions per symbol for
// explainability, replacing the donor's in-memory deque-plus-optional-Redis
// DecisionHistory with a Redis-backed sorted-set log in the style of the
// orchestrator's own Blackboard.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/cryptofunk/engine/internal/state"
)

// Record is one stored decision, matching the donor's decision record shape.
type Record struct {
	Symbol        string               `json:"symbol"`
	Timestamp     time.Time            `json:"timestamp"`
	Action        string               `json:"action"`
	Confidence    float64              `json:"confidence"`
	Sentiment     float64              `json:"sentiment"`
	Reason        string               `json:"reason,omitempty"`
	BullArgument  string               `json:"bull_argument,omitempty"`
	BearArgument  string               `json:"bear_argument,omitempty"`
	ResearchNotes string               `json:"research_summary,omitempty"`
	Reasoning     map[string]any       `json:"reasoning,omitempty"`
	Final         *state.FinalDecision `json:"final_decision,omitempty"`
}

// Store is a per-symbol, bounded, timestamp-ordered decision log.
type Store struct {
	client    *redis.Client
	prefix    string
	maxPerSym int64
	ttl       time.Duration
}

// Config configures the decision history store.
type Config struct {
	RedisURL      string
	RedisPassword string
	RedisDB       int
	Prefix        string        // key prefix, default "history:"
	MaxPerSymbol  int64         // max records retained per symbol, default 10
	TTL           time.Duration // retention TTL, default 7 days
}

// DefaultConfig returns the donor's defaults: 10 records per symbol, 7 day TTL.
func DefaultConfig() Config {
	return Config{
		RedisURL:     "localhost:6379",
		Prefix:       "history:",
		MaxPerSymbol: 10,
		TTL:          7 * 24 * time.Hour,
	}
}

// New connects to Redis and returns a ready Store.
func New(cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newWithClient(client, cfg), nil
}

// NewWithClient wraps an existing Redis client, e.g. one pointed at a
// miniredis instance in tests.
func NewWithClient(client *redis.Client, cfg Config) *Store {
	return newWithClient(client, cfg)
}

func newWithClient(client *redis.Client, cfg Config) *Store {
	if cfg.Prefix == "" {
		cfg.Prefix = "history:"
	}
	if cfg.MaxPerSymbol <= 0 {
		cfg.MaxPerSymbol = 10
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	return &Store{
		client:    client,
		prefix:    cfg.Prefix,
		maxPerSym: cfg.MaxPerSymbol,
		ttl:       cfg.TTL,
	}
}

func (s *Store) indexKey(symbol string) string {
	return fmt.Sprintf("%s%s", s.prefix, symbol)
}

// RecordFromState turns a decided DecisionState into a Record for symbol.
// It only builds the value; storing and trimming are done by Add.
func RecordFromState(symbol string, s *state.DecisionState) Record {
	r := Record{
		Symbol:       symbol,
		Timestamp:    time.Now(),
		BullArgument: s.BullArgument,
		BearArgument: s.BearArgument,
		ResearchNotes: s.ResearchSummary,
	}
	if s.FinalDecision != nil {
		r.Action = s.FinalDecision.Action
		r.Confidence = s.FinalDecision.Confidence
		r.Sentiment = s.FinalDecision.Sentiment
		r.Reason = s.FinalDecision.Reason
		r.Reasoning = s.FinalDecision.Reasoning
		r.Final = s.FinalDecision
	}
	return r
}

// Add stores rec for its symbol and trims the log to the configured bound.
func (s *Store) Add(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal decision record: %w", err)
	}

	key := s.indexKey(rec.Symbol)
	score := float64(rec.Timestamp.UnixNano())

	if err := s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: data}).Err(); err != nil {
		return fmt.Errorf("failed to append decision record: %w", err)
	}

	// Keep only the most recent maxPerSym entries.
	if err := s.client.ZRemRangeByRank(ctx, key, 0, -s.maxPerSym-1).Err(); err != nil {
		log.Warn().Err(err).Str("symbol", rec.Symbol).Msg("failed to trim decision history")
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("symbol", rec.Symbol).Msg("failed to set decision history TTL")
		}
	}

	return nil
}

// Last returns the most recent decision for symbol, or nil if none exists.
func (s *Store) Last(ctx context.Context, symbol string) (*Record, error) {
	recs, err := s.Recent(ctx, symbol, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// Recent returns up to limit most-recent decisions for symbol, newest first.
func (s *Store) Recent(ctx context.Context, symbol string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	key := s.indexKey(symbol)

	raw, err := s.client.ZRevRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query decision history: %w", err)
	}

	recs := make([]Record, 0, len(raw))
	for _, entry := range raw {
		var r Record
		if err := json.Unmarshal([]byte(entry), &r); err != nil {
			log.Warn().Err(err).Msg("failed to unmarshal decision record")
			continue
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// Since returns decisions for symbol recorded at or after cutoff, newest
// first, capped at limit.
func (s *Store) Since(ctx context.Context, symbol string, cutoff time.Time, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	key := s.indexKey(symbol)

	raw, err := s.client.ZRevRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   fmt.Sprintf("%d", cutoff.UnixNano()),
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query decision history range: %w", err)
	}

	recs := make([]Record, 0, len(raw))
	for _, entry := range raw {
		var r Record
		if err := json.Unmarshal([]byte(entry), &r); err != nil {
			log.Warn().Err(err).Msg("failed to unmarshal decision record")
			continue
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// Symbols returns every symbol with at least one stored decision.
func (s *Store) Symbols(ctx context.Context) ([]string, error) {
	pattern := s.prefix + "*"
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list decision history symbols: %w", err)
	}
	symbols := make([]string, 0, len(keys))
	for _, k := range keys {
		symbols = append(symbols, k[len(s.prefix):])
	}
	return symbols, nil
}

// Clear removes stored history for symbol, or everything if symbol is "".
func (s *Store) Clear(ctx context.Context, symbol string) error {
	if symbol != "" {
		return s.client.Del(ctx, s.indexKey(symbol)).Err()
	}
	symbols, err := s.Symbols(ctx)
	if err != nil {
		return err
	}
	for _, sym := range symbols {
		if err := s.client.Del(ctx, s.indexKey(sym)).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Explain formats rec into the donor's human-readable decision explanation.
func Explain(rec Record) string {
	return fmt.Sprintf(
		"Decision for %s at %s\nAction: %s (confidence %.1f%%, sentiment %+.2f)\nReason: %s\nBull: %s\nBear: %s\nResearch: %s\n",
		rec.Symbol,
		rec.Timestamp.Format(time.RFC3339),
		rec.Action,
		rec.Confidence*100,
		rec.Sentiment,
		truncate(rec.Reason, 200),
		truncate(rec.BullArgument, 200),
		truncate(rec.BearArgument, 200),
		truncate(rec.ResearchNotes, 200),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
