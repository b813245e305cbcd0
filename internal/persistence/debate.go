// Package persistence stores agent-debate records — the bull/bear/research
// narrative behind each decision — in PostgreSQL for later explainability
// queries, alongside the Redis-backed recency view in internal/history.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Schema is the agent_debates table definition, applied the same way the
// donor's db/testhelpers ApplyMigrationsLegacy inlines a fallback schema.
const Schema = `
CREATE TABLE IF NOT EXISTS agent_debates (
    id BIGSERIAL PRIMARY KEY,
    symbol TEXT NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    action TEXT NOT NULL,
    confidence DECIMAL(5, 4) NOT NULL,
    sentiment DECIMAL(5, 4) NOT NULL,
    bull_argument TEXT,
    bear_argument TEXT,
    research_summary TEXT,
    agent_scores JSONB,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_agent_debates_symbol_time ON agent_debates(symbol, recorded_at DESC);
`

// Debate is a single round of bull/bear/research argument, tied to the
// decision it informed.
type Debate struct {
	ID              int64
	Symbol          string
	RecordedAt      time.Time
	Action          string
	Confidence      float64
	Sentiment       float64
	BullArgument    string
	BearArgument    string
	ResearchSummary string
	AgentScores     map[string]float64
}

// PoolInterface is the narrow subset of *pgxpool.Pool the store needs,
// mirroring internal/risk.PoolInterface so it can be backed by pgxmock in
// unit tests.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store persists and retrieves agent debate records.
type Store struct {
	pool PoolInterface
}

// NewStore wraps an existing pool-like connection (real pool or mock).
func NewStore(pool PoolInterface) *Store {
	return &Store{pool: pool}
}

// NewStoreWithPool wraps a concrete pgxpool.Pool.
func NewStoreWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SaveDebate inserts a debate record.
func (s *Store) SaveDebate(ctx context.Context, d *Debate) error {
	if d.RecordedAt.IsZero() {
		d.RecordedAt = time.Now()
	}

	var scoresJSON []byte
	var err error
	if d.AgentScores != nil {
		scoresJSON, err = json.Marshal(d.AgentScores)
		if err != nil {
			return fmt.Errorf("failed to marshal agent scores: %w", err)
		}
	}

	query := `
		INSERT INTO agent_debates (
			symbol, recorded_at, action, confidence, sentiment,
			bull_argument, bear_argument, research_summary, agent_scores
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		d.Symbol,
		d.RecordedAt,
		d.Action,
		d.Confidence,
		d.Sentiment,
		d.BullArgument,
		d.BearArgument,
		d.ResearchSummary,
		scoresJSON,
	)
	if err != nil {
		log.Error().Err(err).Str("symbol", d.Symbol).Msg("failed to persist agent debate")
		return fmt.Errorf("failed to save debate: %w", err)
	}

	return nil
}

// RecentDebates returns up to limit debates for symbol, newest first.
func (s *Store) RecentDebates(ctx context.Context, symbol string, limit int) ([]Debate, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, symbol, recorded_at, action, confidence, sentiment,
		       bull_argument, bear_argument, research_summary, agent_scores
		FROM agent_debates
		WHERE symbol = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent debates: %w", err)
	}
	defer rows.Close()

	debates := []Debate{}
	for rows.Next() {
		var d Debate
		var scoresJSON []byte

		if err := rows.Scan(
			&d.ID,
			&d.Symbol,
			&d.RecordedAt,
			&d.Action,
			&d.Confidence,
			&d.Sentiment,
			&d.BullArgument,
			&d.BearArgument,
			&d.ResearchSummary,
			&scoresJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan agent debate row: %w", err)
		}

		if len(scoresJSON) > 0 {
			if err := json.Unmarshal(scoresJSON, &d.AgentScores); err != nil {
				log.Warn().Err(err).Msg("failed to unmarshal agent scores")
			}
		}

		debates = append(debates, d)
	}

	return debates, rows.Err()
}
