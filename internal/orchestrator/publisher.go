package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/cryptofunk/engine/internal/state"
)

// NATSPublisher announces completed decisions on a fixed topic, ported
// from ajitpratap0-cryptofunk/internal/orchestrator/orchestrator.go's
// publishDecision.
type NATSPublisher struct {
	conn  *nats.Conn
	topic string
}

// NewNATSPublisher constructs a NATSPublisher. topic defaults to
// "cryptofunk.orchestrator.decisions" when empty.
func NewNATSPublisher(conn *nats.Conn, topic string) *NATSPublisher {
	if topic == "" {
		topic = "cryptofunk.orchestrator.decisions"
	}
	return &NATSPublisher{conn: conn, topic: topic}
}

type decisionEnvelope struct {
	ID        string               `json:"id"`
	Symbol    string               `json:"symbol"`
	Decision  *state.FinalDecision `json:"decision"`
	Iteration int                  `json:"iteration"`
	Timestamp time.Time            `json:"timestamp"`
}

// PublishDecision marshals and publishes s's final decision. A nil
// connection makes this a no-op, matching the nil-safe receiver idiom
// used across the ambient stack.
func (p *NATSPublisher) PublishDecision(ctx context.Context, s *state.DecisionState) error {
	if p == nil || p.conn == nil || s.FinalDecision == nil {
		return nil
	}
	envelope := decisionEnvelope{
		ID:        uuid.NewString(),
		Symbol:    s.Symbol,
		Decision:  s.FinalDecision,
		Iteration: s.Iteration,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("orchestrator: marshal decision: %w", err)
	}
	if err := p.conn.Publish(p.topic, data); err != nil {
		return fmt.Errorf("orchestrator: publish decision: %w", err)
	}
	return nil
}
