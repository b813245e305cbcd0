package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofunk/engine/internal/state"
)

// startTestNATS starts an embedded NATS server, grounded on
// ajitpratap0-cryptofunk/internal/orchestrator/messagebus_test.go's
// startTestNATSServer.
func startTestNATS(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()
	opts := &server.Options{Host: "127.0.0.1", Port: -1}
	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	conn, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		srv.Shutdown()
	})
	return srv, conn
}

func TestNATSPublisher_NilConnectionIsNoop(t *testing.T) {
	p := NewNATSPublisher(nil, "")
	s := state.New("BTC", nil, 3)
	s.FinalDecision = &state.FinalDecision{Action: "buy"}
	assert.NoError(t, p.PublishDecision(context.Background(), s))
}

func TestNATSPublisher_NoFinalDecisionIsNoop(t *testing.T) {
	_, conn := startTestNATS(t)
	p := NewNATSPublisher(conn, "")
	s := state.New("BTC", nil, 3)
	assert.NoError(t, p.PublishDecision(context.Background(), s))
}

func TestNATSPublisher_PublishesDecisionEnvelope(t *testing.T) {
	_, conn := startTestNATS(t)
	p := NewNATSPublisher(conn, "")

	sub, err := conn.SubscribeSync("cryptofunk.orchestrator.decisions")
	require.NoError(t, err)

	s := state.New("BTC", nil, 3)
	s.FinalDecision = &state.FinalDecision{Action: "buy", Symbol: "BTC", Confidence: 0.8}

	require.NoError(t, p.PublishDecision(context.Background(), s))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Data), `"action":"buy"`)
}
