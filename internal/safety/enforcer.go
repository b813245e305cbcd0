// Package safety implements the auto-pause control plane: a set of
// configurable trigger rules that, on breach, halt trading decisions
// until either a cooldown elapses or an operator forces resume.
//
// Grounded on original_source/core/modules/safety_enforcer.py.
package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cryptofunk/engine/internal/alerts"
)

// TriggerType names a safety rule.
type TriggerType string

const (
	TriggerConsecutiveLosses TriggerType = "consecutive_losses"
	TriggerAPIErrorBurst     TriggerType = "api_error_burst"
	TriggerSentimentDrop     TriggerType = "sentiment_drop"
	TriggerSlippageMEV       TriggerType = "slippage_mev"
	TriggerDailyLossLimit    TriggerType = "daily_loss_limit"
	TriggerPrivacyBreach     TriggerType = "privacy_breach"
)

// Config holds the configurable thresholds, matching the original's
// env-configured defaults.
type Config struct {
	ConsecutiveLossLimit int           // default 3
	APIErrorBurstLimit   int           // default 5 per minute
	APIErrorWindow       time.Duration // default 1 minute
	SentimentDropFloor   float64       // default -0.3
	SlippageMEVLimit     float64       // default 0.01 (1%)
	DailyLossLimit       float64       // default 10
	CooldownPeriod       time.Duration // default 30 minutes

	NATSConn    *nats.Conn
	ControlTopic string // default "cryptofunk.safety.control"
	Alerter     *alerts.Manager
}

func withDefaults(cfg Config) Config {
	if cfg.ConsecutiveLossLimit <= 0 {
		cfg.ConsecutiveLossLimit = 3
	}
	if cfg.APIErrorBurstLimit <= 0 {
		cfg.APIErrorBurstLimit = 5
	}
	if cfg.APIErrorWindow <= 0 {
		cfg.APIErrorWindow = time.Minute
	}
	if cfg.SentimentDropFloor == 0 {
		cfg.SentimentDropFloor = -0.3
	}
	if cfg.SlippageMEVLimit <= 0 {
		cfg.SlippageMEVLimit = 0.01
	}
	if cfg.DailyLossLimit <= 0 {
		cfg.DailyLossLimit = 10
	}
	if cfg.CooldownPeriod <= 0 {
		cfg.CooldownPeriod = 30 * time.Minute
	}
	if cfg.ControlTopic == "" {
		cfg.ControlTopic = "cryptofunk.safety.control"
	}
	return cfg
}

// TradeResult is one closed trade's P&L, used for the consecutive-loss
// and daily-loss checks.
type TradeResult struct {
	Symbol    string
	PnL       float64
	Timestamp time.Time
}

type apiErrorEvent struct {
	Timestamp time.Time
}

// Violation describes a triggered rule.
type Violation struct {
	Trigger     TriggerType
	Severity    alerts.Severity
	Description string
	Timestamp   time.Time
}

// Status reports the enforcer's current pause state.
type Status struct {
	Paused      bool
	PausedAt    time.Time
	PauseReason string
	Trigger     TriggerType
}

const maxTradeHistory = 500
const maxAPIErrorHistory = 500

// Enforcer evaluates safety trigger rules and owns the pause/resume
// state machine. A nil *Enforcer is not usable; construct with New.
type Enforcer struct {
	mu sync.Mutex

	cfg Config
	log zerolog.Logger

	trades    []TradeResult
	apiErrors []apiErrorEvent

	paused      bool
	pausedAt    time.Time
	pauseReason string
	trigger     TriggerType
}

// New constructs an Enforcer.
func New(cfg Config) *Enforcer {
	return &Enforcer{
		cfg: withDefaults(cfg),
		log: log.With().Str("component", "safety_enforcer").Logger(),
	}
}

// RecordTradeResult appends a closed trade to the rolling window used by
// the consecutive-loss and daily-loss checks.
func (e *Enforcer) RecordTradeResult(result TradeResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trades = append(e.trades, result)
	if len(e.trades) > maxTradeHistory {
		e.trades = e.trades[len(e.trades)-maxTradeHistory:]
	}
}

// RecordAPIError appends an API error event to the rolling window used by
// the error-burst check.
func (e *Enforcer) RecordAPIError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apiErrors = append(e.apiErrors, apiErrorEvent{Timestamp: time.Now().UTC()})
	if len(e.apiErrors) > maxAPIErrorHistory {
		e.apiErrors = e.apiErrors[len(e.apiErrors)-maxAPIErrorHistory:]
	}
}

// CheckConsecutiveLosses scans trades most-recent-first, counting losses
// until the first pnl >= 0 trade resets the streak. Triggers when the
// streak reaches the configured limit.
func (e *Enforcer) CheckConsecutiveLosses() (bool, Violation) {
	e.mu.Lock()
	trades := make([]TradeResult, len(e.trades))
	copy(trades, e.trades)
	e.mu.Unlock()

	streak := 0
	for i := len(trades) - 1; i >= 0; i-- {
		if trades[i].PnL < 0 {
			streak++
			continue
		}
		break
	}

	if streak >= e.cfg.ConsecutiveLossLimit {
		return true, Violation{
			Trigger:     TriggerConsecutiveLosses,
			Severity:    alerts.SeverityCritical,
			Description: fmt.Sprintf("%d consecutive losing trades (limit %d)", streak, e.cfg.ConsecutiveLossLimit),
			Timestamp:   time.Now().UTC(),
		}
	}
	return false, Violation{}
}

// CheckAPIErrorBurst counts API errors within the configured window.
func (e *Enforcer) CheckAPIErrorBurst() (bool, Violation) {
	e.mu.Lock()
	errs := make([]apiErrorEvent, len(e.apiErrors))
	copy(errs, e.apiErrors)
	e.mu.Unlock()

	cutoff := time.Now().UTC().Add(-e.cfg.APIErrorWindow)
	count := 0
	for _, ev := range errs {
		if ev.Timestamp.After(cutoff) {
			count++
		}
	}

	if count > e.cfg.APIErrorBurstLimit {
		return true, Violation{
			Trigger:     TriggerAPIErrorBurst,
			Severity:    alerts.SeverityCritical,
			Description: fmt.Sprintf("%d API errors in the last %s (limit %d)", count, e.cfg.APIErrorWindow, e.cfg.APIErrorBurstLimit),
			Timestamp:   time.Now().UTC(),
		}
	}
	return false, Violation{}
}

// CheckSentimentDrop flags a sharp negative sentiment swing. This is a
// warning-severity trigger, but per the decided behavior it still forces
// an auto-pause (severity governs alerting tone, not whether a pause
// fires).
func (e *Enforcer) CheckSentimentDrop(currentSentiment float64) (bool, Violation) {
	if currentSentiment <= e.cfg.SentimentDropFloor {
		return true, Violation{
			Trigger:     TriggerSentimentDrop,
			Severity:    alerts.SeverityWarning,
			Description: fmt.Sprintf("sentiment dropped to %.2f (floor %.2f)", currentSentiment, e.cfg.SentimentDropFloor),
			Timestamp:   time.Now().UTC(),
		}
	}
	return false, Violation{}
}

// CheckSlippageMEV flags execution slippage or MEV extraction beyond the
// configured limit.
func (e *Enforcer) CheckSlippageMEV(observedSlippage float64) (bool, Violation) {
	if observedSlippage > e.cfg.SlippageMEVLimit {
		return true, Violation{
			Trigger:     TriggerSlippageMEV,
			Severity:    alerts.SeverityCritical,
			Description: fmt.Sprintf("slippage/MEV of %.4f exceeds limit %.4f", observedSlippage, e.cfg.SlippageMEVLimit),
			Timestamp:   time.Now().UTC(),
		}
	}
	return false, Violation{}
}

// CheckDailyLossLimit sums today's trade P&L against the configured
// limit.
func (e *Enforcer) CheckDailyLossLimit() (bool, Violation) {
	e.mu.Lock()
	trades := make([]TradeResult, len(e.trades))
	copy(trades, e.trades)
	e.mu.Unlock()

	now := time.Now().UTC()
	year, month, day := now.Date()
	startOfDay := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	var dailyLoss float64
	for _, tr := range trades {
		if tr.Timestamp.Before(startOfDay) {
			continue
		}
		if tr.PnL < 0 {
			dailyLoss += -tr.PnL
		}
	}

	if dailyLoss >= e.cfg.DailyLossLimit {
		return true, Violation{
			Trigger:     TriggerDailyLossLimit,
			Severity:    alerts.SeverityCritical,
			Description: fmt.Sprintf("daily loss of %.2f reached limit %.2f", dailyLoss, e.cfg.DailyLossLimit),
			Timestamp:   time.Now().UTC(),
		}
	}
	return false, Violation{}
}

// CheckPrivacyBreach wraps a boolean privacy-node verdict into a trigger,
// for callers that want a uniform Check* signature.
func (e *Enforcer) CheckPrivacyBreach(breached bool, reason string) (bool, Violation) {
	if breached {
		return true, Violation{
			Trigger:     TriggerPrivacyBreach,
			Severity:    alerts.SeverityCritical,
			Description: reason,
			Timestamp:   time.Now().UTC(),
		}
	}
	return false, Violation{}
}

// RunAllChecks evaluates every trigger rule applicable to the given
// optional signals and returns every violation found. Every trigger
// auto-pauses: when any violation is found, the first one is passed to
// TriggerAutoPause.
func (e *Enforcer) RunAllChecks(ctx context.Context, currentSentiment, observedSlippage float64, privacyBreached bool, privacyReason string) []Violation {
	var violations []Violation

	if triggered, v := e.CheckConsecutiveLosses(); triggered {
		violations = append(violations, v)
	}
	if triggered, v := e.CheckAPIErrorBurst(); triggered {
		violations = append(violations, v)
	}
	if triggered, v := e.CheckSentimentDrop(currentSentiment); triggered {
		violations = append(violations, v)
	}
	if triggered, v := e.CheckSlippageMEV(observedSlippage); triggered {
		violations = append(violations, v)
	}
	if triggered, v := e.CheckDailyLossLimit(); triggered {
		violations = append(violations, v)
	}
	if triggered, v := e.CheckPrivacyBreach(privacyBreached, privacyReason); triggered {
		violations = append(violations, v)
	}

	if len(violations) > 0 {
		e.TriggerAutoPause(ctx, violations[0])
	}

	return violations
}

// TriggerAutoPause pauses trading on the first violation only — a
// subsequent call while already paused is a no-op, matching the
// original's "pause on first critical violation" behavior.
func (e *Enforcer) TriggerAutoPause(ctx context.Context, v Violation) {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.pausedAt = time.Now().UTC()
	e.pauseReason = v.Description
	e.trigger = v.Trigger
	e.mu.Unlock()

	e.log.Warn().Str("trigger", string(v.Trigger)).Str("reason", v.Description).Msg("trading auto-paused")
	e.broadcast(ctx, "trading_paused", v.Trigger, v.Description)

	if e.cfg.Alerter != nil {
		_ = e.cfg.Alerter.SendCritical(ctx, "Trading auto-paused", v.Description, map[string]interface{}{
			"trigger": string(v.Trigger),
		})
	}
}

// Resume clears the pause state. A non-forced resume is refused until the
// cooldown period has elapsed since the pause began.
func (e *Enforcer) Resume(ctx context.Context, force bool) error {
	e.mu.Lock()
	if !e.paused {
		e.mu.Unlock()
		return fmt.Errorf("safety: not currently paused")
	}
	elapsed := time.Since(e.pausedAt)
	if !force && elapsed < e.cfg.CooldownPeriod {
		e.mu.Unlock()
		return fmt.Errorf("safety: cooldown not elapsed (%s remaining)", e.cfg.CooldownPeriod-elapsed)
	}
	e.paused = false
	trigger := e.trigger
	e.pauseReason = ""
	e.trigger = ""
	e.mu.Unlock()

	e.log.Info().Bool("forced", force).Msg("trading resumed")
	e.broadcast(ctx, "trading_resumed", trigger, "")
	return nil
}

// Status reports the current pause state.
func (e *Enforcer) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Paused:      e.paused,
		PausedAt:    e.pausedAt,
		PauseReason: e.pauseReason,
		Trigger:     e.trigger,
	}
}

func (e *Enforcer) broadcast(ctx context.Context, event string, trigger TriggerType, reason string) {
	if e.cfg.NATSConn == nil {
		return
	}
	payload := map[string]any{
		"event":     event,
		"trigger":   string(trigger),
		"reason":    reason,
		"timestamp": time.Now().UTC(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to marshal safety control event")
		return
	}
	if err := e.cfg.NATSConn.Publish(e.cfg.ControlTopic, data); err != nil {
		e.log.Error().Err(err).Str("topic", e.cfg.ControlTopic).Msg("failed to publish safety control event")
	}
}
