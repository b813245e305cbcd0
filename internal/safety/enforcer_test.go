package safety

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConsecutiveLosses_TriggersAtLimit(t *testing.T) {
	e := New(Config{ConsecutiveLossLimit: 3})
	for i := 0; i < 3; i++ {
		e.RecordTradeResult(TradeResult{PnL: -10, Timestamp: time.Now()})
	}
	triggered, v := e.CheckConsecutiveLosses()
	assert.True(t, triggered)
	assert.Equal(t, TriggerConsecutiveLosses, v.Trigger)
}

func TestCheckConsecutiveLosses_ResetsOnWinningTrade(t *testing.T) {
	e := New(Config{ConsecutiveLossLimit: 3})
	e.RecordTradeResult(TradeResult{PnL: -10, Timestamp: time.Now()})
	e.RecordTradeResult(TradeResult{PnL: -10, Timestamp: time.Now()})
	e.RecordTradeResult(TradeResult{PnL: 5, Timestamp: time.Now()})
	e.RecordTradeResult(TradeResult{PnL: -10, Timestamp: time.Now()})

	triggered, _ := e.CheckConsecutiveLosses()
	assert.False(t, triggered)
}

func TestCheckAPIErrorBurst_TriggersAboveLimit(t *testing.T) {
	e := New(Config{APIErrorBurstLimit: 5, APIErrorWindow: time.Minute})
	for i := 0; i < 6; i++ {
		e.RecordAPIError()
	}
	triggered, v := e.CheckAPIErrorBurst()
	assert.True(t, triggered)
	assert.Equal(t, TriggerAPIErrorBurst, v.Trigger)
}

func TestCheckAPIErrorBurst_IgnoresStaleErrors(t *testing.T) {
	e := New(Config{APIErrorBurstLimit: 2, APIErrorWindow: time.Minute})
	e.apiErrors = []apiErrorEvent{
		{Timestamp: time.Now().Add(-10 * time.Minute)},
		{Timestamp: time.Now().Add(-10 * time.Minute)},
		{Timestamp: time.Now().Add(-10 * time.Minute)},
	}
	triggered, _ := e.CheckAPIErrorBurst()
	assert.False(t, triggered)
}

func TestCheckSentimentDrop_TriggersAtFloor(t *testing.T) {
	e := New(Config{SentimentDropFloor: -0.3})
	triggered, v := e.CheckSentimentDrop(-0.5)
	assert.True(t, triggered)
	assert.Equal(t, TriggerSentimentDrop, v.Trigger)
}

func TestCheckSentimentDrop_NoTriggerAboveFloor(t *testing.T) {
	e := New(Config{SentimentDropFloor: -0.3})
	triggered, _ := e.CheckSentimentDrop(-0.1)
	assert.False(t, triggered)
}

func TestCheckSlippageMEV_TriggersAboveLimit(t *testing.T) {
	e := New(Config{SlippageMEVLimit: 0.01})
	triggered, _ := e.CheckSlippageMEV(0.02)
	assert.True(t, triggered)
}

func TestCheckDailyLossLimit_SumsTodaysLossesOnly(t *testing.T) {
	e := New(Config{DailyLossLimit: 10})
	e.RecordTradeResult(TradeResult{PnL: -6, Timestamp: time.Now()})
	e.RecordTradeResult(TradeResult{PnL: -5, Timestamp: time.Now()})
	e.RecordTradeResult(TradeResult{PnL: -100, Timestamp: time.Now().Add(-48 * time.Hour)})

	triggered, v := e.CheckDailyLossLimit()
	assert.True(t, triggered)
	assert.Equal(t, TriggerDailyLossLimit, v.Trigger)
}

func TestRunAllChecks_AutoPausesOnFirstViolation(t *testing.T) {
	e := New(Config{ConsecutiveLossLimit: 1})
	e.RecordTradeResult(TradeResult{PnL: -10, Timestamp: time.Now()})

	violations := e.RunAllChecks(context.Background(), 0, 0, false, "")
	require.NotEmpty(t, violations)
	assert.True(t, e.Status().Paused)
}

func TestTriggerAutoPause_SecondCallIsNoop(t *testing.T) {
	e := New(Config{})
	e.TriggerAutoPause(context.Background(), Violation{Trigger: TriggerConsecutiveLosses, Description: "first"})
	firstPausedAt := e.Status().PausedAt

	time.Sleep(time.Millisecond)
	e.TriggerAutoPause(context.Background(), Violation{Trigger: TriggerDailyLossLimit, Description: "second"})

	assert.Equal(t, firstPausedAt, e.Status().PausedAt)
	assert.Equal(t, "first", e.Status().PauseReason)
}

func TestResume_RefusedBeforeCooldownUnlessForced(t *testing.T) {
	e := New(Config{CooldownPeriod: time.Hour})
	e.TriggerAutoPause(context.Background(), Violation{Trigger: TriggerConsecutiveLosses, Description: "loss streak"})

	err := e.Resume(context.Background(), false)
	assert.Error(t, err)

	err = e.Resume(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, e.Status().Paused)
}

func TestResume_ErrorsWhenNotPaused(t *testing.T) {
	e := New(Config{})
	err := e.Resume(context.Background(), false)
	assert.Error(t, err)
}

func TestResume_AllowedAfterCooldownElapses(t *testing.T) {
	e := New(Config{CooldownPeriod: time.Millisecond})
	e.TriggerAutoPause(context.Background(), Violation{Trigger: TriggerConsecutiveLosses, Description: "loss streak"})
	time.Sleep(5 * time.Millisecond)

	err := e.Resume(context.Background(), false)
	require.NoError(t, err)
}
