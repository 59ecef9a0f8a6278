package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xRamax/scrapper-violet-wave/internal/config"
	"github.com/xRamax/scrapper-violet-wave/internal/model"
)

func TestChecker_Check(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	var runs []model.Run
	for range 4 {
		runs = append(runs, run(model.RunKindOutreach, model.RunStatusFailed, time.Hour))
	}
	runs = append(runs, run(model.RunKindOutreach, model.RunStatusComplete, time.Hour))

	cfg := config.MonitoringConfig{WebhookURL: ts.URL, FailureRateThreshold: 0.5, LookbackWindowHours: 24}
	checker := NewChecker(NewCollector(&fakeRuns{runs: runs}), NewAlerter(cfg), cfg)

	assert.Equal(t, 1, checker.Check(context.Background()))
	assert.Equal(t, int32(1), received.Load())
}

func TestChecker_Check_Healthy(t *testing.T) {
	cfg := config.MonitoringConfig{FailureRateThreshold: 0.5, LookbackWindowHours: 24}
	runs := []model.Run{run(model.RunKindIngest, model.RunStatusComplete, time.Hour)}
	checker := NewChecker(NewCollector(&fakeRuns{runs: runs}), NewAlerter(cfg), cfg)

	assert.Equal(t, 0, checker.Check(context.Background()))
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	cfg := config.MonitoringConfig{CheckIntervalSecs: 1, LookbackWindowHours: 24, FailureRateThreshold: 0.1}
	checker := NewChecker(NewCollector(&fakeRuns{}), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- checker.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_DefaultInterval(t *testing.T) {
	checker := NewChecker(NewCollector(&fakeRuns{}), NewAlerter(config.MonitoringConfig{}), config.MonitoringConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, checker.Run(ctx))
}
