package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/config"
	"github.com/xRamax/scrapper-violet-wave/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertRunFailed   AlertType = "run_failed"
	AlertRunDegraded AlertType = "run_degraded"
	AlertFailureRate AlertType = "failure_rate"
)

// minFinishedRuns is how many finished runs the window needs before the
// failure rate is trusted.
const minFinishedRuns = 5

// Alert represents a single alert to be sent. Text carries the message for
// Slack-compatible incoming webhooks.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Text      string         `json:"text"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter turns failed runs and failure-rate breaches into webhook posts.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// RunAlert sends one alert for a run that failed or degraded. Complete and
// running runs are ignored.
func (a *Alerter) RunAlert(ctx context.Context, run model.Run) error {
	var alert Alert
	switch run.Status {
	case model.RunStatusFailed:
		alert = newAlert(AlertRunFailed, "high",
			fmt.Sprintf("%s run failed: %s", run.Kind, run.Error))
	case model.RunStatusDegraded:
		alert = newAlert(AlertRunDegraded, "medium",
			fmt.Sprintf("%s run degraded: %s", run.Kind, run.Error))
	default:
		return nil
	}
	alert.Details = map[string]any{
		"run_id": run.ID,
		"kind":   run.Kind,
	}
	if len(run.Detail) > 0 {
		alert.Details["detail"] = run.Detail
	}

	if a.cfg.WebhookURL == "" {
		zap.L().Warn("monitoring: run alert (no webhook configured)",
			zap.String("type", string(alert.Type)),
			zap.String("message", alert.Message),
		)
		return nil
	}
	return a.sendWebhook(ctx, alert)
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert

	finished := snap.Complete + snap.Degraded + snap.Failed
	if finished >= minFinishedRuns && snap.FailRate > a.cfg.FailureRateThreshold {
		alert := newAlert(AlertFailureRate, "high", fmt.Sprintf(
			"Run failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d finished in last %dh)",
			snap.FailRate*100, a.cfg.FailureRateThreshold*100,
			snap.Failed, finished, snap.LookbackHours,
		))
		alert.Details = map[string]any{
			"failure_rate": snap.FailRate,
			"threshold":    a.cfg.FailureRateThreshold,
			"failed":       snap.Failed,
			"finished":     finished,
			"by_kind":      snap.FailedByKind,
		}
		alerts = append(alerts, alert)
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func newAlert(typ AlertType, severity, msg string) Alert {
	return Alert{
		Type:      typ,
		Severity:  severity,
		Message:   msg,
		Text:      fmt.Sprintf("[%s] %s", severity, msg),
		Timestamp: time.Now().UTC(),
	}
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
