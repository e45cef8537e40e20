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

	"github.com/sells-group/costrisk-sim/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertNumericErrorRate   AlertType = "numeric_error_rate"
	AlertCorrelationRepairs AlertType = "correlation_repair_rate"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds and
// sends alerts via webhook when thresholds are breached.
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

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.RunsTotal >= 5 && snap.NumericErrorRate > a.cfg.MaxNumericErrorRate {
		alerts = append(alerts, Alert{
			Type:     AlertNumericErrorRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"numeric error rate %.1f%% exceeds threshold %.1f%% (%d errors / %d runs in last %dh)",
				snap.NumericErrorRate*100, a.cfg.MaxNumericErrorRate*100,
				snap.NumericErrors, snap.RunsTotal, snap.LookbackHours,
			),
			Details: map[string]any{
				"error_rate": snap.NumericErrorRate,
				"threshold":  a.cfg.MaxNumericErrorRate,
				"errors":     snap.NumericErrors,
				"runs":       snap.RunsTotal,
			},
			Timestamp: now,
		})
	}

	if snap.RunsTotal >= 5 && snap.CorrelationRepairRate > a.cfg.MaxRepairRate {
		alerts = append(alerts, Alert{
			Type:     AlertCorrelationRepairs,
			Severity: "medium",
			Message: fmt.Sprintf(
				"correlation matrices needed repair in %.1f%% of runs, exceeding threshold %.1f%% in last %dh",
				snap.CorrelationRepairRate*100, a.cfg.MaxRepairRate*100, snap.LookbackHours,
			),
			Details: map[string]any{
				"repair_rate":    snap.CorrelationRepairRate,
				"threshold":      a.cfg.MaxRepairRate,
				"min_eigenvalue": snap.MinEigenvalueObserved,
				"repairs":        snap.CorrelationRepairs,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL. Returns the
// number of alerts successfully sent.
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
