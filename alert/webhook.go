package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/macrodesk/riskengine/breaker"
)

// webhookPayload is the wire shape POSTed to the configured webhook.
type webhookPayload struct {
	EventType         string             `json:"event_type"`
	StateFrom         string             `json:"state_from"`
	StateTo           string             `json:"state_to"`
	DrawdownPct       float64            `json:"drawdown_pct"`
	Action            string             `json:"action"`
	Timestamp         time.Time          `json:"timestamp"`
	PositionsSnapshot map[string]float64 `json:"positions_snapshot"`
	PnLAtTrigger      float64            `json:"pnl_at_trigger"`
}

// WebhookDispatcher POSTs each event as JSON to a fixed URL with a short
// client timeout. A non-2xx response counts as a delivery failure.
type WebhookDispatcher struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

func NewWebhookDispatcher(url string, timeout time.Duration, logger zerolog.Logger) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "alert_webhook").Logger(),
	}
}

func (d *WebhookDispatcher) Dispatch(ev breaker.Event) error {
	payload := webhookPayload{
		EventType:         ev.Type,
		StateFrom:         ev.From.String(),
		StateTo:           ev.To.String(),
		DrawdownPct:       ev.Drawdown,
		Action:            ev.Action,
		Timestamp:         ev.Time,
		PositionsSnapshot: ev.Positions,
		PnLAtTrigger:      ev.PnL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert payload: %w", err)
	}

	resp, err := d.client.Post(d.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post alert webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned %s", resp.Status)
	}

	d.logger.Debug().Str("event_id", ev.ID).Msg("webhook alert delivered")
	return nil
}
