package alert

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrodesk/riskengine/breaker"
)

func sampleEvent() breaker.Event {
	return breaker.Event{
		ID:        "01TEST",
		Time:      time.Date(2026, 8, 21, 14, 30, 0, 0, time.UTC),
		Type:      "circuit_breaker",
		From:      breaker.Normal,
		To:        breaker.L1Triggered,
		Drawdown:  0.032,
		Action:    "reduce exposure to 75%",
		Positions: map[string]float64{"SPX": 500_000},
		PnL:       -3_200,
	}
}

func TestLogDispatcher(t *testing.T) {
	t.Parallel()

	d := NewLogDispatcher(zerolog.Nop())
	assert.NoError(t, d.Dispatch(sampleEvent()))
}

func TestWebhookDispatcherPayload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, time.Second, zerolog.Nop())
	require.NoError(t, d.Dispatch(sampleEvent()))

	assert.Equal(t, "circuit_breaker", got["event_type"])
	assert.Equal(t, "normal", got["state_from"])
	assert.Equal(t, "l1_triggered", got["state_to"])
	assert.InDelta(t, 0.032, got["drawdown_pct"].(float64), 1e-9)
	assert.Equal(t, "reduce exposure to 75%", got["action"])
	assert.InDelta(t, -3_200, got["pnl_at_trigger"].(float64), 1e-9)
	assert.Contains(t, got, "positions_snapshot")
	assert.Contains(t, got, "timestamp")
}

func TestWebhookDispatcherNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, time.Second, zerolog.Nop())
	assert.Error(t, d.Dispatch(sampleEvent()))
}

func TestWebhookDispatcherUnreachable(t *testing.T) {
	t.Parallel()

	d := NewWebhookDispatcher("http://127.0.0.1:1", 200*time.Millisecond, zerolog.Nop())
	assert.Error(t, d.Dispatch(sampleEvent()))
}

type fakeDispatcher struct {
	calls int
	err   error
}

func (f *fakeDispatcher) Dispatch(breaker.Event) error {
	f.calls++
	return f.err
}

func TestMultiFanOut(t *testing.T) {
	t.Parallel()

	ok := &fakeDispatcher{}
	bad := &fakeDispatcher{err: fmt.Errorf("smtp down")}
	after := &fakeDispatcher{}

	m := NewMulti(ok, bad, after)
	err := m.Dispatch(sampleEvent())

	// Every target is attempted; the failure surfaces.
	assert.Error(t, err)
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, after.calls)

	assert.NoError(t, NewMulti(ok, after).Dispatch(sampleEvent()))
}
