package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrodesk/riskengine/breaker"
)

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "risk.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('events','reports')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["events"])
	assert.True(t, found["reports"])
}

func TestSQLiteEventRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	ev := breaker.Event{
		ID:       "01HTEST",
		Time:     time.Date(2026, 8, 21, 15, 0, 0, 0, time.UTC),
		Type:     "strategy_loss",
		From:     breaker.Normal,
		To:       breaker.Normal,
		Drawdown: 0.025,
		Action:   "review strategy allocation",
		Key:      "rates_br",
		PnL:      -0.025,
	}
	require.NoError(t, j.RecordEvent(ev))

	events, err := j.ListEventsBetween(
		time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ev.Type, got.Type)
	assert.Equal(t, ev.Key, got.Key)
	assert.InDelta(t, ev.Drawdown, got.Drawdown, 1e-12)
	assert.InDelta(t, ev.PnL, got.PnL, 1e-12)
	assert.Equal(t, breaker.Normal, got.From)
}

func TestSQLiteEventTimeFilter(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	for i, id := range []string{"01A", "01B", "01C"} {
		require.NoError(t, j.RecordEvent(breaker.Event{
			ID:   id,
			Time: time.Date(2026, 8, 20+i, 12, 0, 0, 0, time.UTC),
			Type: "circuit_breaker",
			From: breaker.Normal,
			To:   breaker.L1Triggered,
		}))
	}

	events, err := j.ListEventsBetween(
		time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "01B", events[0].ID)
	assert.Equal(t, breaker.L1Triggered, events[0].To)
}

func TestSQLiteRecordReport(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	rec := ReportRecord{
		Time:          time.Date(2026, 8, 21, 18, 0, 0, 0, time.UTC),
		RiskLevel:     "HIGH",
		VaR95:         -0.021,
		CVaR95:        -0.034,
		VaR99:         -0.039,
		CVaR99:        -0.051,
		WorstScenario: "gfc_2008",
		BreachCount:   2,
		BreakerState:  "l1_triggered",
		Drawdown:      0.035,
		ExposureScale: 0.75,
	}
	require.NoError(t, j.RecordReport(rec))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var level, worst string
	var breaches int
	row := db.QueryRow(`SELECT risk_level, worst_scenario, breach_count FROM reports`)
	require.NoError(t, row.Scan(&level, &worst, &breaches))
	assert.Equal(t, "HIGH", level)
	assert.Equal(t, "gfc_2008", worst)
	assert.Equal(t, 2, breaches)
}
