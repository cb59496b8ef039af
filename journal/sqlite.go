package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/macrodesk/riskengine/breaker"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordEvent(ev breaker.Event) error {
	_, err := j.db.Exec(`
		INSERT INTO events
		(event_id, time, event_type, state_from, state_to, drawdown, action, tracker_key, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Time, ev.Type, ev.From.String(), ev.To.String(),
		ev.Drawdown, ev.Action, ev.Key, ev.PnL,
	)
	return err
}

func (j *SQLiteJournal) RecordReport(r ReportRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO reports
		(time, risk_level, var_95, cvar_95, var_99, cvar_99, worst_scenario, worst_scenario_pnl, breach_count, breaker_state, drawdown, exposure_scale)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Time, r.RiskLevel, r.VaR95, r.CVaR95, r.VaR99, r.CVaR99,
		r.WorstScenario, r.WorstScenarioPnL, r.BreachCount, r.BreakerState,
		r.Drawdown, r.ExposureScale,
	)
	return err
}

// ListEventsBetween returns journaled events in time order for audit review.
func (j *SQLiteJournal) ListEventsBetween(start, end time.Time) ([]breaker.Event, error) {
	rows, err := j.db.Query(`
		SELECT event_id, time, event_type, state_from, state_to, drawdown, action, tracker_key, pnl
		FROM events WHERE time >= ? AND time < ? ORDER BY event_id`,
		start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []breaker.Event
	for rows.Next() {
		var ev breaker.Event
		var from, to string
		if err := rows.Scan(&ev.ID, &ev.Time, &ev.Type, &from, &to, &ev.Drawdown, &ev.Action, &ev.Key, &ev.PnL); err != nil {
			return nil, err
		}
		ev.From = parseState(from)
		ev.To = parseState(to)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func parseState(s string) breaker.State {
	for st := breaker.Normal; st <= breaker.Recovering; st++ {
		if st.String() == s {
			return st
		}
	}
	return breaker.Normal
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
