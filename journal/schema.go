// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	event_type TEXT NOT NULL,
	state_from TEXT NOT NULL,
	state_to TEXT NOT NULL,
	drawdown REAL NOT NULL,
	action TEXT NOT NULL,
	tracker_key TEXT NOT NULL,
	pnl REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	time DATETIME NOT NULL,
	risk_level TEXT NOT NULL,
	var_95 REAL NOT NULL,
	cvar_95 REAL NOT NULL,
	var_99 REAL NOT NULL,
	cvar_99 REAL NOT NULL,
	worst_scenario TEXT NOT NULL,
	worst_scenario_pnl REAL NOT NULL,
	breach_count INTEGER NOT NULL,
	breaker_state TEXT NOT NULL,
	drawdown REAL NOT NULL,
	exposure_scale REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_time ON events(time);
CREATE INDEX IF NOT EXISTS idx_reports_time ON reports(time);
`
