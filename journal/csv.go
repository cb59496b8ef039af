// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/macrodesk/riskengine/breaker"
)

type CSVJournal struct {
	events  *csv.Writer
	reports *csv.Writer
	ef, rf  *os.File
}

func NewCSV(eventsPath, reportsPath string) (*CSVJournal, error) {
	ef, err := os.Create(eventsPath)
	if err != nil {
		return nil, err
	}
	rf, err := os.Create(reportsPath)
	if err != nil {
		return nil, err
	}

	ew := csv.NewWriter(ef)
	rw := csv.NewWriter(rf)

	if err := ew.Write([]string{"event_id", "time", "event_type", "state_from", "state_to", "drawdown", "action", "key", "pnl"}); err != nil {
		return nil, err
	}
	if err := rw.Write([]string{"time", "risk_level", "var_95", "cvar_95", "var_99", "cvar_99", "worst_scenario", "worst_scenario_pnl", "breach_count", "breaker_state", "drawdown", "exposure_scale"}); err != nil {
		return nil, err
	}

	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}
	rw.Flush()
	if err := rw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{ew, rw, ef, rf}, nil
}

func (j *CSVJournal) RecordEvent(ev breaker.Event) error {
	err := j.events.Write([]string{
		ev.ID,
		ev.Time.Format(time.RFC3339),
		ev.Type,
		ev.From.String(),
		ev.To.String(),
		f(ev.Drawdown),
		ev.Action,
		ev.Key,
		f(ev.PnL),
	})
	if err != nil {
		return err
	}

	j.events.Flush()
	return j.events.Error()
}

func (j *CSVJournal) RecordReport(r ReportRecord) error {
	err := j.reports.Write([]string{
		r.Time.Format(time.RFC3339),
		r.RiskLevel,
		f(r.VaR95),
		f(r.CVaR95),
		f(r.VaR99),
		f(r.CVaR99),
		r.WorstScenario,
		f(r.WorstScenarioPnL),
		strconv.Itoa(r.BreachCount),
		r.BreakerState,
		f(r.Drawdown),
		f(r.ExposureScale),
	})
	if err != nil {
		return err
	}

	j.reports.Flush()
	return j.reports.Error()
}

func (j *CSVJournal) Close() error {
	j.events.Flush()
	if err := j.events.Error(); err != nil {
		return err
	}
	j.reports.Flush()
	if err := j.reports.Error(); err != nil {
		return err
	}

	if err := j.ef.Close(); err != nil {
		return err
	}
	if err := j.rf.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
