package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/macrodesk/riskengine/alert"
	"github.com/macrodesk/riskengine/breaker"
	"github.com/macrodesk/riskengine/config"
	"github.com/macrodesk/riskengine/journal"
	"github.com/macrodesk/riskengine/monitor"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run one risk evaluation cycle and print the report",
	Long: `Run a full risk evaluation over return and position files and print
the desk report.

The returns CSV has a header row of series names; a column named "portfolio"
is the portfolio return series, every other column is a per-asset series used
for Monte Carlo VaR. The positions CSV has columns
instrument,notional,weight,asset_class.

Example:
  riskmon report -f risk.yaml --returns returns.csv --positions book.csv --equity 1000000`,
	RunE: runReport,
}

var (
	reportConfigPath    string
	reportReturnsPath   string
	reportPositionsPath string
	reportEquity        float64
	reportValue         float64
	reportSeed          uint64
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	reportCmd.Flags().StringVar(&reportReturnsPath, "returns", "", "path to returns CSV (required)")
	reportCmd.Flags().StringVar(&reportPositionsPath, "positions", "", "path to positions CSV")
	reportCmd.Flags().Float64Var(&reportEquity, "equity", 0, "current account equity (enables the circuit breaker)")
	reportCmd.Flags().Float64Var(&reportValue, "portfolio-value", 0, "portfolio value used as the stress P&L denominator")
	reportCmd.Flags().Uint64Var(&reportSeed, "seed", 42, "Monte Carlo seed")
	reportCmd.MarkFlagRequired("returns")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if reportConfigPath != "" {
		var err error
		cfg, err = config.LoadFromFile(reportConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	portfolio, byAsset, err := loadReturnsCSV(reportReturnsPath)
	if err != nil {
		return fmt.Errorf("load returns: %w", err)
	}

	in := monitor.Input{
		Time:             time.Now().UTC(),
		PortfolioReturns: portfolio,
		ReturnsByAsset:   byAsset,
		MCSeed:           reportSeed,
		Equity:           reportEquity,
		PortfolioValue:   reportValue,
	}

	if reportPositionsPath != "" {
		book, weights, classes, err := loadPositionsCSV(reportPositionsPath)
		if err != nil {
			return fmt.Errorf("load positions: %w", err)
		}
		in.Book = book
		in.Weights = weights
		in.AssetClassOf = classes
		in.Positions = book
	}

	deps := monitor.Deps{
		Dispatcher: alert.NewLogDispatcher(logger),
		Logger:     logger,
	}

	if j, err := openJournal(cfg.Journal); err != nil {
		return fmt.Errorf("open journal: %w", err)
	} else if j != nil {
		defer j.Close()
		deps.Journal = j
	}

	if cfg.Alert.WebhookURL != "" || cfg.Alert.SMTPHost != "" {
		channels := []breaker.Dispatcher{deps.Dispatcher}
		if cfg.Alert.WebhookURL != "" {
			timeout, err := cfg.Alert.ParseTimeout()
			if err != nil {
				return fmt.Errorf("alert timeout: %w", err)
			}
			channels = append(channels, alert.NewWebhookDispatcher(cfg.Alert.WebhookURL, timeout, logger))
		}
		if cfg.Alert.SMTPHost != "" {
			channels = append(channels, alert.NewEmailDispatcher(
				cfg.Alert.SMTPHost, cfg.Alert.SMTPPort,
				cfg.Alert.SMTPUser, cfg.Alert.SMTPPass,
				cfg.Alert.EmailFrom, cfg.Alert.EmailTo, logger))
		}
		deps.Dispatcher = alert.NewMulti(channels...)
	}

	m := monitor.New(cfg, deps)
	rep := m.Evaluate(in)
	fmt.Print(rep.Render())
	return nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "csv":
		return journal.NewCSV(jc.EventsFile, jc.ReportsFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	default:
		return nil, nil
	}
}

// loadReturnsCSV reads a header row of series names followed by numeric rows.
// Blank cells are skipped, so series of different lengths can share a file.
func loadReturnsCSV(path string) ([]float64, map[string][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%s: need a header row and at least one data row", path)
	}

	header := rows[0]
	series := make(map[string][]float64, len(header))
	for _, row := range rows[1:] {
		for i, cell := range row {
			if i >= len(header) || cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: column %s: %w", path, header[i], err)
			}
			series[header[i]] = append(series[header[i]], v)
		}
	}

	portfolio := series["portfolio"]
	delete(series, "portfolio")
	if len(series) == 0 {
		series = nil
	}
	return portfolio, series, nil
}

// loadPositionsCSV reads instrument,notional,weight,asset_class rows.
func loadPositionsCSV(path string) (book, weights map[string]float64, classes map[string]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, nil, fmt.Errorf("%s: need a header row and at least one data row", path)
	}

	book = make(map[string]float64)
	weights = make(map[string]float64)
	classes = make(map[string]string)
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return nil, nil, nil, fmt.Errorf("%s: row %d: need at least instrument,notional", path, i+2)
		}
		name := row[0]
		notional, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s: row %d notional: %w", path, i+2, err)
		}
		book[name] = notional

		if len(row) > 2 && row[2] != "" {
			w, err := strconv.ParseFloat(row[2], 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("%s: row %d weight: %w", path, i+2, err)
			}
			weights[name] = w
		}
		if len(row) > 3 && row[3] != "" {
			classes[name] = row[3]
		}
	}

	if len(weights) == 0 {
		weights = nil
	}
	if len(classes) == 0 {
		classes = nil
	}
	return book, weights, classes, nil
}
