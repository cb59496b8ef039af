package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete risk-engine configuration. Every threshold the
// engine recognizes lives here with a sane default; callers override at
// construction time, not at runtime.
type Config struct {
	VaR     VaRConfig     `json:"var" yaml:"var"`
	Breaker BreakerConfig `json:"breaker" yaml:"breaker"`
	Limits  LimitsConfig  `json:"limits" yaml:"limits"`
	Alert   AlertConfig   `json:"alert" yaml:"alert"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// VaRConfig contains VaR calculator parameters.
type VaRConfig struct {
	MinHistoricalObs int `json:"min_historical_obs" yaml:"min_historical_obs"`
	MCSimulations    int `json:"mc_simulations" yaml:"mc_simulations"`
	LookbackDays     int `json:"lookback_days" yaml:"lookback_days"`
}

// BreakerConfig contains the drawdown circuit-breaker thresholds.
type BreakerConfig struct {
	L1DrawdownPct float64 `json:"l1_drawdown_pct" yaml:"l1_drawdown_pct"`
	L2DrawdownPct float64 `json:"l2_drawdown_pct" yaml:"l2_drawdown_pct"`
	L3DrawdownPct float64 `json:"l3_drawdown_pct" yaml:"l3_drawdown_pct"`
	L1Reduction   float64 `json:"l1_reduction" yaml:"l1_reduction"`
	L2Reduction   float64 `json:"l2_reduction" yaml:"l2_reduction"`
	L3Reduction   float64 `json:"l3_reduction" yaml:"l3_reduction"`

	CooldownDays         int     `json:"cooldown_days" yaml:"cooldown_days"`
	RecoveryDays         int     `json:"recovery_days" yaml:"recovery_days"`
	RecoveryThresholdPct float64 `json:"recovery_threshold_pct" yaml:"recovery_threshold_pct"`

	StrategyLossLimitPct   float64 `json:"strategy_loss_limit_pct" yaml:"strategy_loss_limit_pct"`
	AssetClassLossLimitPct float64 `json:"asset_class_loss_limit_pct" yaml:"asset_class_loss_limit_pct"`
}

// LimitsConfig contains the static limit battery plus the rolling loss and
// risk-budget thresholds checked by the limits manager.
type LimitsConfig struct {
	MaxVaR95            float64 `json:"max_var_95" yaml:"max_var_95"`
	MaxVaR99            float64 `json:"max_var_99" yaml:"max_var_99"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	MaxLeverage         float64 `json:"max_leverage" yaml:"max_leverage"`
	MaxPositionWeight   float64 `json:"max_position_weight" yaml:"max_position_weight"`
	MaxAssetClassWeight float64 `json:"max_asset_class_weight" yaml:"max_asset_class_weight"`
	MaxBudgetContrib    float64 `json:"max_budget_contrib" yaml:"max_budget_contrib"`
	MaxStrategyLoss     float64 `json:"max_strategy_loss" yaml:"max_strategy_loss"`
	MaxAssetClassLoss   float64 `json:"max_asset_class_loss" yaml:"max_asset_class_loss"`

	DailyLossLimitPct  float64 `json:"daily_loss_limit_pct" yaml:"daily_loss_limit_pct"`
	WeeklyLossLimitPct float64 `json:"weekly_loss_limit_pct" yaml:"weekly_loss_limit_pct"`

	TotalRiskBudget         float64 `json:"total_risk_budget" yaml:"total_risk_budget"`
	RiskBudgetPerPosition   float64 `json:"risk_budget_per_position" yaml:"risk_budget_per_position"`
	RiskBudgetPerAssetClass float64 `json:"risk_budget_per_asset_class" yaml:"risk_budget_per_asset_class"`
}

// AlertConfig contains the optional alert-delivery side channels.
type AlertConfig struct {
	WebhookURL string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
	Timeout    string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "10s"

	SMTPHost  string   `json:"smtp_host,omitempty" yaml:"smtp_host,omitempty"`
	SMTPPort  int      `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty"`
	SMTPUser  string   `json:"smtp_user,omitempty" yaml:"smtp_user,omitempty"`
	SMTPPass  string   `json:"smtp_pass,omitempty" yaml:"smtp_pass,omitempty"`
	EmailFrom string   `json:"email_from,omitempty" yaml:"email_from,omitempty"`
	EmailTo   []string `json:"email_to,omitempty" yaml:"email_to,omitempty"`
}

// ParseTimeout converts the alert timeout string to a time.Duration.
func (a AlertConfig) ParseTimeout() (time.Duration, error) {
	if a.Timeout == "" {
		return 10 * time.Second, nil
	}
	return time.ParseDuration(a.Timeout)
}

// JournalConfig contains the optional event/report journal sinks.
type JournalConfig struct {
	Type        string `json:"type,omitempty" yaml:"type,omitempty"` // "", "csv" or "sqlite"
	EventsFile  string `json:"events_file,omitempty" yaml:"events_file,omitempty"`
	ReportsFile string `json:"reports_file,omitempty" yaml:"reports_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML). Missing keys
// keep their defaults, so a partial override file is enough.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.VaR.MinHistoricalObs < 10 {
		return fmt.Errorf("var.min_historical_obs must be at least 10")
	}
	if c.VaR.MCSimulations <= 0 {
		return fmt.Errorf("var.mc_simulations must be positive")
	}
	if c.VaR.LookbackDays <= 0 {
		return fmt.Errorf("var.lookback_days must be positive")
	}
	if !(c.Breaker.L1DrawdownPct < c.Breaker.L2DrawdownPct && c.Breaker.L2DrawdownPct < c.Breaker.L3DrawdownPct) {
		return fmt.Errorf("breaker drawdown thresholds must be strictly increasing (l1 < l2 < l3)")
	}
	for _, r := range []float64{c.Breaker.L1Reduction, c.Breaker.L2Reduction, c.Breaker.L3Reduction} {
		if r < 0 || r > 1 {
			return fmt.Errorf("breaker reductions must be in [0, 1]")
		}
	}
	if c.Breaker.CooldownDays <= 0 {
		return fmt.Errorf("breaker.cooldown_days must be positive")
	}
	if c.Breaker.RecoveryDays < 2 {
		return fmt.Errorf("breaker.recovery_days must be at least 2")
	}
	if c.Limits.MaxLeverage <= 0 {
		return fmt.Errorf("limits.max_leverage must be positive")
	}
	if c.Limits.TotalRiskBudget <= 0 {
		return fmt.Errorf("limits.total_risk_budget must be positive")
	}
	if c.Journal.Type != "" && c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be empty, 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.EventsFile == "" || c.Journal.ReportsFile == "") {
		return fmt.Errorf("journal events_file and reports_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	if c.Alert.Timeout != "" {
		if _, err := time.ParseDuration(c.Alert.Timeout); err != nil {
			return fmt.Errorf("alert.timeout: %w", err)
		}
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		VaR: VaRConfig{
			MinHistoricalObs: 756,
			MCSimulations:    10000,
			LookbackDays:     756,
		},
		Breaker: BreakerConfig{
			L1DrawdownPct:          0.03,
			L2DrawdownPct:          0.05,
			L3DrawdownPct:          0.08,
			L1Reduction:            0.75,
			L2Reduction:            0.50,
			L3Reduction:            0.0,
			CooldownDays:           5,
			RecoveryDays:           3,
			RecoveryThresholdPct:   0.03,
			StrategyLossLimitPct:   0.02,
			AssetClassLossLimitPct: 0.03,
		},
		Limits: LimitsConfig{
			MaxVaR95:            0.025,
			MaxVaR99:            0.04,
			MaxDrawdownPct:      0.10,
			MaxLeverage:         3.0,
			MaxPositionWeight:   0.25,
			MaxAssetClassWeight: 0.50,
			MaxBudgetContrib:    0.30,
			MaxStrategyLoss:     0.02,
			MaxAssetClassLoss:   0.03,

			DailyLossLimitPct:  0.02,
			WeeklyLossLimitPct: 0.05,

			TotalRiskBudget:         1.0,
			RiskBudgetPerPosition:   0.20,
			RiskBudgetPerAssetClass: 0.40,
		},
		Alert: AlertConfig{
			Timeout: "10s",
		},
		Journal: JournalConfig{},
	}
}
