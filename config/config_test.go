package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, 756, cfg.VaR.MinHistoricalObs)
	assert.InDelta(t, 0.03, cfg.Breaker.L1DrawdownPct, 1e-12)
	assert.InDelta(t, 3.0, cfg.Limits.MaxLeverage, 1e-12)
}

func TestLoadFromFileYAMLPartialOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "risk.yaml")
	yaml := `
var:
  mc_simulations: 50000
limits:
  max_leverage: 2.0
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 50000, cfg.VaR.MCSimulations)
	assert.InDelta(t, 2.0, cfg.Limits.MaxLeverage, 1e-12)
	// Untouched keys keep their defaults.
	assert.Equal(t, 756, cfg.VaR.MinHistoricalObs)
	assert.InDelta(t, 0.05, cfg.Breaker.L2DrawdownPct, 1e-12)
}

func TestLoadFromFileJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "risk.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"breaker":{"cooldown_days":10}}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Breaker.CooldownDays)
}

func TestLoadFromFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Limits.MaxVaR95 = 0.05
	cfg.Journal.Type = "sqlite"
	cfg.Journal.DBPath = "risk.sqlite"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min obs too small", func(c *Config) { c.VaR.MinHistoricalObs = 5 }},
		{"ladder not increasing", func(c *Config) { c.Breaker.L2DrawdownPct = 0.02 }},
		{"reduction out of range", func(c *Config) { c.Breaker.L1Reduction = 1.5 }},
		{"cooldown zero", func(c *Config) { c.Breaker.CooldownDays = 0 }},
		{"recovery too short", func(c *Config) { c.Breaker.RecoveryDays = 1 }},
		{"leverage zero", func(c *Config) { c.Limits.MaxLeverage = 0 }},
		{"bad journal type", func(c *Config) { c.Journal.Type = "postgres" }},
		{"csv without files", func(c *Config) { c.Journal.Type = "csv" }},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite" }},
		{"bad alert timeout", func(c *Config) { c.Alert.Timeout = "soon" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseTimeout(t *testing.T) {
	t.Parallel()

	d, err := AlertConfig{}.ParseTimeout()
	require.NoError(t, err)
	assert.Equal(t, "10s", d.String())

	d, err = AlertConfig{Timeout: "250ms"}.ParseTimeout()
	require.NoError(t, err)
	assert.Equal(t, "250ms", d.String())
}
