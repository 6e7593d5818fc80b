package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "USD", c.Finance.BaseCurrency)
	assert.Equal(t, "linked", c.Finance.BudgetMatching)
	assert.Equal(t, "claim", c.Finance.DebtFunding)
	assert.Equal(t, 2*time.Second, c.Outbox.FlushInterval)
	assert.Equal(t, "@every 1h", c.Scheduler.DebtStatus)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: /tmp/leora.db
finance:
  base_currency: UZS
  budget_matching: currency
  debt_funding: cash_flow
fx:
  rates:
    usd: 0.000079
  overrides:
    "usd:uzs": 12650
outbox:
  flush_interval: 500ms
  offline: true
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "/tmp/leora.db", c.Database.Path)
	assert.Equal(t, "UZS", c.Finance.BaseCurrency)
	assert.Equal(t, "currency", c.Finance.BudgetMatching)
	assert.Equal(t, "cash_flow", c.Finance.DebtFunding)
	assert.Equal(t, 500*time.Millisecond, c.Outbox.FlushInterval)
	assert.True(t, c.Outbox.Offline)
	assert.InDelta(t, 0.000079, c.FX.Rates["usd"], 1e-12)

	overrides := c.FX.ParsedOverrides()
	require.Len(t, overrides, 1)
	assert.Equal(t, Override{From: "USD", To: "UZS", Rate: 12650}, overrides[0])
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("LEORA_SERVER_PORT", "7070")
	t.Setenv("LEORA_LOG_LEVEL", "debug")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, c.Server.Port)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "finance:\n  budget_matching: fuzzy\n"))
	assert.ErrorContains(t, err, "budget_matching")

	_, err = Load(writeConfig(t, "finance:\n  debt_funding: sideways\n"))
	assert.ErrorContains(t, err, "debt_funding")

	_, err = Load(writeConfig(t, "server:\n  port: 70000\n"))
	assert.ErrorContains(t, err, "server.port")

	_, err = Load(writeConfig(t, "fx:\n  rates:\n    eur: -1\n"))
	assert.ErrorContains(t, err, "fx rate")
}

func TestParsedOverridesSkipsMalformed(t *testing.T) {
	c := FXConfig{Overrides: map[string]float64{"USD": 1, ":EUR": 2, "eur:usd": 1.1}}
	assert.Equal(t, []Override{{From: "EUR", To: "USD", Rate: 1.1}}, c.ParsedOverrides())
}
