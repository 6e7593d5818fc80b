package fx

import (
	"bytes"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTableRates(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	table := NewTable("usd").WithClock(func() time.Time { return now })
	table.SetRates(now.Add(-48*time.Hour), map[string]float64{"EUR": 0.8, "uzs": 12000, "bad": 5, "GBP": -1})
	table.SetRates(now.Add(-24*time.Hour), map[string]float64{"EUR": 0.9, "UZS": 12500})

	assert.Equal(t, "USD", table.Base())
	assert.Equal(t, 0.9, table.Rate("USD", "EUR"))
	assert.Equal(t, 12500.0, table.Rate(" usd ", "uzs"))
	assert.InDelta(t, 12500/0.9, table.Rate("EUR", "UZS"), 1e-6)
	assert.Equal(t, 0.8, table.RateAt("USD", "EUR", now.Add(-36*time.Hour)))

	// before the first snapshot the oldest one applies
	assert.Equal(t, 0.8, table.RateAt("USD", "EUR", now.Add(-72*time.Hour)))

	assert.Equal(t, 90.0, table.Convert(100, "USD", "EUR"))
	assert.Equal(t, 80.0, table.ConvertAt(100, "USD", "EUR", now.Add(-36*time.Hour)))
}

func TestTableFallsBackToIdentity(t *testing.T) {
	table := NewTable("USD")
	table.SetRates(time.Now().Add(-time.Hour), map[string]float64{"EUR": 0.9})

	assert.Equal(t, 1.0, table.Rate("USD", "JPY"))
	assert.Equal(t, 1.0, table.Rate("USD", "dollars"))
	assert.Equal(t, 1.0, table.Rate("EUR", "EUR"))
	assert.Equal(t, 42.0, table.Convert(42, "USD", "XXX"))
}

func TestTableLogsFallbackToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	table := NewTable("USD").WithLogger(logger)

	assert.Equal(t, 1.0, table.Rate("USD", "JPY"))
	assert.Contains(t, buf.String(), "FX rate missing, using identity")
	assert.Contains(t, buf.String(), "to=JPY")
}

func TestTableOverrides(t *testing.T) {
	table := NewTable("USD")
	table.SetRates(time.Now().Add(-time.Hour), map[string]float64{"EUR": 0.9})

	table.SetOverride("usd", "eur", 0.5)
	assert.Equal(t, 0.5, table.Rate("USD", "EUR"))
	assert.Equal(t, 2.0, table.Rate("EUR", "USD"))

	table.SetOverride("EUR", "USD", 1.25)
	assert.Equal(t, 1.25, table.Rate("EUR", "USD"))

	table.SetOverride("USD", "EUR", 0)
	assert.Equal(t, 0.5, table.Rate("USD", "EUR"), "non-positive override is ignored")

	table.ClearOverride("USD", "EUR")
	table.ClearOverride("EUR", "USD")
	assert.Equal(t, 0.9, table.Rate("USD", "EUR"))
}

func TestApply(t *testing.T) {
	assert.Equal(t, 0.3, Apply(0.1, 3))
	assert.Equal(t, 7.0, Apply(7, 1))
	assert.True(t, math.IsNaN(Apply(math.NaN(), 2)))
	assert.Equal(t, 5.0, Apply(5, math.Inf(1)))
}

func TestNormalizeAndValid(t *testing.T) {
	assert.Equal(t, "EUR", Normalize(" eur "))
	assert.True(t, Valid("UZS"))
	assert.False(t, Valid("US"))
	assert.False(t, Valid("us1"))
	assert.True(t, Finite(1))
	assert.False(t, Finite(math.Inf(-1)))
}

func TestIdentity(t *testing.T) {
	var c Converter = Identity{}
	assert.Equal(t, 1.0, c.Rate("USD", "EUR"))
	assert.Equal(t, 12.5, c.Convert(12.5, "USD", "EUR"))
}
