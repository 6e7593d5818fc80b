// Package fx converts amounts between currencies.
//
// Conversion is fail-soft: an unknown or malformed currency, or a missing rate,
// falls back to the identity rate instead of returning an error, so a save is
// never blocked by the rate table.
package fx

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Converter is what the domain stores need from the conversion service.
type Converter interface {
	// Rate returns how many units of to one unit of from is worth.
	Rate(from, to string) float64

	// Convert returns amount expressed in to.
	Convert(amount float64, from, to string) float64
}

type pair struct {
	from, to string
}

type snapshot struct {
	asOf  time.Time
	rates map[string]float64
}

// Table is a dated rate table quoted against a base currency, with manual
// overrides that take precedence over quoted rates.
type Table struct {
	mu        sync.RWMutex
	base      string
	snapshots []snapshot
	overrides map[pair]float64
	now       func() time.Time
	logger    *slog.Logger
}

var _ Converter = (*Table)(nil)

// NewTable creates an empty table quoted in base.
func NewTable(base string) *Table {
	return &Table{
		base:      Normalize(base),
		overrides: make(map[pair]float64),
		now:       time.Now,
		logger:    slog.Default(),
	}
}

// WithClock replaces the clock used by Rate and Convert.
func (t *Table) WithClock(now func() time.Time) *Table {
	t.now = now
	return t
}

// WithLogger sets the logger used for identity fallbacks.
func (t *Table) WithLogger(l *slog.Logger) *Table {
	t.logger = l
	return t
}

// Base returns the quote currency of the table.
func (t *Table) Base() string {
	return t.base
}

// SetRates stores rates (units of currency per one base unit) valid from asOf.
func (t *Table) SetRates(asOf time.Time, rates map[string]float64) {
	clean := make(map[string]float64, len(rates))
	for code, r := range rates {
		code = Normalize(code)
		if !Valid(code) || r <= 0 {
			continue
		}
		clean[code] = r
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshots = append(t.snapshots, snapshot{asOf: asOf, rates: clean})
	sort.SliceStable(t.snapshots, func(i, j int) bool {
		return t.snapshots[i].asOf.Before(t.snapshots[j].asOf)
	})
}

// SetOverride pins the rate for from -> to. The inverse direction uses 1/rate
// unless it has its own override.
func (t *Table) SetOverride(from, to string, rate float64) {
	from, to = Normalize(from), Normalize(to)
	if !Valid(from) || !Valid(to) || rate <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overrides[pair{from, to}] = rate
}

// ClearOverride removes a manual override.
func (t *Table) ClearOverride(from, to string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.overrides, pair{Normalize(from), Normalize(to)})
}

// Rate returns the current rate for from -> to.
func (t *Table) Rate(from, to string) float64 {
	return t.RateAt(from, to, t.now())
}

// Convert converts amount at the current rate.
func (t *Table) Convert(amount float64, from, to string) float64 {
	return Apply(amount, t.Rate(from, to))
}

// ConvertAt converts amount at the rate in force at the given time.
func (t *Table) ConvertAt(amount float64, from, to string, at time.Time) float64 {
	return Apply(amount, t.RateAt(from, to, at))
}

// RateAt returns the rate for from -> to in force at the given time.
func (t *Table) RateAt(from, to string, at time.Time) float64 {
	from, to = Normalize(from), Normalize(to)
	if from == to || !Valid(from) || !Valid(to) {
		return 1
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if r, ok := t.overrides[pair{from, to}]; ok {
		return r
	}
	if r, ok := t.overrides[pair{to, from}]; ok {
		return decimal.NewFromInt(1).Div(decimal.NewFromFloat(r)).InexactFloat64()
	}

	rates := t.ratesAt(at)
	fromRate, okFrom := t.quote(rates, from)
	toRate, okTo := t.quote(rates, to)
	if !okFrom || !okTo {
		t.logger.Debug("FX rate missing, using identity", "from", from, "to", to)
		return 1
	}
	return decimal.NewFromFloat(toRate).Div(decimal.NewFromFloat(fromRate)).InexactFloat64()
}

func (t *Table) quote(rates map[string]float64, code string) (float64, bool) {
	if code == t.base {
		return 1, true
	}
	r, ok := rates[code]
	return r, ok
}

// ratesAt returns the newest snapshot not after at, or the oldest one when at
// precedes every snapshot.
func (t *Table) ratesAt(at time.Time) map[string]float64 {
	if len(t.snapshots) == 0 {
		return nil
	}
	i := sort.Search(len(t.snapshots), func(i int) bool {
		return t.snapshots[i].asOf.After(at)
	})
	if i == 0 {
		return t.snapshots[0].rates
	}
	return t.snapshots[i-1].rates
}

// Apply multiplies amount by rate without binary floating point drift.
// Non-finite inputs return amount unchanged.
func Apply(amount, rate float64) float64 {
	if !finite(amount) || !finite(rate) {
		return amount
	}
	if rate == 1 {
		return amount
	}
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).InexactFloat64()
}

// Normalize upper-cases and trims a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code looks like an ISO 4217 code.
func Valid(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// Identity is a Converter that never changes amounts.
type Identity struct{}

func (Identity) Rate(from, to string) float64                    { return 1 }
func (Identity) Convert(amount float64, from, to string) float64 { return amount }
