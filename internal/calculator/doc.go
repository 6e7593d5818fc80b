// Package calculator holds the pure derivation functions of the engine.
//
// Every derived field of the domain (account balances, budget figures, debt
// principal, habit streaks and goal progress) is computed here from its
// complete source set. Nothing in this package mutates its inputs or keeps
// state, so running a derivation twice always yields the same result.
package calculator

import "github.com/shopspring/decimal"

// epsilon absorbs floating point noise when comparing money amounts.
const epsilon = 0.005

func sum(values []float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromFloat(num).Div(decimal.NewFromFloat(den)).InexactFloat64()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
