// Package billing holds the quote and reconciliation arithmetic. Amounts are
// rupees; conversion to gateway subunits happens at the gateway boundary.
package billing

import (
	"math"
	"time"
)

// Markup is the fixed multiplier applied to the raw estimate to produce the
// billed amount. Not configurable.
const Markup = 1.3

// roundEpsilon absorbs float noise like 38.99999999 before the half-up cut.
const roundEpsilon = 1e-9

// Quote is the money pair derived from a technician's estimate.
type Quote struct {
	EstimatedCost    float64
	TotalBillingCost float64
}

// ComputeQuote derives the raw estimate and the marked-up billing total from
// a technician's time and rate figures.
func ComputeQuote(approxTimeHours, budgetPerHour float64) Quote {
	estimated := approxTimeHours * budgetPerHour
	return Quote{
		EstimatedCost:    Round(estimated, 2),
		TotalBillingCost: Round(estimated*Markup, 2),
	}
}

// Round rounds half-up to the given number of decimal places. Idempotent.
func Round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	scaled := x * pow
	floor := math.Floor(scaled)
	if scaled-floor >= 0.5-roundEpsilon {
		floor++
	}
	return floor / pow
}

// HoursBetween returns the fractional hours between start and end, never
// negative.
func HoursBetween(start, end time.Time) float64 {
	if end.Before(start) {
		return 0
	}
	return end.Sub(start).Hours()
}
