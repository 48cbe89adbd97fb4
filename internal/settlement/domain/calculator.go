package settlement

import (
	"math"
	"time"
)

// HOARate is the administration-fee rate applied to (rent - utility).
const HOARate = 0.10

// StandardAllocation is the full-period settlement figure set for a property.
type StandardAllocation struct {
	Rent   float64
	HOA    float64
	Payout float64
}

// CalculateStandard computes the full-period figures for a property billed at
// its monthly rent with the batch's flat utility cost. The HOA fee is 10% of
// (rent - utility), rounded to the nearest currency unit. A negative HOA
// (rent below the utility cost) is kept as-is in the allocation so the raw
// figure survives for audit; the payout deduction floors it at zero.
func CalculateStandard(monthlyRent, utilityCost float64) StandardAllocation {
	if math.IsNaN(monthlyRent) || math.IsInf(monthlyRent, 0) {
		monthlyRent = 0
	}
	hoa := math.Round((monthlyRent - utilityCost) * HOARate)
	return StandardAllocation{
		Rent:   monthlyRent,
		HOA:    hoa,
		Payout: monthlyRent - math.Max(hoa, 0),
	}
}

// ProratedAllocation is the partial-period figure set for an exception case.
type ProratedAllocation struct {
	Days        int
	DaysInMonth int
	Rent        float64
	Utility     float64
	HOA         float64
}

// CalculateProrated computes the figures for a property billed for a partial
// period. Days are counted inclusive of both endpoints and the divisor is the
// length of the month containing the start date. Rounding happens at each
// step, not once at the end; the intermediate order of operations is part of
// the contract because callers compute the same figures independently and the
// two must agree to the currency unit.
func CalculateProrated(monthlyRent, utilityCost float64, start, end time.Time) ProratedAllocation {
	if math.IsNaN(monthlyRent) || math.IsInf(monthlyRent, 0) {
		monthlyRent = 0
	}
	days := DaysInclusive(start, end)
	daysInMonth := DaysInMonthOf(start)

	rent := math.Round((monthlyRent / float64(daysInMonth)) * float64(days))
	utility := math.Round((utilityCost / float64(daysInMonth)) * float64(days))
	hoa := math.Round((rent - utility) * HOARate)

	return ProratedAllocation{
		Days:        days,
		DaysInMonth: daysInMonth,
		Rent:        rent,
		Utility:     utility,
		HOA:         hoa,
	}
}

// Net returns the prorated payout before any shared-fee attribution.
func (a ProratedAllocation) Net() float64 {
	return a.Rent - a.HOA
}
