// Package triage scores a claim for pursuit: a probability band, the
// expected recovery, the return on pursuit cost, and a point-based priority
// tier. All money math uses decimals so displayed figures are exact.
package triage

import (
	"github.com/shopspring/decimal"

	"triguard/pkg/errors"
)

// Band is the five-level ordinal probability band.
type Band string

const (
	BandA Band = "A"
	BandB Band = "B"
	BandC Band = "C"
	BandD Band = "D"
	BandE Band = "E"
)

// Priority is the pursuit tier.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Input are the five manual calculator inputs.
type Input struct {
	Probability    decimal.Decimal `json:"probability"`
	ClaimAmount    decimal.Decimal `json:"claim_amount"`
	PursuitCost    decimal.Decimal `json:"pursuit_cost"`
	ClearLiability bool            `json:"clear_liability"`
	Urgent         bool            `json:"urgent"`
}

// Assessment is the calculator output.
type Assessment struct {
	Band             Band            `json:"band"`
	ExpectedRecovery decimal.Decimal `json:"expected_recovery"`
	ROI              decimal.Decimal `json:"roi"`
	Points           int             `json:"points"`
	Priority         Priority        `json:"priority"`
}

var (
	one = decimal.NewFromInt(1)

	bandAMin = decimal.RequireFromString("0.8")
	bandBMin = decimal.RequireFromString("0.6")
	bandCMin = decimal.RequireFromString("0.4")
	bandDMin = decimal.RequireFromString("0.2")

	roiHigh = decimal.NewFromInt(3)
	roiMid  = decimal.RequireFromString("1.5")
)

// Assess computes band, expected recovery, ROI and priority. The pursuit
// cost must be positive since ROI divides by it.
func Assess(in Input) (Assessment, error) {
	if in.Probability.IsNegative() || in.Probability.GreaterThan(one) {
		return Assessment{}, errors.Wrapf(errors.ErrInvalidInput,
			"probability %s out of [0, 1]", in.Probability)
	}
	if in.ClaimAmount.IsNegative() {
		return Assessment{}, errors.Wrapf(errors.ErrInvalidInput,
			"claim amount %s is negative", in.ClaimAmount)
	}
	if !in.PursuitCost.IsPositive() {
		return Assessment{}, errors.Wrapf(errors.ErrInvalidInput,
			"pursuit cost %s must be positive", in.PursuitCost)
	}

	band := bandFor(in.Probability)
	recovery := in.Probability.Mul(in.ClaimAmount)
	roi := recovery.Div(in.PursuitCost)

	points := bandPoints(band) + roiPoints(roi)
	if in.ClearLiability {
		points++
	}
	if in.Urgent {
		points++
	}

	return Assessment{
		Band:             band,
		ExpectedRecovery: recovery,
		ROI:              roi,
		Points:           points,
		Priority:         priorityFor(points),
	}, nil
}

func bandFor(p decimal.Decimal) Band {
	switch {
	case p.GreaterThanOrEqual(bandAMin):
		return BandA
	case p.GreaterThanOrEqual(bandBMin):
		return BandB
	case p.GreaterThanOrEqual(bandCMin):
		return BandC
	case p.GreaterThanOrEqual(bandDMin):
		return BandD
	}
	return BandE
}

func bandPoints(b Band) int {
	switch b {
	case BandA:
		return 3
	case BandB:
		return 2
	case BandC:
		return 1
	}
	return 0
}

func roiPoints(roi decimal.Decimal) int {
	switch {
	case roi.GreaterThanOrEqual(roiHigh):
		return 2
	case roi.GreaterThanOrEqual(roiMid):
		return 1
	}
	return 0
}

func priorityFor(points int) Priority {
	switch {
	case points >= 5:
		return PriorityHigh
	case points >= 3:
		return PriorityMedium
	}
	return PriorityLow
}
