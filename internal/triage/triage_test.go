package triage

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triguard/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAssess_HighValueClaim(t *testing.T) {
	out, err := Assess(Input{
		Probability:    dec("0.85"),
		ClaimAmount:    dec("90000"),
		PursuitCost:    dec("12000"),
		ClearLiability: true,
		Urgent:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, BandA, out.Band)
	assert.True(t, out.ExpectedRecovery.Equal(dec("76500")),
		"expected recovery 76500, got %s", out.ExpectedRecovery)
	assert.True(t, out.ROI.Equal(dec("6.375")), "expected ROI 6.375, got %s", out.ROI)
	// band A 3 + roi 2 + clear liability 1 + urgent 1
	assert.Equal(t, 7, out.Points)
	assert.Equal(t, PriorityHigh, out.Priority)
}

func TestAssess_BandBoundaries(t *testing.T) {
	cases := []struct {
		prob string
		want Band
	}{
		{"1", BandA},
		{"0.8", BandA},
		{"0.79999", BandB},
		{"0.6", BandB},
		{"0.59999", BandC},
		{"0.4", BandC},
		{"0.39999", BandD},
		{"0.2", BandD},
		{"0.19999", BandE},
		{"0", BandE},
	}
	for _, tc := range cases {
		out, err := Assess(Input{
			Probability: dec(tc.prob),
			ClaimAmount: dec("1000"),
			PursuitCost: dec("1000"),
		})
		require.NoError(t, err, "probability %s", tc.prob)
		assert.Equal(t, tc.want, out.Band, "probability %s", tc.prob)
	}
}

func TestAssess_ROIPoints(t *testing.T) {
	// ROI = probability * amount / cost; pick inputs that land on the tiers.
	cases := []struct {
		amount string
		points int
	}{
		{"6000", 2}, // roi 3
		{"3000", 1}, // roi 1.5
		{"2000", 0}, // roi 1
	}
	for _, tc := range cases {
		out, err := Assess(Input{
			Probability: dec("0.5"),
			ClaimAmount: dec(tc.amount),
			PursuitCost: dec("1000"),
		})
		require.NoError(t, err)
		// band C contributes 1 point, no liability or urgency bonus
		assert.Equal(t, 1+tc.points, out.Points, "amount %s", tc.amount)
	}
}

func TestAssess_PriorityTiers(t *testing.T) {
	// band A + roi >= 3 gives 5 points: High without any bonus
	high, err := Assess(Input{
		Probability: dec("0.9"),
		ClaimAmount: dec("10000"),
		PursuitCost: dec("1000"),
	})
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, high.Priority)

	// band B + roi < 1.5 gives 2 points, urgency lifts it to Medium
	medium, err := Assess(Input{
		Probability: dec("0.6"),
		ClaimAmount: dec("1000"),
		PursuitCost: dec("1000"),
		Urgent:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, medium.Points)
	assert.Equal(t, PriorityMedium, medium.Priority)

	low, err := Assess(Input{
		Probability: dec("0.1"),
		ClaimAmount: dec("1000"),
		PursuitCost: dec("1000"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, low.Points)
	assert.Equal(t, PriorityLow, low.Priority)
}

func TestAssess_InvalidInputs(t *testing.T) {
	valid := Input{
		Probability: dec("0.5"),
		ClaimAmount: dec("1000"),
		PursuitCost: dec("500"),
	}

	bad := valid
	bad.Probability = dec("1.01")
	_, err := Assess(bad)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	bad = valid
	bad.Probability = dec("-0.1")
	_, err = Assess(bad)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	bad = valid
	bad.ClaimAmount = dec("-1")
	_, err = Assess(bad)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	bad = valid
	bad.PursuitCost = decimal.Zero
	_, err = Assess(bad)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
