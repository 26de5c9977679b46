package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triguard/internal/dataset"
	"triguard/pkg/errors"
)

// Column order for test frames; covers every column the engineer reads.
var testColumns = []string{
	"claim_number", "subrogation", "claim_est_payout", "liab_prct",
	"claim_date", "channel", "zip_code", "witness_present_ind",
	"policy_report_filed_ind", "in_network_bodyshop",
	"accident_site", "accident_type",
	"annual_income", "high_education_ind", "address_change_ind", "past_num_of_claims",
	"vehicle_category", "vehicle_price", "vehicle_weight", "vehicle_mileage",
	"year_of_born", "gender", "age_of_DL", "safety_rating",
}

type testRow map[string]string

func newTestFrame(rows ...testRow) *dataset.Frame {
	f := dataset.NewFrame(testColumns...)
	for _, r := range rows {
		vals := make([]string, len(testColumns))
		for i, c := range testColumns {
			vals[i] = r[c]
		}
		f.AppendRow(vals...)
	}
	return f
}

// baseRow returns a fully populated labeled claim; tests override the cells
// they care about.
func baseRow(id, label string) testRow {
	return testRow{
		"claim_number": id, "subrogation": label,
		"claim_est_payout": "12000", "liab_prct": "25",
		"claim_date": "2016-06-14 08:15:00", "channel": "Broker",
		"zip_code": "90210", "witness_present_ind": "N",
		"policy_report_filed_ind": "0", "in_network_bodyshop": "no",
		"accident_site": "Highway", "accident_type": "multi_vehicle_unclear",
		"annual_income": "45000", "high_education_ind": "1",
		"address_change_ind": "0", "past_num_of_claims": "2",
		"vehicle_category": "Compact", "vehicle_price": "22000",
		"vehicle_weight": "2900", "vehicle_mileage": "40000",
		"year_of_born": "1985", "gender": "F", "age_of_DL": "19",
		"safety_rating": "75",
	}
}

func fitSmallSet(t *testing.T) (*FeatureSet, Artifacts) {
	t.Helper()
	rows := []testRow{
		baseRow("C1", "1"),
		baseRow("C2", "0"),
		baseRow("C3", "1"),
		baseRow("C4", "0"),
	}
	rows[1]["vehicle_mileage"] = "60000"
	rows[2]["vehicle_mileage"] = "20000"
	rows[3]["vehicle_mileage"] = "80000"

	eng := NewEngineer()
	fs, art, err := eng.Fit(newTestFrame(rows...))
	require.NoError(t, err)
	return fs, art
}

func cell(t *testing.T, fs *FeatureSet, name string, row int) float64 {
	t.Helper()
	c, ok := fs.Column(name)
	require.True(t, ok, "column %s missing", name)
	return c[row]
}

func TestEngineer_FitProducesEveryModelFeature(t *testing.T) {
	fs, art := fitSmallSet(t)

	assert.Equal(t, 4, fs.Rows())
	assert.Equal(t, []int{1, 0, 1, 0}, fs.Labels)
	assert.Equal(t, []string{"C1", "C2", "C3", "C4"}, fs.IDs)

	for _, name := range ModelFeatures {
		_, ok := fs.Column(name)
		assert.True(t, ok, "model feature %s not engineered", name)
	}
	for _, name := range CatFeatures {
		_, ok := fs.Cat(name)
		assert.True(t, ok, "categorical %s missing", name)
	}
	for _, name := range TargetEncodeFeatures {
		_, ok := fs.Cat(name)
		assert.True(t, ok, "target-encoded categorical %s missing", name)
	}

	assert.Contains(t, art, "mileage_median")
	assert.Contains(t, art, "mileage_p75")
	for _, c := range []string{"annual_income", "vehicle_price", "vehicle_weight", "claim_est_payout"} {
		assert.Contains(t, art, c+"_med")
		assert.Contains(t, art, c+"_p99")
		assert.Contains(t, art, c+"_p01")
	}
	for _, c := range []string{"annual_income", "vehicle_price", "claim_est_payout"} {
		assert.Contains(t, art, c+"_p75")
	}
}

func TestEngineer_DropsUnlabeledRows(t *testing.T) {
	rows := []testRow{
		baseRow("C1", "1"),
		baseRow("C2", ""),
		baseRow("C3", "0"),
		baseRow("C4", "n/a"),
	}
	eng := NewEngineer()
	fs, _, err := eng.Fit(newTestFrame(rows...))
	require.NoError(t, err)

	assert.Equal(t, 2, fs.Rows())
	assert.Equal(t, []string{"C1", "C3"}, fs.IDs)
	assert.Equal(t, []int{1, 0}, fs.Labels)
}

func TestEngineer_AllUnlabeledFails(t *testing.T) {
	eng := NewEngineer()
	_, _, err := eng.Fit(newTestFrame(baseRow("C1", ""), baseRow("C2", "")))
	assert.ErrorIs(t, err, errors.ErrEmptyTrainingSet)
}

func TestEngineer_MissingColumnFails(t *testing.T) {
	f := dataset.NewFrame("claim_number", "subrogation")
	f.AppendRow("C1", "1")

	eng := NewEngineer()
	_, _, err := eng.Fit(f)
	require.Error(t, err)

	var schemaErr *errors.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestEngineer_TimeFeatures(t *testing.T) {
	saturdayNight := baseRow("C1", "1")
	saturdayNight["claim_date"] = "2016-01-09 23:30:00"
	tuesdayRush := baseRow("C2", "0")
	tuesdayRush["claim_date"] = "2016-06-14 08:15:00"
	undated := baseRow("C3", "1")
	undated["claim_date"] = ""

	eng := NewEngineer()
	fs, _, err := eng.Fit(newTestFrame(saturdayNight, tuesdayRush, undated))
	require.NoError(t, err)

	// Saturday is day 5 under the Monday=0 convention
	assert.Equal(t, 5.0, cell(t, fs, "claim_dow", 0))
	assert.Equal(t, 1.0, cell(t, fs, "is_weekend", 0))
	assert.Equal(t, 1.0, cell(t, fs, "is_night", 0))
	assert.Equal(t, 1.0, cell(t, fs, "is_winter", 0))

	assert.Equal(t, 1.0, cell(t, fs, "claim_dow", 1))
	assert.Equal(t, 0.0, cell(t, fs, "is_weekend", 1))
	assert.Equal(t, 1.0, cell(t, fs, "is_rush_hour", 1))
	assert.Equal(t, 1.0, cell(t, fs, "is_morning", 1))
	assert.Equal(t, 1.0, cell(t, fs, "is_summer", 1))

	// Unparseable dates leave NaN time parts; every comparison flag is 0
	assert.True(t, math.IsNaN(cell(t, fs, "claim_dow", 2)))
	assert.Equal(t, 0.0, cell(t, fs, "is_weekend", 2))
	assert.Equal(t, 0.0, cell(t, fs, "is_weekday", 2))
	assert.Equal(t, 0.0, cell(t, fs, "is_night", 2))
}

func TestEngineer_LiabilityFeatures(t *testing.T) {
	at25 := baseRow("C1", "1")
	at25["liab_prct"] = "25"
	missing := baseRow("C2", "0")
	missing["liab_prct"] = ""
	over := baseRow("C3", "1")
	over["liab_prct"] = "120"

	eng := NewEngineer()
	fs, _, err := eng.Fit(newTestFrame(at25, missing, over))
	require.NoError(t, err)

	assert.Equal(t, 25.0, cell(t, fs, "liab_prct", 0))
	assert.Equal(t, 1.0, cell(t, fs, "liab_20_30", 0))
	assert.Equal(t, 1.0, cell(t, fs, "liab_exactly_25", 0))
	assert.Equal(t, 1.0, cell(t, fs, "liab_20_25", 0))
	assert.Equal(t, 5.0, cell(t, fs, "liab_sqrt", 0))
	assert.Equal(t, 75.0, cell(t, fs, "liab_inverse", 0))
	assert.Equal(t, 625.0, cell(t, fs, "liab_squared", 0))

	// Missing liability fills to zero
	assert.Equal(t, 0.0, cell(t, fs, "liab_prct", 1))
	assert.Equal(t, 1.0, cell(t, fs, "liab_zero", 1))
	assert.Equal(t, 1.0, cell(t, fs, "liab_0_10", 1))

	// Out-of-range clips to 100
	assert.Equal(t, 100.0, cell(t, fs, "liab_prct", 2))
	assert.Equal(t, 1.0, cell(t, fs, "liab_full", 2))
	assert.Equal(t, 1.0, cell(t, fs, "liab_40_plus", 2))
}

func TestEngineer_EvidenceFlags(t *testing.T) {
	both := baseRow("C1", "1")
	both["witness_present_ind"] = "yes"
	both["policy_report_filed_ind"] = "1"
	neither := baseRow("C2", "0")
	neither["witness_present_ind"] = ""
	neither["policy_report_filed_ind"] = ""

	eng := NewEngineer()
	fs, _, err := eng.Fit(newTestFrame(both, neither))
	require.NoError(t, err)

	assert.Equal(t, 1.0, cell(t, fs, "has_witness", 0))
	assert.Equal(t, 1.0, cell(t, fs, "has_police", 0))
	assert.Equal(t, 2.0, cell(t, fs, "evidence_count", 0))
	assert.Equal(t, 1.0, cell(t, fs, "has_full_evidence", 0))

	assert.Equal(t, 0.0, cell(t, fs, "evidence_count", 1))
	assert.Equal(t, 1.0, cell(t, fs, "has_no_evidence", 1))
}

// multi_vehicle_unclear contains both "multi.*unclear" and "multi.*clear",
// so both flags fire on the same row. Downstream weighting relies on this
// exact behavior, so it is pinned here.
func TestEngineer_AccidentTypeFlags(t *testing.T) {
	unclear := baseRow("C1", "1")
	unclear["accident_type"] = "multi_vehicle_unclear"
	clear := baseRow("C2", "0")
	clear["accident_type"] = "multi_vehicle_clear"
	single := baseRow("C3", "1")
	single["accident_type"] = "Single Car Collision"

	eng := NewEngineer()
	fs, _, err := eng.Fit(newTestFrame(unclear, clear, single))
	require.NoError(t, err)

	assert.Equal(t, 1.0, cell(t, fs, "is_multi_unclear", 0))
	assert.Equal(t, 1.0, cell(t, fs, "is_multi_clear", 0))

	assert.Equal(t, 0.0, cell(t, fs, "is_multi_unclear", 1))
	assert.Equal(t, 1.0, cell(t, fs, "is_multi_clear", 1))

	assert.Equal(t, 1.0, cell(t, fs, "is_single_car", 2))
	assert.Equal(t, 0.0, cell(t, fs, "is_multi_clear", 2))
}

func TestEngineer_Zip3(t *testing.T) {
	r1 := baseRow("C1", "1")
	r1["zip_code"] = "90210"
	r2 := baseRow("C2", "0")
	r2["zip_code"] = ""
	r3 := baseRow("C3", "1")
	r3["zip_code"] = "123"

	eng := NewEngineer()
	fs, _, err := eng.Fit(newTestFrame(r1, r2, r3))
	require.NoError(t, err)

	zip3, ok := fs.Cat("zip3")
	require.True(t, ok)
	assert.Equal(t, []string{"902", "unknown", "001"}, zip3)
}

func TestEngineer_TransformReplaysTrainArtifacts(t *testing.T) {
	_, art := fitSmallSet(t)
	trainMedian := art["mileage_median"]
	require.False(t, math.IsNaN(trainMedian))

	// A test row with missing mileage imputes to the training median even
	// though its own partition has a different distribution.
	unseen := baseRow("T1", "")
	unseen["vehicle_mileage"] = ""
	other := baseRow("T2", "")
	other["vehicle_mileage"] = "999999"

	eng := NewEngineer()
	fs, err := eng.Transform(newTestFrame(unseen, other), art)
	require.NoError(t, err)

	assert.Nil(t, fs.Labels)
	assert.Equal(t, trainMedian, cell(t, fs, "vehicle_mileage", 0))
}

// The p75 cutoffs behind the is_high_* flags are fitted once on the training
// partition; the same row must score identically no matter which rows it is
// transformed alongside.
func TestEngineer_QuantileFlagsUseTrainThresholds(t *testing.T) {
	rows := []testRow{
		baseRow("C1", "1"), baseRow("C2", "0"),
		baseRow("C3", "1"), baseRow("C4", "0"),
	}
	for i, v := range []string{"20000", "40000", "60000", "80000"} {
		rows[i]["vehicle_mileage"] = v
	}
	for i, v := range []string{"10000", "20000", "30000", "40000"} {
		rows[i]["annual_income"] = v
		rows[i]["vehicle_price"] = v
	}
	for i, v := range []string{"4000", "8000", "12000", "16000"} {
		rows[i]["claim_est_payout"] = v
	}

	eng := NewEngineer()
	_, art, err := eng.Fit(newTestFrame(rows...))
	require.NoError(t, err)

	// Above every training p75 cutoff, so each flag must be 1.
	fixed := baseRow("T1", "")
	fixed["vehicle_mileage"] = "70000"
	fixed["annual_income"] = "35000"
	fixed["vehicle_price"] = "35000"
	fixed["claim_est_payout"] = "14000"

	low := baseRow("T2", "")
	high := baseRow("T3", "")
	for _, c := range []string{"vehicle_mileage", "annual_income", "vehicle_price", "claim_est_payout"} {
		low[c] = "1"
		high[c] = "1000000"
	}

	withLow, err := eng.Transform(newTestFrame(fixed, low), art)
	require.NoError(t, err)
	withHigh, err := eng.Transform(newTestFrame(fixed, high), art)
	require.NoError(t, err)

	for _, name := range []string{
		"is_high_mileage", "is_high_income", "is_expensive_car", "is_large_payout",
	} {
		assert.Equal(t, 1.0, cell(t, withLow, name, 0), "%s next to a low outlier", name)
		assert.Equal(t, 1.0, cell(t, withHigh, name, 0), "%s next to a high outlier", name)
	}
}

func TestEngineer_TransformIsDeterministic(t *testing.T) {
	_, art := fitSmallSet(t)
	frame := newTestFrame(baseRow("T1", ""), baseRow("T2", ""))

	eng := NewEngineer()
	a, err := eng.Transform(frame, art)
	require.NoError(t, err)
	b, err := eng.Transform(frame, art)
	require.NoError(t, err)

	require.Equal(t, a.NumericNames(), b.NumericNames())
	for _, name := range a.NumericNames() {
		ca, _ := a.Column(name)
		cb, _ := b.Column(name)
		for i := range ca {
			if math.IsNaN(ca[i]) {
				assert.True(t, math.IsNaN(cb[i]), "column %s row %d", name, i)
				continue
			}
			assert.Equal(t, ca[i], cb[i], "column %s row %d", name, i)
		}
	}
}

func TestEngineer_TransformMissingArtifactFails(t *testing.T) {
	eng := NewEngineer()
	_, err := eng.Transform(newTestFrame(baseRow("T1", "")), Artifacts{})
	assert.ErrorIs(t, err, errors.ErrArtifactMissing)
}
