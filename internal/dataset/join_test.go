package dataset

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triguard/internal/domain/claims"
)

func TestJoin_OneRowPerClaim(t *testing.T) {
	tables := &claims.Tables{
		Claims: []claims.Claim{
			{ClaimNumber: "C1", AccidentKey: 1, DriverKey: 1},
			{ClaimNumber: "C2", AccidentKey: 2, DriverKey: 9}, // driver 9 does not exist
			{ClaimNumber: "C3"},                               // zero keys everywhere
		},
		Accidents: []claims.Accident{
			{AccidentKey: 1, AccidentSite: "Highway", AccidentType: "multi_vehicle_collision"},
			{AccidentKey: 2, AccidentSite: "Parking Lot", AccidentType: "single_car_collision"},
		},
		Drivers: []claims.Driver{
			{DriverKey: 1, Gender: "F", YearOfBorn: "1985"},
		},
	}

	f := Join(tables)
	require.Equal(t, 3, f.NumRows())

	assert.Equal(t, "Highway", f.Cell("accident_site", 0))
	assert.Equal(t, "F", f.Cell("gender", 0))

	// Matched accident, unmatched driver: claim survives with empty driver cells
	assert.Equal(t, "Parking Lot", f.Cell("accident_site", 1))
	assert.Equal(t, "", f.Cell("gender", 1))

	// All dimensions unmatched
	assert.Equal(t, "", f.Cell("accident_site", 2))
	assert.Equal(t, "", f.Cell("annual_income", 2))
	assert.Equal(t, "", f.Cell("vehicle_price", 2))
}

func TestJoin_EmptyDimensionsYieldAllNullColumns(t *testing.T) {
	tables := &claims.Tables{
		Claims: []claims.Claim{
			{ClaimNumber: "C1", AccidentKey: 1, VehicleKey: 2},
		},
	}

	f := Join(tables)
	require.Equal(t, 1, f.NumRows())
	assert.Equal(t, "", f.Cell("accident_type", 0))
	assert.Equal(t, "", f.Cell("vehicle_mileage", 0))
	assert.Equal(t, "", f.Cell("safety_rating", 0))
}

// A joined table where no claim has witness present and a police report at
// the same time must produce zero rows under the combined high-potential
// filter, no matter how sites and types are distributed.
func TestJoin_HighSubrogationPotentialFilterFindsNothing(t *testing.T) {
	sites := []string{"Highway", "Parking Lot", "Local", "Intersection"}
	types := []string{"multi_vehicle_collision", "single_car_collision", "multi_vehicle_unclear"}

	tables := &claims.Tables{}
	for i := 0; i < 12; i++ {
		witness, police := "N", "0"
		// Alternate so each flag occurs alone but never both together
		if i%2 == 0 {
			witness = "Y"
		} else {
			police = "1"
		}
		tables.Claims = append(tables.Claims, claims.Claim{
			ClaimNumber:          fmt.Sprintf("C%02d", i),
			WitnessPresentInd:    witness,
			PolicyReportFiledInd: police,
			AccidentKey:          int64(i + 1),
		})
		tables.Accidents = append(tables.Accidents, claims.Accident{
			AccidentKey:  int64(i + 1),
			AccidentSite: sites[i%len(sites)],
			AccidentType: types[i%len(types)],
		})
	}

	f := Join(tables)
	require.Equal(t, 12, f.NumRows())

	matches := 0
	for i := 0; i < f.NumRows(); i++ {
		witness := f.Cell("witness_present_ind", i) == "Y"
		police := f.Cell("policy_report_filed_ind", i) == "1"
		multi := strings.HasPrefix(f.Cell("accident_type", i), "multi")
		if witness && police && multi {
			matches++
		}
	}
	assert.Zero(t, matches)
}

func TestFrame_FloatsCoercion(t *testing.T) {
	f := NewFrame("v")
	f.AppendRow("1.5")
	f.AppendRow("")
	f.AppendRow("abc")
	f.AppendRow(" 2 ")

	vals := f.Floats("v")
	require.Len(t, vals, 4)
	assert.Equal(t, 1.5, vals[0])
	assert.True(t, vals[1] != vals[1]) // NaN
	assert.True(t, vals[2] != vals[2])
	assert.Equal(t, 2.0, vals[3])
}

func TestFrame_RequireColumns(t *testing.T) {
	f := NewFrame("a", "b")
	assert.NoError(t, f.RequireColumns("claim", "a", "b"))
	err := f.RequireColumns("claim", "a", "missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}
