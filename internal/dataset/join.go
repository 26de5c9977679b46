package dataset

import (
	"strconv"

	"triguard/internal/domain/claims"
)

// Column names of the joined wide table. The fact columns come first in
// claim order, then each dimension's attributes in a fixed order, so the
// frame layout is reproducible run to run.
var (
	claimColumns = []string{
		"claim_number", "subrogation", "claim_est_payout", "liab_prct",
		"claim_date", "claim_day_of_week", "channel", "zip_code",
		"witness_present_ind", "policy_report_filed_ind", "in_network_bodyshop",
		"accident_key", "policyholder_key", "vehicle_key", "driver_key",
	}
	accidentColumns     = []string{"accident_site", "accident_type"}
	policyholderColumns = []string{
		"annual_income", "high_education_ind", "email_or_tel_available",
		"address_change_ind", "living_status", "past_num_of_claims",
	}
	vehicleColumns = []string{
		"vehicle_made_year", "vehicle_category", "vehicle_price",
		"vehicle_color", "vehicle_weight", "vehicle_mileage", "age_of_vehicle",
	}
	driverColumns = []string{"year_of_born", "gender", "age_of_DL", "safety_rating"}
)

// Join left-joins the fact table onto the four dimensions by their keys.
// The result has exactly one row per claim: an unmatched or zero key fills
// that dimension's columns with missing cells, it never drops the claim.
// Empty dimension tables therefore join to all-null columns.
func Join(t *claims.Tables) *Frame {
	accidents := make(map[int64]claims.Accident, len(t.Accidents))
	for _, a := range t.Accidents {
		accidents[a.AccidentKey] = a
	}
	policyholders := make(map[int64]claims.Policyholder, len(t.Policyholders))
	for _, p := range t.Policyholders {
		policyholders[p.PolicyholderKey] = p
	}
	vehicles := make(map[int64]claims.Vehicle, len(t.Vehicles))
	for _, v := range t.Vehicles {
		vehicles[v.VehicleKey] = v
	}
	drivers := make(map[int64]claims.Driver, len(t.Drivers))
	for _, d := range t.Drivers {
		drivers[d.DriverKey] = d
	}

	names := make([]string, 0,
		len(claimColumns)+len(accidentColumns)+len(policyholderColumns)+len(vehicleColumns)+len(driverColumns))
	names = append(names, claimColumns...)
	names = append(names, accidentColumns...)
	names = append(names, policyholderColumns...)
	names = append(names, vehicleColumns...)
	names = append(names, driverColumns...)

	f := NewFrame(names...)
	row := make([]string, 0, len(names))

	for _, c := range t.Claims {
		row = row[:0]
		row = append(row,
			c.ClaimNumber, c.Subrogation, c.ClaimEstPayout, c.LiabPrct,
			c.ClaimDate, c.ClaimDayOfWeek, c.Channel, c.ZipCode,
			c.WitnessPresentInd, c.PolicyReportFiledInd, c.InNetworkBodyshop,
			strconv.FormatInt(c.AccidentKey, 10),
			strconv.FormatInt(c.PolicyholderKey, 10),
			strconv.FormatInt(c.VehicleKey, 10),
			strconv.FormatInt(c.DriverKey, 10),
		)

		if a, ok := accidents[c.AccidentKey]; ok {
			row = append(row, a.AccidentSite, a.AccidentType)
		} else {
			row = append(row, "", "")
		}

		if p, ok := policyholders[c.PolicyholderKey]; ok {
			row = append(row, p.AnnualIncome, p.HighEducationInd, p.EmailOrTelAvail,
				p.AddressChangeInd, p.LivingStatus, p.PastNumOfClaims)
		} else {
			row = append(row, "", "", "", "", "", "")
		}

		if v, ok := vehicles[c.VehicleKey]; ok {
			row = append(row, v.VehicleMadeYear, v.VehicleCategory, v.VehiclePrice,
				v.VehicleColor, v.VehicleWeight, v.VehicleMileage, v.AgeOfVehicle)
		} else {
			row = append(row, "", "", "", "", "", "", "")
		}

		if d, ok := drivers[c.DriverKey]; ok {
			row = append(row, d.YearOfBorn, d.Gender, d.AgeOfDL, d.SafetyRating)
		} else {
			row = append(row, "", "", "", "")
		}

		f.AppendRow(row...)
	}

	return f
}
