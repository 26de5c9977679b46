package csvdir

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"triguard/internal/domain/claims"
	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

// Compile-time check
var _ claims.Repository = (*TablesRepository)(nil)

// TablesRepository loads the five tables from a directory of CSV files,
// the layout the table normalizer emits (Accident.csv, Claim.csv, ...).
type TablesRepository struct {
	dir string
	log *logger.Logger
}

// NewTablesRepository creates a CSV-directory repository
func NewTablesRepository(dir string) *TablesRepository {
	return &TablesRepository{
		dir: dir,
		log: logger.Get().With("component", "csvdir_tables"),
	}
}

// LoadTables reads the five CSV files. The claim fact file is required;
// a missing dimension file loads as an empty table so the left join still
// preserves every claim.
func (r *TablesRepository) LoadTables(ctx context.Context) (*claims.Tables, error) {
	if _, err := os.Stat(r.dir); err != nil {
		return nil, errors.Wrapf(errors.ErrConnection, "csv directory %s: %v", r.dir, err)
	}

	t := &claims.Tables{}

	claimRecs, err := r.readTable("Claim.csv", true)
	if err != nil {
		return nil, err
	}
	for _, rec := range claimRecs {
		t.Claims = append(t.Claims, claims.Claim{
			ClaimNumber:          rec.get("claim_number"),
			Subrogation:          rec.get("subrogation"),
			ClaimEstPayout:       rec.get("claim_est_payout"),
			LiabPrct:             rec.get("liab_prct"),
			ClaimDate:            rec.get("claim_date"),
			ClaimDayOfWeek:       rec.get("claim_day_of_week"),
			Channel:              rec.get("channel"),
			ZipCode:              rec.get("zip_code"),
			WitnessPresentInd:    rec.get("witness_present_ind"),
			PolicyReportFiledInd: rec.get("policy_report_filed_ind"),
			InNetworkBodyshop:    rec.get("in_network_bodyshop"),
			AccidentKey:          rec.key("accident_key"),
			PolicyholderKey:      rec.key("policyholder_key"),
			VehicleKey:           rec.key("vehicle_key"),
			DriverKey:            rec.key("driver_key"),
		})
	}

	accidentRecs, err := r.readTable("Accident.csv", false)
	if err != nil {
		return nil, err
	}
	for _, rec := range accidentRecs {
		t.Accidents = append(t.Accidents, claims.Accident{
			AccidentKey:  rec.key("accident_key"),
			AccidentSite: rec.get("accident_site"),
			AccidentType: rec.get("accident_type"),
		})
	}

	vehicleRecs, err := r.readTable("Vehicle.csv", false)
	if err != nil {
		return nil, err
	}
	for _, rec := range vehicleRecs {
		t.Vehicles = append(t.Vehicles, claims.Vehicle{
			VehicleKey:      rec.key("vehicle_key"),
			VehicleMadeYear: rec.get("vehicle_made_year"),
			VehicleCategory: rec.get("vehicle_category"),
			VehiclePrice:    rec.get("vehicle_price"),
			VehicleColor:    rec.get("vehicle_color"),
			VehicleWeight:   rec.get("vehicle_weight"),
			VehicleMileage:  rec.get("vehicle_mileage"),
			AgeOfVehicle:    rec.get("age_of_vehicle"),
		})
	}

	driverRecs, err := r.readTable("Driver.csv", false)
	if err != nil {
		return nil, err
	}
	for _, rec := range driverRecs {
		t.Drivers = append(t.Drivers, claims.Driver{
			DriverKey:    rec.key("driver_key"),
			YearOfBorn:   rec.get("year_of_born"),
			Gender:       rec.get("gender"),
			AgeOfDL:      rec.get("age_of_DL"),
			SafetyRating: rec.get("safety_rating"),
		})
	}

	policyholderRecs, err := r.readTable("Policyholder.csv", false)
	if err != nil {
		return nil, err
	}
	for _, rec := range policyholderRecs {
		t.Policyholders = append(t.Policyholders, claims.Policyholder{
			PolicyholderKey:  rec.key("policyholder_key"),
			AnnualIncome:     rec.get("annual_income"),
			HighEducationInd: rec.get("high_education_ind"),
			EmailOrTelAvail:  rec.get("email_or_tel_available"),
			AddressChangeInd: rec.get("address_change_ind"),
			LivingStatus:     rec.get("living_status"),
			PastNumOfClaims:  rec.get("past_num_of_claims"),
		})
	}

	r.log.Infof("Loaded tables: claim=%d accident=%d vehicle=%d driver=%d policyholder=%d",
		len(t.Claims), len(t.Accidents), len(t.Vehicles), len(t.Drivers), len(t.Policyholders))

	return t, nil
}

// record maps header names to one row's cells
type record struct {
	header map[string]int
	cells  []string
}

func (r record) get(name string) string {
	i, ok := r.header[name]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r record) key(name string) int64 {
	v, err := strconv.ParseInt(r.get(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func (r *TablesRepository) readTable(name string, required bool) ([]record, error) {
	path := filepath.Join(r.dir, name)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			r.log.Warnf("Table file %s missing, loading as empty", name)
			return nil, nil
		}
		return nil, errors.Wrapf(errors.ErrConnection, "open %s: %v", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, missing cells read as empty

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		header[strings.TrimSpace(h)] = i
	}

	recs := make([]record, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		recs = append(recs, record{header: header, cells: cells})
	}
	return recs, nil
}
