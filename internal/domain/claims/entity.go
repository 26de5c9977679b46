package claims

// The five source tables of the claims star schema. All of them are
// externally owned, loaded fresh each run, and never mutated. Attribute
// values arrive as raw text (the staging layer keeps whatever the upstream
// extract produced); numeric coercion happens during feature engineering,
// where a bad cell degrades to a missing value instead of failing the load.

// Claim is one row of the fact table: one insurance claim with foreign keys
// into the four dimension tables. A zero foreign key means "unmatched".
type Claim struct {
	ClaimNumber          string `db:"claim_number"`
	Subrogation          string `db:"subrogation"` // "0"/"1", empty for unlabeled rows
	ClaimEstPayout       string `db:"claim_est_payout"`
	LiabPrct             string `db:"liab_prct"`
	ClaimDate            string `db:"claim_date"`
	ClaimDayOfWeek       string `db:"claim_day_of_week"`
	Channel              string `db:"channel"`
	ZipCode              string `db:"zip_code"`
	WitnessPresentInd    string `db:"witness_present_ind"`
	PolicyReportFiledInd string `db:"policy_report_filed_ind"`
	InNetworkBodyshop    string `db:"in_network_bodyshop"`

	AccidentKey     int64 `db:"accident_key"`
	PolicyholderKey int64 `db:"policyholder_key"`
	VehicleKey      int64 `db:"vehicle_key"`
	DriverKey       int64 `db:"driver_key"`
}

// Accident describes where and how the accident happened.
type Accident struct {
	AccidentKey  int64  `db:"accident_key"`
	AccidentSite string `db:"accident_site"`
	AccidentType string `db:"accident_type"`
}

// Vehicle describes the insured vehicle.
type Vehicle struct {
	VehicleKey      int64  `db:"vehicle_key"`
	VehicleMadeYear string `db:"vehicle_made_year"`
	VehicleCategory string `db:"vehicle_category"`
	VehiclePrice    string `db:"vehicle_price"`
	VehicleColor    string `db:"vehicle_color"`
	VehicleWeight   string `db:"vehicle_weight"`
	VehicleMileage  string `db:"vehicle_mileage"`
	AgeOfVehicle    string `db:"age_of_vehicle"`
}

// Driver describes the driver involved in the claim.
type Driver struct {
	DriverKey    int64  `db:"driver_key"`
	YearOfBorn   string `db:"year_of_born"`
	Gender       string `db:"gender"`
	AgeOfDL      string `db:"age_of_DL"`
	SafetyRating string `db:"safety_rating"`
}

// Policyholder describes the policyholder's profile.
type Policyholder struct {
	PolicyholderKey    int64  `db:"policyholder_key"`
	AnnualIncome     string `db:"annual_income"`
	HighEducationInd string `db:"high_education_ind"`
	EmailOrTelAvail  string `db:"email_or_tel_available"`
	AddressChangeInd string `db:"address_change_ind"`
	LivingStatus     string `db:"living_status"`
	PastNumOfClaims  string `db:"past_num_of_claims"`
}

// Tables aggregates one load of the full star schema.
type Tables struct {
	Claims        []Claim
	Accidents     []Accident
	Vehicles      []Vehicle
	Drivers       []Driver
	Policyholders []Policyholder
}
