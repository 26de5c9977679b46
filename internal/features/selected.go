package features

// ModelFeatures is the curated numeric feature list the models train on,
// selected by an earlier importance analysis. The per-fold encodings of
// CatFeatures and TargetEncodeFeatures are appended to this at fit time.
var ModelFeatures = []string{
	"is_single_car",
	"liab_x_witness",
	"liab_inverse",
	"liab_x_highway",
	"has_witness",
	"high_education",
	"address_change",
	"is_parking",
	"liab_40_plus",
	"is_multi_clear",
	"liab_prct",
	"liab_20_30",
	"liab_squared",
	"liab_cubed",
	"liab_sqrt",
	"liab_inverse_sq",
	"liab_log",
	"liab_zero",
	"liab_full",
	"liab_half",
	"liab_0_10",
	"liab_10_20",
	"liab_30_40",
	"liab_x_police",
	"liab_x_evidence_count",
	"liab_inverse_x_evidence",
	"liab_20_30_x_multi_unclear",
	"liab_20_30_x_single",
	"low_liab_x_multi",
	"high_liab_x_single",
	"liab_x_intersection",
	"liab_x_weekend",
	"liab_x_rush_hour",
	"liab_x_night",
	"liab_x_young_driver",
	"liab_x_new_driver",
	"liab_inverse_x_experienced",
	"liab_x_past_claims",
	"liab_inverse_x_no_claims",
	"liab_x_payout_ratio",
	"liab_inverse_x_high_income",
	"liab_20_30_x_multi_x_evidence",
	"low_liab_x_single_x_no_evidence",
	"high_liab_x_weekend_x_night",
	"golden_combo",
	"has_police",
	"evidence_count",
	"has_full_evidence",
	"has_no_evidence",
	"in_network",
	"safety_rating",
	"safety_high",
	"safety_low",
	"is_multi_unclear",
	"is_highway",
	"is_intersection",
	"age_at_claim",
	"period_of_driving",
	"is_young_driver",
	"is_senior_driver",
	"is_mid_age_driver",
	"is_new_driver",
	"is_experienced",
	"past_num_of_claims",
	"claims_per_year",
	"has_past_claims",
	"has_multiple_claims",
	"vehicle_mileage",
	"mileage_per_year",
	"mileage_log",
	"is_high_mileage",
	"annual_income_capped",
	"annual_income_log",
	"vehicle_price_capped",
	"vehicle_price_log",
	"vehicle_weight_capped",
	"vehicle_weight_log",
	"claim_est_payout_capped",
	"claim_est_payout_log",
	"payout_to_income",
	"payout_to_price",
	"income_to_price",
	"is_high_income",
	"is_expensive_car",
	"is_large_payout",
	"is_weekend",
	"is_weekday",
	"is_morning",
	"is_afternoon",
	"is_evening",
	"is_night",
	"is_rush_hour",
	"is_winter",
	"is_summer",
}
