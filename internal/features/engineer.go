package features

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"triguard/internal/dataset"
	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

// financialColumns get median imputation plus p01/p99 capping, with the
// statistics fitted on the training partition only.
var financialColumns = []string{
	"annual_income", "vehicle_price", "vehicle_weight", "claim_est_payout",
}

// requiredColumns is the base schema the engineer refuses to run without.
var requiredColumns = []struct {
	table string
	names []string
}{
	{"claim", []string{
		"claim_number", "subrogation", "claim_est_payout", "liab_prct",
		"claim_date", "channel", "zip_code", "witness_present_ind",
		"policy_report_filed_ind", "in_network_bodyshop",
	}},
	{"accident", []string{"accident_site", "accident_type"}},
	{"policyholder", []string{
		"annual_income", "high_education_ind", "address_change_ind",
		"past_num_of_claims",
	}},
	{"vehicle", []string{
		"vehicle_category", "vehicle_price", "vehicle_weight", "vehicle_mileage",
	}},
	{"driver", []string{"year_of_born", "gender", "age_of_DL", "safety_rating"}},
}

var (
	reSingle       = regexp.MustCompile(`(?i)single`)
	reMultiUnclear = regexp.MustCompile(`(?i)multi.*unclear`)
	reMultiClear   = regexp.MustCompile(`(?i)multi.*clear`)
	reHighway      = regexp.MustCompile(`(?i)highway`)
	reIntersection = regexp.MustCompile(`(?i)intersection`)
	reParking      = regexp.MustCompile(`(?i)parking`)
)

// Engineer derives the model features from a joined frame. Fit computes the
// training-only artifacts while transforming the training partition;
// Transform replays them on any other partition so no held-out statistic
// ever reaches the features.
type Engineer struct {
	log *logger.Logger
}

func NewEngineer() *Engineer {
	return &Engineer{log: logger.Get().With("component", "features")}
}

// Fit drops unlabeled rows, computes the imputation and capping artifacts on
// what remains, and returns the engineered training set.
func (e *Engineer) Fit(train *dataset.Frame) (*FeatureSet, Artifacts, error) {
	if err := validateSchema(train); err != nil {
		return nil, nil, err
	}

	labeled, labels := dropUnlabeled(train)
	if labeled.NumRows() == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyTrainingSet,
			"no rows with a subrogation label remain")
	}
	if dropped := train.NumRows() - labeled.NumRows(); dropped > 0 {
		e.log.Infof("Dropped %d unlabeled training rows", dropped)
	}

	art := Artifacts{}
	fs, err := e.build(labeled, art, true)
	if err != nil {
		return nil, nil, err
	}
	fs.Labels = labels

	e.log.Infof("Fitted features: rows=%d numeric=%d artifacts=%d",
		fs.Rows(), len(fs.names), len(art))
	return fs, art, nil
}

// Transform engineers a partition using previously fitted artifacts. Rows
// are never dropped and labels are not read.
func (e *Engineer) Transform(f *dataset.Frame, art Artifacts) (*FeatureSet, error) {
	if err := validateSchema(f); err != nil {
		return nil, err
	}
	return e.build(f, art, false)
}

func validateSchema(f *dataset.Frame) error {
	for _, req := range requiredColumns {
		if err := f.RequireColumns(req.table, req.names...); err != nil {
			return err
		}
	}
	return nil
}

// dropUnlabeled keeps rows whose subrogation cell parses to 0 or 1 and
// returns their labels alongside the filtered frame.
func dropUnlabeled(f *dataset.Frame) (*dataset.Frame, []int) {
	col, _ := f.Column("subrogation")
	keep := make([]int, 0, f.NumRows())
	labels := make([]int, 0, f.NumRows())

	for i, s := range col {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			continue
		}
		keep = append(keep, i)
		labels = append(labels, int(v))
	}
	return f.Select(keep), labels
}

// col fills an n-length column from a per-row function.
func col(n int, fn func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = fn(i)
	}
	return out
}

func flag(cond bool) float64 {
	if cond {
		return 1
	}
	return 0
}

func fillNum(raw []float64, fill float64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		if math.IsNaN(v) {
			v = fill
		}
		out[i] = v
	}
	return out
}

func (e *Engineer) build(f *dataset.Frame, art Artifacts, fitting bool) (*FeatureSet, error) {
	n := f.NumRows()
	fs := NewFeatureSet(n)

	ids, _ := f.Column("claim_number")
	fs.IDs = append([]string(nil), ids...)

	// TIME
	dateCol, _ := f.Column("claim_date")
	claimYear := make([]float64, n)
	claimMonth := make([]float64, n)
	claimDOW := make([]float64, n)
	claimHour := make([]float64, n)
	claimDay := make([]float64, n)
	for i := 0; i < n; i++ {
		t, ok := dataset.ParseClaimDate(dateCol[i])
		if !ok {
			claimYear[i] = math.NaN()
			claimMonth[i] = math.NaN()
			claimDOW[i] = math.NaN()
			claimHour[i] = math.NaN()
			claimDay[i] = math.NaN()
			continue
		}
		claimYear[i] = float64(t.Year())
		claimMonth[i] = float64(t.Month())
		claimDOW[i] = float64((int(t.Weekday()) + 6) % 7) // Monday = 0
		claimHour[i] = float64(t.Hour())
		claimDay[i] = float64(t.Day())
	}
	fs.Add("claim_year", claimYear)
	fs.Add("claim_month", claimMonth)
	fs.Add("claim_dow", claimDOW)
	fs.Add("claim_hour", claimHour)
	fs.Add("claim_day", claimDay)

	isWeekend := col(n, func(i int) float64 { return flag(claimDOW[i] >= 5) })
	isNight := col(n, func(i int) float64 { return flag(claimHour[i] >= 22 || claimHour[i] < 6) })
	isRushHour := col(n, func(i int) float64 {
		return flag((claimHour[i] >= 7 && claimHour[i] <= 9) ||
			(claimHour[i] >= 16 && claimHour[i] <= 19))
	})
	fs.Add("is_weekend", isWeekend)
	fs.Add("is_weekday", col(n, func(i int) float64 { return flag(claimDOW[i] < 5) }))
	fs.Add("is_morning", col(n, func(i int) float64 { return flag(claimHour[i] >= 6 && claimHour[i] < 12) }))
	fs.Add("is_afternoon", col(n, func(i int) float64 { return flag(claimHour[i] >= 12 && claimHour[i] < 18) }))
	fs.Add("is_evening", col(n, func(i int) float64 { return flag(claimHour[i] >= 18 && claimHour[i] < 22) }))
	fs.Add("is_night", isNight)
	fs.Add("is_rush_hour", isRushHour)
	fs.Add("claim_quarter", col(n, func(i int) float64 {
		if math.IsNaN(claimMonth[i]) {
			return math.NaN()
		}
		return math.Floor((claimMonth[i]-1)/3) + 1
	}))
	fs.Add("is_winter", col(n, func(i int) float64 {
		return flag(claimMonth[i] == 12 || claimMonth[i] == 1 || claimMonth[i] == 2)
	}))
	fs.Add("is_summer", col(n, func(i int) float64 {
		return flag(claimMonth[i] == 6 || claimMonth[i] == 7 || claimMonth[i] == 8)
	}))

	// DEMOGRAPHICS
	yearOfBorn := fillNum(f.Floats("year_of_born"), 1980)
	ageOfDL := fillNum(f.Floats("age_of_DL"), 25)
	ageAtClaim := col(n, func(i int) float64 {
		return clip(claimYear[i]-yearOfBorn[i], 16, 100)
	})
	periodOfDriving := col(n, func(i int) float64 {
		return clip(ageAtClaim[i]-ageOfDL[i], 0, math.NaN())
	})
	isYoungDriver := col(n, func(i int) float64 { return flag(ageAtClaim[i] < 25) })
	isNewDriver := col(n, func(i int) float64 { return flag(periodOfDriving[i] < 3) })
	isExperienced := col(n, func(i int) float64 { return flag(periodOfDriving[i] >= 10) })
	fs.Add("age_at_claim", ageAtClaim)
	fs.Add("period_of_driving", periodOfDriving)
	fs.Add("is_young_driver", isYoungDriver)
	fs.Add("is_senior_driver", col(n, func(i int) float64 { return flag(ageAtClaim[i] >= 65) }))
	fs.Add("is_mid_age_driver", col(n, func(i int) float64 {
		return flag(ageAtClaim[i] >= 25 && ageAtClaim[i] < 65)
	}))
	fs.Add("is_new_driver", isNewDriver)
	fs.Add("is_experienced", isExperienced)

	// CLAIMS HISTORY
	pastClaims := fillNum(f.Floats("past_num_of_claims"), 0)
	hasPastClaims := col(n, func(i int) float64 { return flag(pastClaims[i] > 0) })
	fs.Add("past_num_of_claims", pastClaims)
	fs.Add("claims_per_year", col(n, func(i int) float64 {
		return pastClaims[i] / (periodOfDriving[i] + 1)
	}))
	fs.Add("has_past_claims", hasPastClaims)
	fs.Add("has_multiple_claims", col(n, func(i int) float64 { return flag(pastClaims[i] >= 2) }))

	// MILEAGE
	mileageRaw := f.Floats("vehicle_mileage")
	if fitting {
		art["mileage_median"] = median(mileageRaw)
	}
	mileageMedian, err := art.Get("mileage_median")
	if err != nil {
		return nil, err
	}
	mileage := fillNum(mileageRaw, mileageMedian)
	if fitting {
		art["mileage_p75"] = quantile(mileage, 0.75)
	}
	mileageQ75, err := art.Get("mileage_p75")
	if err != nil {
		return nil, err
	}
	fs.Add("vehicle_mileage", mileage)
	fs.Add("mileage_per_year", col(n, func(i int) float64 {
		return mileage[i] / (periodOfDriving[i] + 1)
	}))
	fs.Add("mileage_log", col(n, func(i int) float64 { return math.Log1p(mileage[i]) }))
	fs.Add("is_high_mileage", col(n, func(i int) float64 { return flag(mileage[i] > mileageQ75) }))

	// FINANCIAL
	capped := make(map[string][]float64, len(financialColumns))
	for _, c := range financialColumns {
		raw := f.Floats(c)
		if fitting {
			art[c+"_med"] = median(raw)
			art[c+"_p99"] = quantile(raw, 0.99)
			art[c+"_p01"] = quantile(raw, 0.01)
		}
		med, err := art.Get(c + "_med")
		if err != nil {
			return nil, err
		}
		p99, err := art.Get(c + "_p99")
		if err != nil {
			return nil, err
		}
		p01, err := art.Get(c + "_p01")
		if err != nil {
			return nil, err
		}

		vals := col(n, func(i int) float64 {
			v := raw[i]
			if math.IsNaN(v) {
				v = med
			}
			return clip(v, p01, p99)
		})
		capped[c] = vals
		fs.Add(c+"_capped", vals)
		fs.Add(c+"_log", col(n, func(i int) float64 { return math.Log1p(vals[i]) }))
	}

	income := capped["annual_income"]
	price := capped["vehicle_price"]
	payout := capped["claim_est_payout"]
	payoutToIncome := col(n, func(i int) float64 { return payout[i] / (income[i] + 1) })
	if fitting {
		art["annual_income_p75"] = quantile(income, 0.75)
		art["vehicle_price_p75"] = quantile(price, 0.75)
		art["claim_est_payout_p75"] = quantile(payout, 0.75)
	}
	incomeQ75, err := art.Get("annual_income_p75")
	if err != nil {
		return nil, err
	}
	priceQ75, err := art.Get("vehicle_price_p75")
	if err != nil {
		return nil, err
	}
	payoutQ75, err := art.Get("claim_est_payout_p75")
	if err != nil {
		return nil, err
	}
	isHighIncome := col(n, func(i int) float64 { return flag(income[i] > incomeQ75) })
	fs.Add("payout_to_income", payoutToIncome)
	fs.Add("payout_to_price", col(n, func(i int) float64 { return payout[i] / (price[i] + 1) }))
	fs.Add("income_to_price", col(n, func(i int) float64 { return income[i] / (price[i] + 1) }))
	fs.Add("is_high_income", isHighIncome)
	fs.Add("is_expensive_car", col(n, func(i int) float64 { return flag(price[i] > priceQ75) }))
	fs.Add("is_large_payout", col(n, func(i int) float64 { return flag(payout[i] > payoutQ75) }))

	// LIABILITY
	liabRaw := f.Floats("liab_prct")
	liab := col(n, func(i int) float64 {
		v := liabRaw[i]
		if math.IsNaN(v) {
			v = 0
		}
		return clip(v, 0, 100)
	})
	liab2030 := col(n, func(i int) float64 { return flag(liab[i] > 20 && liab[i] <= 30) })
	fs.Add("liab_prct", liab)
	fs.Add("liab_0_10", col(n, func(i int) float64 { return flag(liab[i] <= 10) }))
	fs.Add("liab_10_20", col(n, func(i int) float64 { return flag(liab[i] > 10 && liab[i] <= 20) }))
	fs.Add("liab_20_30", liab2030)
	fs.Add("liab_30_40", col(n, func(i int) float64 { return flag(liab[i] > 30 && liab[i] <= 40) }))
	fs.Add("liab_40_plus", col(n, func(i int) float64 { return flag(liab[i] > 40) }))

	for lo := 0; lo < 100; lo += 5 {
		lo := lo
		fs.Add(fmt.Sprintf("liab_%d_%d", lo, lo+5), col(n, func(i int) float64 {
			return flag(liab[i] > float64(lo) && liab[i] <= float64(lo+5))
		}))
	}
	for _, v := range []float64{15, 18, 20, 22, 25, 27, 30, 32, 35, 37, 40, 45, 50} {
		v := v
		fs.Add(fmt.Sprintf("liab_exactly_%d", int(v)), col(n, func(i int) float64 {
			return flag(liab[i] == v)
		}))
	}

	liabInverse := col(n, func(i int) float64 { return 100 - liab[i] })
	fs.Add("liab_squared", col(n, func(i int) float64 { return liab[i] * liab[i] }))
	fs.Add("liab_cubed", col(n, func(i int) float64 { return liab[i] * liab[i] * liab[i] }))
	fs.Add("liab_sqrt", col(n, func(i int) float64 { return math.Sqrt(liab[i]) }))
	fs.Add("liab_inverse", liabInverse)
	fs.Add("liab_inverse_sq", col(n, func(i int) float64 { return liabInverse[i] * liabInverse[i] }))
	fs.Add("liab_log", col(n, func(i int) float64 { return math.Log1p(liab[i]) }))
	fs.Add("liab_zero", col(n, func(i int) float64 { return flag(liab[i] == 0) }))
	fs.Add("liab_full", col(n, func(i int) float64 { return flag(liab[i] == 100) }))
	fs.Add("liab_half", col(n, func(i int) float64 { return flag(liab[i] == 50) }))

	// EVIDENCE
	witnessCol, _ := f.Column("witness_present_ind")
	hasWitness := col(n, func(i int) float64 {
		v := strings.ToUpper(strings.TrimSpace(witnessCol[i]))
		if v == "" {
			v = "N"
		}
		switch v {
		case "Y", "YES", "1", "TRUE":
			return 1
		}
		return 0
	})
	policeRaw := f.Floats("policy_report_filed_ind")
	hasPolice := col(n, func(i int) float64 {
		v := policeRaw[i]
		if math.IsNaN(v) {
			return 0
		}
		return math.Trunc(v)
	})
	evidenceCount := col(n, func(i int) float64 { return hasWitness[i] + hasPolice[i] })
	hasNoEvidence := col(n, func(i int) float64 { return flag(evidenceCount[i] == 0) })
	bodyshopCol, _ := f.Column("in_network_bodyshop")
	fs.Add("has_witness", hasWitness)
	fs.Add("has_police", hasPolice)
	fs.Add("evidence_count", evidenceCount)
	fs.Add("has_full_evidence", col(n, func(i int) float64 { return flag(evidenceCount[i] == 2) }))
	fs.Add("has_no_evidence", hasNoEvidence)
	fs.Add("in_network", col(n, func(i int) float64 {
		v := strings.ToLower(strings.TrimSpace(bodyshopCol[i]))
		if v == "" {
			v = "no"
		}
		switch v {
		case "yes", "y", "1":
			return 1
		}
		return 0
	}))

	// PROFILE
	educationRaw := f.Floats("high_education_ind")
	fs.Add("high_education", col(n, func(i int) float64 {
		v := educationRaw[i]
		if math.IsNaN(v) {
			return 0
		}
		return math.Trunc(v)
	}))
	addressRaw := f.Floats("address_change_ind")
	fs.Add("address_change", col(n, func(i int) float64 {
		v := addressRaw[i]
		if math.IsNaN(v) {
			return 0
		}
		return math.Trunc(v)
	}))
	safety := fillNum(f.Floats("safety_rating"), 50)
	fs.Add("safety_rating", safety)
	fs.Add("safety_high", col(n, func(i int) float64 { return flag(safety[i] >= 70) }))
	fs.Add("safety_low", col(n, func(i int) float64 { return flag(safety[i] <= 30) }))

	// ACCIDENT
	typeCol, _ := f.Column("accident_type")
	siteCol, _ := f.Column("accident_site")
	accType := make([]string, n)
	accSite := make([]string, n)
	for i := 0; i < n; i++ {
		accType[i] = fillStr(typeCol[i], "Unknown")
		accSite[i] = fillStr(siteCol[i], "Unknown")
	}
	isSingleCar := col(n, func(i int) float64 { return flag(reSingle.MatchString(accType[i])) })
	isMultiUnclear := col(n, func(i int) float64 { return flag(reMultiUnclear.MatchString(accType[i])) })
	isHighway := col(n, func(i int) float64 { return flag(reHighway.MatchString(accSite[i])) })
	isIntersection := col(n, func(i int) float64 { return flag(reIntersection.MatchString(accSite[i])) })
	fs.Add("is_single_car", isSingleCar)
	fs.Add("is_multi_unclear", isMultiUnclear)
	fs.Add("is_multi_clear", col(n, func(i int) float64 { return flag(reMultiClear.MatchString(accType[i])) }))
	fs.Add("is_highway", isHighway)
	fs.Add("is_intersection", isIntersection)
	fs.Add("is_parking", col(n, func(i int) float64 { return flag(reParking.MatchString(accSite[i])) }))

	// INTERACTIONS
	fs.Add("liab_x_witness", col(n, func(i int) float64 { return liab[i] * hasWitness[i] }))
	fs.Add("liab_x_police", col(n, func(i int) float64 { return liab[i] * hasPolice[i] }))
	fs.Add("liab_x_evidence_count", col(n, func(i int) float64 { return liab[i] * evidenceCount[i] }))
	fs.Add("liab_inverse_x_evidence", col(n, func(i int) float64 { return liabInverse[i] * evidenceCount[i] }))
	fs.Add("liab_20_30_x_multi_unclear", col(n, func(i int) float64 { return liab2030[i] * isMultiUnclear[i] }))
	fs.Add("liab_20_30_x_single", col(n, func(i int) float64 { return liab2030[i] * isSingleCar[i] }))
	fs.Add("low_liab_x_multi", col(n, func(i int) float64 {
		return flag(liab[i] < 30) * (1 - isSingleCar[i])
	}))
	fs.Add("high_liab_x_single", col(n, func(i int) float64 {
		return flag(liab[i] > 50) * isSingleCar[i]
	}))
	fs.Add("liab_x_highway", col(n, func(i int) float64 { return liab[i] * isHighway[i] }))
	fs.Add("liab_x_intersection", col(n, func(i int) float64 { return liab[i] * isIntersection[i] }))
	fs.Add("liab_x_weekend", col(n, func(i int) float64 { return liab[i] * isWeekend[i] }))
	fs.Add("liab_x_rush_hour", col(n, func(i int) float64 { return liab[i] * isRushHour[i] }))
	fs.Add("liab_x_night", col(n, func(i int) float64 { return liab[i] * isNight[i] }))
	fs.Add("liab_x_young_driver", col(n, func(i int) float64 { return liab[i] * isYoungDriver[i] }))
	fs.Add("liab_x_new_driver", col(n, func(i int) float64 { return liab[i] * isNewDriver[i] }))
	fs.Add("liab_inverse_x_experienced", col(n, func(i int) float64 { return liabInverse[i] * isExperienced[i] }))
	fs.Add("liab_x_past_claims", col(n, func(i int) float64 { return liab[i] * hasPastClaims[i] }))
	fs.Add("liab_inverse_x_no_claims", col(n, func(i int) float64 { return liabInverse[i] * (1 - hasPastClaims[i]) }))
	fs.Add("liab_x_payout_ratio", col(n, func(i int) float64 { return liab[i] * payoutToIncome[i] }))
	fs.Add("liab_inverse_x_high_income", col(n, func(i int) float64 { return liabInverse[i] * isHighIncome[i] }))
	fs.Add("liab_20_30_x_multi_x_evidence", col(n, func(i int) float64 {
		return liab2030[i] * isMultiUnclear[i] * flag(evidenceCount[i] > 0)
	}))
	fs.Add("low_liab_x_single_x_no_evidence", col(n, func(i int) float64 {
		return flag(liab[i] < 25) * isSingleCar[i] * hasNoEvidence[i]
	}))
	fs.Add("high_liab_x_weekend_x_night", col(n, func(i int) float64 {
		return flag(liab[i] > 60) * isWeekend[i] * isNight[i]
	}))
	fs.Add("golden_combo", col(n, func(i int) float64 {
		return liab2030[i] * isMultiUnclear[i] * flag(evidenceCount[i] > 0) * isHighway[i]
	}))

	// CATEGORICALS
	for _, name := range CatFeatures {
		src, _ := f.Column(name)
		vals := make([]string, n)
		for i := 0; i < n; i++ {
			vals[i] = fillStr(src[i], "Unknown")
		}
		fs.AddCat(name, vals)
	}

	combo := make([]string, n)
	for i := 0; i < n; i++ {
		combo[i] = accSite[i] + "_" + accType[i]
	}
	fs.AddCat("accident_type", accType)
	fs.AddCat("accident_site", accSite)
	fs.AddCat("accident_combo", combo)

	zipRaw := f.Floats("zip_code")
	zip3 := make([]string, n)
	for i := 0; i < n; i++ {
		v := zipRaw[i]
		if math.IsNaN(v) {
			v = 0
		}
		s := strconv.Itoa(int(v))
		for len(s) < 5 {
			s = "0" + s
		}
		z := s[:3]
		if z == "000" {
			z = "unknown"
		}
		zip3[i] = z
	}
	fs.AddCat("zip3", zip3)

	return fs, nil
}

func fillStr(s, fill string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fill
	}
	return s
}
