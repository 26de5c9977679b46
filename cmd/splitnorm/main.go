// Command splitnorm normalizes the wide claims training extract into the
// five-table star schema the pipeline loads: Claim plus the Accident,
// Vehicle, Driver and Policyholder dimensions. Dimension rows are distinct
// attribute combinations keyed in order of first appearance.
package main

import (
	"encoding/csv"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"triguard/pkg/logger"
)

var claimKeep = []string{
	"claim_number",
	"subrogation",
	"claim_est_payout",
	"liab_prct",
	"claim_date",
	"claim_day_of_week",
	"channel",
	"zip_code",
	"zip",
	"witness_present_ind",
	"policy_report_filed_ind",
	"in_network_bodyshop",
}

var driverCols = []string{"year_of_born", "gender", "age_of_DL", "safety_rating"}

var policyCols = []string{
	"annual_income",
	"high_education_ind",
	"email_or_tel_available",
	"address_change_ind",
	"living_status",
	"past_num_of_claims",
}

var vehicleCols = []string{
	"vehicle_made_year",
	"vehicle_category",
	"vehicle_price",
	"vehicle_color",
	"vehicle_weight",
	"vehicle_mileage",
	"age_of_vehicle",
}

var accidentCols = []string{"accident_site", "accident_type"}

type table struct {
	header map[string]int
	rows   [][]string
}

func (t *table) present(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := t.header[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

func (t *table) get(row []string, col string) string {
	idx, ok := t.header[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// dimension holds distinct attribute combinations with 1-based keys.
type dimension struct {
	cols    []string
	keyName string
	index   map[string]int
	rows    [][]string
}

func buildDimension(t *table, cols []string, keyName string) *dimension {
	d := &dimension{
		cols:    cols,
		keyName: keyName,
		index:   make(map[string]int),
	}
	for _, row := range t.rows {
		values := make([]string, len(cols))
		allEmpty := true
		for i, c := range cols {
			values[i] = t.get(row, c)
			if values[i] != "" {
				allEmpty = false
			}
		}
		if allEmpty || len(cols) == 0 {
			continue
		}
		key := strings.Join(values, "\x1f")
		if _, seen := d.index[key]; !seen {
			d.index[key] = len(d.rows) + 1
			d.rows = append(d.rows, values)
		}
	}
	return d
}

// keyFor returns the 1-based key for a claim row's attribute combination,
// or "" when every attribute is empty.
func (d *dimension) keyFor(t *table, row []string) string {
	values := make([]string, len(d.cols))
	for i, c := range d.cols {
		values[i] = t.get(row, c)
	}
	key, ok := d.index[strings.Join(values, "\x1f")]
	if !ok {
		return ""
	}
	return strconv.Itoa(key)
}

func (d *dimension) write(dir, name string) error {
	header := append(append([]string{}, d.cols...), d.keyName)
	records := make([][]string, 0, len(d.rows)+1)
	records = append(records, header)
	for i, row := range d.rows {
		records = append(records, append(append([]string{}, row...), strconv.Itoa(i+1)))
	}
	return writeCSV(filepath.Join(dir, name+".csv"), records)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func main() {
	inPath := flag.String("in", "Training_TriGuard.csv", "wide training extract")
	outDir := flag.String("out", "tri_guard_5_py_clean", "output directory for the five tables")
	flag.Parse()

	if err := logger.Init("info", "development"); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()
	log := logger.Get().With("component", "splitnorm")

	f, err := os.Open(*inPath)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *inPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", *inPath, err)
	}
	if len(records) == 0 {
		log.Fatalf("%s is empty", *inPath)
	}

	t := &table{header: make(map[string]int)}
	for i, name := range records[0] {
		t.header[strings.TrimSpace(name)] = i
	}
	for _, row := range records[1:] {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		t.rows = append(t.rows, row)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", *outDir, err)
	}

	driver := buildDimension(t, t.present(driverCols), "driver_key")
	policyholder := buildDimension(t, t.present(policyCols), "policyholder_key")
	vehicle := buildDimension(t, t.present(vehicleCols), "vehicle_key")
	accident := buildDimension(t, t.present(accidentCols), "accident_key")

	// Claim keeps its own columns plus one key per dimension. zip is an
	// alias column dropped when zip_code is also present.
	keep := t.present(claimKeep)
	if contains(keep, "zip_code") && contains(keep, "zip") {
		keep = remove(keep, "zip")
	}

	claimHeader := append(append([]string{}, keep...),
		"accident_key", "policyholder_key", "vehicle_key", "driver_key")
	claimRecords := [][]string{claimHeader}

	seen := make(map[string]bool)
	for _, row := range t.rows {
		claimNumber := t.get(row, "claim_number")
		if claimNumber != "" && seen[claimNumber] {
			continue
		}
		seen[claimNumber] = true

		out := make([]string, 0, len(claimHeader))
		for _, c := range keep {
			out = append(out, t.get(row, c))
		}
		out = append(out,
			accident.keyFor(t, row),
			policyholder.keyFor(t, row),
			vehicle.keyFor(t, row),
			driver.keyFor(t, row),
		)
		claimRecords = append(claimRecords, out)
	}

	for name, dim := range map[string]*dimension{
		"Accident":     accident,
		"Policyholder": policyholder,
		"Vehicle":      vehicle,
		"Driver":       driver,
	} {
		if err := dim.write(*outDir, name); err != nil {
			log.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := writeCSV(filepath.Join(*outDir, "Claim.csv"), claimRecords); err != nil {
		log.Fatalf("Failed to write Claim: %v", err)
	}

	log.Infof("Wrote %d claims, %d accidents, %d vehicles, %d drivers, %d policyholders to %s",
		len(claimRecords)-1, len(accident.rows), len(vehicle.rows),
		len(driver.rows), len(policyholder.rows), *outDir)
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func remove(xs []string, v string) []string {
	out := xs[:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
