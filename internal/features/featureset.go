package features

// CatFeatures are the raw categorical columns label-encoded per fold.
var CatFeatures = []string{"gender", "vehicle_category", "channel"}

// TargetEncodeFeatures are the high-cardinality categoricals that get a
// smoothed target encoding fitted per fold.
var TargetEncodeFeatures = []string{
	"accident_type", "accident_site", "zip3", "accident_combo",
}

// FeatureSet is the engineered view of one partition: claim ids, optional
// labels, the numeric feature columns, and the raw categorical columns that
// still need per-fold encoding.
type FeatureSet struct {
	IDs    []string
	Labels []int // nil for an unlabeled partition

	names []string
	cols  map[string][]float64
	cats  map[string][]string
	rows  int
}

// NewFeatureSet creates an empty set for the given row count.
func NewFeatureSet(rows int) *FeatureSet {
	return &FeatureSet{
		cols: make(map[string][]float64),
		cats: make(map[string][]string),
		rows: rows,
	}
}

// Add sets a numeric column, keeping first-add order for NumericNames.
func (s *FeatureSet) Add(name string, vals []float64) {
	if _, ok := s.cols[name]; !ok {
		s.names = append(s.names, name)
	}
	s.cols[name] = vals
}

// AddCat sets a raw categorical column.
func (s *FeatureSet) AddCat(name string, vals []string) {
	s.cats[name] = vals
}

// Rows returns the row count.
func (s *FeatureSet) Rows() int {
	return s.rows
}

// NumericNames returns every engineered numeric column, in build order.
func (s *FeatureSet) NumericNames() []string {
	return append([]string(nil), s.names...)
}

// Column returns one numeric feature column.
func (s *FeatureSet) Column(name string) ([]float64, bool) {
	c, ok := s.cols[name]
	return c, ok
}

// Cat returns one raw categorical column.
func (s *FeatureSet) Cat(name string) ([]string, bool) {
	c, ok := s.cats[name]
	return c, ok
}

// Select returns a new set containing the given rows, in order. Labels are
// sliced only when present.
func (s *FeatureSet) Select(rows []int) *FeatureSet {
	out := NewFeatureSet(len(rows))
	out.names = append([]string(nil), s.names...)

	out.IDs = make([]string, len(rows))
	for i, r := range rows {
		out.IDs[i] = s.IDs[r]
	}
	if s.Labels != nil {
		out.Labels = make([]int, len(rows))
		for i, r := range rows {
			out.Labels[i] = s.Labels[r]
		}
	}

	for name, col := range s.cols {
		sub := make([]float64, len(rows))
		for i, r := range rows {
			sub[i] = col[r]
		}
		out.cols[name] = sub
	}
	for name, col := range s.cats {
		sub := make([]string, len(rows))
		for i, r := range rows {
			sub[i] = col[r]
		}
		out.cats[name] = sub
	}
	return out
}
