package dataset

import (
	"math"
	"strconv"
	"strings"

	"triguard/pkg/errors"
)

// Frame is a column-oriented table of raw text cells. An empty cell is a
// missing value. Frames are run-scoped: built once from a load, sliced by
// the splitter, consumed by the feature engineer, then discarded.
type Frame struct {
	names []string
	idx   map[string]int
	cols  [][]string
	rows  int
}

// NewFrame creates an empty frame with the given column order.
func NewFrame(names ...string) *Frame {
	f := &Frame{
		names: append([]string(nil), names...),
		idx:   make(map[string]int, len(names)),
		cols:  make([][]string, len(names)),
	}
	for i, n := range names {
		f.idx[n] = i
	}
	return f
}

// NumRows returns the row count.
func (f *Frame) NumRows() int {
	return f.rows
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.names...)
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.idx[name]
	return ok
}

// Column returns the raw cells of a column.
func (f *Frame) Column(name string) ([]string, bool) {
	i, ok := f.idx[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Cell returns one raw cell; empty string if the column is unknown.
func (f *Frame) Cell(name string, row int) string {
	i, ok := f.idx[name]
	if !ok {
		return ""
	}
	return f.cols[i][row]
}

// AppendRow appends one row; vals must match the column order.
func (f *Frame) AppendRow(vals ...string) {
	for i := range f.cols {
		v := ""
		if i < len(vals) {
			v = vals[i]
		}
		f.cols[i] = append(f.cols[i], v)
	}
	f.rows++
}

// AddColumn appends a column. Existing rows determine the required length;
// on a frame with no columns yet the column defines the row count.
func (f *Frame) AddColumn(name string, vals []string) {
	if len(f.names) == 0 {
		f.rows = len(vals)
	}
	f.idx[name] = len(f.names)
	f.names = append(f.names, name)
	col := make([]string, f.rows)
	copy(col, vals)
	f.cols = append(f.cols, col)
}

// Select returns a new frame containing the given rows, in order.
func (f *Frame) Select(rows []int) *Frame {
	out := NewFrame(f.names...)
	out.rows = len(rows)
	for i := range f.cols {
		col := make([]string, len(rows))
		for j, r := range rows {
			col[j] = f.cols[i][r]
		}
		out.cols[i] = col
	}
	return out
}

// RequireColumns fails fast with a schema violation when any required base
// column is absent, rather than letting downstream code emit garbage.
func (f *Frame) RequireColumns(table string, names ...string) error {
	for _, n := range names {
		if !f.Has(n) {
			return errors.NewSchemaError(table, n)
		}
	}
	return nil
}

// Floats coerces a column to float64, NaN for missing or unparseable cells.
// Mirrors to_numeric-with-coerce semantics: the load never fails on a bad
// cell, imputation decides what it becomes.
func (f *Frame) Floats(name string) []float64 {
	col, ok := f.Column(name)
	if !ok {
		return nil
	}
	out := make([]float64, len(col))
	for i, s := range col {
		out[i] = parseFloat(s)
	}
	return out
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
