package dataset

import (
	"strings"
	"time"
)

// claimDateLayouts are tried in order when parsing claim_date cells.
var claimDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006",
}

// ParseClaimDate parses a raw claim_date cell. ok is false for empty or
// unparseable cells, which the splitter routes to the training partition
// (they cannot belong to the held-out month).
func ParseClaimDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range claimDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SplitByMonth partitions the joined table on claim_date: test holds rows
// dated in the cutoff year+month, train holds everything else. The two
// partitions are disjoint and exhaustive by construction; an empty test
// partition is legal and must be tolerated downstream.
func SplitByMonth(f *Frame, year int, month time.Month) (train, test *Frame) {
	dates, _ := f.Column("claim_date")

	trainRows := make([]int, 0, f.NumRows())
	testRows := make([]int, 0)

	for i := 0; i < f.NumRows(); i++ {
		var cell string
		if dates != nil {
			cell = dates[i]
		}
		t, ok := ParseClaimDate(cell)
		if ok && t.Year() == year && t.Month() == month {
			testRows = append(testRows, i)
		} else {
			trainRows = append(trainRows, i)
		}
	}

	return f.Select(trainRows), f.Select(testRows)
}
