// Package highlight resolves a selection made in one view (a pie slice,
// a line-chart month, a map marker) into the set of record IDs every
// other view should emphasize. Selections always resolve against the
// currently filtered record set, so a highlight never resurrects a
// record the active filters exclude.
package highlight

import "github.com/sells-group/insight-cli/internal/model"

// Selection is a user gesture in one view. Concrete selections are
// CategorySelection, MonthSelection, and MarkerSelection.
type Selection interface {
	matches(rec model.Record) bool
}

// CategorySelection highlights every record whose category field value
// equals the clicked label (a bar, pie slice, or treemap tile).
type CategorySelection struct {
	Field model.Field
	Label string
}

func (s CategorySelection) matches(rec model.Record) bool {
	return rec.CategoryValue(s.Field) == s.Label
}

// MonthSelection highlights every record dated inside the clicked
// YYYY-MM line-chart bucket. Records with an absent date never match.
type MonthSelection struct {
	Month string
}

func (s MonthSelection) matches(rec model.Record) bool {
	bucket := rec.MonthBucket()
	return bucket != "" && bucket == s.Month
}

// MarkerSelection highlights the single record behind a clicked map
// marker or scatter point.
type MarkerSelection struct {
	RecordID int
}

func (s MarkerSelection) matches(rec model.Record) bool {
	return rec.ID == s.RecordID
}

// Set is the resolved highlight: the IDs of records every view should
// emphasize. An empty Set means no active highlight.
type Set map[int]struct{}

// Contains reports whether the record ID is highlighted.
func (s Set) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// RecordsFor resolves a selection against the filtered record set. A
// nil selection, or one matching nothing, yields an empty Set rather
// than an error: a stale click clears the highlight instead of failing.
func RecordsFor(records []model.Record, sel Selection) Set {
	set := make(Set)
	if sel == nil {
		return set
	}
	for _, rec := range records {
		if sel.matches(rec) {
			set[rec.ID] = struct{}{}
		}
	}
	return set
}
