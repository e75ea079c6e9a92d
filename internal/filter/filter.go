// Package filter applies predicate sets over normalized records.
// Predicates combine with AND semantics and never mutate records; the
// engine is idempotent by construction.
package filter

import (
	"strings"

	"github.com/sells-group/insight-cli/internal/model"
)

// Kind tags a predicate variant.
type Kind string

const (
	KindEquals       Kind = "equals"
	KindRange        Kind = "range"
	KindTextContains Kind = "text"
)

// textKey is the reserved set key for the free-text predicate, which is
// not bound to a canonical field.
const textKey model.Field = "#text"

// Predicate is one active filter. Malformed predicates are rejected at
// construction; Apply never surfaces filter errors.
type Predicate struct {
	Kind  Kind        `json:"kind"`
	Field model.Field `json:"field,omitempty"`
	Value string      `json:"value,omitempty"`
	Min   *float64    `json:"min,omitempty"`
	Max   *float64    `json:"max,omitempty"`
	Term  string      `json:"term,omitempty"`
}

// Equals builds a categorical equality predicate. Matching is exact and
// case-sensitive against the post-normalization value.
func Equals(field model.Field, value string) Predicate {
	return Predicate{Kind: KindEquals, Field: field, Value: value}
}

// Range builds a numeric range predicate over [min, max], inclusive.
// A nil bound imposes no constraint on that side.
func Range(field model.Field, min, max *float64) Predicate {
	return Predicate{Kind: KindRange, Field: field, Min: min, Max: max}
}

// TextContains builds a case-insensitive free-text predicate searched
// across every field's display string.
func TextContains(term string) Predicate {
	return Predicate{Kind: KindTextContains, Term: term}
}

// Set is the active filter set: at most one predicate per field. A
// later predicate for the same field replaces the earlier one (last
// write wins).
type Set map[model.Field]Predicate

// With returns a copy of the set with p installed under its field key.
func (s Set) With(p Predicate) Set {
	out := make(Set, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[p.key()] = p
	return out
}

// Without returns a copy of the set with the predicate for field
// cleared. Clearing the text predicate uses the same mechanism via
// TextContains("").key().
func (s Set) Without(field model.Field) Set {
	out := make(Set, len(s))
	for k, v := range s {
		if k != field {
			out[k] = v
		}
	}
	return out
}

// TextField is the set key under which the free-text predicate lives.
func TextField() model.Field { return textKey }

func (p Predicate) key() model.Field {
	if p.Kind == KindTextContains {
		return textKey
	}
	return p.Field
}

// Apply returns the records satisfying every predicate in the set. The
// result shares Record values with the input; nothing is copied or
// mutated, so re-applying a set to its own output is a no-op.
func Apply(records []model.Record, set Set) []model.Record {
	if len(set) == 0 {
		return records
	}
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if matchesAll(rec, set) {
			out = append(out, rec)
		}
	}
	return out
}

func matchesAll(rec model.Record, set Set) bool {
	for _, p := range set {
		if !p.matches(rec) {
			return false
		}
	}
	return true
}

func (p Predicate) matches(rec model.Record) bool {
	switch p.Kind {
	case KindEquals:
		return rec.CategoryValue(p.Field) == p.Value
	case KindRange:
		v := rec.NumericValue(p.Field)
		if p.Min != nil && v < *p.Min {
			return false
		}
		if p.Max != nil && v > *p.Max {
			return false
		}
		return true
	case KindTextContains:
		return matchesText(rec, p.Term)
	default:
		return true
	}
}

func matchesText(rec model.Record, term string) bool {
	term = strings.ToLower(term)
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(rec.Name), term) {
		return true
	}
	for _, v := range rec.Raw {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
