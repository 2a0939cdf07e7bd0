package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/permitleads/leadstack/internal/enum"
)

// mapSubject is a minimal Subject for evaluator tests.
type mapSubject map[string]string

func (m mapSubject) Field(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func permitSubject() mapSubject {
	return mapSubject{
		"city":        "austin",
		"work_class":  "Remodel",
		"valuation":   "150000",
		"issued_date": "2026-08-15",
		"description": "Kitchen remodel with plumbing",
		"zip_code":    "78701",
	}
}

func TestMatches_EmptyFilterListMatchesAll(t *testing.T) {
	assert.True(t, Matches(permitSubject(), nil))
	assert.True(t, Matches(permitSubject(), []FilterRule{}))
}

func TestMatches_Conjunction(t *testing.T) {
	filters := []FilterRule{
		{Field: "city", Operator: enum.FilterOpEquals, Value: "austin"},
		{Field: "valuation", Operator: enum.FilterOpGreaterThan, Value: "100000"},
	}
	assert.True(t, Matches(permitSubject(), filters))

	filters = append(filters, FilterRule{Field: "work_class", Operator: enum.FilterOpEquals, Value: "New"})
	assert.False(t, Matches(permitSubject(), filters))
}

func TestMatches_Equals_CaseSensitive(t *testing.T) {
	s := permitSubject()
	assert.True(t, Matches(s, []FilterRule{{Field: "work_class", Operator: enum.FilterOpEquals, Value: "Remodel"}}))
	assert.False(t, Matches(s, []FilterRule{{Field: "work_class", Operator: enum.FilterOpEquals, Value: "remodel"}}))
}

func TestMatches_Contains_CaseInsensitive(t *testing.T) {
	s := permitSubject()
	assert.True(t, Matches(s, []FilterRule{{Field: "description", Operator: enum.FilterOpContains, Value: "PLUMBING"}}))
	assert.True(t, Matches(s, []FilterRule{{Field: "description", Operator: enum.FilterOpContains, Value: "kitchen remodel"}}))
	assert.False(t, Matches(s, []FilterRule{{Field: "description", Operator: enum.FilterOpContains, Value: "electrical"}}))
}

func TestMatches_NumericComparisons(t *testing.T) {
	s := permitSubject()
	assert.True(t, Matches(s, []FilterRule{{Field: "valuation", Operator: enum.FilterOpGreaterThan, Value: "149999.99"}}))
	assert.False(t, Matches(s, []FilterRule{{Field: "valuation", Operator: enum.FilterOpGreaterThan, Value: "150000"}}))
	assert.True(t, Matches(s, []FilterRule{{Field: "valuation", Operator: enum.FilterOpLessThan, Value: "200000"}}))
	assert.False(t, Matches(s, []FilterRule{{Field: "valuation", Operator: enum.FilterOpLessThan, Value: "150000"}}))
}

func TestMatches_NumericOperatorOnNonNumericField_FailsClosed(t *testing.T) {
	s := permitSubject()
	assert.False(t, Matches(s, []FilterRule{{Field: "city", Operator: enum.FilterOpGreaterThan, Value: "100"}}))
}

func TestMatches_InList(t *testing.T) {
	s := permitSubject()
	rule := FilterRule{Field: "zip_code", Operator: enum.FilterOpInList, Values: []string{"78701", "78702"}}
	assert.True(t, Matches(s, []FilterRule{rule}))

	rule.Values = []string{"78703"}
	assert.False(t, Matches(s, []FilterRule{rule}))
}

func TestMatches_DateRange_InclusiveBounds(t *testing.T) {
	s := permitSubject()
	inRange := FilterRule{Field: "issued_date", Operator: enum.FilterOpDateRange, Range: &DateRange{Start: "2026-08-01", End: "2026-08-31"}}
	assert.True(t, Matches(s, []FilterRule{inRange}))

	onStart := FilterRule{Field: "issued_date", Operator: enum.FilterOpDateRange, Range: &DateRange{Start: "2026-08-15", End: "2026-08-31"}}
	assert.True(t, Matches(s, []FilterRule{onStart}))

	onEnd := FilterRule{Field: "issued_date", Operator: enum.FilterOpDateRange, Range: &DateRange{Start: "2026-08-01", End: "2026-08-15"}}
	assert.True(t, Matches(s, []FilterRule{onEnd}))

	before := FilterRule{Field: "issued_date", Operator: enum.FilterOpDateRange, Range: &DateRange{Start: "2026-08-16", End: "2026-08-31"}}
	assert.False(t, Matches(s, []FilterRule{before}))
}

func TestMatches_DateRangeOnNonDateField_FailsClosed(t *testing.T) {
	s := permitSubject()
	rule := FilterRule{Field: "city", Operator: enum.FilterOpDateRange, Range: &DateRange{Start: "2026-08-01", End: "2026-08-31"}}
	assert.False(t, Matches(s, []FilterRule{rule}))
}

func TestMatches_UnknownField_FailsClosed(t *testing.T) {
	s := permitSubject()
	assert.False(t, Matches(s, []FilterRule{{Field: "owner_name", Operator: enum.FilterOpEquals, Value: "anything"}}))
}

func TestMatches_Deterministic(t *testing.T) {
	s := permitSubject()
	filters := []FilterRule{
		{Field: "city", Operator: enum.FilterOpEquals, Value: "austin"},
		{Field: "valuation", Operator: enum.FilterOpLessThan, Value: "200000"},
	}
	first := Matches(s, filters)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Matches(s, filters))
	}
}

func TestExcluded_EmptyListNeverExcludes(t *testing.T) {
	assert.False(t, Excluded(permitSubject(), nil))
}

func TestExcluded_Disjunction(t *testing.T) {
	s := permitSubject()
	exclusions := []ExclusionRule{
		{Field: "work_class", Operator: enum.FilterOpEquals, Value: "Demolition"},
		{Field: "description", Operator: enum.FilterOpContains, Value: "plumbing"},
	}
	assert.True(t, Excluded(s, exclusions))

	exclusions[1].Value = "electrical"
	assert.False(t, Excluded(s, exclusions))
}

func TestExcluded_UnknownFieldNeverExcludes(t *testing.T) {
	s := permitSubject()
	assert.False(t, Excluded(s, []ExclusionRule{{Field: "owner_name", Operator: enum.FilterOpEquals, Value: "x"}}))
}
