package rules

import (
	"strconv"
	"strings"
	"time"

	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/utils"
)

// Subject is anything rules can be evaluated against. Field returns the
// stringified value of a named attribute, or false when the attribute is
// unknown or unset. Dates are rendered as 2006-01-02.
type Subject interface {
	Field(name string) (string, bool)
}

// Matches reports whether the subject passes every filter rule.
// An empty filter list matches everything. Pure: no side effects, no I/O.
func Matches(s Subject, filters []FilterRule) bool {
	for _, rule := range filters {
		if !matchesRule(s, rule) {
			return false
		}
	}
	return true
}

// Excluded reports whether any exclusion rule matches the subject.
// An empty exclusion list never excludes.
func Excluded(s Subject, exclusions []ExclusionRule) bool {
	for _, rule := range exclusions {
		fieldValue, ok := s.Field(rule.Field)
		if !ok {
			continue
		}
		switch rule.Operator {
		case enum.FilterOpEquals:
			if fieldValue == rule.Value {
				return true
			}
		case enum.FilterOpContains:
			if containsFold(fieldValue, rule.Value) {
				return true
			}
		}
	}
	return false
}

// matchesRule is fail-closed: unknown fields, non-numeric values for numeric
// operators and unparseable dates evaluate to false, never to an error.
func matchesRule(s Subject, rule FilterRule) bool {
	fieldValue, ok := s.Field(rule.Field)
	if !ok {
		return false
	}

	switch rule.Operator {
	case enum.FilterOpEquals:
		return fieldValue == rule.Value

	case enum.FilterOpContains:
		return containsFold(fieldValue, rule.Value)

	case enum.FilterOpGreaterThan:
		fieldNum, ruleNum, ok := parseNumbers(fieldValue, rule.Value)
		return ok && fieldNum > ruleNum

	case enum.FilterOpLessThan:
		fieldNum, ruleNum, ok := parseNumbers(fieldValue, rule.Value)
		return ok && fieldNum < ruleNum

	case enum.FilterOpInList:
		return utils.IsStringInSlice(fieldValue, rule.Values)

	case enum.FilterOpDateRange:
		if rule.Range == nil {
			return false
		}
		fieldDate, err := time.Parse(utils.DateLayout, fieldValue)
		if err != nil {
			return false
		}
		start, err := time.Parse(utils.DateLayout, rule.Range.Start)
		if err != nil {
			return false
		}
		end, err := time.Parse(utils.DateLayout, rule.Range.End)
		if err != nil {
			return false
		}
		// Inclusive on both ends.
		return !fieldDate.Before(start) && !fieldDate.After(end)

	default:
		return false
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func parseNumbers(fieldValue, ruleValue string) (float64, float64, bool) {
	fieldNum, err := strconv.ParseFloat(strings.TrimSpace(fieldValue), 64)
	if err != nil {
		return 0, 0, false
	}
	ruleNum, err := strconv.ParseFloat(strings.TrimSpace(ruleValue), 64)
	if err != nil {
		return 0, 0, false
	}
	return fieldNum, ruleNum, true
}
