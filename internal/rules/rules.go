package rules

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/utils"
)

// FilterRule is a single inclusion predicate over one permit field.
// The wire shape is {field, operator, value} where value is a string,
// a list of strings (in_list) or a {start,end} date pair (date_range).
type FilterRule struct {
	Field    string
	Operator enum.FilterOperator
	Value    string
	Values   []string
	Range    *DateRange
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type filterRuleJSON struct {
	Field    string          `json:"field"`
	Operator string          `json:"operator"`
	Value    json.RawMessage `json:"value"`
}

func (r *FilterRule) UnmarshalJSON(data []byte) error {
	var raw filterRuleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Field = raw.Field
	r.Operator = enum.FilterOperator(raw.Operator)
	r.Value = ""
	r.Values = nil
	r.Range = nil

	if len(raw.Value) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw.Value, &s); err == nil {
		r.Value = s
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw.Value, &list); err == nil {
		r.Values = list
		return nil
	}
	var dr DateRange
	if err := json.Unmarshal(raw.Value, &dr); err == nil {
		r.Range = &dr
		return nil
	}
	return errors.Errorf("filter rule on %q: unsupported value shape", raw.Field)
}

func (r FilterRule) MarshalJSON() ([]byte, error) {
	var value interface{}
	switch {
	case r.Range != nil:
		value = r.Range
	case r.Values != nil:
		value = r.Values
	default:
		value = r.Value
	}
	return json.Marshal(struct {
		Field    string      `json:"field"`
		Operator string      `json:"operator"`
		Value    interface{} `json:"value"`
	}{r.Field, r.Operator.String(), value})
}

// Validate rejects operator/value shape mismatches at configuration-save time.
// Evaluation never sees an invalid rule.
func (r FilterRule) Validate() error {
	if r.Field == "" {
		return errors.New("filter rule: field is required")
	}
	if !r.Operator.IsKnown() {
		return errors.Errorf("filter rule on %q: unknown operator %q", r.Field, r.Operator)
	}

	switch r.Operator {
	case enum.FilterOpInList:
		if len(r.Values) == 0 {
			return errors.Errorf("filter rule on %q: in_list requires a non-empty list value", r.Field)
		}
	case enum.FilterOpDateRange:
		if r.Range == nil {
			return errors.Errorf("filter rule on %q: date_range requires a {start,end} value", r.Field)
		}
		start, err := time.Parse(utils.DateLayout, r.Range.Start)
		if err != nil {
			return errors.Errorf("filter rule on %q: invalid start date %q", r.Field, r.Range.Start)
		}
		end, err := time.Parse(utils.DateLayout, r.Range.End)
		if err != nil {
			return errors.Errorf("filter rule on %q: invalid end date %q", r.Field, r.Range.End)
		}
		if end.Before(start) {
			return errors.Errorf("filter rule on %q: end date precedes start date", r.Field)
		}
	case enum.FilterOpGreaterThan, enum.FilterOpLessThan:
		if r.Values != nil || r.Range != nil {
			return errors.Errorf("filter rule on %q: %s requires a single string value", r.Field, r.Operator)
		}
		if _, err := strconv.ParseFloat(r.Value, 64); err != nil {
			return errors.Errorf("filter rule on %q: %s requires a numeric value, got %q", r.Field, r.Operator, r.Value)
		}
	default:
		if r.Values != nil || r.Range != nil {
			return errors.Errorf("filter rule on %q: %s requires a single string value", r.Field, r.Operator)
		}
	}
	return nil
}

// ExclusionRule suppresses permits that already passed the inclusion filters.
type ExclusionRule struct {
	Field    string              `json:"field"`
	Operator enum.FilterOperator `json:"operator"`
	Value    string              `json:"value"`
}

func (r ExclusionRule) Validate() error {
	if r.Field == "" {
		return errors.New("exclusion rule: field is required")
	}
	if !r.Operator.IsExclusionOperator() {
		return errors.Errorf("exclusion rule on %q: operator %q not allowed, use equals or contains", r.Field, r.Operator)
	}
	return nil
}

// DistributionRule decides which surviving permits become leads.
// Config fields irrelevant to the active type are ignored, not rejected.
type DistributionRule struct {
	Type   enum.DistributionType `json:"type"`
	Config DistributionConfig    `json:"config"`
}

type DistributionConfig struct {
	Territories []string `json:"territories,omitempty"`
	Percentage  *int     `json:"percentage,omitempty"`
	Priority    *int     `json:"priority,omitempty"`
}

func (r DistributionRule) Validate() error {
	if !r.Type.IsKnown() {
		return errors.Errorf("distribution rule: unknown type %q", r.Type)
	}
	switch r.Type {
	case enum.DistributionTerritory:
		if len(r.Config.Territories) == 0 {
			return errors.New("distribution rule: territory requires at least one zip code")
		}
	case enum.DistributionPercentage:
		if r.Config.Percentage == nil {
			return errors.New("distribution rule: percentage requires a percentage value")
		}
		if *r.Config.Percentage < 0 || *r.Config.Percentage > 100 {
			return errors.Errorf("distribution rule: percentage %d out of range 0-100", *r.Config.Percentage)
		}
	}
	return nil
}

// PriorityOrDefault returns the round-robin tie-break weight; lower runs first.
func (r DistributionRule) PriorityOrDefault() int {
	return utils.GetOrDefault(r.Config.Priority, 999)
}

// EmailTemplate parametrizes the digest the external mailer delivers.
// Subject and body may carry a {{date}} placeholder.
type EmailTemplate struct {
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Format  enum.DigestFormat `json:"format"`
}

func (t EmailTemplate) Validate() error {
	if t.Subject == "" {
		return errors.New("email template: subject is required")
	}
	if !t.Format.IsKnown() {
		return errors.Errorf("email template: unknown format %q, use csv or xlsx", t.Format)
	}
	return nil
}

// RuleSet is the full rule bundle of one automation class.
type RuleSet struct {
	Filters      []FilterRule
	Exclusions   []ExclusionRule
	Distribution DistributionRule
	Template     EmailTemplate
}

func (rs RuleSet) Validate() error {
	for i, f := range rs.Filters {
		if err := f.Validate(); err != nil {
			return errors.Wrapf(err, "filter %d", i)
		}
	}
	for i, e := range rs.Exclusions {
		if err := e.Validate(); err != nil {
			return errors.Wrapf(err, "exclusion %d", i)
		}
	}
	if err := rs.Distribution.Validate(); err != nil {
		return err
	}
	return rs.Template.Validate()
}
