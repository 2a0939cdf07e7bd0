package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permitleads/leadstack/internal/enum"
)

func TestFilterRule_UnmarshalStringValue(t *testing.T) {
	var rule FilterRule
	err := json.Unmarshal([]byte(`{"field":"city","operator":"equals","value":"austin"}`), &rule)
	require.NoError(t, err)

	assert.Equal(t, "city", rule.Field)
	assert.Equal(t, enum.FilterOpEquals, rule.Operator)
	assert.Equal(t, "austin", rule.Value)
	assert.Nil(t, rule.Values)
	assert.Nil(t, rule.Range)
}

func TestFilterRule_UnmarshalListValue(t *testing.T) {
	var rule FilterRule
	err := json.Unmarshal([]byte(`{"field":"zip_code","operator":"in_list","value":["78701","78702"]}`), &rule)
	require.NoError(t, err)

	assert.Equal(t, []string{"78701", "78702"}, rule.Values)
}

func TestFilterRule_UnmarshalDateRangeValue(t *testing.T) {
	var rule FilterRule
	err := json.Unmarshal([]byte(`{"field":"issued_date","operator":"date_range","value":{"start":"2026-01-01","end":"2026-12-31"}}`), &rule)
	require.NoError(t, err)

	require.NotNil(t, rule.Range)
	assert.Equal(t, "2026-01-01", rule.Range.Start)
	assert.Equal(t, "2026-12-31", rule.Range.End)
}

func TestFilterRule_UnmarshalUnsupportedShape(t *testing.T) {
	var rule FilterRule
	err := json.Unmarshal([]byte(`{"field":"valuation","operator":"greater_than","value":42}`), &rule)
	assert.Error(t, err)
}

func TestFilterRule_MarshalRoundTrip(t *testing.T) {
	original := FilterRule{Field: "zip_code", Operator: enum.FilterOpInList, Values: []string{"78701"}}
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded FilterRule
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestFilterRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    FilterRule
		wantErr bool
	}{
		{"valid equals", FilterRule{Field: "city", Operator: enum.FilterOpEquals, Value: "austin"}, false},
		{"missing field", FilterRule{Operator: enum.FilterOpEquals, Value: "austin"}, true},
		{"unknown operator", FilterRule{Field: "city", Operator: "matches_regex", Value: "a.*"}, true},
		{"in_list empty", FilterRule{Field: "zip_code", Operator: enum.FilterOpInList}, true},
		{"in_list valid", FilterRule{Field: "zip_code", Operator: enum.FilterOpInList, Values: []string{"78701"}}, false},
		{"date_range missing", FilterRule{Field: "issued_date", Operator: enum.FilterOpDateRange}, true},
		{"date_range bad start", FilterRule{Field: "issued_date", Operator: enum.FilterOpDateRange, Range: &DateRange{Start: "not-a-date", End: "2026-12-31"}}, true},
		{"date_range inverted", FilterRule{Field: "issued_date", Operator: enum.FilterOpDateRange, Range: &DateRange{Start: "2026-12-31", End: "2026-01-01"}}, true},
		{"date_range valid", FilterRule{Field: "issued_date", Operator: enum.FilterOpDateRange, Range: &DateRange{Start: "2026-01-01", End: "2026-12-31"}}, false},
		{"greater_than non-numeric", FilterRule{Field: "valuation", Operator: enum.FilterOpGreaterThan, Value: "expensive"}, true},
		{"greater_than numeric", FilterRule{Field: "valuation", Operator: enum.FilterOpGreaterThan, Value: "100000"}, false},
		{"less_than list value", FilterRule{Field: "valuation", Operator: enum.FilterOpLessThan, Values: []string{"1"}}, true},
		{"equals with range value", FilterRule{Field: "city", Operator: enum.FilterOpEquals, Range: &DateRange{Start: "2026-01-01", End: "2026-12-31"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExclusionRule_Validate(t *testing.T) {
	valid := ExclusionRule{Field: "work_class", Operator: enum.FilterOpEquals, Value: "Demolition"}
	assert.NoError(t, valid.Validate())

	assert.Error(t, ExclusionRule{Operator: enum.FilterOpEquals, Value: "x"}.Validate())
	assert.Error(t, ExclusionRule{Field: "valuation", Operator: enum.FilterOpGreaterThan, Value: "1"}.Validate())
	assert.Error(t, ExclusionRule{Field: "issued_date", Operator: enum.FilterOpDateRange}.Validate())
}

func TestDistributionRule_Validate(t *testing.T) {
	assert.NoError(t, DistributionRule{Type: enum.DistributionRoundRobin}.Validate())

	assert.Error(t, DistributionRule{Type: "weighted"}.Validate())

	assert.Error(t, DistributionRule{Type: enum.DistributionTerritory}.Validate())
	assert.NoError(t, DistributionRule{
		Type:   enum.DistributionTerritory,
		Config: DistributionConfig{Territories: []string{"78701"}},
	}.Validate())

	assert.Error(t, DistributionRule{Type: enum.DistributionPercentage}.Validate())
	bad := 101
	assert.Error(t, DistributionRule{
		Type:   enum.DistributionPercentage,
		Config: DistributionConfig{Percentage: &bad},
	}.Validate())
	ok := 50
	assert.NoError(t, DistributionRule{
		Type:   enum.DistributionPercentage,
		Config: DistributionConfig{Percentage: &ok},
	}.Validate())
}

func TestDistributionRule_IrrelevantConfigIgnored(t *testing.T) {
	pct := 50
	rule := DistributionRule{
		Type:   enum.DistributionRoundRobin,
		Config: DistributionConfig{Territories: []string{"78701"}, Percentage: &pct},
	}
	assert.NoError(t, rule.Validate())
}

func TestDistributionRule_PriorityOrDefault(t *testing.T) {
	assert.Equal(t, 999, DistributionRule{Type: enum.DistributionRoundRobin}.PriorityOrDefault())

	p := 5
	rule := DistributionRule{Type: enum.DistributionRoundRobin, Config: DistributionConfig{Priority: &p}}
	assert.Equal(t, 5, rule.PriorityOrDefault())
}

func TestEmailTemplate_Validate(t *testing.T) {
	assert.NoError(t, EmailTemplate{Subject: "Leads", Format: enum.DigestFormatCSV}.Validate())
	assert.NoError(t, EmailTemplate{Subject: "Leads", Format: enum.DigestFormatXLSX}.Validate())
	assert.Error(t, EmailTemplate{Format: enum.DigestFormatCSV}.Validate())
	assert.Error(t, EmailTemplate{Subject: "Leads", Format: "pdf"}.Validate())
}

func TestRuleSet_ValidateWrapsIndex(t *testing.T) {
	rs := RuleSet{
		Filters: []FilterRule{
			{Field: "city", Operator: enum.FilterOpEquals, Value: "austin"},
			{Field: "zip_code", Operator: enum.FilterOpInList},
		},
		Distribution: DistributionRule{Type: enum.DistributionRoundRobin},
		Template:     EmailTemplate{Subject: "Leads", Format: enum.DigestFormatCSV},
	}
	err := rs.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter 1")
}
