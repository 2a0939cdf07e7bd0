package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/permitleads/leadstack/internal/rules"
)

// JSON column wrappers for the typed rule configuration. Parsed once at the
// boundary, stored as jsonb, never re-parsed downstream.

type FilterRuleList []rules.FilterRule

func (l FilterRuleList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *FilterRuleList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

type ExclusionRuleList []rules.ExclusionRule

func (l ExclusionRuleList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *ExclusionRuleList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

type DistributionRuleColumn struct {
	rules.DistributionRule
}

func (c DistributionRuleColumn) Value() (driver.Value, error) {
	return json.Marshal(c.DistributionRule)
}

func (c *DistributionRuleColumn) Scan(value interface{}) error {
	return scanJSON(value, &c.DistributionRule)
}

type EmailTemplateColumn struct {
	rules.EmailTemplate
}

func (c EmailTemplateColumn) Value() (driver.Value, error) {
	return json.Marshal(c.EmailTemplate)
}

func (c *EmailTemplateColumn) Scan(value interface{}) error {
	return scanJSON(value, &c.EmailTemplate)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return nil
	}
}
