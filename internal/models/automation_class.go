package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/rules"
	"github.com/permitleads/leadstack/internal/utils"
)

// AutomationClass is a client-owned rule bundle: inclusion filters
// (conjunctive), exclusion rules (disjunctive), one distribution rule and
// one email template. Inactive classes are never evaluated.
type AutomationClass struct {
	ID          string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	ClientID    string `gorm:"column:client_id;type:varchar(50);index;not null" json:"clientId"`
	Name        string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`

	Status enum.ClassStatus `gorm:"column:status;type:varchar(20);index;not null;default:active" json:"status"`

	FilterRules    FilterRuleList         `gorm:"column:filter_rules;type:jsonb" json:"filterRules"`
	ExclusionRules ExclusionRuleList      `gorm:"column:exclusion_rules;type:jsonb" json:"exclusionRules"`
	Distribution   DistributionRuleColumn `gorm:"column:distribution_rule;type:jsonb" json:"distributionRule"`
	EmailTemplate  EmailTemplateColumn    `gorm:"column:email_template;type:jsonb" json:"emailTemplate"`

	LeadsSentToday int        `gorm:"column:leads_sent_today;not null;default:0" json:"leadsSentToday"`
	LastRunAt      *time.Time `gorm:"column:last_run_at;type:timestamp" json:"lastRunAt"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (AutomationClass) TableName() string {
	return "automation_classes"
}

func (a *AutomationClass) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIdWithPrefix("ac", 16)
	}
	return nil
}

// RuleSet assembles the typed rule bundle for evaluation.
func (a *AutomationClass) RuleSet() rules.RuleSet {
	return rules.RuleSet{
		Filters:      a.FilterRules,
		Exclusions:   a.ExclusionRules,
		Distribution: a.Distribution.DistributionRule,
		Template:     a.EmailTemplate.EmailTemplate,
	}
}

func (a *AutomationClass) IsActive() bool {
	return a.Status == enum.ClassStatusActive
}
