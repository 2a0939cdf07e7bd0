package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/utils"
)

// Permit is an immutable record ingested from a municipal data source.
// The engine only ever reads it; status is the single mutable column.
type Permit struct {
	ID           string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	City         string `gorm:"column:city;type:varchar(100);not null;uniqueIndex:idx_permits_city_number,priority:1" json:"city"`
	PermitNumber string `gorm:"column:permit_number;type:varchar(100);not null;uniqueIndex:idx_permits_city_number,priority:2" json:"permitNumber"`

	PermitType     string `gorm:"column:permit_type;type:varchar(100)" json:"permitType"`
	PermitTypeDesc string `gorm:"column:permit_type_desc;type:varchar(255)" json:"permitTypeDesc"`
	WorkClass      string `gorm:"column:work_class;type:varchar(100);index" json:"workClass"`
	WorkClassGroup string `gorm:"column:work_class_group;type:varchar(100)" json:"workClassGroup"`

	Valuation     float64 `gorm:"column:valuation" json:"valuation"`
	SquareFootage int     `gorm:"column:square_footage" json:"squareFootage"`

	AppliedDate *time.Time `gorm:"column:applied_date;type:date" json:"appliedDate"`
	IssuedDate  *time.Time `gorm:"column:issued_date;type:date;index" json:"issuedDate"`

	ZipCode         string `gorm:"column:zip_code;type:varchar(20);index" json:"zipCode"`
	CouncilDistrict string `gorm:"column:council_district;type:varchar(20)" json:"councilDistrict"`

	ContractorName     string `gorm:"column:contractor_name;type:varchar(255)" json:"contractorName"`
	ContractorCompany  string `gorm:"column:contractor_company;type:varchar(255)" json:"contractorCompany"`
	ContractorCategory string `gorm:"column:contractor_category;type:varchar(100)" json:"contractorCategory"`
	ContractorPhone    string `gorm:"column:contractor_phone;type:varchar(50)" json:"contractorPhone"`
	ContractorAddress  string `gorm:"column:contractor_address;type:varchar(255)" json:"contractorAddress"`

	Description string            `gorm:"column:description;type:text" json:"description"`
	Status      enum.PermitStatus `gorm:"column:status;type:varchar(20);index;not null;default:active" json:"status"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Permit) TableName() string {
	return "permits"
}

func (p *Permit) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = utils.GenerateNanoIdWithPrefix("pmt", 16)
	}
	return nil
}

// Field resolves a rule field name to its stringified value. Unknown names
// and unset dates report false so rule evaluation stays fail-closed.
func (p *Permit) Field(name string) (string, bool) {
	switch name {
	case "city":
		return p.City, true
	case "permit_number", "permit_num":
		return p.PermitNumber, true
	case "permit_type":
		return p.PermitType, true
	case "permit_type_desc":
		return p.PermitTypeDesc, true
	case "work_class":
		return p.WorkClass, true
	case "work_class_group":
		return p.WorkClassGroup, true
	case "valuation":
		return strconv.FormatFloat(p.Valuation, 'f', -1, 64), true
	case "square_footage":
		return strconv.Itoa(p.SquareFootage), true
	case "applied_date":
		if p.AppliedDate == nil {
			return "", false
		}
		return p.AppliedDate.Format(utils.DateLayout), true
	case "issued_date":
		if p.IssuedDate == nil {
			return "", false
		}
		return p.IssuedDate.Format(utils.DateLayout), true
	case "zip_code":
		return p.ZipCode, true
	case "council_district":
		return p.CouncilDistrict, true
	case "contractor_name":
		return p.ContractorName, true
	case "contractor_company":
		return p.ContractorCompany, true
	case "contractor_category":
		return p.ContractorCategory, true
	case "contractor_phone":
		return p.ContractorPhone, true
	case "contractor_address":
		return p.ContractorAddress, true
	case "description":
		return p.Description, true
	case "status":
		return p.Status.String(), true
	default:
		return "", false
	}
}
