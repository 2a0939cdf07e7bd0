package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/utils"
)

// Client owns automation classes and receives the leads they produce.
type Client struct {
	ID      string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Name    string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Company string `gorm:"column:company;type:varchar(255)" json:"company"`
	Email   string `gorm:"column:email;type:varchar(255);index;not null" json:"email"`
	Phone   string `gorm:"column:phone;type:varchar(50)" json:"phone"`

	Address string `gorm:"column:address;type:varchar(255)" json:"address"`
	City    string `gorm:"column:city;type:varchar(100)" json:"city"`
	State   string `gorm:"column:state;type:varchar(50)" json:"state"`
	ZipCode string `gorm:"column:zip_code;type:varchar(20)" json:"zipCode"`
	Country string `gorm:"column:country;type:varchar(100)" json:"country"`

	Status enum.ClientStatus `gorm:"column:status;type:varchar(20);index;not null;default:active" json:"status"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Client) TableName() string {
	return "clients"
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.GenerateNanoIdWithPrefix("cli", 16)
	}
	return nil
}
