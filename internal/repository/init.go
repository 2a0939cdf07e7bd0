package repository

import (
	"gorm.io/gorm"

	"github.com/permitleads/leadstack/interfaces"
	"github.com/permitleads/leadstack/internal/models"
)

type Repositories struct {
	PermitRepository          interfaces.PermitRepository
	ClientRepository          interfaces.ClientRepository
	AutomationClassRepository interfaces.AutomationClassRepository
	LeadRepository            interfaces.LeadRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		PermitRepository:          NewPermitRepository(db),
		ClientRepository:          NewClientRepository(db),
		AutomationClassRepository: NewAutomationClassRepository(db),
		LeadRepository:            NewLeadRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Permit{},
		&models.Client{},
		&models.AutomationClass{},
		&models.Lead{},
	)
}
