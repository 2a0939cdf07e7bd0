package interfaces

import (
	"context"
	"time"

	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/models"
)

type AutomationClassRepository interface {
	// Create and Update validate the rule configuration before writing;
	// a malformed rule set never reaches the database.
	Create(ctx context.Context, class *models.AutomationClass) error
	GetByID(ctx context.Context, id string) (*models.AutomationClass, error)
	ListActive(ctx context.Context) ([]*models.AutomationClass, error)
	ListByClient(ctx context.Context, clientID string) ([]*models.AutomationClass, error)
	Update(ctx context.Context, class *models.AutomationClass) error
	SetStatus(ctx context.Context, id string, status enum.ClassStatus) error
	Delete(ctx context.Context, id string) error
	// RecordRun stores the run completion and the refreshed daily counter.
	RecordRun(ctx context.Context, id string, ranAt time.Time, leadsSentToday int) error
	// ResetDailyCounters zeroes leads_sent_today on every class.
	ResetDailyCounters(ctx context.Context) error
}
