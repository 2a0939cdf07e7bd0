package interfaces

import (
	"context"

	"github.com/permitleads/leadstack/internal/models"
)

// LeadRepository is the durable ledger behind the at-most-once guarantee.
type LeadRepository interface {
	// Reserve atomically records lead's (automation_class_id, permit_id) pair
	// as sent. It returns true iff the pair was newly reserved, filling the
	// lead's ID; a pair reserved earlier, including by a concurrent caller,
	// returns false with no error.
	Reserve(ctx context.Context, lead *models.Lead) (bool, error)
	// CountToday counts leads reserved for the class since local midnight.
	CountToday(ctx context.Context, classID string) (int, error)
	ListByClass(ctx context.Context, classID string, limit, offset int) ([]*models.Lead, int64, error)
	ExistsForPermit(ctx context.Context, classID, permitID string) (bool, error)
}
