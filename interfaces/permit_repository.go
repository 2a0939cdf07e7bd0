package interfaces

import (
	"context"

	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/models"
)

// PermitFilters narrows permit listings for the dashboard API.
type PermitFilters struct {
	City      string
	Status    enum.PermitStatus
	WorkClass string
	Search    string
}

type PermitRepository interface {
	// IngestBatch upserts scraped permits, keyed on (city, permit_number).
	// Returns the number of newly inserted permits.
	IngestBatch(ctx context.Context, permits []*models.Permit) (int, error)
	GetByID(ctx context.Context, id string) (*models.Permit, error)
	// ListActive returns the evaluation feed in ingestion order.
	ListActive(ctx context.Context) ([]*models.Permit, error)
	List(ctx context.Context, filters PermitFilters, limit, offset int) ([]*models.Permit, int64, error)
	UpdateStatus(ctx context.Context, id string, status enum.PermitStatus) error
	CountByCity(ctx context.Context) (map[string]int64, error)
}
