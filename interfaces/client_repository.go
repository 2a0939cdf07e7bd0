package interfaces

import (
	"context"

	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/models"
)

type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context, status enum.ClientStatus, limit, offset int) ([]*models.Client, int64, error)
	Update(ctx context.Context, client *models.Client) error
	// Delete soft-deletes the client and deactivates its automation classes
	// in the same transaction.
	Delete(ctx context.Context, id string) error
}
