package interfaces

import (
	"context"

	"github.com/permitleads/leadstack/internal/models"
	"github.com/permitleads/leadstack/internal/rules"
)

// DigestRequest carries one class run's accepted leads to the mailer.
type DigestRequest struct {
	Class    *models.AutomationClass
	Client   *models.Client
	Template rules.EmailTemplate
	Leads    []*models.Lead
	Permits  []*models.Permit
}

// Dispatcher hands accepted leads to the external mailer. Delivery failures
// are the mailer's to retry; they never invalidate ledger reservations.
type Dispatcher interface {
	Dispatch(ctx context.Context, request *DigestRequest) error
}
