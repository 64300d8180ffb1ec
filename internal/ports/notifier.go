package ports

import (
	"context"

	"github.com/calcibot/calci/internal/domain"
)

// Notifier publishes the opportunities found in a scan cycle.
type Notifier interface {
	Notify(ctx context.Context, opps []domain.Opportunity) error
}
