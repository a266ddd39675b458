// internal/service/negotiation/domain/port/notification.go
package port

import (
	"context"

	"haggle/internal/service/negotiation/domain"
)

// NotificationDispatcher is the outbound port for the fire-and-forget side
// channel informing counterparties of state changes. Implementations must
// tolerate the engine ignoring their errors.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, event *domain.NotificationEvent) error
}
