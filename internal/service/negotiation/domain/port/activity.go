// internal/service/negotiation/domain/port/activity.go
package port

import (
	"context"

	"haggle/internal/service/negotiation/domain"
)

// ActivityRecorder appends to the negotiation audit trail. Best effort, like
// the other side channels: a failed append is logged and dropped.
type ActivityRecorder interface {
	Record(ctx context.Context, entry *domain.ActivityEntry) error
}
