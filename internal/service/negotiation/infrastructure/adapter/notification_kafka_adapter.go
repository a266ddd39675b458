// internal/service/negotiation/infrastructure/adapter/notification_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"haggle/internal/pkg/mq"
	"haggle/internal/service/negotiation/domain"
)

// NotificationKafkaAdapter implements port.NotificationDispatcher by
// producing negotiation events to the notifications topic. Keying by
// recipient keeps one user's notifications ordered.
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

func (a *NotificationKafkaAdapter) Dispatch(ctx context.Context, event *domain.NotificationEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(event.RecipientID.String()), eventBytes)
}

// Close flushes and closes the underlying kafka writer.
func (a *NotificationKafkaAdapter) Close() error {
	return a.writer.Close()
}
