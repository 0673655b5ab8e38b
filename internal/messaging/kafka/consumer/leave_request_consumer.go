package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"go-hrms/internal/events"
)

// Notifier receives decided/submitted leave events for delivery to
// employees and approvers. Delivery transport lives behind this interface.
type Notifier interface {
	NotifyLeaveEvent(ctx context.Context, event events.LeaveRequestEvent) error
}

// LogNotifier records the dispatch; useful as the default sink and in tests.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) NotifyLeaveEvent(_ context.Context, event events.LeaveRequestEvent) error {
	n.Logger.Info("leave notification dispatched",
		zap.String("event_type", event.EventType),
		zap.String("leave_id", event.LeaveID),
		zap.String("employee_id", event.EmployeeID),
		zap.String("status", event.Status),
	)
	return nil
}

// ConsumeLeaveRequestEvents feeds leave workflow events to the notifier.
func ConsumeLeaveRequestEvents(
	ctx context.Context,
	reader *kafkago.Reader,
	notifier Notifier,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_request")
	log.Info("leave request consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave request consumer stopped")
				return
			}
			log.Error("fetch leave request message failed", zap.Error(err))
			continue
		}

		var event events.LeaveRequestEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode leave request event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := notifier.NotifyLeaveEvent(ctx, event); err != nil {
			log.Error("notify leave event failed",
				zap.String("leave_id", event.LeaveID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave request message failed", zap.Error(err))
			continue
		}
	}
}
