package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-hrms/internal/events"
	"go-hrms/internal/leavebalance"
	balanceerrors "go-hrms/internal/leavebalance/errors"
)

// Starting allocations for a new hire's current year.
var defaultAllocations = map[string]decimal.Decimal{
	"ANNUAL": decimal.NewFromInt(12),
	"SICK":   decimal.NewFromInt(14),
}

// ConsumeEmployeeLifecycle provisions the default leave balances for every
// newly created employee. Re-delivered events are harmless: an already
// provisioned balance is skipped.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	balanceService leavebalance.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.EmployeeCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode employee_created event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := provisionDefaults(ctx, balanceService, event, log); err != nil {
			log.Error("provision default balances failed",
				zap.String("employee_id", event.EmployeeID),
				zap.String("company_id", event.CompanyID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit employee lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("default leave balances provisioned from employee_created event",
			zap.String("employee_id", event.EmployeeID),
			zap.String("company_id", event.CompanyID),
		)
	}
}

func provisionDefaults(
	ctx context.Context,
	balanceService leavebalance.Service,
	event events.EmployeeCreatedEvent,
	log *zap.Logger,
) error {
	year := time.Now().UTC().Year()

	for category, total := range defaultAllocations {
		_, err := balanceService.Provision(ctx, event.CompanyID, leavebalance.ProvisionBalanceRequest{
			EmployeeID: event.EmployeeID,
			Category:   category,
			Year:       year,
			TotalDays:  total,
		})
		if errors.Is(err, balanceerrors.ErrBalanceExists) {
			log.Warn("balance already provisioned, skipping",
				zap.String("employee_id", event.EmployeeID),
				zap.String("category", category),
				zap.Int("year", year),
			)
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}
