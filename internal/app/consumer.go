package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"go-hrms/internal/events"
	"go-hrms/internal/leavebalance"
	"go-hrms/internal/messaging/kafka/consumer"
	"go-hrms/internal/shared/connection"
)

// RunConsumer subscribes to the domain topics: employee lifecycle events
// provision default leave balances, leave workflow events fan out as
// notifications.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	balanceRepo := leavebalance.NewRepository(gormDB)
	balanceService := leavebalance.NewService(balanceRepo)

	lifecycleReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.EmployeeCreatedTopic,
		GroupID:        "go-hrms-balance-provisioner",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer lifecycleReader.Close()

	leaveReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.LeaveRequestTopic,
		GroupID:        "go-hrms-leave-notifier",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer leaveReader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeEmployeeLifecycle(ctx, lifecycleReader, balanceService, logger)
	go consumer.ConsumeLeaveRequestEvents(ctx, leaveReader, consumer.LogNotifier{Logger: logger}, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
