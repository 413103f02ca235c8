package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/infra"
)

// Consumes the engagement event topics and logs every message. Useful as an
// audit trail and as a template for downstream consumers (notifications,
// analytics) that subscribe to the same topics.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.KafkaEnabled {
		return fmt.Errorf("KAFKA_ENABLED must be true to run the consumer")
	}

	groupID := os.Getenv("CONSUMER_GROUP_ID")
	if groupID == "" {
		groupID = "engage-audit"
	}

	topics := []domain.EventType{
		domain.EventCoinTransactionPosted,
		domain.EventAchievementUnlocked,
		domain.EventStreakMilestoneReached,
		domain.EventStreakBroken,
		domain.EventLeaderboardLevelUp,
	}

	logger.Info("outbox-consumer starting", "group_id", groupID, "topics", len(topics))

	var wg sync.WaitGroup
	for _, topic := range topics {
		consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, string(topic), groupID, true, logger)

		wg.Add(1)
		go func(topic string, c *infra.KafkaConsumer) {
			defer wg.Done()
			defer c.Close()
			consume(ctx, topic, c, logger)
		}(string(topic), consumer)
	}

	wg.Wait()
	logger.Info("outbox-consumer stopped")
	return nil
}

func consume(ctx context.Context, topic string, c *infra.KafkaConsumer, logger *slog.Logger) {
	for {
		msg, err := c.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("read message failed", "topic", topic, "error", err)
			continue
		}

		logger.Info("event consumed",
			"topic", topic,
			"key", string(msg.Key),
			"offset", msg.Offset,
			"partition", msg.Partition,
			"bytes", len(msg.Value),
		)
	}
}
