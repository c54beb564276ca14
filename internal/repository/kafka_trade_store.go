package repository

import (
	"context"

	"digitpulse/internal/domain/models"
	pkgkafka "digitpulse/pkg/kafka"
)

// KafkaTradeStore publishes settled trades to a Kafka topic, keyed by bot id
// so one bot's history stays in order on a single partition.
type KafkaTradeStore struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaTradeStore(producer *pkgkafka.Producer, topic string) *KafkaTradeStore {
	return &KafkaTradeStore{producer: producer, topic: topic}
}

func (p *KafkaTradeStore) PersistTrade(ctx context.Context, d models.Decision, o models.Outcome) error {
	return p.producer.Publish(ctx, p.topic, []byte(d.BotID), map[string]interface{}{
		"decision_id": d.ID,
		"bot_id":      d.BotID,
		"symbol":      d.Signal.Symbol,
		"family":      d.Signal.Family.String(),
		"direction":   string(d.Signal.Direction),
		"target":      d.Signal.TargetDigit,
		"confidence":  d.Signal.Confidence,
		"score":       d.Signal.Score,
		"stake":       d.Stake,
		"result":      o.Result,
		"profit":      o.Profit,
		"settled_at":  o.SettledAt.Unix(),
	})
}

func (p *KafkaTradeStore) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopTradeStore is used when no history backend is configured.
type NoopTradeStore struct{}

func (NoopTradeStore) PersistTrade(context.Context, models.Decision, models.Outcome) error {
	return nil
}

func (NoopTradeStore) Close() error { return nil }
