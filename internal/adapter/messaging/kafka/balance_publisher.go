package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"asset-ledger/internal/core/domain"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// PublisherMetrics counts balance event deliveries to Kafka.
type PublisherMetrics struct {
	PublishTotal   *prometheus.CounterVec
	PublishLatency prometheus.Histogram
}

// NewPublisherMetrics registers the publisher collectors on reg.
func NewPublisherMetrics(reg prometheus.Registerer) *PublisherMetrics {
	m := &PublisherMetrics{
		PublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_publish_total",
				Help: "Total Kafka publish attempts.",
			},
			[]string{"topic", "status"},
		),
		PublishLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kafka_publish_latency_seconds",
				Help:    "Kafka publish latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.PublishTotal, m.PublishLatency)
	return m
}

// BalancePublisher implements ports.BalancePublisher on a sarama SyncProducer.
// Messages are keyed by wallet id so a wallet's changes stay ordered within
// one partition.
type BalancePublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      zerolog.Logger
	metrics  *PublisherMetrics
}

// NewProducerConfig returns the idempotent, fully acknowledged producer config.
func NewProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_7_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond
	return cfg
}

// NewBalancePublisher dials brokers and returns a publisher for topic.
func NewBalancePublisher(brokers []string, topic string, log zerolog.Logger, metrics *PublisherMetrics) (*BalancePublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers required")
	}
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewBalancePublisherWithProducer(producer, topic, log, metrics), nil
}

// NewBalancePublisherWithProducer wraps an existing producer.
func NewBalancePublisherWithProducer(producer sarama.SyncProducer, topic string, log zerolog.Logger, metrics *PublisherMetrics) *BalancePublisher {
	return &BalancePublisher{
		producer: producer,
		topic:    topic,
		log:      log.With().Str("component", "kafka_balance_publisher").Logger(),
		metrics:  metrics,
	}
}

func (p *BalancePublisher) PublishBalanceChanged(ctx context.Context, event domain.WalletBalanceChanged) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal balance event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.WalletID.String()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte("wallet.balance_changed")},
		},
	}

	start := time.Now()
	partition, offset, err := p.producer.SendMessage(msg)
	if p.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		p.metrics.PublishTotal.WithLabelValues(p.topic, status).Inc()
		p.metrics.PublishLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("kafka publish failed: %w", err)
	}

	p.log.Debug().
		Str("wallet_id", event.WalletID.String()).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("balance event published")
	return nil
}

func (p *BalancePublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
