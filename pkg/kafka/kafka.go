package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-catalog/pkg/circuit_breaker"
	"github.com/Astemirdum/book-catalog/pkg/jsonx"
)

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
	Topic string   `envconfig:"KAFKA_TOPIC" default:"books"`
}

func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	return sarama.NewSyncProducer(cfg.Addrs, NewProducerConfig())
}

// NewProducerConfig keeps a single send within a few seconds so a slow broker
// does not hold a request for long before the breaker opens.
func NewProducerConfig() *sarama.Config {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Timeout = 2 * time.Second
	defaultCfg.Producer.Retry.Max = 1
	defaultCfg.Producer.Retry.Backoff = 100 * time.Millisecond
	defaultCfg.Net.DialTimeout = 2 * time.Second
	defaultCfg.Net.WriteTimeout = 2 * time.Second
	defaultCfg.Net.ReadTimeout = 2 * time.Second
	defaultCfg.Metadata.Retry.Max = 1

	return defaultCfg
}

type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
	Close() error
}

type publisher struct {
	producer sarama.SyncProducer
	topic    string
	cb       circuit_breaker.CircuitBreaker
	log      *zap.Logger
}

// NewPublisher sends JSON messages to topic. Calls go through cb so a dead broker
// is not hit on every request.
func NewPublisher(producer sarama.SyncProducer, topic string, cb circuit_breaker.CircuitBreaker, log *zap.Logger) Publisher {
	return &publisher{
		producer: producer,
		topic:    topic,
		cb:       cb,
		log:      log.Named("kafka"),
	}
}

// Publish returns once the broker acknowledged the message or ctx is done.
// An abandoned send still completes in the background.
func (p *publisher) Publish(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := jsonx.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "jsonx.Marshal")
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	return p.cb.Call(func() error {
		done := make(chan error, 1)
		go func() {
			partition, offset, err := p.producer.SendMessage(msg)
			if err == nil {
				p.log.Debug("message sent",
					zap.String("topic", p.topic),
					zap.String("key", key),
					zap.Int32("partition", partition),
					zap.Int64("offset", offset))
			}
			done <- err
		}()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func (p *publisher) Close() error {
	return p.producer.Close()
}

type nopPublisher struct{}

// NewNopPublisher is used when no brokers are configured.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

func (nopPublisher) Close() error { return nil }
