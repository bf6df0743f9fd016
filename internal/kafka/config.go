package kafka

import (
	"fmt"
	"time"

	"github.com/Dhoini/payform/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"
)

// Config конфигурация для Kafka
type Config struct {
	Brokers     []string
	TopicPrefix string
	Producer    ProducerConfig
}

// ProducerConfig конфигурация для продюсера
type ProducerConfig struct {
	MaxMessageBytes int
	Compression     sarama.CompressionCodec
	RequiredAcks    sarama.RequiredAcks
	Timeout         time.Duration
	ConnectWait     time.Duration
}

// NewConfig создает новую конфигурацию Kafka
func NewConfig(brokers []string, topicPrefix string) *Config {
	return &Config{
		Brokers:     brokers,
		TopicPrefix: topicPrefix,
		Producer: ProducerConfig{
			MaxMessageBytes: 1000000,
			Compression:     sarama.CompressionSnappy,
			RequiredAcks:    sarama.WaitForAll,
			Timeout:         10 * time.Second,
			ConnectWait:     15 * time.Second,
		},
	}
}

// NewSaramaConfig создает новую конфигурацию Sarama
func NewSaramaConfig(cfg *Config) *sarama.Config {
	saramaConfig := sarama.NewConfig()

	// Версия Kafka
	saramaConfig.Version = sarama.V3_3_0_0
	saramaConfig.ClientID = "payform"

	// Настройки продюсера
	saramaConfig.Producer.MaxMessageBytes = cfg.Producer.MaxMessageBytes
	saramaConfig.Producer.Compression = cfg.Producer.Compression
	saramaConfig.Producer.RequiredAcks = cfg.Producer.RequiredAcks
	saramaConfig.Producer.Timeout = cfg.Producer.Timeout
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true

	return saramaConfig
}

// NewSyncProducer подключается к брокерам, повторяя попытки до ConnectWait
func NewSyncProducer(cfg *Config, log *logger.Logger) (sarama.SyncProducer, error) {
	saramaConfig := NewSaramaConfig(cfg)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.Producer.ConnectWait

	var producer sarama.SyncProducer
	connect := func() error {
		p, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
		if err != nil {
			return err
		}
		producer = p
		return nil
	}
	notify := func(err error, next time.Duration) {
		log.Warnw("Kafka brokers are not reachable yet, retrying", "brokers", cfg.Brokers, "error", err, "retry_in", next)
	}

	if err := backoff.RetryNotify(connect, bo, notify); err != nil {
		return nil, fmt.Errorf("kafka: failed to create producer: %w", err)
	}

	log.Infow("Kafka producer initialized", "brokers", cfg.Brokers)
	return producer, nil
}
