package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Dhoini/payform/internal/domain"
	"github.com/Dhoini/payform/internal/kafka"
	"github.com/Dhoini/payform/pkg/logger"
	"github.com/IBM/sarama"
)

const (
	TopicPaymentSubmitted = "payment.submitted"
	TopicPaymentResolved  = "payment.resolved"
)

// TopicSpecs топики, в которые пишет продюсер
func TopicSpecs(prefix string) []kafka.TopicSpec {
	return []kafka.TopicSpec{
		{Name: prefix + TopicPaymentSubmitted, NumPartitions: 3, ReplicationFactor: 1},
		{Name: prefix + TopicPaymentResolved, NumPartitions: 3, ReplicationFactor: 1},
	}
}

// PaymentEvent представляет событие платежа для Kafka
type PaymentEvent struct {
	PID       string               `json:"pid"`
	Status    domain.PaymentStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
}

// PaymentProducer интерфейс для отправки событий платежей.
// PaymentSubmitted и PaymentResolved публикуют в фоне и не блокируют запрос.
type PaymentProducer interface {
	PublishPaymentSubmitted(ctx context.Context, pid string) error
	PublishPaymentResolved(ctx context.Context, pid string, status domain.PaymentStatus) error
	PaymentSubmitted(ctx context.Context, pid string)
	PaymentResolved(ctx context.Context, pid string, status domain.PaymentStatus)
	Close() error
}

type kafkaPaymentProducer struct {
	producer    sarama.SyncProducer
	topicPrefix string
	log         *logger.Logger
	wg          sync.WaitGroup
	now         func() time.Time
}

// NewKafkaPaymentProducer создает новый продюсер событий платежей
func NewKafkaPaymentProducer(producer sarama.SyncProducer, topicPrefix string, log *logger.Logger) PaymentProducer {
	return &kafkaPaymentProducer{
		producer:    producer,
		topicPrefix: topicPrefix,
		log:         log,
		now:         time.Now,
	}
}

// PublishPaymentSubmitted публикует событие о принятом бэкендом платеже
func (p *kafkaPaymentProducer) PublishPaymentSubmitted(ctx context.Context, pid string) error {
	return p.publishEvent(ctx, TopicPaymentSubmitted, PaymentEvent{PID: pid, Status: domain.PaymentStatusProcess})
}

// PublishPaymentResolved публикует событие о конечном статусе платежа
func (p *kafkaPaymentProducer) PublishPaymentResolved(ctx context.Context, pid string, status domain.PaymentStatus) error {
	return p.publishEvent(ctx, TopicPaymentResolved, PaymentEvent{PID: pid, Status: status})
}

func (p *kafkaPaymentProducer) PaymentSubmitted(ctx context.Context, pid string) {
	p.async(ctx, pid, func(ctx context.Context) error { return p.PublishPaymentSubmitted(ctx, pid) })
}

func (p *kafkaPaymentProducer) PaymentResolved(ctx context.Context, pid string, status domain.PaymentStatus) {
	p.async(ctx, pid, func(ctx context.Context) error { return p.PublishPaymentResolved(ctx, pid, status) })
}

// async публикует в горутине с контекстом, не зависящим от HTTP-запроса
func (p *kafkaPaymentProducer) async(ctx context.Context, pid string, publish func(context.Context) error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		kafkaCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := publish(kafkaCtx); err != nil {
			p.log.Errorw("Failed to publish payment event", "pid", pid, "error", err)
		}
	}()
}

// publishEvent публикует событие платежа в Kafka
func (p *kafkaPaymentProducer) publishEvent(ctx context.Context, topic string, event PaymentEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("kafka: publish cancelled: %w", err)
	}

	event.Timestamp = p.now()
	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}

	topic = p.topicPrefix + topic
	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.PID),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
		Timestamp: event.Timestamp,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish payment event: %w", err)
	}

	p.log.Infow("Published payment event", "topic", topic, "pid", event.PID, "partition", partition, "offset", offset)
	return nil
}

// Close дожидается фоновых публикаций и закрывает продюсер
func (p *kafkaPaymentProducer) Close() error {
	p.wg.Wait()
	return p.producer.Close()
}

// noopPaymentProducer используется, когда брокеры не настроены
type noopPaymentProducer struct {
	log *logger.Logger
}

// NewNoopPaymentProducer создает продюсер, который только пишет в лог
func NewNoopPaymentProducer(log *logger.Logger) PaymentProducer {
	return &noopPaymentProducer{log: log}
}

func (n *noopPaymentProducer) PublishPaymentSubmitted(_ context.Context, pid string) error {
	n.log.Debugw("Kafka disabled, skipping payment.submitted", "pid", pid)
	return nil
}

func (n *noopPaymentProducer) PublishPaymentResolved(_ context.Context, pid string, status domain.PaymentStatus) error {
	n.log.Debugw("Kafka disabled, skipping payment.resolved", "pid", pid, "status", status)
	return nil
}

func (n *noopPaymentProducer) PaymentSubmitted(ctx context.Context, pid string) {
	_ = n.PublishPaymentSubmitted(ctx, pid)
}

func (n *noopPaymentProducer) PaymentResolved(ctx context.Context, pid string, status domain.PaymentStatus) {
	_ = n.PublishPaymentResolved(ctx, pid, status)
}

func (n *noopPaymentProducer) Close() error {
	return nil
}
