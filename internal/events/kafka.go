package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher публикует события в топик Kafka. Ключом сообщения служит номер заказа,
// поэтому события одного заказа попадают в одну партицию и сохраняют порядок.
type KafkaPublisher struct {
	brokers []string
	writer  *kafka.Writer
}

// ParseBrokers разбирает список брокеров, разделённых запятыми.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// NewKafkaPublisher создаёт публикатор для указанных брокеров и топика.
func NewKafkaPublisher(brokersCSV, topic string) (*KafkaPublisher, error) {
	brokers := ParseBrokers(brokersCSV)
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}

	return &KafkaPublisher{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Publish отправляет событие и дожидается подтверждения брокера.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	data, err := e.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID),
		Value: data,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close закрывает writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
