// Package messaging publica los movimientos confirmados del ledger en Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

var _ inventory.MovementPublisher = (*KafkaPublisher)(nil)

// MovementEvent payload JSON de cada mensaje. Los ids de tienda ausentes viajan como null.
type MovementEvent struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	SourceStoreID *string   `json:"source_store_id"`
	TargetStoreID *string   `json:"target_store_id"`
	Quantity      int       `json:"quantity"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
}

// messageWriter lo que se usa de *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher escribe un mensaje por movimiento, con clave product_id para
// conservar el orden por producto dentro de una partición.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher crea el writer contra los brokers dados.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, topic)
}

func newKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Publish serializa el movimiento y lo escribe propagando el contexto de traza en los headers.
func (p *KafkaPublisher) Publish(ctx context.Context, m *entity.Movement) error {
	payload, err := json.Marshal(MovementEvent{
		ID:            m.ID,
		ProductID:     m.ProductID,
		SourceStoreID: optional(m.SourceStoreID),
		TargetStoreID: optional(m.TargetStoreID),
		Quantity:      m.Quantity,
		Type:          m.Type,
		Timestamp:     m.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("serializar movimiento %s: %w", m.ID, err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafka.Header, 0, len(carrier)+1)
	headers = append(headers, kafka.Header{Key: "type", Value: []byte(m.Type)})
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(m.ProductID),
		Value:   payload,
		Headers: headers,
		Time:    m.Timestamp,
	}); err != nil {
		return fmt.Errorf("publicar movimiento %s en %s: %w", m.ID, p.topic, err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
