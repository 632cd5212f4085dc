package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AlertMessage is the payload published for downstream SMS/email senders.
type AlertMessage struct {
	DeliveryID string    `json:"delivery_id"`
	Contact    string    `json:"contact"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// KafkaTransport hands alerts to a topic. A successful write means the
// broker accepted the alert, which is all the dispatcher needs to throttle.
type KafkaTransport struct {
	writer messageWriter
	mu     sync.Mutex
	closed bool
}

func NewKafkaTransport(brokers []string, topic string) (*KafkaTransport, error) {
	if len(brokers) == 0 {
		return nil, ErrInvalidBrokers
	}
	if topic == "" {
		return nil, ErrInvalidTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		// Attempts times timeout stays inside throttle.SendBudget.
		MaxAttempts:  2,
		WriteTimeout: 4 * time.Second,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &KafkaTransport{writer: writer}, nil
}

func (t *KafkaTransport) SendAlert(ctx context.Context, contact, body string) (string, error) {
	if contact == "" {
		return "", ErrEmptyContact
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return "", ErrTransportClosed
	}
	t.mu.Unlock()

	msg := AlertMessage{
		DeliveryID: uuid.NewString(),
		Contact:    contact,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	// Keyed by contact so one owner's alerts stay ordered on a partition.
	if err := t.writer.WriteMessages(ctx, kafka.Message{Key: []byte(contact), Value: data}); err != nil {
		return "", fmt.Errorf("failed to publish alert: %w", err)
	}

	log.Printf("Sent alert to Kafka: %s", msg.DeliveryID)
	return msg.DeliveryID, nil
}

func (t *KafkaTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true
	return t.writer.Close()
}
