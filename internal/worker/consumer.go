// Package worker feeds message pairs from a Kafka topic into the pipeline.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/processor"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type MessageProcessor interface {
	ProcessMessage(ctx context.Context, msg processor.Message) (*processor.Result, error)
}

type Stats struct {
	Processed int64 `json:"processed"`
	Skipped   int64 `json:"skipped"`
}

// Consumer commits each offset only after its message was handled. Payloads
// that can never be processed are logged and committed so they do not block
// the partition.
type Consumer struct {
	reader    messageReader
	processor MessageProcessor

	processed atomic.Int64
	skipped   atomic.Int64
}

func NewConsumer(brokers []string, topic, groupID string, proc MessageProcessor) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, ErrInvalidBrokers
	}
	if topic == "" {
		return nil, ErrInvalidTopic
	}
	if groupID == "" {
		return nil, ErrInvalidGroup
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: 0,
	})

	return newConsumer(reader, proc), nil
}

func newConsumer(reader messageReader, proc MessageProcessor) *Consumer {
	return &Consumer{reader: reader, processor: proc}
}

// Run consumes until ctx is cancelled. A cancelled context is a clean stop.
func (c *Consumer) Run(ctx context.Context) error {
	log.Println("📥 Worker consuming inbound messages")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		c.handle(ctx, m)

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to commit offset %d: %w", m.Offset, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	var msg processor.Message
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		c.skipped.Add(1)
		log.Printf("⚠️ Skipping malformed message at %s/%d@%d: %v", m.Topic, m.Partition, m.Offset, err)
		return
	}

	// Producers may key by tenant instead of repeating it in the payload.
	if msg.TenantID == "" {
		msg.TenantID = string(m.Key)
	}

	result, err := c.processor.ProcessMessage(ctx, msg)
	if err != nil {
		c.skipped.Add(1)
		log.Printf("⚠️ Skipping invalid message at %s/%d@%d: %v", m.Topic, m.Partition, m.Offset, err)
		return
	}

	c.processed.Add(1)
	if result.LeadScore != nil && result.LeadScore.IsHot {
		log.Printf("🔥 Hot lead for tenant %s (score %d, alert %s)", msg.TenantID, result.LeadScore.Score, result.Alert.Status)
	}
}

func (c *Consumer) Stats() Stats {
	return Stats{
		Processed: c.processed.Load(),
		Skipped:   c.skipped.Load(),
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
