package notify

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// LogTransport writes alerts to the process log. Used for local runs and
// deployments without an alert topic.
type LogTransport struct{}

func NewLogTransport() *LogTransport {
	return &LogTransport{}
}

func (LogTransport) SendAlert(_ context.Context, contact, body string) (string, error) {
	if contact == "" {
		return "", ErrEmptyContact
	}

	id := uuid.NewString()
	log.Printf("📣 Alert %s for %s:\n%s", id, contact, body)
	return id, nil
}

func (LogTransport) Close() error { return nil }
