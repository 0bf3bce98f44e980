// Package notify carries change notifications between the ingestion
// pipeline and the components that refresh views of the order collection.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SubjectIngested is published after a batch of orders has been written.
const SubjectIngested = "orders.ingested"

// Message is a received notification.
type Message struct {
	Subject string
	Data    []byte
}

// Publisher publishes notifications.
type Publisher interface {
	// Publish sends data on subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close releases resources.
	Close() error
}

// Subscriber receives notifications.
type Subscriber interface {
	// Subscribe delivers every message whose subject matches pattern
	// ("*" matches one token, ">" one or more trailing tokens). The channel
	// is closed when ctx is done or the subscriber shuts down.
	Subscribe(ctx context.Context, pattern string) (<-chan Message, error)
}

// Broker publishes and subscribes.
type Broker interface {
	Publisher
	Subscriber
}

// IngestedEvent describes one written batch.
type IngestedEvent struct {
	BatchID     string    `json:"batchId"`
	Accepted    int       `json:"accepted"`
	Skipped     int       `json:"skipped"`
	Fingerprint string    `json:"fingerprint"`
	Source      string    `json:"source,omitempty"`
	At          time.Time `json:"at"`
}

// PublishIngested encodes evt and publishes it on SubjectIngested.
func PublishIngested(ctx context.Context, p Publisher, evt IngestedEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode ingested event: %w", err)
	}
	return p.Publish(ctx, SubjectIngested, data)
}

// DecodeIngested decodes an IngestedEvent payload.
func DecodeIngested(data []byte) (IngestedEvent, error) {
	var evt IngestedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return IngestedEvent{}, fmt.Errorf("decode ingested event: %w", err)
	}
	return evt, nil
}
