package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"farm-photos-backend/internal/models"
)

// Event is the moderation feed payload. Consumers (email digests, search
// index pings) live outside this service.
type Event struct {
	Event      string    `json:"event"`
	PhotoID    string    `json:"photo_id"`
	FarmID     string    `json:"farm_id"`
	DisplayURL string    `json:"display_url,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher writes moderation events to Kafka, fire and forget.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(broker, topic string) *Publisher {
	return &Publisher{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:      []string{broker},
			Topic:        topic,
			BatchTimeout: 50 * time.Millisecond,
		}),
	}
}

func (p *Publisher) PhotoLive(ctx context.Context, photo *models.Photo) error {
	payload, err := json.Marshal(Event{
		Event:      "photo_live",
		PhotoID:    photo.ID.String(),
		FarmID:     photo.FarmID,
		DisplayURL: photo.DisplayURL,
		At:         time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Keyed by farm so per-farm event order is preserved.
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(photo.FarmID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
