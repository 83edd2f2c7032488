package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/bom-forecast-etl/internal/config"
	"github.com/couchcryptid/bom-forecast-etl/internal/domain"
)

// Publisher re-publishes saved excerpts to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured topic. Messages are
// keyed by profile so each profile's excerpts stay ordered on one partition.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes one excerpt message.
func (p *Publisher) Publish(ctx context.Context, ex domain.Excerpt) error {
	msg, err := serializeToMessage(ex)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish excerpt: %w", err)
	}
	p.logger.Debug("excerpt published", "topic", p.writer.Topic, "profile", ex.Profile)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// excerptMessage is the wire form of a published excerpt.
type excerptMessage struct {
	Profile     string     `json:"profile"`
	Area        string     `json:"area"`
	Text        string     `json:"text"`
	IssuedAt    *time.Time `json:"issued_at,omitempty"`
	ExtractedAt time.Time  `json:"extracted_at"`
}

// serializeToMessage marshals an Excerpt into a Kafka message.
func serializeToMessage(ex domain.Excerpt) (kafkago.Message, error) {
	body := excerptMessage{
		Profile:     ex.Profile,
		Area:        ex.Area,
		Text:        ex.Text,
		ExtractedAt: ex.ExtractedAt,
	}
	if !ex.IssuedAt.IsZero() {
		issued := ex.IssuedAt
		body.IssuedAt = &issued
	}

	data, err := json.Marshal(body)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize excerpt: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ex.Profile),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "profile", Value: []byte(ex.Profile)},
			{Key: "extracted_at", Value: []byte(ex.ExtractedAt.Format(time.RFC3339))},
		},
	}, nil
}
