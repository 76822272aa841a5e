package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-station-etl/internal/config"
	"github.com/couchcryptid/climate-station-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// batchSize caps the messages handed to a single WriteMessages call.
const batchSize = 500

// Observation is the JSON payload of one grid row.
type Observation struct {
	Station   string         `json:"station"`
	Kind      string         `json:"kind"`
	Label     string         `json:"label"`
	Timestamp string         `json:"timestamp"`
	Values    map[string]any `json:"values"`
}

// Publisher produces one message per grid row to a Kafka topic.
// It implements pipeline.Sink.
type Publisher struct {
	writer *kafkago.Writer
	topic  string
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, topic: cfg.KafkaTopic, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (p *Publisher) Name() string { return "kafka" }

// Write publishes every row of the artifact grid and returns the topic URI.
func (p *Publisher) Write(ctx context.Context, a domain.Artifact) (string, error) {
	msgs, err := buildMessages(a)
	if err != nil {
		return "", err
	}
	for start := 0; start < len(msgs); start += batchSize {
		end := min(start+batchSize, len(msgs))
		if err := p.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return "", fmt.Errorf("publish rows %d-%d: %w", start+1, end, err)
		}
	}
	p.logger.Debug("grid published", "topic", p.topic, "messages", len(msgs))
	return "kafka://" + p.topic, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// buildMessages serializes each grid row, keyed by station so rows of one
// station stay on one partition in order.
func buildMessages(a domain.Artifact) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, a.Grid.Len())
	for i, at := range a.Grid.Index {
		obs := Observation{
			Station:   a.Station,
			Kind:      string(a.Kind),
			Label:     a.Label,
			Timestamp: a.Grid.Step.Format(at),
			Values:    make(map[string]any, len(a.Grid.Columns)),
		}
		for j, c := range a.Grid.Columns {
			obs.Values[c.Name] = a.Grid.Rows[i][j].Any()
		}
		data, err := json.Marshal(obs)
		if err != nil {
			return nil, fmt.Errorf("serialize observation: %w", err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(a.Station),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "kind", Value: []byte(a.Kind)},
				{Key: "step", Value: []byte(a.Grid.Step.String())},
			},
		})
	}
	return msgs, nil
}
