package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Samrat740/sleep-apnea-screening/internal/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TypeRiskAssessed = "risk.assessed"
	TypeECGAnalyzed  = "ecg.analyzed"
)

// Event обезличенное событие скрининга, без анкеты и без сырых отсчётов.
// Заполнен ровно один из Risk и ECG, по типу события.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`

	Risk *RiskDetails `json:"risk,omitempty"`
	ECG  *ECGDetails  `json:"ecg,omitempty"`
}

type RiskDetails struct {
	Score int              `json:"score"`
	Level domain.RiskLevel `json:"level"`
	BMI   float64          `json:"bmi"`
}

type ECGDetails struct {
	Samples     int     `json:"samples"`
	SkippedRows int     `json:"skipped_rows"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

func RiskAssessed(sessionID string, result domain.RiskResult) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypeRiskAssessed,
		SessionID:  sessionID,
		OccurredAt: time.Now().UTC(),
		Risk: &RiskDetails{
			Score: result.Score,
			Level: result.Level,
			BMI:   result.BMI,
		},
	}
}

func ECGAnalyzed(sessionID string, analysis domain.EcgAnalysis) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypeECGAnalyzed,
		SessionID:  sessionID,
		OccurredAt: time.Now().UTC(),
		ECG: &ECGDetails{
			Samples:     len(analysis.Series),
			SkippedRows: analysis.SkippedRows,
			Label:       analysis.Prediction.Label,
			Probability: analysis.Prediction.Probability,
		},
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }

func (NopPublisher) Close() error { return nil }

// BatchTimeout писателя: события идут по одному, ждать наполнения пачки незачем
const batchTimeout = 10 * time.Millisecond

// KafkaPublisher пишет события в один топик, ключ сообщения - id сессии
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           batchTimeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: b,
		Time:  event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event %s: %w", event.Type, err)
	}

	p.logger.Debug("[EventPublisher] event published",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
