package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventType = "booking.notification"

// Writer is satisfied by *kafka.Writer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Event struct {
	EventID   string                 `json:"eventId"`
	UserID    string                 `json:"userId"`
	BookingID string                 `json:"bookingId,omitempty"`
	Kind      model.NotificationKind `json:"type"`
	Message   string                 `json:"message"`
	At        time.Time              `json:"at"`
}

// Kafka publishes every notification as an event keyed by booking id.
type Kafka struct {
	writer Writer
	topic  string
	now    func() time.Time
	logger *zap.Logger
}

// The writer must not have its own Topic set; kafka-go rejects messages that
// name a topic on a writer that also has one.
func NewKafka(writer Writer, topic string, logger *zap.Logger) *Kafka {
	return &Kafka{writer: writer, topic: topic, now: time.Now, logger: logger}
}

func (k *Kafka) Notify(ctx context.Context, n model.Notification) {
	ev := Event{
		EventID:   uuid.NewString(),
		UserID:    n.UserID,
		BookingID: n.BookingID,
		Kind:      n.Kind,
		Message:   n.Message,
		At:        k.now().UTC(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		k.logger.Warn("Failed to encode notification event", zap.Error(err))
		return
	}

	key := n.BookingID
	if key == "" {
		key = n.UserID
	}
	msg := kafka.Message{
		Topic: k.topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.EventID)},
			{Key: "event_type", Value: []byte(EventType)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.logger.Warn("Failed to publish notification event",
			zap.String("event_id", ev.EventID),
			zap.String("booking_id", n.BookingID),
			zap.Error(err),
		)
	}
}

// SplitBrokers parses a comma separated broker list.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
