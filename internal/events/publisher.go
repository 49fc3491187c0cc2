package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/smarttransit/bus-booking-backend/internal/models"
)

// Booking lifecycle event types
const (
	TypeBookingCreated   = "booking.created"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCompleted = "booking.completed"
)

// BookingEvent is published after a lifecycle change has committed
type BookingEvent struct {
	Type          string               `json:"type"`
	BookingID     string               `json:"booking_id"`
	UserID        string               `json:"user_id"`
	BusID         string               `json:"bus_id"`
	Passengers    int                  `json:"passengers"`
	SeatNumbers   []string             `json:"seat_numbers"`
	TotalPrice    float64              `json:"total_price"`
	Status        models.BookingStatus `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// NewBookingEvent snapshots a booking into an event
func NewBookingEvent(eventType string, b *models.Booking) BookingEvent {
	return BookingEvent{
		Type:          eventType,
		BookingID:     b.BookingID,
		UserID:        b.UserID,
		BusID:         b.BusID,
		Passengers:    b.Passengers,
		SeatNumbers:   b.SeatNumbers,
		TotalPrice:    b.TotalPrice,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		OccurredAt:    time.Now().UTC(),
	}
}

// messageWriter is the part of kafka.Writer the publisher uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes booking events to a single topic keyed by bus id,
// so every event for one bus lands on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a synchronous writer for topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish encodes the event as JSON and writes it
func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.BusID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events when no broker is configured
type NoopPublisher struct{}

// Publish implements the publisher contract and does nothing
func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }

// Close implements io.Closer
func (NoopPublisher) Close() error { return nil }
