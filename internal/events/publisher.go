// Package events publishes booking and moderation lifecycle events for
// downstream consumers (notifications, analytics). Publishing is best-effort:
// a failed publish is logged and never fails the originating request.
package events

import (
	"context"
	"time"

	"staybook/pkg/kafka"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

const (
	TypeBookingCreated        = "booking.created"
	TypeBookingStatusChanged  = "booking.status_changed"
	TypePropertyStatusChanged = "property.status_changed"

	schemaVersion = "1"
)

type Publisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingStatusChanged(ctx context.Context, booking *model.Booking)
	PropertyStatusChanged(ctx context.Context, property *model.Property)
	Close() error
}

type BookingEvent struct {
	BookingID  string    `json:"booking_id"`
	PropertyID string    `json:"property_id"`
	UserID     string    `json:"user_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Status     string    `json:"status"`
}

type PropertyEvent struct {
	PropertyID string `json:"property_id"`
	HostID     string `json:"host_id"`
	Status     string `json:"status"`
}

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, source string, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (p *kafkaPublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, TypeBookingCreated, booking.ID, bookingEvent(booking))
}

func (p *kafkaPublisher) BookingStatusChanged(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, TypeBookingStatusChanged, booking.ID, bookingEvent(booking))
}

func (p *kafkaPublisher) PropertyStatusChanged(ctx context.Context, property *model.Property) {
	p.publish(ctx, TypePropertyStatusChanged, property.ID, PropertyEvent{
		PropertyID: property.ID,
		HostID:     property.HostID,
		Status:     property.Status,
	})
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType, key string, payload any) {
	msg := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSchemaVersion(schemaVersion).
		WithSource(p.source).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish event",
			"event_type", eventType,
			"key", key,
			"error", err,
		)
	}
}

func bookingEvent(b *model.Booking) BookingEvent {
	return BookingEvent{
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		UserID:     b.UserID,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		Status:     b.Status,
	}
}

type noopPublisher struct{}

// NewNoop returns a publisher used when no brokers are configured.
func NewNoop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) BookingCreated(context.Context, *model.Booking)         {}
func (noopPublisher) BookingStatusChanged(context.Context, *model.Booking)   {}
func (noopPublisher) PropertyStatusChanged(context.Context, *model.Property) {}
func (noopPublisher) Close() error                                           { return nil }
