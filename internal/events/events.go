// Package events публикация событий о записях на встречи для внешних потребителей.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/segmentio/kafka-go"
)

const (
	TypeAppointmentRequested     = "appointment.requested"
	TypeAppointmentStatusChanged = "appointment.status_changed"
)

type AppointmentEvent struct {
	Type          string                  `json:"type"`
	AppointmentID string                  `json:"appointment_id"`
	TeacherID     string                  `json:"teacher_id"`
	StudentID     string                  `json:"student_id"`
	Day           model.Weekday           `json:"day"`
	Date          string                  `json:"date"`
	StartTime     string                  `json:"start_time"`
	EndTime       string                  `json:"end_time"`
	Status        model.AppointmentStatus `json:"status"`
	PrevStatus    model.AppointmentStatus `json:"prev_status,omitempty"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

// NewAppointmentEvent снимок записи на момент события
func NewAppointmentEvent(eventType string, a *model.Appointment, prev model.AppointmentStatus, at time.Time) AppointmentEvent {
	return AppointmentEvent{
		Type:          eventType,
		AppointmentID: a.ID,
		TeacherID:     a.TeacherID,
		StudentID:     a.StudentID,
		Day:           a.Day,
		Date:          a.Date,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		Status:        a.Status,
		PrevStatus:    prev,
		OccurredAt:    at,
	}
}

type Publisher interface {
	PublishAppointment(ctx context.Context, event AppointmentEvent) error
}

// Nop используется, когда KAFKA_BROKERS не задан
type Nop struct{}

func (Nop) PublishAppointment(context.Context, AppointmentEvent) error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}

	return &KafkaPublisher{writer: writer, topic: topic}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// PublishAppointment ключ - id записи, чтобы события одной записи шли в одну партицию
func (p *KafkaPublisher) PublishAppointment(ctx context.Context, event AppointmentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal appointment event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.AppointmentID),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("send appointment event to %s: %w", p.topic, err)
	}
	return nil
}
