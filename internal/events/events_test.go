package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_PublishAppointment(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "appointments"}

	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	appt := &model.Appointment{
		ID: "a1", TeacherID: "t1", StudentID: "s1",
		Day: model.Monday, Date: "2024-03-04", StartTime: "09:00", EndTime: "10:00",
		Status: model.AppointmentStatusApproved,
	}
	event := NewAppointmentEvent(TypeAppointmentStatusChanged, appt, model.AppointmentStatusPending, at)

	require.NoError(t, p.PublishAppointment(context.Background(), event))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, []byte("a1"), msg.Key)
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, []byte(TypeAppointmentStatusChanged), msg.Headers[0].Value)

	var decoded AppointmentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, model.AppointmentStatusApproved, decoded.Status)
	assert.Equal(t, model.AppointmentStatusPending, decoded.PrevStatus)
	assert.Equal(t, "t1", decoded.TeacherID)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}, topic: "appointments"}

	err := p.PublishAppointment(context.Background(), AppointmentEvent{AppointmentID: "a1"})
	assert.ErrorContains(t, err, "broker down")
}
