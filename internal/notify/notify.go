// Package notify уведомления пользователям о записях и сообщениях.
package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
)

type Notifier interface {
	Notify(ctx context.Context, recipient *model.Account, text string) error
}

type Nop struct{}

func (Nop) Notify(context.Context, *model.Account, string) error { return nil }

// AppointmentRequestedText уведомление учителю о новом запросе
func AppointmentRequestedText(a *model.Appointment) string {
	text := fmt.Sprintf(
		"⏳ <b>New appointment request</b>\n\n"+
			"👤 Student: %s\n"+
			"📅 Date: %s (%s)\n"+
			"🕐 Time: %s - %s",
		escape(a.StudentName), a.Date, a.Day, a.StartTime, a.EndTime,
	)
	if a.Message != "" {
		text += "\n💬 " + escape(a.Message)
	}
	return text
}

// AppointmentStatusText уведомление студенту о решении учителя
func AppointmentStatusText(a *model.Appointment) string {
	header := "✅ <b>Appointment approved</b>"
	if a.Status == model.AppointmentStatusRejected {
		header = "❌ <b>Appointment rejected</b>"
	}
	return fmt.Sprintf(
		"%s\n\n"+
			"👨‍🏫 Teacher: %s\n"+
			"📅 Date: %s (%s)\n"+
			"🕐 Time: %s - %s",
		header, escape(a.TeacherName), a.Date, a.Day, a.StartTime, a.EndTime,
	)
}

func MessageReceivedText(m *model.Message) string {
	return fmt.Sprintf("✉️ <b>New message from %s</b>\n\n%s", escape(m.SenderName), escape(m.Content))
}
