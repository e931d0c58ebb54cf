package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/notify"
	"github.com/Freeeeeet/campus_scheduler/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxMessageLength = 2000

type MessageService struct {
	users    *repository.UserRepository
	messages *repository.MessageRepository
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewMessageService(
	users *repository.UserRepository,
	messages *repository.MessageRepository,
	notifier notify.Notifier,
	logger *zap.Logger,
) *MessageService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &MessageService{
		users:    users,
		messages: messages,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Send переписка только между учителем и студентом
func (s *MessageService) Send(ctx context.Context, actor model.Actor, receiverID, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, model.NewValidationError("content", "this field cannot be blank")
	}
	if len(content) > MaxMessageLength {
		return nil, model.NewValidationError("content", fmt.Sprintf("must be at most %d characters", MaxMessageLength))
	}

	receiver, err := s.counterpart(ctx, actor, receiverID)
	if err != nil {
		return nil, err
	}

	message := &model.Message{
		ID:           uuid.NewString(),
		SenderID:     actor.ID,
		SenderName:   actor.Name,
		ReceiverID:   receiver.ID,
		Content:      content,
		Timestamp:    s.now().UTC(),
		Participants: []string{actor.ID, receiver.ID},
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	s.logger.Info("Message sent",
		zap.String("message_id", message.ID),
		zap.String("sender_id", actor.ID),
		zap.String("receiver_id", receiver.ID))

	if err := s.notifier.Notify(ctx, receiver, notify.MessageReceivedText(message)); err != nil {
		s.logger.Warn("Failed to send message notification", zap.String("receiver_id", receiver.ID), zap.Error(err))
	}
	return message, nil
}

// Conversation сообщения пары по возрастанию времени
func (s *MessageService) Conversation(ctx context.Context, actor model.Actor, otherID string) ([]model.Message, error) {
	if _, err := s.counterpart(ctx, actor, otherID); err != nil {
		return nil, err
	}
	return s.messages.GetConversation(ctx, actor.ID, otherID)
}

// counterpart собеседник: существует, противоположной роли, одобренный учитель
func (s *MessageService) counterpart(ctx context.Context, actor model.Actor, otherID string) (*model.Account, error) {
	var want model.Role
	switch actor.Role {
	case model.RoleTeacher:
		want = model.RoleStudent
	case model.RoleStudent:
		want = model.RoleTeacher
	default:
		return nil, fmt.Errorf("messaging as %s: %w", actor.Role, model.ErrPermission)
	}
	if otherID == actor.ID {
		return nil, model.NewValidationError("receiverId", "cannot message yourself")
	}

	other, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, fmt.Errorf("user %s: %w", otherID, model.ErrNotFound)
	}
	if other.Role != want {
		return nil, fmt.Errorf("message %s %s: %w", other.Role, otherID, model.ErrPermission)
	}
	if other.Role == model.RoleTeacher && !other.IsApproved() {
		return nil, fmt.Errorf("teacher %s is not approved: %w", otherID, model.ErrPermission)
	}
	return other, nil
}

// MessageStream сообщения переписки по одному: сначала история, затем новые
type MessageStream struct {
	ch   chan model.Message
	stop func()
	once sync.Once
}

func (m *MessageStream) C() <-chan model.Message {
	return m.ch
}

func (m *MessageStream) Close() {
	m.once.Do(m.stop)
}

// Subscribe живой поток сообщений пары; закрывается по Close или отмене ctx
func (s *MessageService) Subscribe(ctx context.Context, actor model.Actor, otherID string) (*MessageStream, error) {
	if _, err := s.counterpart(ctx, actor, otherID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	snapshots, stopWatch, err := s.messages.WatchConversation(ctx, actor.ID, otherID)
	if err != nil {
		cancel()
		return nil, err
	}

	stream := &MessageStream{
		ch: make(chan model.Message),
		stop: func() {
			cancel()
			stopWatch()
		},
	}

	go func() {
		defer close(stream.ch)
		seen := make(map[string]struct{})
		for snapshot := range snapshots {
			for _, m := range snapshot {
				if _, ok := seen[m.ID]; ok {
					continue
				}
				seen[m.ID] = struct{}{}
				select {
				case stream.ch <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return stream, nil
}
