package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/repository/base"
	"github.com/Freeeeeet/campus_scheduler/internal/store"
)

const MessagesCollection = "messages"

type messageDocument struct {
	ID           string   `json:"id"`
	SenderID     string   `json:"senderId"`
	SenderName   string   `json:"senderName"`
	ReceiverID   string   `json:"receiverId"`
	Content      string   `json:"content"`
	Timestamp    string   `json:"timestamp"`
	Participants []string `json:"participants"`
}

func (d messageDocument) toMessage() (model.Message, error) {
	ts, err := store.ParseTimestamp(d.Timestamp)
	if err != nil {
		return model.Message{}, fmt.Errorf("message %s: parse timestamp: %w", d.ID, err)
	}
	return model.Message{
		ID:           d.ID,
		SenderID:     d.SenderID,
		SenderName:   d.SenderName,
		ReceiverID:   d.ReceiverID,
		Content:      d.Content,
		Timestamp:    ts,
		Participants: d.Participants,
	}, nil
}

type MessageRepository struct {
	*base.Repository
}

func NewMessageRepository(s store.Store) *MessageRepository {
	return &MessageRepository{Repository: base.NewRepository(s, MessagesCollection)}
}

func (r *MessageRepository) Create(ctx context.Context, m *model.Message) error {
	doc := messageDocument{
		ID:           m.ID,
		SenderID:     m.SenderID,
		SenderName:   m.SenderName,
		ReceiverID:   m.ReceiverID,
		Content:      m.Content,
		Timestamp:    store.Timestamp(m.Timestamp),
		Participants: m.Participants,
	}
	if err := r.Put(ctx, m.ID, doc); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func conversationQuery(a string) ([]store.Filter, []store.QueryOption) {
	return []store.Filter{store.ArrayContains("participants", a)}, []store.QueryOption{store.OrderBy("timestamp")}
}

// GetConversation сообщения пары a-b по возрастанию времени
func (r *MessageRepository) GetConversation(ctx context.Context, a, b string) ([]model.Message, error) {
	filters, opts := conversationQuery(a)
	docs, err := r.Query(ctx, filters, opts...)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	messages, err := decodeConversation(docs, a, b)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return messages, nil
}

// WatchConversation снимки переписки пары a-b при каждом изменении коллекции.
// Канал закрывается после stop или отмены ctx.
func (r *MessageRepository) WatchConversation(ctx context.Context, a, b string) (<-chan []model.Message, func(), error) {
	filters, opts := conversationQuery(a)
	sub, err := r.Listen(ctx, filters, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("watch conversation: %w", err)
	}

	out := make(chan []model.Message)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for docs := range sub.C() {
			messages, err := decodeConversation(docs, a, b)
			if err != nil {
				continue
			}
			select {
			case out <- messages:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			sub.Close()
		})
	}
	return out, stop, nil
}

func decodeConversation(docs []store.Document, a, b string) ([]model.Message, error) {
	decoded, err := base.DecodeAll[messageDocument](docs)
	if err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(decoded))
	for _, d := range decoded {
		m, err := d.toMessage()
		if err != nil {
			return nil, err
		}
		if m.Between(a, b) {
			messages = append(messages, m)
		}
	}
	return messages, nil
}
