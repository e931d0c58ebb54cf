package model

import "time"

// Message личное сообщение между учителем и студентом; не изменяется после создания
type Message struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"senderId"`
	SenderName   string    `json:"senderName"`
	ReceiverID   string    `json:"receiverId"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	Participants []string  `json:"participants"`
}

// Between принадлежит ли сообщение переписке пары a и b
func (m *Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}
