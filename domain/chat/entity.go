package chat

import (
	"time"

	user "github.com/example/roomiez/domain/user"
)

// Message represents a private message between two users. Content is
// immutable after creation; only the Read flag is ever updated.
type Message struct {
	ID         string     `gorm:"primarykey;size:36" json:"id"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	SenderID   string     `gorm:"size:36;index;not null" json:"sender_id"`
	ReceiverID string     `gorm:"size:36;index;not null" json:"receiver_id"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Read       bool       `gorm:"not null;default:false" json:"read"`
	Sender     *user.User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver   *user.User `gorm:"foreignKey:ReceiverID" json:"-"`
}

// TableName returns the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}

// View is a Message denormalized with sender/receiver display fields.
// Live delivery and history retrieval both produce Views carrying the
// same message ID, so consumers can dedupe by it.
type View struct {
	ID        string       `json:"id"`
	Sender    user.Summary `json:"sender"`
	Receiver  user.Summary `json:"receiver"`
	Content   string       `json:"content"`
	Read      bool         `json:"read"`
	CreatedAt time.Time    `json:"created_at"`
}

// ToView denormalizes the message. Sender/Receiver must be preloaded;
// a missing association degrades to a bare-ID summary rather than panicking.
func (m *Message) ToView() View {
	v := View{
		ID:        m.ID,
		Content:   m.Content,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
		Sender:    user.Summary{ID: m.SenderID},
		Receiver:  user.Summary{ID: m.ReceiverID},
	}
	if m.Sender != nil {
		v.Sender = m.Sender.Summarize()
	}
	if m.Receiver != nil {
		v.Receiver = m.Receiver.Summarize()
	}
	return v
}
