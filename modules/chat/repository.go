package chat

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/example/roomiez/domain/chat"
)

// ErrMessageNotFound is returned when a message is not found.
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository handles message persistence using GORM.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert persists a new message.
func (r *MessageRepository) Insert(msg *domain.Message) error {
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// FindByID retrieves a message by ID with sender and receiver preloaded.
func (r *MessageRepository) FindByID(id string) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.Preload("Sender").Preload("Receiver").
		First(&msg, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return &msg, nil
}

// FindConversation returns every message between the two users in either
// direction, ordered by creation time ascending. The id tiebreak keeps
// the order stable when timestamps collide.
func (r *MessageRepository) FindConversation(userA, userB string) ([]*domain.Message, error) {
	var msgs []*domain.Message
	err := r.db.Preload("Sender").Preload("Receiver").
		Where(
			r.db.Where("sender_id = ? AND receiver_id = ?", userA, userB).
				Or("sender_id = ? AND receiver_id = ?", userB, userA),
		).
		Order("created_at, id").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return msgs, nil
}

// BulkMarkRead flips every unread message from sender to receiver to
// read. Idempotent: a second call matches no rows and is a no-op.
func (r *MessageRepository) BulkMarkRead(senderID, receiverID string) error {
	err := r.db.Model(&domain.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", senderID, receiverID, false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// CountUnread returns the number of unread messages from sender to
// receiver, used by clients to badge conversations.
func (r *MessageRepository) CountUnread(senderID, receiverID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", senderID, receiverID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
