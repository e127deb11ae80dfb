package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/example/roomiez/domain/chat"
)

// MaxMessageLength caps the content of a single message.
const MaxMessageLength = 5000

var (
	// ErrMessageTooLong is returned when content exceeds MaxMessageLength.
	ErrMessageTooLong = errors.New("message exceeds maximum length")
	// ErrNotFriends is returned when friendship validation on send is
	// enabled and the pair are not friends.
	ErrNotFriends = errors.New("users are not friends")
)

// FriendshipChecker answers whether two users are friends. The roommate
// service satisfies it.
type FriendshipChecker interface {
	AreFriends(ctx context.Context, a, b string) (bool, error)
}

// Service implements the message relay core: validate, persist, and hand
// the denormalized message back for delivery and echo.
type Service struct {
	repo           *MessageRepository
	friends        FriendshipChecker
	validateOnSend bool
}

// NewService creates a new chat service. When validateOnSend is true,
// live sends between non-friends are rejected; the default (false)
// matches the reference behavior of validating friendship only on
// history access.
func NewService(repo *MessageRepository, friends FriendshipChecker, validateOnSend bool) *Service {
	return &Service{
		repo:           repo,
		friends:        friends,
		validateOnSend: validateOnSend,
	}
}

// Send validates and persists an outbound message and returns its
// denormalized view, ready for live delivery and the sender echo.
//
// Empty or whitespace-only content is silently dropped: the returned
// view and error are both nil, and nothing is persisted or emitted.
func (s *Service) Send(ctx context.Context, senderID, receiverID, content string) (*domain.View, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}
	if len(content) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	if s.validateOnSend {
		ok, err := s.friends.AreFriends(ctx, senderID, receiverID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFriends
		}
	}

	// Server-assigned identity and timestamp; client-supplied values are
	// never trusted.
	msg := &domain.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Read:       false,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Insert(msg); err != nil {
		return nil, err
	}

	stored, err := s.repo.FindByID(msg.ID)
	if err != nil {
		// Persisted but not re-readable; fall back to the bare record so
		// the echo still carries the stored identity.
		view := msg.ToView()
		return &view, nil
	}
	view := stored.ToView()
	return &view, nil
}

// MarkRead flips every unread message from the other party to the reader
// to read. Bulk and idempotent; emits nothing to the original sender.
func (s *Service) MarkRead(_ context.Context, readerID, otherPartyID string) error {
	return s.repo.BulkMarkRead(otherPartyID, readerID)
}

// Conversation returns the full history between two users, both
// directions, oldest first, denormalized for display.
func (s *Service) Conversation(_ context.Context, userA, userB string) ([]domain.View, error) {
	msgs, err := s.repo.FindConversation(userA, userB)
	if err != nil {
		return nil, err
	}
	views := make([]domain.View, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, m.ToView())
	}
	return views, nil
}

// UnreadCount returns how many unread messages otherPartyID has sent to
// readerID.
func (s *Service) UnreadCount(_ context.Context, readerID, otherPartyID string) (int64, error) {
	return s.repo.CountUnread(otherPartyID, readerID)
}
