package roommate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/example/roomiez/domain/user"
)

var (
	// ErrSelfRequest is returned when a user targets themselves.
	ErrSelfRequest = errors.New("cannot send a friend request to yourself")
	// ErrAlreadyFriends is returned when the users are already friends.
	ErrAlreadyFriends = errors.New("users are already friends")
	// ErrRequestExists is returned when a pending request already exists
	// between the two users in either direction.
	ErrRequestExists = errors.New("a pending friend request already exists")
	// ErrNotFriends is returned when an operation requires friendship.
	ErrNotFriends = errors.New("users are not friends")
)

// Service implements profile management, roommate search, and the
// friend-request workflow.
type Service struct {
	repo *Repository
}

// NewService creates a new roommate service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// GetProfile returns the user's own profile with friends summarized.
func (s *Service) GetProfile(_ context.Context, userID string) (*Profile, error) {
	user, err := s.repo.FindByID(userID, true)
	if err != nil {
		return nil, err
	}
	p := profileOf(user)
	return &p, nil
}

// UpdateProfile applies a partial update to the user's profile and
// preference fields.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*Profile, error) {
	updates := map[string]any{}

	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if name == "" || len(name) > 50 {
			return nil, fmt.Errorf("username must be 1-50 characters")
		}
		updates["username"] = name
	}
	if upd.Bio != nil {
		updates["bio"] = *upd.Bio
	}
	if upd.College != nil {
		updates["college"] = *upd.College
	}
	if upd.ProfilePic != nil {
		updates["profile_pic"] = *upd.ProfilePic
	}
	if upd.Public != nil {
		updates["public"] = *upd.Public
	}
	if upd.Preferences != nil {
		if upd.Preferences.Budget != nil {
			updates["pref_budget"] = *upd.Preferences.Budget
		}
		if upd.Preferences.Location != nil {
			updates["pref_location"] = *upd.Preferences.Location
		}
		if upd.Preferences.Gender != nil {
			updates["pref_gender"] = *upd.Preferences.Gender
		}
		if upd.Preferences.RoomType != nil {
			updates["pref_room_type"] = *upd.Preferences.RoomType
		}
	}

	if len(updates) == 0 {
		return s.GetProfile(ctx, userID)
	}
	updates["updated_at"] = time.Now()

	if _, err := s.repo.UpdateProfile(userID, updates); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// Search returns public profiles matching the filter.
func (s *Service) Search(_ context.Context, filter SearchFilter, selfID string) ([]SearchResult, error) {
	users, err := s.repo.Search(filter, selfID)
	if err != nil {
		return nil, err
	}
	results := make([]SearchResult, 0, len(users))
	for _, u := range users {
		results = append(results, searchResultOf(u))
	}
	return results, nil
}

// SendRequest creates a pending friend request from one user to another.
func (s *Service) SendRequest(_ context.Context, fromID, toID string) (*domain.FriendRequest, error) {
	if fromID == toID {
		return nil, ErrSelfRequest
	}

	// Target must exist
	if _, err := s.repo.FindByID(toID, false); err != nil {
		return nil, err
	}

	friends, err := s.repo.AreFriends(fromID, toID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	exists, err := s.repo.PendingRequestExists(fromID, toID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrRequestExists
	}

	req := &domain.FriendRequest{
		ID:         uuid.New().String(),
		FromUserID: fromID,
		ToUserID:   toID,
		Status:     domain.RequestPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := s.repo.CreateRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// AcceptRequest accepts a pending request addressed to userID and
// establishes the symmetric friendship.
func (s *Service) AcceptRequest(_ context.Context, userID, fromID string) error {
	req, err := s.repo.FindPendingRequest(fromID, userID)
	if err != nil {
		return err
	}

	if err := s.repo.AddFriendship(userID, fromID); err != nil {
		return err
	}
	return s.repo.ResolveRequest(req.ID, domain.RequestAccepted)
}

// RejectRequest rejects a pending request addressed to userID. The row
// is resolved, not deleted; the sender may try again later.
func (s *Service) RejectRequest(_ context.Context, userID, fromID string) error {
	req, err := s.repo.FindPendingRequest(fromID, userID)
	if err != nil {
		return err
	}
	return s.repo.ResolveRequest(req.ID, domain.RequestRejected)
}

// CancelRequest withdraws a pending request userID previously sent.
func (s *Service) CancelRequest(_ context.Context, userID, toID string) error {
	req, err := s.repo.FindPendingRequest(userID, toID)
	if err != nil {
		return err
	}
	return s.repo.DeleteRequest(req.ID)
}

// RemoveFriend dissolves an existing friendship symmetrically.
func (s *Service) RemoveFriend(_ context.Context, userID, friendID string) error {
	friends, err := s.repo.AreFriends(userID, friendID)
	if err != nil {
		return err
	}
	if !friends {
		return ErrNotFriends
	}
	return s.repo.RemoveFriendship(userID, friendID)
}

// ListFriends returns the user's friends as display summaries.
func (s *Service) ListFriends(_ context.Context, userID string) ([]domain.Summary, error) {
	friends, err := s.repo.ListFriends(userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Summary, 0, len(friends))
	for _, f := range friends {
		out = append(out, f.Summarize())
	}
	return out, nil
}

// ListRequests returns the user's pending requests, incoming and outgoing.
func (s *Service) ListRequests(_ context.Context, userID string) (incoming, outgoing []RequestView, err error) {
	in, err := s.repo.ListIncomingRequests(userID)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.repo.ListOutgoingRequests(userID)
	if err != nil {
		return nil, nil, err
	}

	incoming = make([]RequestView, 0, len(in))
	for _, r := range in {
		v := RequestView{ID: r.ID, CreatedAt: r.CreatedAt, User: domain.Summary{ID: r.FromUserID}}
		if r.From != nil {
			v.User = r.From.Summarize()
		}
		incoming = append(incoming, v)
	}
	outgoing = make([]RequestView, 0, len(out))
	for _, r := range out {
		v := RequestView{ID: r.ID, CreatedAt: r.CreatedAt, User: domain.Summary{ID: r.ToUserID}}
		if r.To != nil {
			v.User = r.To.Summarize()
		}
		outgoing = append(outgoing, v)
	}
	return incoming, outgoing, nil
}

// AreFriends reports whether the two users are friends. The chat module
// consults this before exposing conversation history.
func (s *Service) AreFriends(_ context.Context, a, b string) (bool, error) {
	return s.repo.AreFriends(a, b)
}
