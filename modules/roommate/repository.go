package roommate

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	domain "github.com/example/roomiez/domain/user"
)

// searchResultLimit caps the number of profiles a search may return.
const searchResultLimit = 20

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrRequestNotFound is returned when no matching friend request exists.
	ErrRequestNotFound = errors.New("friend request not found")
)

// Repository handles user profile and friendship persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new roommate repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID retrieves a user by ID, optionally with friends preloaded.
func (r *Repository) FindByID(id string, withFriends bool) (*domain.User, error) {
	q := r.db
	if withFriends {
		q = q.Preload("Friends")
	}
	var user domain.User
	if err := q.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// UpdateProfile applies a partial profile update and returns the
// refreshed user.
func (r *Repository) UpdateProfile(id string, updates map[string]any) (*domain.User, error) {
	result := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return r.FindByID(id, false)
}

// Search returns public profiles matching the filter, excluding the
// searching user, capped at searchResultLimit.
func (r *Repository) Search(filter SearchFilter, selfID string) ([]*domain.User, error) {
	q := r.db.Model(&domain.User{}).
		Where("id <> ?", selfID).
		Where("public = ?", true)

	if filter.College != "" {
		q = q.Where("LOWER(college) LIKE ?", "%"+strings.ToLower(filter.College)+"%")
	}
	if filter.Location != "" {
		q = q.Where("LOWER(pref_location) LIKE ?", "%"+strings.ToLower(filter.Location)+"%")
	}
	if filter.MaxBudget > 0 {
		q = q.Where("pref_budget <= ?", filter.MaxBudget)
	}

	var users []*domain.User
	if err := q.Limit(searchResultLimit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// CreateRequest persists a new pending friend request.
func (r *Repository) CreateRequest(req *domain.FriendRequest) error {
	if err := r.db.Create(req).Error; err != nil {
		return fmt.Errorf("failed to create friend request: %w", err)
	}
	return nil
}

// FindPendingRequest finds a pending request from one user to another.
func (r *Repository) FindPendingRequest(fromID, toID string) (*domain.FriendRequest, error) {
	var req domain.FriendRequest
	err := r.db.First(&req,
		"from_user_id = ? AND to_user_id = ? AND status = ?",
		fromID, toID, domain.RequestPending,
	).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to find friend request: %w", err)
	}
	return &req, nil
}

// PendingRequestExists reports whether a pending request exists between
// the two users in either direction.
func (r *Repository) PendingRequestExists(a, b string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.FriendRequest{}).
		Where("status = ?", domain.RequestPending).
		Where(
			r.db.Where("from_user_id = ? AND to_user_id = ?", a, b).
				Or("from_user_id = ? AND to_user_id = ?", b, a),
		).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending requests: %w", err)
	}
	return count > 0, nil
}

// ResolveRequest updates a request's status.
func (r *Repository) ResolveRequest(id, status string) error {
	result := r.db.Model(&domain.FriendRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to resolve friend request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// DeleteRequest removes a friend request row.
func (r *Repository) DeleteRequest(id string) error {
	result := r.db.Delete(&domain.FriendRequest{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete friend request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// ListIncomingRequests returns pending requests addressed to the user,
// with the sender preloaded for display.
func (r *Repository) ListIncomingRequests(userID string) ([]*domain.FriendRequest, error) {
	var reqs []*domain.FriendRequest
	err := r.db.Preload("From").
		Where("to_user_id = ? AND status = ?", userID, domain.RequestPending).
		Order("created_at").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming requests: %w", err)
	}
	return reqs, nil
}

// ListOutgoingRequests returns pending requests sent by the user.
func (r *Repository) ListOutgoingRequests(userID string) ([]*domain.FriendRequest, error) {
	var reqs []*domain.FriendRequest
	err := r.db.Preload("To").
		Where("from_user_id = ? AND status = ?", userID, domain.RequestPending).
		Order("created_at").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoing requests: %w", err)
	}
	return reqs, nil
}

// AddFriendship links two users symmetrically. Both directions commit
// together; a one-directional link would corrupt AreFriends.
func (r *Repository) AddFriendship(aID, bID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		a := domain.User{ID: aID}
		b := domain.User{ID: bID}
		if err := tx.Model(&a).Association("Friends").Append(&domain.User{ID: bID}); err != nil {
			return err
		}
		return tx.Model(&b).Association("Friends").Append(&domain.User{ID: aID})
	})
	if err != nil {
		return fmt.Errorf("failed to add friendship: %w", err)
	}
	return nil
}

// RemoveFriendship unlinks two users symmetrically, both directions in
// one transaction.
func (r *Repository) RemoveFriendship(aID, bID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		a := domain.User{ID: aID}
		b := domain.User{ID: bID}
		if err := tx.Model(&a).Association("Friends").Delete(&domain.User{ID: bID}); err != nil {
			return err
		}
		return tx.Model(&b).Association("Friends").Delete(&domain.User{ID: aID})
	})
	if err != nil {
		return fmt.Errorf("failed to remove friendship: %w", err)
	}
	return nil
}

// AreFriends reports whether the two users are linked.
func (r *Repository) AreFriends(aID, bID string) (bool, error) {
	var count int64
	err := r.db.Table("user_friends").
		Where("user_id = ? AND friend_id = ?", aID, bID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return count > 0, nil
}

// ListFriends returns the user's friends.
func (r *Repository) ListFriends(userID string) ([]*domain.User, error) {
	user, err := r.FindByID(userID, true)
	if err != nil {
		return nil, err
	}
	return user.Friends, nil
}
