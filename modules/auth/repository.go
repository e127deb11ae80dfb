package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/example/roomiez/domain/user"
)

var (
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when the email is already registered.
	ErrUserExists = errors.New("user with this email already exists")
)

// UserRepository persists roommate-seeker accounts over the shared store.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account row. Email uniqueness is checked by the
// service before insert; the unique index on users.email is the backstop.
func (r *UserRepository) Create(user *domain.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID retrieves an account by its ID.
func (r *UserRepository) FindByID(id string) (*domain.User, error) {
	return r.findOne("id = ?", id)
}

// FindByEmail retrieves an account by its registered email.
func (r *UserRepository) FindByEmail(email string) (*domain.User, error) {
	return r.findOne("email = ?", email)
}

func (r *UserRepository) findOne(query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.First(&user, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// EmailExists reports whether an account already uses the email.
func (r *UserRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}
