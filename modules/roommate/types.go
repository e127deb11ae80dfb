package roommate

import (
	"time"

	domain "github.com/example/roomiez/domain/user"
)

// SearchFilter narrows a roommate search. Zero values mean "no filter".
type SearchFilter struct {
	College   string `json:"college"`
	Location  string `json:"location"`
	MaxBudget int    `json:"max_budget"`
}

// ProfileUpdate carries a partial profile update. Nil pointers leave the
// corresponding field untouched.
type ProfileUpdate struct {
	Username    *string            `json:"username"`
	Bio         *string            `json:"bio"`
	College     *string            `json:"college"`
	ProfilePic  *string            `json:"profile_pic"`
	Public      *bool              `json:"is_profile_public"`
	Preferences *PreferencesUpdate `json:"preferences"`
}

// PreferencesUpdate carries a partial preferences update.
type PreferencesUpdate struct {
	Budget   *int    `json:"budget"`
	Location *string `json:"location"`
	Gender   *string `json:"gender"`
	RoomType *string `json:"room_type"`
}

// Profile is the display shape of a user's own profile.
type Profile struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	Username    string             `json:"username"`
	ProfilePic  string             `json:"profile_pic"`
	Bio         string             `json:"bio"`
	College     string             `json:"college"`
	Public      bool               `json:"is_profile_public"`
	Preferences domain.Preferences `json:"preferences"`
	Friends     []domain.Summary   `json:"friends"`
	CreatedAt   time.Time          `json:"created_at"`
}

// SearchResult is the public projection of a matching profile.
type SearchResult struct {
	ID          string             `json:"id"`
	Username    string             `json:"username"`
	ProfilePic  string             `json:"profile_pic"`
	College     string             `json:"college"`
	Preferences domain.Preferences `json:"preferences"`
}

// RequestView is a friend request denormalized with the counterparty.
type RequestView struct {
	ID        string         `json:"id"`
	User      domain.Summary `json:"user"`
	CreatedAt time.Time      `json:"created_at"`
}

func profileOf(u *domain.User) Profile {
	p := Profile{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		ProfilePic:  u.ProfilePic,
		Bio:         u.Bio,
		College:     u.College,
		Public:      u.Public,
		Preferences: u.Preferences,
		Friends:     make([]domain.Summary, 0, len(u.Friends)),
		CreatedAt:   u.CreatedAt,
	}
	for _, f := range u.Friends {
		p.Friends = append(p.Friends, f.Summarize())
	}
	return p
}

func searchResultOf(u *domain.User) SearchResult {
	return SearchResult{
		ID:          u.ID,
		Username:    u.Username,
		ProfilePic:  u.ProfilePic,
		College:     u.College,
		Preferences: u.Preferences,
	}
}
