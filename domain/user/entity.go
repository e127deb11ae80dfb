package user

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered roommate-seeker.
type User struct {
	ID           string         `gorm:"primarykey;size:36" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username     string         `gorm:"size:50;not null" json:"username"`
	PasswordHash string         `gorm:"size:100;not null" json:"-"`
	ProfilePic   string         `gorm:"size:255" json:"profile_pic"`
	Bio          string         `gorm:"size:500" json:"bio"`
	College      string         `gorm:"size:100" json:"college"`
	Public       bool           `gorm:"not null" json:"is_profile_public"`
	Preferences  Preferences    `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
	Friends      []*User        `gorm:"many2many:user_friends" json:"friends,omitempty"`
}

// TableName returns the table name for the User model.
func (User) TableName() string {
	return "users"
}

// Preferences holds the roommate-matching preference fields.
type Preferences struct {
	Budget   int    `gorm:"default:0" json:"budget"`
	Location string `gorm:"size:100" json:"location"`
	Gender   string `gorm:"size:20" json:"gender"`
	RoomType string `gorm:"size:30" json:"room_type"`
}

// Summary is the display-ready projection of a user used when
// denormalizing messages and friend lists.
type Summary struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profile_pic"`
}

// Summarize returns the display projection of the user.
func (u *User) Summarize() Summary {
	return Summary{
		ID:         u.ID,
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
	}
}

// Friend request lifecycle states.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// FriendRequest represents a pending or resolved friend request.
// A friendship only exists once a pending request has been accepted,
// at which point both users carry each other in Friends.
type FriendRequest struct {
	ID         string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	FromUserID string    `gorm:"size:36;index;not null" json:"from_user_id"`
	ToUserID   string    `gorm:"size:36;index;not null" json:"to_user_id"`
	Status     string    `gorm:"size:20;not null;default:pending" json:"status"`
	From       *User     `gorm:"foreignKey:FromUserID" json:"from,omitempty"`
	To         *User     `gorm:"foreignKey:ToUserID" json:"to,omitempty"`
}

// TableName returns the table name for the FriendRequest model.
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// Claims carries the authenticated identity extracted from a token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// TokenPair holds an access/refresh token pair issued at login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}
