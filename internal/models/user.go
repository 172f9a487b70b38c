package models

import "time"

// User represents a member account.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	PfpURL    string    `json:"pfp_url"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	PfpURL    string    `json:"pfp_url"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Username:  u.Username,
		PfpURL:    u.PfpURL,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}

// Author is the display identity attached to content at read time.
type Author struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	PfpURL string `json:"pfp_url"`
}

// UnknownAuthorName is shown when an author id no longer resolves.
const UnknownAuthorName = "Unknown User"
