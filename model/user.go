package model

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user account. Email is stored lowercased and is
// unique case-insensitively. PasswordHash is empty for accounts
// provisioned through an external identity flow.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:100;not null"`
	Email        string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:255"`
	Role         string    `json:"role" gorm:"size:20;not null;default:user"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Favorite is a row in the user favorites set. The composite unique
// index makes adds atomic: a concurrent duplicate insert fails instead
// of losing an update.
type Favorite struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"userId" gorm:"not null;uniqueIndex:uq_user_track"`
	TrackID   int64     `json:"trackId" gorm:"not null;uniqueIndex:uq_user_track"`
	CreatedAt time.Time `json:"createdAt"`
}
