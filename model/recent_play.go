package model

import "time"

// RecentPlay is one append-only play log entry. Rows are never updated
// or deleted.
type RecentPlay struct {
	ID       int64     `json:"id" gorm:"primaryKey"`
	UserID   int64     `json:"userId" gorm:"not null;index"`
	TrackID  int64     `json:"trackId" gorm:"not null"`
	PlayedAt time.Time `json:"playedAt" gorm:"not null;index"`
}

// RecentPlayEntry is the read-side view: the expanded track with its
// most recent play time.
type RecentPlayEntry struct {
	Track    *Track    `json:"track"`
	PlayedAt time.Time `json:"playedAt"`
}
