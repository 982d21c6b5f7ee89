package model

import "time"

// Playlist represents a user-curated list of tracks. Membership lives
// in PlaylistTrack rows; IsPublic defaults to private.
type Playlist struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedByID int64     `json:"createdBy" gorm:"index"`
	IsPublic    bool      `json:"isPublic" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistTrack is a membership row. The composite unique index keeps a
// playlist free of duplicate tracks at the storage level.
type PlaylistTrack struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	PlaylistID int64     `json:"playlistId" gorm:"not null;uniqueIndex:uq_playlist_track"`
	TrackID    int64     `json:"trackId" gorm:"not null;uniqueIndex:uq_playlist_track"`
	Position   int       `json:"position" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PlaylistWithTracks carries a playlist with its tracks expanded and,
// where a reference track was supplied, whether that track is a member.
type PlaylistWithTracks struct {
	Playlist
	Tracks        []*Track `json:"tracks"`
	CreatorName   string   `json:"creatorName,omitempty"`
	ContainsTrack bool     `json:"containsTrack"`
}
