package model

import "time"

// Artist is a named artist credit on a track.
type Artist struct {
	Name string `json:"name"`
}

// AlbumImage is a cover image URL for a track's album.
type AlbumImage struct {
	URL string `json:"url"`
}

// Track represents a track in the catalog. Artists and AlbumImages are
// stored as JSON columns. PlayCount only ever moves up, through the
// dedicated increment operation.
type Track struct {
	ID          int64        `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"size:255;not null"`
	Artists     []Artist     `json:"artists" gorm:"serializer:json;type:json"`
	Description string       `json:"description" gorm:"type:text"`
	AlbumImages []AlbumImage `json:"albumImages" gorm:"serializer:json;type:json"`
	ReleaseDate string       `json:"releaseDate" gorm:"size:100"`
	Genre       string       `json:"genre" gorm:"size:100"`
	PreviewURL  string       `json:"previewUrl" gorm:"size:2048"`
	PlayCount   int64        `json:"playCount" gorm:"not null;default:0"`
	UserID      int64        `json:"userId" gorm:"index"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
