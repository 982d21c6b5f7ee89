package repository

import (
	"context"
	"fmt"
	"time"

	"soundvault/model"

	"gorm.io/gorm"
)

// RecentPlayRepository defines the interface for the append-only play
// log. Rows are never updated or deleted.
type RecentPlayRepository interface {
	AddPlay(ctx context.Context, userID, trackID int64) (*model.RecentPlay, error)
	RecentByUser(ctx context.Context, userID int64, limit int) ([]*model.RecentPlay, error)
}

type gormRecentPlayRepository struct {
	db *gorm.DB
}

// NewRecentPlayRepository creates a GORM-backed RecentPlayRepository.
func NewRecentPlayRepository(db *gorm.DB) RecentPlayRepository {
	return &gormRecentPlayRepository{db: db}
}

// AddPlay appends a play entry with a server-assigned timestamp.
func (r *gormRecentPlayRepository) AddPlay(ctx context.Context, userID, trackID int64) (*model.RecentPlay, error) {
	play := &model.RecentPlay{
		UserID:   userID,
		TrackID:  trackID,
		PlayedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(play).Error; err != nil {
		return nil, fmt.Errorf("failed to record play: %w", err)
	}
	return play, nil
}

// RecentByUser returns the user's latest entries, most recent first.
func (r *gormRecentPlayRepository) RecentByUser(ctx context.Context, userID int64, limit int) ([]*model.RecentPlay, error) {
	var plays []*model.RecentPlay
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("played_at DESC, id DESC").
		Limit(limit).
		Find(&plays).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent plays for user %d: %w", userID, err)
	}
	return plays, nil
}
