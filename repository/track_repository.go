package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"soundvault/model"

	"gorm.io/gorm"
)

// TrackFilter narrows the paginated track listing. Year matches the
// free-text release date; both filters are case-insensitive substrings.
type TrackFilter struct {
	Year  string
	Genre string
}

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(ctx context.Context, track *model.Track) (int64, error)
	GetTrackByID(ctx context.Context, id int64) (*model.Track, error)
	GetTracksByIDs(ctx context.Context, ids []int64) ([]*model.Track, error)
	UpdateTrack(ctx context.Context, track *model.Track) error
	DeleteTrack(ctx context.Context, id int64) error
	ListTracks(ctx context.Context, page, limit int, filter TrackFilter) ([]*model.Track, int64, error)
	ListTracksByUser(ctx context.Context, userID int64, skip, limit int, allUsers bool) ([]*model.Track, int64, error)
	SearchTracks(ctx context.Context, keywords []string, limit int) ([]*model.Track, error)
	IncrementPlayCount(ctx context.Context, id int64) (*model.Track, error)
	TrendingTracks(ctx context.Context, limit int) ([]*model.Track, error)
}

type gormTrackRepository struct {
	db *gorm.DB
}

// NewTrackRepository creates a GORM-backed TrackRepository.
func NewTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// CreateTrack adds a new track.
func (r *gormTrackRepository) CreateTrack(ctx context.Context, track *model.Track) (int64, error) {
	if err := r.db.WithContext(ctx).Create(track).Error; err != nil {
		return 0, fmt.Errorf("failed to create track: %w", err)
	}
	return track.ID, nil
}

// GetTrackByID retrieves a track by ID. Returns (nil, nil) when absent.
func (r *gormTrackRepository) GetTrackByID(ctx context.Context, id int64) (*model.Track, error) {
	track := &model.Track{}
	err := r.db.WithContext(ctx).First(track, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query track by ID %d: %w", id, err)
	}
	return track, nil
}

// GetTracksByIDs retrieves the tracks for the given IDs. Missing IDs
// are silently skipped.
func (r *gormTrackRepository) GetTracksByIDs(ctx context.Context, ids []int64) ([]*model.Track, error) {
	if len(ids) == 0 {
		return []*model.Track{}, nil
	}
	var tracks []*model.Track
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to load tracks by IDs: %w", err)
	}
	return tracks, nil
}

// UpdateTrack persists the full track record. Returns ErrNotFound when
// no row matches the ID.
func (r *gormTrackRepository) UpdateTrack(ctx context.Context, track *model.Track) error {
	existing, err := r.GetTrackByID(ctx, track.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}

	// PlayCount only moves through IncrementPlayCount.
	track.PlayCount = existing.PlayCount
	track.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(track).Error; err != nil {
		return fmt.Errorf("failed to update track %d: %w", track.ID, err)
	}
	return nil
}

// DeleteTrack removes a track by ID. Returns ErrNotFound when absent.
func (r *gormTrackRepository) DeleteTrack(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Track{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete track %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func applyTrackFilter(q *gorm.DB, filter TrackFilter) *gorm.DB {
	if filter.Year != "" {
		q = q.Where("LOWER(release_date) LIKE ?", "%"+strings.ToLower(filter.Year)+"%")
	}
	if filter.Genre != "" {
		q = q.Where("LOWER(genre) LIKE ?", "%"+strings.ToLower(filter.Genre)+"%")
	}
	return q
}

// ListTracks returns one page of the catalog, newest first, with the
// total count under the same filters.
func (r *gormTrackRepository) ListTracks(ctx context.Context, page, limit int, filter TrackFilter) ([]*model.Track, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int64
	countQ := applyTrackFilter(r.db.WithContext(ctx).Model(&model.Track{}), filter)
	if err := countQ.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tracks: %w", err)
	}

	var tracks []*model.Track
	q := applyTrackFilter(r.db.WithContext(ctx), filter).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit)
	if err := q.Find(&tracks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tracks: %w", err)
	}
	return tracks, total, nil
}

// ListTracksByUser returns an offset page of tracks. With allUsers set
// the whole catalog is paged; otherwise only the given user's tracks.
func (r *gormTrackRepository) ListTracksByUser(ctx context.Context, userID int64, skip, limit int, allUsers bool) ([]*model.Track, int64, error) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = 10
	}

	base := r.db.WithContext(ctx).Model(&model.Track{})
	if !allUsers {
		base = base.Where("user_id = ?", userID)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count user tracks: %w", err)
	}

	var tracks []*model.Track
	q := r.db.WithContext(ctx)
	if !allUsers {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Order("created_at DESC").Offset(skip).Limit(limit).Find(&tracks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list user tracks: %w", err)
	}
	return tracks, total, nil
}

// SearchTracks matches every keyword case-insensitively against the
// track name or any artist name. Keywords combine with AND; the two
// fields within a keyword combine with OR. The artist match runs
// against the JSON text of the artists column.
func (r *gormTrackRepository) SearchTracks(ctx context.Context, keywords []string, limit int) ([]*model.Track, error) {
	q := r.db.WithContext(ctx).Model(&model.Track{})
	for _, kw := range keywords {
		pattern := "%" + strings.ToLower(strings.TrimSpace(kw)) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(CAST(artists AS CHAR)) LIKE ?", pattern, pattern)
	}

	var tracks []*model.Track
	if err := q.Limit(limit).Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}
	return tracks, nil
}

// IncrementPlayCount atomically adds one to the stored counter and
// returns the updated track. Returns ErrNotFound when absent.
func (r *gormTrackRepository) IncrementPlayCount(ctx context.Context, id int64) (*model.Track, error) {
	res := r.db.WithContext(ctx).Model(&model.Track{}).
		Where("id = ?", id).
		UpdateColumn("play_count", gorm.Expr("play_count + 1"))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to increment play count for track %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetTrackByID(ctx, id)
}

// TrendingTracks returns the most-played tracks, most recently created
// first among ties.
func (r *gormTrackRepository) TrendingTracks(ctx context.Context, limit int) ([]*model.Track, error) {
	var tracks []*model.Track
	err := r.db.WithContext(ctx).
		Order("play_count DESC, created_at DESC").
		Limit(limit).
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trending tracks: %w", err)
	}
	return tracks, nil
}
