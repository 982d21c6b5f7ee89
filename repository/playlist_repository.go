package repository

import (
	"context"
	"errors"
	"fmt"

	"soundvault/model"

	"gorm.io/gorm"
)

// PlaylistRepository defines the interface for playlist data operations.
type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, playlist *model.Playlist, trackIDs []int64) (int64, error)
	GetPlaylistByID(ctx context.Context, id int64) (*model.Playlist, error)
	UpdatePlaylist(ctx context.Context, playlist *model.Playlist) error
	DeletePlaylist(ctx context.Context, id int64) error
	ListPlaylists(ctx context.Context) ([]*model.Playlist, error)
	ListPlaylistsByUser(ctx context.Context, userID int64) ([]*model.Playlist, error)
	ListPublicPlaylists(ctx context.Context) ([]*model.Playlist, error)
	GetPlaylistTrackIDs(ctx context.Context, playlistID int64) ([]int64, error)
	AddTrackToPlaylist(ctx context.Context, playlistID, trackID int64) error
	ReplaceTracks(ctx context.Context, playlistID int64, trackIDs []int64) error
	SetPrivacy(ctx context.Context, id int64, isPublic bool) (*model.Playlist, error)
}

type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewPlaylistRepository creates a GORM-backed PlaylistRepository.
func NewPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// CreatePlaylist adds a new playlist with an optional initial track
// list. Duplicate IDs in the initial list are collapsed.
func (r *gormPlaylistRepository) CreatePlaylist(ctx context.Context, playlist *model.Playlist, trackIDs []int64) (int64, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(playlist).Error; err != nil {
			return fmt.Errorf("failed to create playlist: %w", err)
		}
		return insertMemberships(tx, playlist.ID, dedupeIDs(trackIDs), 0)
	})
	if err != nil {
		return 0, err
	}
	return playlist.ID, nil
}

// GetPlaylistByID retrieves a playlist by ID. Returns (nil, nil) when
// absent.
func (r *gormPlaylistRepository) GetPlaylistByID(ctx context.Context, id int64) (*model.Playlist, error) {
	playlist := &model.Playlist{}
	err := r.db.WithContext(ctx).First(playlist, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query playlist by ID %d: %w", id, err)
	}
	return playlist, nil
}

// UpdatePlaylist persists name, description and visibility. Returns
// ErrNotFound when absent.
func (r *gormPlaylistRepository) UpdatePlaylist(ctx context.Context, playlist *model.Playlist) error {
	existing, err := r.GetPlaylistByID(ctx, playlist.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}

	playlist.CreatedByID = existing.CreatedByID
	playlist.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(playlist).Error; err != nil {
		return fmt.Errorf("failed to update playlist %d: %w", playlist.ID, err)
	}
	return nil
}

// DeletePlaylist removes a playlist and its membership rows. Returns
// ErrNotFound when absent.
func (r *gormPlaylistRepository) DeletePlaylist(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Playlist{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete playlist %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("playlist_id = ?", id).Delete(&model.PlaylistTrack{}).Error; err != nil {
			return fmt.Errorf("failed to delete playlist memberships for %d: %w", id, err)
		}
		return nil
	})
}

// ListPlaylists retrieves every playlist.
func (r *gormPlaylistRepository) ListPlaylists(ctx context.Context) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	if err := r.db.WithContext(ctx).Order("id").Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return playlists, nil
}

// ListPlaylistsByUser retrieves the playlists created by a user.
func (r *gormPlaylistRepository) ListPlaylistsByUser(ctx context.Context, userID int64) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	err := r.db.WithContext(ctx).Where("created_by_id = ?", userID).Order("id").Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists for user %d: %w", userID, err)
	}
	return playlists, nil
}

// ListPublicPlaylists retrieves every playlist flagged public.
func (r *gormPlaylistRepository) ListPublicPlaylists(ctx context.Context) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	err := r.db.WithContext(ctx).Where("is_public = ?", true).Order("id").Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list public playlists: %w", err)
	}
	return playlists, nil
}

// GetPlaylistTrackIDs returns the member track IDs in playlist order.
func (r *gormPlaylistRepository) GetPlaylistTrackIDs(ctx context.Context, playlistID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.PlaylistTrack{}).
		Where("playlist_id = ?", playlistID).
		Order("position").
		Pluck("track_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist %d track IDs: %w", playlistID, err)
	}
	return ids, nil
}

// AddTrackToPlaylist appends a track at the tail. Returns
// ErrDuplicateTrack when the track is already a member; the unique
// index keeps the check atomic.
func (r *gormPlaylistRepository) AddTrackToPlaylist(ctx context.Context, playlistID, trackID int64) error {
	var maxPos *int
	err := r.db.WithContext(ctx).Model(&model.PlaylistTrack{}).
		Where("playlist_id = ?", playlistID).
		Select("MAX(position)").
		Scan(&maxPos).Error
	if err != nil {
		return fmt.Errorf("failed to compute playlist tail position: %w", err)
	}

	position := 0
	if maxPos != nil {
		position = *maxPos + 1
	}

	member := &model.PlaylistTrack{PlaylistID: playlistID, TrackID: trackID, Position: position}
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTrack
		}
		return fmt.Errorf("failed to add track %d to playlist %d: %w", trackID, playlistID, err)
	}
	return nil
}

// ReplaceTracks swaps the full membership list, dropping duplicates
// from the incoming IDs and preserving their order.
func (r *gormPlaylistRepository) ReplaceTracks(ctx context.Context, playlistID int64, trackIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&model.PlaylistTrack{}).Error; err != nil {
			return fmt.Errorf("failed to clear playlist %d memberships: %w", playlistID, err)
		}
		return insertMemberships(tx, playlistID, dedupeIDs(trackIDs), 0)
	})
}

// SetPrivacy flips the public flag. Returns ErrNotFound when absent.
func (r *gormPlaylistRepository) SetPrivacy(ctx context.Context, id int64, isPublic bool) (*model.Playlist, error) {
	playlist, err := r.GetPlaylistByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, ErrNotFound
	}

	playlist.IsPublic = isPublic
	if err := r.db.WithContext(ctx).Model(playlist).Update("is_public", isPublic).Error; err != nil {
		return nil, fmt.Errorf("failed to update privacy for playlist %d: %w", id, err)
	}
	return playlist, nil
}

func insertMemberships(tx *gorm.DB, playlistID int64, trackIDs []int64, startPos int) error {
	for i, trackID := range trackIDs {
		member := &model.PlaylistTrack{PlaylistID: playlistID, TrackID: trackID, Position: startPos + i}
		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("failed to add track %d to playlist %d: %w", trackID, playlistID, err)
		}
	}
	return nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
