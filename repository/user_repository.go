package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"soundvault/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
// Favorites mutations are single-statement inserts/deletes against the
// favorites table, so concurrent requests for the same user cannot lose
// updates.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]*model.User, error)
	DeleteUser(ctx context.Context, id int64) error
	UpdateUserRole(ctx context.Context, id int64, role string) (*model.User, error)

	AddFavorite(ctx context.Context, userID, trackID int64) error
	RemoveFavorite(ctx context.Context, userID, trackID int64) error
	IsFavorite(ctx context.Context, userID, trackID int64) (bool, error)
	GetFavoriteTracks(ctx context.Context, userID int64) ([]*model.Track, error)
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// CreateUser adds a new user. The email is stored lowercased; the unique
// index enforces case-insensitive uniqueness.
func (r *gormUserRepository) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	user.Email = strings.ToLower(user.Email)
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return user.ID, nil
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) when absent.
func (r *gormUserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	err := r.db.WithContext(ctx).First(user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by ID %d: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively. Returns
// (nil, nil) when absent.
func (r *gormUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return user, nil
}

// GetAllUsers retrieves every user.
func (r *gormUserRepository) GetAllUsers(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a user by ID. Returns ErrNotFound when absent.
func (r *gormUserRepository) DeleteUser(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserRole sets the role of a user. Returns ErrNotFound when absent.
func (r *gormUserRepository) UpdateUserRole(ctx context.Context, id int64, role string) (*model.User, error) {
	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	user.Role = role
	if err := r.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("failed to update role for user %d: %w", id, err)
	}
	return user, nil
}

// AddFavorite inserts into the favorites set. Returns
// ErrDuplicateFavorite when the track is already present.
func (r *gormUserRepository) AddFavorite(ctx context.Context, userID, trackID int64) error {
	fav := &model.Favorite{UserID: userID, TrackID: trackID}
	if err := r.db.WithContext(ctx).Create(fav).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateFavorite
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes from the favorites set. Returns ErrNotFound
// when the track was not a favorite.
func (r *gormUserRepository) RemoveFavorite(ctx context.Context, userID, trackID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND track_id = ?", userID, trackID).
		Delete(&model.Favorite{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove favorite: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsFavorite reports favorites membership for a track.
func (r *gormUserRepository) IsFavorite(ctx context.Context, userID, trackID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ? AND track_id = ?", userID, trackID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}

// GetFavoriteTracks expands the favorites set to full tracks, in the
// order they were added.
func (r *gormUserRepository) GetFavoriteTracks(ctx context.Context, userID int64) ([]*model.Track, error) {
	var tracks []*model.Track
	err := r.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.track_id = tracks.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.id").
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite tracks for user %d: %w", userID, err)
	}
	return tracks, nil
}
