package server

import (
	"fmt"
	"strconv"

	"soundvault/config"
	"soundvault/core/media"
	"soundvault/repository"
)

// APIHandler carries the repositories and services the HTTP handlers
// work against.
type APIHandler struct {
	userRepo     repository.UserRepository
	trackRepo    repository.TrackRepository
	playlistRepo repository.PlaylistRepository
	recentRepo   repository.RecentPlayRepository
	converter    *media.Converter
	cfg          *config.Config
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	trackRepo repository.TrackRepository,
	playlistRepo repository.PlaylistRepository,
	recentRepo repository.RecentPlayRepository,
	converter *media.Converter,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:     userRepo,
		trackRepo:    trackRepo,
		playlistRepo: playlistRepo,
		recentRepo:   recentRepo,
		converter:    converter,
		cfg:          cfg,
	}
}

func parseIDParam(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", raw)
	}
	return id, nil
}

func parseIntQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return fallback
}
