package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"soundvault/cache"
	"soundvault/logger"
	"soundvault/model"
	"soundvault/repository"

	"github.com/gorilla/mux"
)

const (
	searchResultCap = 20
	trendingCap     = 10
)

// CreateTrackHandler creates a track owned by the caller.
func (h *APIHandler) CreateTrackHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var track model.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if track.Name == "" {
		writeMessage(w, http.StatusBadRequest, "Track name is required")
		return
	}

	track.ID = 0
	track.PlayCount = 0
	track.UserID = user.ID

	if _, err := h.trackRepo.CreateTrack(r.Context(), &track); err != nil {
		writeServerError(w, "failed to create track", err)
		return
	}

	logger.Info("track created", logger.Int64("trackId", track.ID), logger.Int64("userId", user.ID))
	writeJSON(w, http.StatusCreated, track)
}

// GetTracksHandler returns one page of the catalog with optional
// case-insensitive year and genre filters.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntQuery(q.Get("page"), 1)
	limit := parseIntQuery(q.Get("limit"), 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	filter := repository.TrackFilter{
		Year:  q.Get("year"),
		Genre: q.Get("genre"),
	}

	tracks, total, err := h.trackRepo.ListTracks(r.Context(), page, limit, filter)
	if err != nil {
		writeServerError(w, "failed to list tracks", err)
		return
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracks":      tracks,
		"currentPage": page,
		"totalPages":  totalPages,
		"totalTracks": total,
	})
}

// GetTracksByUserHandler returns an offset page of the caller's tracks;
// admins page the whole catalog.
func (h *APIHandler) GetTracksByUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	q := r.URL.Query()
	skip := parseIntQuery(q.Get("skip"), 0)
	limit := parseIntQuery(q.Get("limit"), 10)

	tracks, total, err := h.trackRepo.ListTracksByUser(r.Context(), user.ID, skip, limit, user.Role == model.RoleAdmin)
	if err != nil {
		writeServerError(w, "failed to list user tracks", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracks":      tracks,
		"totalTracks": total,
	})
}

// SearchTracksHandler matches comma-separated keywords against track
// and artist names, all keywords required.
func (h *APIHandler) SearchTracksHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("keywords")
	if strings.TrimSpace(raw) == "" {
		writeMessage(w, http.StatusBadRequest, "Search keywords are required")
		return
	}

	var keywords []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		writeMessage(w, http.StatusBadRequest, "Search keywords are required")
		return
	}

	tracks, err := h.trackRepo.SearchTracks(r.Context(), keywords, searchResultCap)
	if err != nil {
		writeServerError(w, "failed to search tracks", err)
		return
	}
	if len(tracks) == 0 {
		writeMessage(w, http.StatusNotFound, "No tracks found matching your search")
		return
	}

	writeJSON(w, http.StatusOK, tracks)
}

// TrendingTracksHandler returns the ten most-played tracks, newest
// first among ties, served from cache when warm.
func (h *APIHandler) TrendingTracksHandler(w http.ResponseWriter, r *http.Request) {
	if cached, err := cache.GetTrendingTracks(r.Context()); err == nil && cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	tracks, err := h.trackRepo.TrendingTracks(r.Context(), trendingCap)
	if err != nil {
		writeServerError(w, "failed to load trending tracks", err)
		return
	}

	cache.SetTrendingTracks(r.Context(), tracks)
	writeJSON(w, http.StatusOK, tracks)
}

// GetTrackHandler returns a single track by ID.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	track, err := h.trackRepo.GetTrackByID(r.Context(), id)
	if err != nil {
		writeServerError(w, "failed to get track", err)
		return
	}
	if track == nil {
		writeMessage(w, http.StatusNotFound, "Track not found")
		return
	}

	writeJSON(w, http.StatusOK, track)
}

// UpdateTrackHandler replaces a track's fields. Owner or admin only.
func (h *APIHandler) UpdateTrackHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, err := parseIDParam(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	existing, err := h.trackRepo.GetTrackByID(r.Context(), id)
	if err != nil {
		writeServerError(w, "failed to get track", err)
		return
	}
	if existing == nil {
		writeMessage(w, http.StatusNotFound, "Track not found")
		return
	}
	if !canModify(user, existing.UserID) {
		writeMessage(w, http.StatusForbidden, "Not allowed to modify this track")
		return
	}

	var track model.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	track.ID = id
	track.UserID = existing.UserID
	if err := h.trackRepo.UpdateTrack(r.Context(), &track); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Track not found")
			return
		}
		writeServerError(w, "failed to update track", err)
		return
	}

	writeJSON(w, http.StatusOK, track)
}

// DeleteTrackHandler removes a track. Owner or admin only.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, err := parseIDParam(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	existing, err := h.trackRepo.GetTrackByID(r.Context(), id)
	if err != nil {
		writeServerError(w, "failed to get track", err)
		return
	}
	if existing == nil {
		writeMessage(w, http.StatusNotFound, "Track not found")
		return
	}
	if !canModify(user, existing.UserID) {
		writeMessage(w, http.StatusForbidden, "Not allowed to delete this track")
		return
	}

	if err := h.trackRepo.DeleteTrack(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Track not found")
			return
		}
		writeServerError(w, "failed to delete track", err)
		return
	}

	logger.Info("track deleted", logger.Int64("trackId", id), logger.Int64("userId", user.ID))
	writeMessage(w, http.StatusOK, "Track deleted")
}

// UpdateCountHandler atomically increments a track's play count.
func (h *APIHandler) UpdateCountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	track, err := h.trackRepo.IncrementPlayCount(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Track not found")
			return
		}
		writeServerError(w, "failed to update play count", err)
		return
	}

	cache.InvalidateTrending(r.Context())
	writeJSON(w, http.StatusOK, track)
}
