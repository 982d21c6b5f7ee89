package server

import (
	"encoding/json"
	"net/http"

	"soundvault/logger"
	"soundvault/model"
)

const (
	recentFetchWindow = 50
	recentResultCap   = 10
)

// AddRecentPlayHandler appends a play log entry for the caller.
func (h *APIHandler) AddRecentPlayHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req struct {
		TrackID int64 `json:"trackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackID <= 0 {
		writeMessage(w, http.StatusBadRequest, "trackId is required")
		return
	}

	track, err := h.trackRepo.GetTrackByID(r.Context(), req.TrackID)
	if err != nil {
		writeServerError(w, "failed to get track", err)
		return
	}
	if track == nil {
		writeMessage(w, http.StatusNotFound, "Track not found")
		return
	}

	play, err := h.recentRepo.AddPlay(r.Context(), user.ID, req.TrackID)
	if err != nil {
		writeServerError(w, "failed to record play", err)
		return
	}

	logger.Debug("play recorded",
		logger.Int64("userId", user.ID),
		logger.Int64("trackId", req.TrackID))
	writeJSON(w, http.StatusCreated, play)
}

// GetRecentPlaysHandler returns the caller's most recently played
// tracks, one entry per track, newest first.
func (h *APIHandler) GetRecentPlaysHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	plays, err := h.recentRepo.RecentByUser(r.Context(), user.ID, recentFetchWindow)
	if err != nil {
		writeServerError(w, "failed to load recent plays", err)
		return
	}

	// Repeated plays of the same track collapse to the newest entry.
	deduped := dedupePlays(plays, recentResultCap)

	ids := make([]int64, 0, len(deduped))
	for _, p := range deduped {
		ids = append(ids, p.TrackID)
	}
	tracks, err := h.trackRepo.GetTracksByIDs(r.Context(), ids)
	if err != nil {
		writeServerError(w, "failed to load recent tracks", err)
		return
	}
	byID := make(map[int64]*model.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	entries := make([]*model.RecentPlayEntry, 0, len(deduped))
	for _, p := range deduped {
		track, ok := byID[p.TrackID]
		if !ok {
			// Track was deleted after the play was logged.
			continue
		}
		entries = append(entries, &model.RecentPlayEntry{
			Track:    track,
			PlayedAt: p.PlayedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recentTracks": entries,
	})
}

// dedupePlays keeps the first occurrence of each track from an input
// ordered newest first, up to cap entries.
func dedupePlays(plays []*model.RecentPlay, max int) []*model.RecentPlay {
	seen := make(map[int64]struct{}, len(plays))
	out := make([]*model.RecentPlay, 0, max)
	for _, p := range plays {
		if _, ok := seen[p.TrackID]; ok {
			continue
		}
		seen[p.TrackID] = struct{}{}
		out = append(out, p)
		if len(out) == max {
			break
		}
	}
	return out
}
