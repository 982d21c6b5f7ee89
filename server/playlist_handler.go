package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"soundvault/core/auth"
	"soundvault/logger"
	"soundvault/model"
	"soundvault/repository"

	"github.com/gorilla/mux"
)

// playlistRequest is the body for playlist create and update.
type playlistRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Tracks      []int64 `json:"tracks"`
	IsPublic    *bool   `json:"isPublic"`
}

// expandPlaylist loads a playlist's tracks in order and annotates
// membership of refTrackID (0 means no annotation requested).
func (h *APIHandler) expandPlaylist(ctx context.Context, playlist *model.Playlist, refTrackID int64) (*model.PlaylistWithTracks, error) {
	ids, err := h.playlistRepo.GetPlaylistTrackIDs(ctx, playlist.ID)
	if err != nil {
		return nil, err
	}

	tracks, err := h.trackRepo.GetTracksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Restore playlist order; GetTracksByIDs does not guarantee it.
	byID := make(map[int64]*model.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}
	ordered := make([]*model.Track, 0, len(ids))
	contains := false
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
		if refTrackID != 0 && id == refTrackID {
			contains = true
		}
	}

	return &model.PlaylistWithTracks{
		Playlist:      *playlist,
		Tracks:        ordered,
		ContainsTrack: contains,
	}, nil
}

func (h *APIHandler) expandPlaylists(ctx context.Context, playlists []*model.Playlist, refTrackID int64) ([]*model.PlaylistWithTracks, error) {
	out := make([]*model.PlaylistWithTracks, 0, len(playlists))
	for _, p := range playlists {
		expanded, err := h.expandPlaylist(ctx, p, refTrackID)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}

// CreatePlaylistHandler creates a playlist owned by the caller.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	playlist := &model.Playlist{
		Name:        req.Name,
		Description: req.Description,
		CreatedByID: user.ID,
	}
	if req.IsPublic != nil {
		playlist.IsPublic = *req.IsPublic
	}

	if _, err := h.playlistRepo.CreatePlaylist(r.Context(), playlist, req.Tracks); err != nil {
		writeServerError(w, "failed to create playlist", err)
		return
	}

	logger.Info("playlist created", logger.Int64("playlistId", playlist.ID), logger.Int64("userId", user.ID))
	writeJSON(w, http.StatusCreated, playlist)
}

// GetPlaylistsHandler lists every playlist with tracks expanded, each
// annotated with membership of the query-supplied trackID.
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	refTrackID, _ := parseIDParam(r.URL.Query().Get("trackID"))

	playlists, err := h.playlistRepo.ListPlaylists(r.Context())
	if err != nil {
		writeServerError(w, "failed to list playlists", err)
		return
	}

	expanded, err := h.expandPlaylists(r.Context(), playlists, refTrackID)
	if err != nil {
		writeServerError(w, "failed to expand playlists", err)
		return
	}

	writeJSON(w, http.StatusOK, expanded)
}

// GetUserPlaylistsHandler lists the caller's playlists, annotated the
// same way as the full listing.
func (h *APIHandler) GetUserPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	refTrackID, _ := parseIDParam(r.URL.Query().Get("trackID"))

	playlists, err := h.playlistRepo.ListPlaylistsByUser(r.Context(), user.ID)
	if err != nil {
		writeServerError(w, "failed to list user playlists", err)
		return
	}
	if len(playlists) == 0 {
		writeMessage(w, http.StatusNotFound, "No playlists found for this user")
		return
	}

	expanded, err := h.expandPlaylists(r.Context(), playlists, refTrackID)
	if err != nil {
		writeServerError(w, "failed to expand playlists", err)
		return
	}

	writeJSON(w, http.StatusOK, expanded)
}

// AllPublicPlaylistsHandler lists public playlists with tracks and
// creator display name expanded. No authentication required.
func (h *APIHandler) AllPublicPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlistRepo.ListPublicPlaylists(r.Context())
	if err != nil {
		writeServerError(w, "failed to list public playlists", err)
		return
	}

	expanded, err := h.expandPlaylists(r.Context(), playlists, 0)
	if err != nil {
		writeServerError(w, "failed to expand playlists", err)
		return
	}

	for _, p := range expanded {
		creator, err := h.userRepo.GetUserByID(r.Context(), p.CreatedByID)
		if err != nil {
			writeServerError(w, "failed to load playlist creator", err)
			return
		}
		if creator != nil {
			p.CreatorName = creator.Username
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Public playlists fetched successfully",
		"playlists": expanded,
	})
}

// CheckIsPublicHandler reports a playlist's visibility flag.
func (h *APIHandler) CheckIsPublicHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r.URL.Query().Get("id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	playlist, err := h.playlistRepo.GetPlaylistByID(r.Context(), id)
	if err != nil {
		writeServerError(w, "failed to get playlist", err)
		return
	}
	if playlist == nil {
		writeMessage(w, http.StatusNotFound, "Playlist not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  visibilityMessage(playlist.IsPublic),
		"isPublic": playlist.IsPublic,
	})
}

func visibilityMessage(isPublic bool) string {
	if isPublic {
		return "Playlist is Public"
	}
	return "Playlist is Private"
}

// GetPlaylistHandler returns a playlist with tracks expanded. Public
// playlists are readable by anyone; private ones only by their owner
// or an admin, and look absent to everyone else.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	playlist, err := h.playlistRepo.GetPlaylistByID(r.Context(), id)
	if err != nil {
		writeServerError(w, "failed to get playlist", err)
		return
	}
	if playlist == nil {
		writeMessage(w, http.StatusNotFound, "Playlist not found")
		return
	}

	if !playlist.IsPublic {
		user, err := h.optionalUser(r)
		if err != nil {
			writeServerError(w, "failed to resolve caller", err)
			return
		}
		if user == nil || !canModify(user, playlist.CreatedByID) {
			writeMessage(w, http.StatusNotFound, "Playlist not found")
			return
		}
	}

	expanded, err := h.expandPlaylist(r.Context(), playlist, 0)
	if err != nil {
		writeServerError(w, "failed to expand playlist", err)
		return
	}

	writeJSON(w, http.StatusOK, expanded)
}

// optionalUser resolves the caller when a valid token is present,
// without failing the request when it is not.
func (h *APIHandler) optionalUser(r *http.Request) (*model.User, error) {
	token := extractToken(r, h.cfg.CookieName)
	if token == "" {
		return nil, nil
	}
	claims, err := auth.ParseToken(token)
	if err != nil {
		return nil, nil
	}
	return h.userRepo.GetUserByID(r.Context(), claims.UserID)
}

// UpdatePlaylistHandler applies a partial update. Owner or admin only.
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, err := parseIDParam(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	playlist, err := h.playlistRepo.GetPlaylistByID(r.Context(), id)
	if err != nil {
		writeServerError(w, "failed to get playlist", err)
		return
	}
	if playlist == nil {
		writeMessage(w, http.StatusNotFound, "Playlist not found")
		return
	}
	if !canModify(user, playlist.CreatedByID) {
		writeMessage(w, http.StatusForbidden, "Not allowed to modify this playlist")
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name != "" {
		playlist.Name = req.Name
	}
	if req.Description != "" {
		playlist.Description = req.Description
	}
	if req.IsPublic != nil {
		playlist.IsPublic = *req.IsPublic
	}

	if err := h.playlistRepo.UpdatePlaylist(r.Context(), playlist); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Playlist not found")
			return
		}
		writeServerError(w, "failed to update playlist", err)
		return
	}

	if req.Tracks != nil {
		if err := h.playlistRepo.ReplaceTracks(r.Context(), id, req.Tracks); err != nil {
			writeServerError(w, "failed to replace playlist tracks", err)
			return
		}
	}

	expanded, err := h.expandPlaylist(r.Context(), playlist, 0)
	if err != nil {
		writeServerError(w, "failed to expand playlist", err)
		return
	}
	writeJSON(w, http.StatusOK, expanded)
}

// DeletePlaylistHandler removes a playlist. Owner or admin only.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, err := parseIDParam(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	playlist, err := h.playlistRepo.GetPlaylistByID(r.Context(), id)
	if err != nil {
		writeServerError(w, "failed to get playlist", err)
		return
	}
	if playlist == nil {
		writeMessage(w, http.StatusNotFound, "Playlist not found")
		return
	}
	if !canModify(user, playlist.CreatedByID) {
		writeMessage(w, http.StatusForbidden, "Not allowed to delete this playlist")
		return
	}

	if err := h.playlistRepo.DeletePlaylist(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Playlist not found")
			return
		}
		writeServerError(w, "failed to delete playlist", err)
		return
	}

	logger.Info("playlist deleted", logger.Int64("playlistId", id), logger.Int64("userId", user.ID))
	writeMessage(w, http.StatusOK, "Playlist deleted")
}

// AddTrackToPlaylistHandler appends a track to a playlist's track list.
func (h *APIHandler) AddTrackToPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlaylistID int64 `json:"playlistId"`
		TrackID    int64 `json:"trackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlaylistID == 0 || req.TrackID == 0 {
		writeMessage(w, http.StatusBadRequest, "playlistId and trackId are required")
		return
	}

	playlist, err := h.playlistRepo.GetPlaylistByID(r.Context(), req.PlaylistID)
	if err != nil {
		writeServerError(w, "failed to get playlist", err)
		return
	}
	if playlist == nil {
		writeMessage(w, http.StatusNotFound, "Playlist not found")
		return
	}

	if err := h.playlistRepo.AddTrackToPlaylist(r.Context(), req.PlaylistID, req.TrackID); err != nil {
		if errors.Is(err, repository.ErrDuplicateTrack) {
			writeMessage(w, http.StatusConflict, "Track already exists in the playlist")
			return
		}
		writeServerError(w, "failed to add track to playlist", err)
		return
	}

	expanded, err := h.expandPlaylist(r.Context(), playlist, 0)
	if err != nil {
		writeServerError(w, "failed to expand playlist", err)
		return
	}
	writeJSON(w, http.StatusOK, expanded)
}

// ChangePrivacyHandler flips a playlist's visibility. The isPublic
// field must be present in the body.
func (h *APIHandler) ChangePrivacyHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, err := parseIDParam(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	var req struct {
		IsPublic *bool `json:"isPublic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IsPublic == nil {
		writeMessage(w, http.StatusBadRequest, "isPublic field is required")
		return
	}

	playlist, err := h.playlistRepo.GetPlaylistByID(r.Context(), id)
	if err != nil {
		writeServerError(w, "failed to get playlist", err)
		return
	}
	if playlist == nil {
		writeMessage(w, http.StatusNotFound, "Playlist not found")
		return
	}
	if !canModify(user, playlist.CreatedByID) {
		writeMessage(w, http.StatusForbidden, "Not allowed to modify this playlist")
		return
	}

	updated, err := h.playlistRepo.SetPrivacy(r.Context(), id, *req.IsPublic)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Playlist not found")
			return
		}
		writeServerError(w, "failed to change playlist privacy", err)
		return
	}

	label := "Private"
	if updated.IsPublic {
		label = "Public"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Playlist privacy updated to " + label,
		"playlist": updated,
	})
}
