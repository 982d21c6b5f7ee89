package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"soundvault/core/auth"
	"soundvault/logger"
	"soundvault/model"
	"soundvault/repository"
)

// RegisterRequest is the registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is the success body for register and login.
type authResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
}

func (h *APIHandler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(auth.TokenExpiry()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *APIHandler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RegisterHandler creates a new account, issues a token and sets the
// auth cookie.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		writeServerError(w, "failed to hash password", err)
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         model.RoleUser,
	}

	if _, err := h.userRepo.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			logger.Warn("registration with existing email", logger.String("email", user.Email))
			writeMessage(w, http.StatusConflict, "User already exists")
			return
		}
		writeServerError(w, "failed to create user", err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, user.Username)
	if err != nil {
		writeServerError(w, "failed to generate token", err)
		return
	}

	h.setAuthCookie(w, token)
	user.PasswordHash = ""
	logger.Info("user registered", logger.Int64("userId", user.ID), logger.String("email", user.Email))

	writeJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "User registered successfully",
		User:    user,
		Token:   token,
	})
}

// LoginHandler authenticates by email and password, issues a token and
// resets the auth cookie.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.userRepo.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeServerError(w, "failed to query user", err)
		return
	}
	if user == nil {
		logger.Warn("login for unknown email", logger.String("email", req.Email))
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}

	// Accounts provisioned through an external identity flow carry no
	// hash and must set a password through that flow first.
	if user.PasswordHash == "" {
		writeMessage(w, http.StatusForbidden, "No password set for this account, sign in with your external login and set a password first")
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("login with wrong password", logger.Int64("userId", user.ID))
		writeMessage(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, user.Username)
	if err != nil {
		writeServerError(w, "failed to generate token", err)
		return
	}

	// Drop any stale cookie before setting the fresh one.
	h.clearAuthCookie(w)
	h.setAuthCookie(w, token)
	user.PasswordHash = ""
	logger.Info("user logged in", logger.Int64("userId", user.ID))

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "Successfully logged in",
		User:    user,
		Token:   token,
	})
}

// LogoutHandler clears the auth cookie.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookie(w)
	writeMessage(w, http.StatusOK, "User logged out")
}

// ProfileHandler returns the authenticated user with favorites expanded
// to full tracks.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	favorites, err := h.userRepo.GetFavoriteTracks(r.Context(), user.ID)
	if err != nil {
		writeServerError(w, "failed to load favorites", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": struct {
			model.User
			Favorites []*model.Track `json:"favorites"`
		}{User: *user, Favorites: favorites},
	})
}

// SaveToFavoritesHandler adds a track to the caller's favorites set.
func (h *APIHandler) SaveToFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req struct {
		TrackID int64 `json:"trackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackID == 0 {
		writeMessage(w, http.StatusBadRequest, "trackId is required")
		return
	}

	if err := h.userRepo.AddFavorite(r.Context(), user.ID, req.TrackID); err != nil {
		if errors.Is(err, repository.ErrDuplicateFavorite) {
			writeMessage(w, http.StatusConflict, "Track is already in favorites")
			return
		}
		writeServerError(w, "failed to add favorite", err)
		return
	}

	writeMessage(w, http.StatusOK, "Track added to favorites")
}

// RemoveFavouritesHandler removes a track from the caller's favorites.
func (h *APIHandler) RemoveFavouritesHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req struct {
		TrackID int64 `json:"trackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackID == 0 {
		writeMessage(w, http.StatusBadRequest, "trackId is required")
		return
	}

	if err := h.userRepo.RemoveFavorite(r.Context(), user.ID, req.TrackID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Track is not in favorites")
			return
		}
		writeServerError(w, "failed to remove favorite", err)
		return
	}

	writeMessage(w, http.StatusOK, "Track removed from favorites")
}

// IsFavouriteHandler reports favorites membership for a track.
func (h *APIHandler) IsFavouriteHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	trackID, err := parseIDParam(r.URL.Query().Get("trackId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid trackId")
		return
	}

	isFavorite, err := h.userRepo.IsFavorite(r.Context(), user.ID, trackID)
	if err != nil {
		writeServerError(w, "failed to check favorite", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trackId":    trackID,
		"isFavorite": isFavorite,
	})
}
