package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"soundvault/logger"
	"soundvault/model"
	"soundvault/repository"

	"github.com/gorilla/mux"
)

// GetAllUsersHandler lists every user. Password hashes never leave the
// model's JSON encoding.
func (h *APIHandler) GetAllUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAllUsers(r.Context())
	if err != nil {
		writeServerError(w, "failed to list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// DeleteUserHandler removes a user by ID.
func (h *APIHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.userRepo.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeServerError(w, "failed to delete user", err)
		return
	}

	logger.Info("user deleted", logger.Int64("userId", id))
	writeMessage(w, http.StatusOK, "User deleted successfully")
}

// UpdateUserHandler updates a user's role.
func (h *APIHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		writeMessage(w, http.StatusBadRequest, "Invalid role")
		return
	}

	user, err := h.userRepo.UpdateUserRole(r.Context(), id, req.Role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeServerError(w, "failed to update user role", err)
		return
	}

	logger.Info("user role updated", logger.Int64("userId", id), logger.String("role", req.Role))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User role updated successfully",
		"user":    user,
	})
}
