package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/types"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler provides the admin user management endpoints.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers admin user routes. The caller must already be gated to
// admin or super_admin.
func UserRouter(r chi.Router, userService *services.UserService) {
	handler := NewUserHandler(userService)

	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Put("/{userID}", handler.UpdateUser)
	r.Delete("/{userID}", handler.DeleteUser)
}

// UserUpsertRequest is the body for creating or updating a user. Password is
// optional on update; when present it replaces the stored hash.
type UserUpsertRequest struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
	EntityID *int   `json:"entityId,omitempty"`
}

// ListUsers returns users visible to the caller, optionally filtered by
// ?role=.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	users, err := h.userService.List(r.Context(), scope, strings.TrimSpace(r.URL.Query().Get("role")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if users == nil {
		users = []types.User{}
	}

	writeJSON(w, http.StatusOK, users)
}

// CreateUser creates an account. Accounts are only ever created by an admin;
// there is no self-service registration.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "password is required")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Username:     req.Username,
		Fullname:     req.Fullname,
		Role:         req.Role,
		EntityID:     req.EntityID,
		PasswordHash: string(hashed),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// UpdateUser changes a user's profile, role, entity, or password.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(chi.URLParam(r, "userID"), "user id")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var req UserUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}

	current, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	current.Username = strings.TrimSpace(req.Username)
	current.Fullname = strings.TrimSpace(req.Fullname)
	current.Role = req.Role
	current.EntityID = req.EntityID
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		current.PasswordHash = string(hashed)
	}

	updated, err := h.userService.Update(r.Context(), current)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteUser removes an account. Accounts referenced by trips or fuel history
// cannot be deleted and come back as a conflict.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(chi.URLParam(r, "userID"), "user id")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
