// Copyright (C) 2025 flashchat.io <dev@flashchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/flashchat/flashchat/backend/integration"
	"github.com/flashchat/flashchat/backend/middleware"
	"github.com/flashchat/flashchat/backend/models"
	"github.com/flashchat/flashchat/backend/storage"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const bcryptCost = 10

type AuthHandler struct {
	users        storage.UserStore
	uploader     integration.Uploader
	jwtSecret    string
	secureCookie bool
	log          *zap.Logger
}

func NewAuthHandler(users storage.UserStore, uploader integration.Uploader, jwtSecret string, secureCookie bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:        users,
		uploader:     uploader,
		jwtSecret:    jwtSecret,
		secureCookie: secureCookie,
		log:          log,
	}
}

type authResponse struct {
	ID         string `json:"_id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilePic"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.FullName == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	if !emailPattern.MatchString(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	if _, err := h.users.GetUserByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusBadRequest, "User with this email already exists")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		h.serverError(w, "signup lookup", err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		h.serverError(w, "hash password", err)
		return
	}

	user := &models.User{
		FullName: req.FullName,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		h.serverError(w, "create user", err)
		return
	}

	h.setSession(w, user.ID.Hex())
	writeJSON(w, http.StatusCreated, authResponse{
		ID:         user.ID.Hex(),
		FullName:   user.FullName,
		Email:      user.Email,
		ProfilePic: user.ProfilePic,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "Invalid email or password")
		return
	}
	if err != nil {
		h.serverError(w, "login lookup", err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		writeError(w, http.StatusBadRequest, "Invalid email or password")
		return
	}

	h.setSession(w, user.ID.Hex())
	writeJSON(w, http.StatusOK, authResponse{
		ID:         user.ID.Hex(),
		FullName:   user.FullName,
		Email:      user.Email,
		ProfilePic: user.ProfilePic,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearTokenCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// UpdateProfile uploads a new profile picture and stores its URL.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	var req struct {
		ProfilePic string `json:"profilePic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProfilePic == "" {
		writeError(w, http.StatusBadRequest, "Profile picture is required")
		return
	}

	if h.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "Image uploads are not configured")
		return
	}
	url, err := h.uploader.UploadImage(r.Context(), req.ProfilePic)
	if err != nil {
		h.serverError(w, "upload profile pic", err)
		return
	}

	user, err := h.users.UpdateProfilePic(r.Context(), userID, url)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.serverError(w, "update profile pic", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Check returns the authenticated user, for session restoration on page load.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	user, err := h.users.GetUserByID(r.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.serverError(w, "auth check", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSession(w http.ResponseWriter, userID string) {
	token, err := middleware.IssueToken(h.jwtSecret, userID)
	if err != nil {
		h.log.Error("issue token", zap.Error(err))
		return
	}
	middleware.SetTokenCookie(w, token, h.secureCookie)
}

func (h *AuthHandler) serverError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Server Error")
}
