package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cosmictunes/cosmic-wrapped/internal/store"
)

const birthdayLayout = "2006-01-02"

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Birthday string `json:"birthday"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Username    string `json:"username"`
	Birthday    string `json:"birthday"`
	NewPassword string `json:"new_password"`
}

// Signup registers a new account (POST /api/signup).
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	birthday, err := time.Parse(birthdayLayout, req.Birthday)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid birthday")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to secure password")
		return
	}

	user := &store.User{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: string(hashed),
		Birthday:     birthday,
		Active:       true,
		JoinedAt:     time.Now().UTC(),
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "Username already taken")
			return
		}
		h.logger.Error("creating user failed", "username", req.Username, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	session, err := h.sessions.Create(r.Context(), user.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	h.sessions.SetCookie(w, session)

	respondJSON(w, http.StatusCreated, map[string]string{"username": user.Username})
}

// Login authenticates an account (POST /api/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.Active {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	session, err := h.sessions.Create(r.Context(), user.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	h.sessions.SetCookie(w, session)

	respondJSON(w, http.StatusOK, map[string]string{"username": user.Username})
}

// Logout ends the current session (POST /api/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessions.FromRequest(r); session != nil {
		h.sessions.Delete(r.Context(), session.ID)
	}
	h.sessions.ClearCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// ForgotPassword resets a password using the birthday as the security
// answer (POST /api/forgot-password). Birthday-as-secret is a weak,
// single-factor check carried over from the original application.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.NewPassword) < 8 {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	birthday, err := time.Parse(birthdayLayout, req.Birthday)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid birthday")
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil || !sameDate(user.Birthday, birthday) {
		respondError(w, http.StatusUnauthorized, "Security answer does not match")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to secure password")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.Username, string(hashed)); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

// DeleteAccount removes the authenticated user and all their snapshots
// (DELETE /api/account).
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	username, ok := h.currentUsername(w, r)
	if !ok {
		return
	}

	// Wraps are matched by username, not a foreign key.
	if err := h.wraps.DeleteForUser(r.Context(), username); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}
	if err := h.users.Delete(r.Context(), username); err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	if session := h.sessions.FromRequest(r); session != nil {
		h.sessions.Delete(r.Context(), session.ID)
	}
	h.sessions.ClearCookie(w)

	respondJSON(w, http.StatusOK, map[string]string{"status": "account deleted"})
}

// sameDate compares calendar dates ignoring time of day.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
