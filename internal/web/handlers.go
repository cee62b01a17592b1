package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/cosmictunes/cosmic-wrapped/internal/spotify"
	"github.com/cosmictunes/cosmic-wrapped/internal/store"
	"github.com/cosmictunes/cosmic-wrapped/internal/wrapped"
)

const oauthStateCookie = "oauth_state"

// OAuthService abstracts the Spotify authorization code flow.
type OAuthService interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// ProfileService abstracts the profile fetch done during the callback.
type ProfileService interface {
	CurrentProfile(ctx context.Context, accessToken string) (*spotify.Profile, error)
}

// WrapBuilder abstracts the snapshot pipeline.
type WrapBuilder interface {
	Build(ctx context.Context, username, term string, limit int) (*wrapped.Snapshot, error)
}

// Handlers contains the HTTP handlers for the JSON API.
type Handlers struct {
	auth        OAuthService
	profiles    ProfileService
	builder     WrapBuilder
	users       store.UserStore
	wraps       store.WrapStore
	sessions    *Sessions
	logger      *log.Logger
	libraryPath string
}

// NewHandlers creates a Handlers instance.
func NewHandlers(auth OAuthService, profiles ProfileService, builder WrapBuilder, users store.UserStore, wraps store.WrapStore, sessions *Sessions, logger *log.Logger, libraryPath string) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{
		auth:        auth,
		profiles:    profiles,
		builder:     builder,
		users:       users,
		wraps:       wraps,
		sessions:    sessions,
		logger:      logger,
		libraryPath: libraryPath,
	}
}

// currentUsername resolves the authenticated username from the session
// cookie. All operations below the handler layer take the username as
// an explicit argument.
func (h *Handlers) currentUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	session := h.sessions.FromRequest(r)
	if session == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return "", false
	}
	return session.Username, true
}

// SpotifyLogin initiates the Spotify link flow (GET /auth/spotify/login).
func (h *Handlers) SpotifyLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUsername(w, r); !ok {
		return
	}

	state, err := spotify.GenerateState()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate state")
		return
	}

	// Stored for validation on callback.
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// SpotifyCallback completes the OAuth flow (GET /auth/spotify/callback).
func (h *Handlers) SpotifyCallback(w http.ResponseWriter, r *http.Request) {
	username, ok := h.currentUsername(w, r)
	if !ok {
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || r.URL.Query().Get("state") != stateCookie.Value {
		respondError(w, http.StatusUnauthorized, "OAuth state mismatch")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "Invalid code")
		return
	}

	token, err := h.auth.Exchange(r.Context(), code)
	if err != nil || token.AccessToken == "" {
		respondError(w, http.StatusBadRequest, "Failed to obtain token")
		return
	}

	displayName := "Unknown User"
	if profile, err := h.profiles.CurrentProfile(r.Context(), token.AccessToken); err == nil && profile.DisplayName != "" {
		displayName = profile.DisplayName
	}

	if err := h.users.UpdateSpotifyLink(r.Context(), username, token.AccessToken, token.RefreshToken, displayName); err != nil {
		h.logger.Error("persisting spotify link failed", "username", username, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to link account")
		return
	}

	http.Redirect(w, r, h.libraryPath, http.StatusTemporaryRedirect)
}

// MakeWrapped builds a snapshot (POST /api/wrapped/{timeRange}/{limit}).
func (h *Handlers) MakeWrapped(w http.ResponseWriter, r *http.Request) {
	username, ok := h.currentUsername(w, r)
	if !ok {
		return
	}

	term := chi.URLParam(r, "timeRange")
	limit, err := strconv.Atoi(chi.URLParam(r, "limit"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	snapshot, err := h.builder.Build(r.Context(), username, term, limit)
	if err != nil {
		h.respondBuildError(w, username, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"created_at": snapshot.CreatedAt.Format(time.RFC3339Nano),
	})
}

// respondBuildError maps pipeline failures onto the API error taxonomy.
func (h *Handlers) respondBuildError(w http.ResponseWriter, username string, err error) {
	switch {
	case errors.Is(err, wrapped.ErrInvalidTerm):
		respondError(w, http.StatusBadRequest, "Invalid time range")
	case errors.Is(err, wrapped.ErrInvalidLimit):
		respondError(w, http.StatusBadRequest, "Invalid limit")
	case errors.Is(err, wrapped.ErrNotLinked):
		respondError(w, http.StatusUnauthorized, "User is not authenticated with Spotify.")
	case errors.Is(err, wrapped.ErrRefreshFailed):
		respondError(w, http.StatusUnauthorized, "Spotify authorization expired")
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, spotify.ErrUpstream):
		h.logger.Warn("spotify upstream failure", "username", username, "error", err)
		respondError(w, http.StatusBadGateway, "Spotify is unavailable")
	default:
		h.logger.Warn("wrapped build failed", "username", username, "error", err)
		respondError(w, http.StatusBadRequest, "Failed to retrieve data from Spotify")
	}
}

// GetWrapped fetches a snapshot by timestamp (GET /api/wrapped/{timestamp}).
func (h *Handlers) GetWrapped(w http.ResponseWriter, r *http.Request) {
	username, ok := h.currentUsername(w, r)
	if !ok {
		return
	}

	raw := chi.URLParam(r, "timestamp")
	createdAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid timestamp")
		return
	}

	wrap, err := h.wraps.GetByTimestamp(r.Context(), username, createdAt)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Wrapped does not exist")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load wrapped")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"created_at":   raw,
		"term":         wrap.Term,
		"display_name": wrap.DisplayName,
		"data":         json.RawMessage(wrap.Payload),
	})
}

// DeleteWrapped removes a snapshot by timestamp (DELETE /api/wrapped/{timestamp}).
func (h *Handlers) DeleteWrapped(w http.ResponseWriter, r *http.Request) {
	username, ok := h.currentUsername(w, r)
	if !ok {
		return
	}

	createdAt, err := time.Parse(time.RFC3339Nano, chi.URLParam(r, "timestamp"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid timestamp")
		return
	}

	err = h.wraps.DeleteByTimestamp(r.Context(), username, createdAt)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Wrapped does not exist")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete wrapped")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListWrapped returns the user's library, newest first (GET /api/wrapped).
func (h *Handlers) ListWrapped(w http.ResponseWriter, r *http.Request) {
	username, ok := h.currentUsername(w, r)
	if !ok {
		return
	}

	wraps, err := h.wraps.ListByUser(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list wrapped")
		return
	}

	type entry struct {
		CreatedAt   string `json:"created_at"`
		Term        string `json:"term"`
		DisplayName string `json:"display_name"`
	}
	entries := make([]entry, 0, len(wraps))
	for _, wrap := range wraps {
		entries = append(entries, entry{
			CreatedAt:   wrap.CreatedAt.Format(time.RFC3339Nano),
			Term:        wrap.Term,
			DisplayName: wrap.DisplayName,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"wraps": entries})
}
