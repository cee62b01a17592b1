// Package config loads runtime configuration from environment variables.
package config

import (
	"errors"
	"os"
	"time"
)

// ErrMissingCredentials is returned when the Spotify client credentials are not set.
var ErrMissingCredentials = errors.New("missing SPOTIFY_CLIENT_ID or SPOTIFY_CLIENT_SECRET environment variable")

// Config captures the runtime configuration for the Cosmic Wrapped backend.
type Config struct {
	Addr        string
	DatabaseURL string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string

	// LibraryPath is where the browser is sent after a successful
	// Spotify link or snapshot build.
	LibraryPath string

	OpenAIBaseURL string
	OpenAIKey     string
	OpenAIModel   string

	RequestTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// suitable for local development. Spotify client credentials are required.
func Load() (Config, error) {
	cfg := Config{
		Addr:                getString("WRAPPED_ADDR", "127.0.0.1:8080"),
		DatabaseURL:         os.Getenv("WRAPPED_DATABASE_URL"),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURI:  getString("SPOTIFY_REDIRECT_URI", "http://127.0.0.1:8080/auth/spotify/callback"),
		LibraryPath:         getString("WRAPPED_LIBRARY_PATH", "/api/wrapped"),
		OpenAIBaseURL:       getString("OPENAI_BASE_URL", "https://integrate.api.nvidia.com/v1"),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getString("OPENAI_MODEL", "meta/llama-3.1-405b-instruct"),
		RequestTimeout:      getDuration("WRAPPED_REQUEST_TIMEOUT", 10*time.Second),
	}

	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return Config{}, ErrMissingCredentials
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
