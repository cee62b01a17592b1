// Command cosmic-wrapped runs the Cosmic Wrapped backend: account
// management, Spotify account linking, and Wrapped snapshot generation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/cosmictunes/cosmic-wrapped/internal/blurb"
	"github.com/cosmictunes/cosmic-wrapped/internal/config"
	"github.com/cosmictunes/cosmic-wrapped/internal/spotify"
	"github.com/cosmictunes/cosmic-wrapped/internal/store"
	"github.com/cosmictunes/cosmic-wrapped/internal/web"
	"github.com/cosmictunes/cosmic-wrapped/internal/wrapped"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "cosmic-wrapped",
	})

	ctx := context.Background()

	var (
		users    store.UserStore
		wraps    store.WrapStore
		sessions store.SessionStore
	)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		users = db.Users()
		wraps = db.Wraps()
		sessions = db.Sessions()
	} else {
		logger.Warn("WRAPPED_DATABASE_URL not set, using in-memory stores")
		users = store.NewMemoryUserStore()
		wraps = store.NewMemoryWrapStore()
		sessions = store.NewMemorySessionStore()
	}

	auth := spotify.NewAuthenticator(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURI)
	api := spotify.NewClient(cfg.RequestTimeout)

	var blurbs blurb.Generator
	if cfg.OpenAIKey != "" {
		blurbs = blurb.NewOpenAIGenerator(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.OpenAIModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, snapshots will have no description")
	}

	builder := wrapped.NewBuilder(users, wraps, api, auth, blurbs, logger)

	server, err := web.NewServer(web.ServerConfig{
		Addr:         cfg.Addr,
		LibraryPath:  cfg.LibraryPath,
		Auth:         auth,
		Profiles:     api,
		Builder:      builder,
		Users:        users,
		Wraps:        wraps,
		SessionStore: sessions,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}
