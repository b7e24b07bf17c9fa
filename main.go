package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"feedreader-be/config"
	"feedreader-be/handlers"
	"feedreader-be/routes"
	"feedreader-be/sanitizer"
	"feedreader-be/store"
	"feedreader-be/utils"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "feedreader-be",
		Usage: "feed reader backend that stores and serves sanitized article HTML",
		Before: func(c *cli.Context) error {
			// Load environment variables
			config.LoadEnv()
			config.SetupLogger()
			return nil
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: runServe,
			},
			{
				Name:  "sanitize",
				Usage: "sanitize HTML from stdin and write it to stdout",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "raw-json", Usage: `wrap the output as {"__html": ...}`},
				},
				Action: runSanitize,
			},
			{
				Name:  "issue-token",
				Usage: "print a signed service token for an ingest client",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Usage: "name of the client", Required: true},
					&cli.StringFlag{Name: "scope", Value: utils.ScopeIngest, Usage: "space separated scopes"},
					&cli.DurationFlag{Name: "ttl", Value: 720 * time.Hour, Usage: "token lifetime"},
					&cli.StringFlag{Name: "secret", EnvVars: []string{"JWT_SECRET"}, Usage: "signing secret"},
				},
				Action: runIssueToken,
			},
		},
	}
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// An invalid policy stops startup before anything listens
	policy, err := config.LoadSanitizerPolicy()
	if err != nil {
		return err
	}

	secret := config.GetEnv("JWT_SECRET", "")
	if secret == "" {
		slog.Warn("JWT_SECRET is empty, ingest endpoints will reject every request")
	}

	// Connect to Redis for caching
	config.ConnectRedis(ctx)
	defer config.CloseRedis()

	articles, err := openArticleStore()
	if err != nil {
		return err
	}

	h := handlers.New(sanitizer.New(policy), articles, handlers.FeedConfig{
		Title:   config.GetEnv("FEED_TITLE", "Feed Reader"),
		Link:    config.GetEnv("FEED_LINK", "http://localhost:8080/api/feed.atom"),
		BaseURL: config.GetEnv("BASE_URL", "http://localhost:8080"),
	}, slog.Default())

	router := routes.SetupRoutes(h, routes.Options{
		JWTSecret:      secret,
		AllowedOrigins: config.GetEnvList("CORS_ALLOWED_ORIGINS"),
		MaxBodyBytes:   int64(config.GetEnvInt("MAX_BODY_BYTES", 2<<20)),
		Logger:         slog.Default(),
	})

	addr := fmt.Sprintf(":%s", config.GetEnv("PORT", "8080"))
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr, "storage", articles.Name(), "policy", policy.Fingerprint()[:16])
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func openArticleStore() (store.ArticleStore, error) {
	switch driver := config.GetEnv("STORAGE_DRIVER", "postgres"); driver {
	case "memory":
		slog.Warn("using in-memory article storage, data is lost on restart")
		return store.NewInMemoryArticleStore(), nil
	case "postgres":
		// Connect to database
		db, err := config.ConnectDB()
		if err != nil {
			return nil, err
		}
		return store.NewGormArticleStore(db)
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", driver)
	}
}

func runSanitize(c *cli.Context) error {
	policy, err := config.LoadSanitizerPolicy()
	if err != nil {
		return err
	}

	raw, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	result := sanitizer.New(policy).SanitizeWithResult(string(raw))
	if result.Truncated {
		slog.Warn("input truncated", "input_bytes", result.InputBytes, "max_input_bytes", policy.MaxInputBytes())
	}

	if c.Bool("raw-json") {
		return json.NewEncoder(c.App.Writer).Encode(sanitizer.WrapForRender(result.Content))
	}
	_, err = fmt.Fprintln(c.App.Writer, result.Content.String())
	return err
}

func runIssueToken(c *cli.Context) error {
	token, err := utils.GenerateJWT(c.String("subject"), c.String("scope"), c.Duration("ttl"), c.String("secret"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, token)
	return err
}
