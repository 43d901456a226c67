package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/cupertitieus-ctrl/notesareboring/internal/app"
	"github.com/cupertitieus-ctrl/notesareboring/internal/auth"
	"github.com/cupertitieus-ctrl/notesareboring/internal/config"
	"github.com/cupertitieus-ctrl/notesareboring/internal/infra/memory"
	"github.com/cupertitieus-ctrl/notesareboring/internal/infra/postgres"
	infraredis "github.com/cupertitieus-ctrl/notesareboring/internal/infra/redis"
	transport "github.com/cupertitieus-ctrl/notesareboring/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var (
		accounts  auth.AccountStore
		lookup    app.AccountSource
		packs     app.PackStore
		games     app.GameStore
		players   app.PlayerStore
		questions app.QuestionSource
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store := postgres.NewStore(pool)
		accounts, lookup, packs, games, players, questions = store, store, store, store, store, store
	} else {
		log.Printf("postgres url not configured, using in-memory store")
		store := memory.NewStore()
		accounts, lookup, packs, games, players, questions = store, store, store, store, store, store
	}

	if redisClient != nil {
		cacheTTL := config.TTLDuration(cfg.Questions.CacheTTL, 10*time.Minute)
		questions = infraredis.NewQuestionCache(redisClient, questions, cacheTTL)
	}

	var feed app.ChangeFeed
	var revoked auth.RevocationList
	if redisClient != nil {
		feed = infraredis.NewFeed(redisClient)
		revoked = infraredis.NewRevocationList(redisClient)
	} else {
		feed = memory.NewBroker()
		revoked = memory.NewRevocationList()
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		log.Printf("jwt secret not configured, using an insecure development secret")
		secret = "insecure-dev-secret"
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)

	authService := auth.NewService(accounts, revoked, secret, tokenTTL)
	if g := cfg.Auth.Google; g.ClientID != "" {
		authService.RegisterProvider("google", auth.GoogleProvider(g.ClientID, g.ClientSecret, g.RedirectURL))
	}

	packService := app.NewPackService(packs)
	gameService := app.NewGameService(games, packs, lookup, feed)
	playerService := app.NewPlayerService(players, games, questions, feed)

	api := transport.NewAPI(authService, packService, gameService, playerService)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	api.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting notesareboring on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
