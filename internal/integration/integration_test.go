package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/cupertitieus-ctrl/notesareboring/internal/app"
	"github.com/cupertitieus-ctrl/notesareboring/internal/auth"
	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
	"github.com/cupertitieus-ctrl/notesareboring/internal/infra/postgres"
	pgmigrations "github.com/cupertitieus-ctrl/notesareboring/internal/infra/postgres/migrations"
	infraredis "github.com/cupertitieus-ctrl/notesareboring/internal/infra/redis"
)

func TestGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	feed := infraredis.NewFeed(redisClient)
	questions := infraredis.NewQuestionCache(redisClient, store, 5*time.Minute)

	authService := auth.NewService(store, infraredis.NewRevocationList(redisClient), "it-secret", time.Hour)
	packService := app.NewPackService(store)
	gameService := app.NewGameService(store, store, store, feed)
	playerService := app.NewPlayerService(store, store, questions, feed)

	// Teacher signs up, signs in, uploads a pack.
	if _, err := authService.Register(ctx, "teacher@school.test", "chalkdust", "Teacher"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, teacher, err := authService.SignIn(ctx, "teacher@school.test", "chalkdust")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if _, err := authService.CurrentAccount(ctx, token); err != nil {
		t.Fatalf("current account: %v", err)
	}

	pack, err := packService.CreatePack(ctx, teacher.ID, app.CreatePackInput{
		Title:   "Water Cycle",
		Subject: "Science",
		Questions: []app.QuestionInput{
			{Text: "Evaporation turns water into?", Options: []string{"Vapor", "Ice"}, CorrectAnswer: "A", TimeLimitSeconds: 20},
			{Text: "Clouds form by?", Options: []string{"Melting", "Condensation", "Erosion"}, CorrectAnswer: "B"},
		},
	})
	if err != nil {
		t.Fatalf("create pack: %v", err)
	}

	full, err := packService.GetPackWithQuestions(ctx, pack.ID)
	if err != nil {
		t.Fatalf("get pack: %v", err)
	}
	if len(full.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(full.Questions))
	}

	// Open a game; events for it should flow through Redis pub/sub.
	game, err := gameService.CreateGame(ctx, teacher.ID, pack.ID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if game.MaxPlayers != app.MaxPlayersFree {
		t.Fatalf("max players = %d, want %d", game.MaxPlayers, app.MaxPlayersFree)
	}

	events := make(chan app.Event, 16)
	sub, err := feed.Subscribe(ctx, app.TablePlayers, game.ID, func(e app.Event) { events <- e })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	found, err := gameService.FindByCode(ctx, game.Code)
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if found.ID != game.ID {
		t.Fatalf("found wrong game: %+v", found)
	}

	player, err := playerService.Join(ctx, game.ID, "sam")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	select {
	case e := <-events:
		if e.Kind != app.ChangeInsert {
			t.Fatalf("expected players insert event, got %+v", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for join event")
	}

	if _, err := gameService.Start(ctx, game.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := gameService.Start(ctx, game.ID); err != domain.ErrInvalidTransition {
		t.Fatalf("double start: got %v, want ErrInvalidTransition", err)
	}

	// Full-speed correct answer through the Redis answer-key cache.
	result, err := playerService.SubmitAnswer(ctx, game.ID, player.ID, full.Questions[0].ID, "A", 0)
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if !result.Response.IsCorrect || result.TotalAwarded != 1000 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// Second correct answer: 1000 speed points plus a 200 streak bonus.
	result, err = playerService.SubmitAnswer(ctx, game.ID, player.ID, full.Questions[1].ID, "B", 0)
	if err != nil {
		t.Fatalf("submit second answer: %v", err)
	}
	if result.TotalAwarded != 1200 {
		t.Fatalf("total awarded = %d, want 1200", result.TotalAwarded)
	}

	board, err := playerService.Leaderboard(ctx, game.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].Score != 2200 || board[0].Streak != 2 {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}

	if _, err := gameService.Finish(ctx, game.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := gameService.FindByCode(ctx, game.Code); err != domain.ErrGameNotFound {
		t.Fatalf("finished game still joinable: %v", err)
	}

	// The pack's play counter is bumped fire-and-forget after game creation.
	deadline := time.Now().Add(5 * time.Second)
	for {
		p, err := packService.GetPackWithQuestions(ctx, pack.ID)
		if err != nil {
			t.Fatalf("get pack: %v", err)
		}
		if p.GamesPlayed >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("games_played never incremented")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
