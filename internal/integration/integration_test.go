package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quizbot-service/internal/app"
	"quizbot-service/internal/content"
	"quizbot-service/internal/domain"
	"quizbot-service/internal/infra/memory"
	pgbank "quizbot-service/internal/infra/postgres"
	pgmigrations "quizbot-service/internal/infra/postgres/migrations"
	infraredis "quizbot-service/internal/infra/redis"
	"quizbot-service/internal/poll"
	"quizbot-service/internal/quizrun"
	"quizbot-service/internal/sched"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// capturingTransport stands in for the WebSocket gateway so the test can
// observe polls and answer them.
type capturingTransport struct {
	mu     sync.Mutex
	nextID int
	polls  []sentPoll
	texts  []string
	// answer is invoked with the previous poll once the next one goes out,
	// at which point the previous poll is registered with the session.
	answer func(pollID string, correctIndex int)
}

type sentPoll struct {
	id           string
	question     string
	correctIndex int
}

func (t *capturingTransport) SendPoll(_ context.Context, _, question string, _ []string, correctIndex int) (string, error) {
	t.mu.Lock()
	t.nextID++
	id := fmt.Sprintf("poll-%d", t.nextID)
	t.polls = append(t.polls, sentPoll{id: id, question: question, correctIndex: correctIndex})
	answer := t.answer
	var prev sentPoll
	hasPrev := len(t.polls) > 1
	if hasPrev {
		prev = t.polls[len(t.polls)-2]
	}
	t.mu.Unlock()
	if answer != nil && hasPrev {
		answer(prev.id, prev.correctIndex)
	}
	return id, nil
}

func (t *capturingTransport) StopPoll(context.Context, string, string) error { return nil }

func (t *capturingTransport) SendText(_ context.Context, _, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.texts = append(t.texts, text)
	return nil
}

func TestBankQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	_, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedBank(t, ctx, pgURL, "go", sampleBankItems())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	bank := memory.NewBankCache(pgbank.NewBankLoader(pool), 5*time.Minute)
	source := app.NewBankSource(bank)

	transport := &capturingTransport{}
	polls := poll.NewManager(transport, sched.New(), time.Hour)
	runner := quizrun.NewRunner(source, content.NewShuffler(), polls, transport)

	transport.answer = func(pollID string, correctIndex int) {
		runner.HandleAnswer(domain.AnswerEvent{
			PollID:        pollID,
			UserID:        "u1",
			OptionIndices: []int{correctIndex},
		})
	}

	session := quizrun.NewSession("chat-1", "go", 2, 0)
	if err := runner.Start(ctx, session); err != nil {
		t.Fatalf("start: %v", err)
	}
	runner.Wait()

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.polls) != 2 {
		t.Fatalf("expected 2 polls from the bank, got %d", len(transport.polls))
	}
	found := false
	for _, text := range transport.texts {
		if strings.Contains(text, "User u1: 1 points") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected leaderboard crediting u1, got %v", transport.texts)
	}
}

func TestRedisAuthStoreEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, cleanup := startRedis(t, ctx)
	defer cleanup()

	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	store := infraredis.NewAuthStore(client, []string{"admin"})

	ok, err := store.IsAuthorized(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if ok {
		t.Fatal("expected u1 to start unauthorized")
	}
	if err := store.Authorize(ctx, "u1"); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	ok, err = store.IsAuthorized(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if !ok {
		t.Fatal("expected u1 to be authorized after /auth")
	}
	ok, err = store.IsAuthorized(ctx, "u9", "admin")
	if err != nil {
		t.Fatalf("admin check: %v", err)
	}
	if !ok {
		t.Fatal("expected admin username to always be authorized")
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

func seedBank(t *testing.T, ctx context.Context, dsn, topic string, items []domain.QuizItem) {
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

	data, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshal bank: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_banks (topic, data) VALUES (?, ?::jsonb) ON CONFLICT (topic) DO UPDATE SET data=EXCLUDED.data`, topic, string(data)); err != nil {
		t.Fatalf("insert bank: %v", err)
	}
}

func sampleBankItems() []domain.QuizItem {
	return []domain.QuizItem{
		{
			Prompt:       "Which keyword starts a goroutine?",
			Options:      []string{"go", "async", "spawn", "fork"},
			CorrectIndex: 0,
		},
		{
			Prompt:       "What does a nil map lookup return?",
			Options:      []string{"a panic", "the zero value", "an error", "a random value"},
			CorrectIndex: 1,
		},
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
