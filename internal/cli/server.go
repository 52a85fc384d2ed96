package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizbot-service/internal/app"
	"quizbot-service/internal/config"
	"quizbot-service/internal/content"
	"quizbot-service/internal/domain"
	"quizbot-service/internal/infra/llm"
	"quizbot-service/internal/infra/memory"
	pgbank "quizbot-service/internal/infra/postgres"
	redisstore "quizbot-service/internal/infra/redis"
	"quizbot-service/internal/poll"
	"quizbot-service/internal/quizrun"
	"quizbot-service/internal/sched"
	"quizbot-service/internal/transport/ws"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the bot server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz bot server",
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.BankLoader = memory.NewStaticBank(sampleBank())
	if pool != nil {
		loader = pgbank.NewBankLoader(pool)
	}
	bankTTL := config.Duration(cfg.Quiz.BankTTL, 10*time.Minute)
	bank := memory.NewBankCache(loader, bankTTL)
	bankSource := app.NewBankSource(bank)

	var generator app.Generator
	source := quizrun.ItemSource(bankSource)
	if cfg.LLM.Token != "" {
		generator, err = llm.New(cfg.LLM.Token, cfg.LLM.Model)
		if err != nil {
			return err
		}
		source = app.NewGeneratedSource(generator, bankSource)
	}

	var auth app.AuthStore
	var subs app.SubscriptionStore
	if redisClient != nil {
		auth = redisstore.NewAuthStore(redisClient, cfg.Quiz.Admins)
		subs = redisstore.NewSubscriptionStore(redisClient)
	} else {
		auth = memory.NewAuthStore(cfg.Quiz.Admins)
		subs = memory.NewSubscriptionStore()
	}

	pollDuration := config.Duration(cfg.Quiz.PollDuration, 24*time.Hour)
	questionInterval := config.Duration(cfg.Quiz.QuestionInterval, 24*time.Hour)
	batchPause := config.Duration(cfg.Quiz.BatchPause, 5*time.Second)

	shuffler := content.NewShuffler()
	service := &serviceHolder{}
	gateway := ws.NewGateway(service)

	polls := poll.NewManager(gateway, sched.New(), pollDuration)
	runner := quizrun.NewRunner(source, shuffler, polls, gateway)
	service.Service = app.NewService(app.Params{
		Config: app.Config{
			ChannelID:        cfg.Quiz.ChannelID,
			AccessCode:       cfg.Quiz.AccessCode,
			QuestionInterval: questionInterval,
			BatchPause:       batchPause,
		},
		Transport:     gateway,
		Generator:     generator,
		Polls:         polls,
		Runner:        runner,
		Conversations: memory.NewConversationStore(),
		Auth:          auth,
		Subscriptions: subs,
		Shuffler:      shuffler,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", gateway.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz bot on :%s", finalPort)
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

// serviceHolder breaks the construction cycle between the gateway, which
// needs a handler, and the service, which needs the gateway as transport.
// The gateway only dispatches after a connection is live, by which point the
// service has been assigned.
type serviceHolder struct {
	*app.Service
}

// sampleBank provides a minimal curated bank; configure Postgres to serve
// real topic banks in production.
func sampleBank() map[string][]domain.QuizItem {
	return map[string][]domain.QuizItem{
		"go": {
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
		},
	}
}
