package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"trivia-chat-service/internal/app"
	"trivia-chat-service/internal/config"
	"trivia-chat-service/internal/infra/memory"
	redisinfra "trivia-chat-service/internal/infra/redis"
	"trivia-chat-service/internal/scheduler"
	transport "trivia-chat-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := newLogger()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	opened, err := openQuestionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer opened.Close()
	var questions app.QuestionStore = opened.QuestionStore

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	bankTTL := config.TTLDuration(cfg.Quiz.BankTTL, 10*time.Minute)

	var (
		sessions app.SessionRepository
		scores   app.ScoreBoard
	)
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, questions, bankTTL)
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
		scores = redisinfra.NewScoreBoard(redisClient)
	} else {
		sessions = memory.NewSessionStore()
		scores = memory.NewScoreBoard()
	}

	bank := app.NewQuestionBank(questions, logger)
	samples, err := seedQuestions(cfg)
	if err != nil {
		return err
	}
	if err := bank.EnsureSeeded(ctx, samples); err != nil {
		return err
	}
	logger.Info("question bank loaded", slog.Int("questions", bank.Len()))

	jobs := scheduler.New(logger)
	hub := transport.NewHub(logger)
	service := app.NewTriviaService(sessions, bank, scores, jobs, app.Options{
		AdvanceDelay:    config.TTLDuration(cfg.Quiz.AdvanceDelay, app.DefaultAdvanceDelay),
		CreationTimeout: config.TTLDuration(cfg.Quiz.CreationTimeout, app.DefaultCreationTimeout),
		CancelKeyword:   cfg.Quiz.CancelKeyword,
		Location:        cfg.Quiz.Location(),
		TopN:            cfg.Quiz.TopN,
		Admins:          cfg.Admin.IDs,
		Notifier:        hub,
		Logger:          logger,
	})
	wsHandler := transport.NewWSHandler(service, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting trivia service", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...", slog.Int("pending_jobs", jobs.Pending()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return jobs.Stop(shutdownCtx)
	})
	return g.Wait()
}
