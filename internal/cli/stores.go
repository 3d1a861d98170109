package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
	"trivia-chat-service/internal/app"
	"trivia-chat-service/internal/config"
	"trivia-chat-service/internal/domain"
	"trivia-chat-service/internal/infra/memory"
	"trivia-chat-service/internal/infra/postgres"
	"trivia-chat-service/internal/infra/sqlite"
)

// openedStore is a question store together with how it was opened.
type openedStore struct {
	app.QuestionStore
	// persistent is false for the in-memory fallback.
	persistent bool
	close      func()
}

// Close releases the store's connections.
func (o openedStore) Close() {
	if o.close != nil {
		o.close()
	}
}

// openQuestionStore picks the persistent store: Postgres, then SQLite, then
// an in-memory store.
func openQuestionStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (openedStore, error) {
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return openedStore{}, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return openedStore{}, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("using postgres question store")
		return openedStore{QuestionStore: postgres.NewQuestionStore(pool), persistent: true, close: pool.Close}, nil

	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return openedStore{}, err
		}
		logger.Info("using sqlite question store", slog.String("path", cfg.SQLite.Path))
		return openedStore{QuestionStore: store, persistent: true, close: func() { _ = store.Close() }}, nil

	default:
		logger.Info("no database configured, questions are kept in memory")
		return openedStore{QuestionStore: memory.NewQuestionStore()}, nil
	}
}

// seedQuestions returns the configured seed file's questions, or the
// built-in samples.
func seedQuestions(cfg config.Config) ([]domain.NewQuestion, error) {
	if cfg.Quiz.SeedFile == "" {
		return app.SampleQuestions(), nil
	}
	return memory.LoadSeedFile(cfg.Quiz.SeedFile)
}
