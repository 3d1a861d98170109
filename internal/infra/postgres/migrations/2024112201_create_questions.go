package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"trivia-chat-service/internal/infra/postgres"
)

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewCreateTable().
				Model((*postgres.QuestionRow)(nil)).
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
			_, err := db.NewCreateIndex().
				Model((*postgres.QuestionRow)(nil)).
				Index("questions_category_idx").
				Column("category").
				IfNotExists().
				Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.NewDropTable().
				Model((*postgres.QuestionRow)(nil)).
				IfExists().
				Exec(ctx)
			return err
		},
	)
}
