package meta

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// AppliedMigration — миграция, выполненная последним запуском ApplyMigrations.
type AppliedMigration struct {
	Version int64
	Path    string
}

// ApplyMigrations доводит схему реестра до последней встроенной версии и
// возвращает выполненные миграции. Пустой список — схема уже актуальна.
func ApplyMigrations(ctx context.Context, dsn string) ([]AppliedMigration, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("meta dsn is empty")
	}

	migrations, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}

	applied := make([]AppliedMigration, 0, len(results))
	for _, r := range results {
		applied = append(applied, AppliedMigration{Version: r.Source.Version, Path: r.Source.Path})
	}

	return applied, nil
}
