// Package meta хранит реестр зафиксированных загрузок: в памяти или в Postgres.
package meta

import (
	"context"
	"strings"

	"github.com/yourname/upload_lite/internal/models"
)

const memoryScheme = "memory://"

// Store — реестр зафиксированных загрузок, ключ — санитизированное имя файла.
type Store interface {
	Get(ctx context.Context, name string) (models.File, error)
	Save(ctx context.Context, file models.File) error
	Close()
}

// IsMemoryDSN сообщает, что DSN выбирает хранилище в памяти.
func IsMemoryDSN(dsn string) bool {
	dsn = strings.TrimSpace(dsn)
	return dsn == "" || strings.HasPrefix(dsn, memoryScheme)
}

// Open выбирает хранилище по DSN: memory:// (или пусто) либо Postgres.
func Open(ctx context.Context, dsn string) (Store, error) {
	if IsMemoryDSN(dsn) {
		return NewMemoryStore(), nil
	}
	return NewPGStore(ctx, dsn)
}
