package meta

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yourname/upload_lite/internal/models"
)

// Get возвращает запись о загрузке по имени файла.
func (s *PGStore) Get(ctx context.Context, name string) (models.File, error) {
	if strings.TrimSpace(name) == "" {
		return models.File{}, fmt.Errorf("file name is empty")
	}

	sqlStr, args, err := s.sql.
		Select("path", "size", "chunks", "mode", "completed_at").
		From(uploadsTable).
		Where(sq.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.File{}, fmt.Errorf("build select: %w", err)
	}

	var (
		path        string
		size        int64
		chunks      int32
		mode        string
		completedAt time.Time
	)
	if err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&path, &size, &chunks, &mode, &completedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.File{}, models.ErrNotFound
		}
		return models.File{}, fmt.Errorf("scan upload row: %w", err)
	}

	return models.File{
		Name:        name,
		Path:        path,
		Size:        uint64(size),
		Chunks:      uint(chunks),
		Mode:        models.Mode(mode),
		CompletedAt: completedAt,
	}, nil
}
