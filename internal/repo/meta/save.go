package meta

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourname/upload_lite/internal/models"
)

// Save записывает (или обновляет) запись о загрузке; повторная загрузка с тем же именем её перезаписывает.
func (s *PGStore) Save(ctx context.Context, file models.File) error {
	if strings.TrimSpace(file.Name) == "" {
		return fmt.Errorf("file name is empty")
	}

	sqlStr, args, err := s.sql.
		Insert(uploadsTable).
		Columns("name", "path", "size", "chunks", "mode", "completed_at").
		Values(file.Name, file.Path, int64(file.Size), int32(file.Chunks), string(file.Mode), file.CompletedAt).
		Suffix(`
					ON CONFLICT (name) DO UPDATE
					SET path         = EXCLUDED.path,
						size         = EXCLUDED.size,
						chunks       = EXCLUDED.chunks,
						mode         = EXCLUDED.mode,
						completed_at = EXCLUDED.completed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert sql: %w", err)
	}

	// Выполнение UPSERT'а
	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}

	return nil
}
