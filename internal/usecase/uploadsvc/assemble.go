package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/yourname/upload_lite/internal/models"
)

// combineChunks склеивает чанки 0..chunks-1 строго по возрастанию индекса в dest.
// Порядок листинга каталога не используется: иначе файл молча портится.
func combineChunks(ctx context.Context, t target, dest string, chunks uint, cleanup bool) (err error) {
	// Все чанки должны быть на месте до начала склейки, иначе при очистке
	// уже прочитанные чанки пропали бы вместе с незавершённым файлом.
	for i := uint(0); i < chunks; i++ {
		if _, statErr := os.Stat(t.chunkPath(i)); statErr != nil {
			if errors.Is(statErr, fs.ErrNotExist) {
				return models.NewError(models.ErrMove, "combine", t.chunkPath(i), fmt.Errorf("chunk %d is missing", i))
			}
			return models.NewError(models.ErrInput, "combine", t.chunkPath(i), statErr)
		}
	}

	out, err := os.OpenFile(dest, writeTruncate.flags(), filePerm)
	if err != nil {
		return models.NewError(models.ErrOutput, "combine", dest, err)
	}
	defer func() {
		_ = out.Close()
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	for i := uint(0); i < chunks; i++ {
		if err = appendChunkTo(ctx, out, t.chunkPath(i), dest); err != nil {
			return err
		}
		if cleanup {
			_ = os.Remove(t.chunkPath(i))
		}
	}

	if cleanup {
		_ = os.RemoveAll(t.chunkDir)
	}

	return nil
}

func appendChunkTo(ctx context.Context, out *os.File, chunkPath, dest string) error {
	in, err := os.Open(chunkPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.NewError(models.ErrMove, "combine", chunkPath, err)
		}
		return models.NewError(models.ErrInput, "combine", chunkPath, err)
	}
	defer func() { _ = in.Close() }()

	_, err = copyBlocks(ctx, out, in, dest)
	return err
}
