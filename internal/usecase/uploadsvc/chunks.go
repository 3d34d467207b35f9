package uploadsvc

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// chunkState — состояние незавершённой загрузки после записи чанка.
type chunkState struct {
	last bool
	size uint64
}

// storeChunk пишет очередной чанк в режиме, выбранном Options.AppendChunks.
func storeChunk(ctx context.Context, src Source, t target, o Options) (chunkState, error) {
	if o.AppendChunks {
		return appendChunk(ctx, src, t, o)
	}
	return writeChunkFile(ctx, src, t, o)
}

// appendChunk дописывает байты в <target>.part. Чанк 0 начинает файл заново,
// чтобы остаток прерванной загрузки с тем же именем не попал в новую.
func appendChunk(ctx context.Context, src Source, t target, o Options) (chunkState, error) {
	mode := writeAppend
	if o.Chunk == 0 {
		mode = writeTruncate
	}
	if _, err := writeUploadTo(ctx, src, t.partPath, mode); err != nil {
		return chunkState{}, err
	}

	return chunkState{
		last: isLastAppendChunk(o),
		size: o.SizeProber.Size(t.partPath),
	}, nil
}

// isLastAppendChunk: последний чанк определяется арифметикой индексов.
func isLastAppendChunk(o Options) bool {
	return o.Chunks > 0 && o.Chunks == o.Chunk+1
}

// writeChunkFile кладёт чанк в <target>.dir.part/<index>.part. Повторная
// отправка того же индекса перезаписывает файл, порядок прихода не важен.
func writeChunkFile(ctx context.Context, src Source, t target, o Options) (chunkState, error) {
	path := t.chunkPath(o.Chunk)
	if _, err := writeUploadTo(ctx, src, path, writeTruncate); err != nil {
		if discardFailed(ctx, o, err) {
			_ = os.Remove(path)
		}
		return chunkState{}, err
	}

	count, size, err := scanChunkDir(t.chunkDir, o.Chunks, o.SizeProber)
	if err != nil {
		return chunkState{}, models.NewError(models.ErrMove, "scan chunks", t.chunkDir, err)
	}

	return chunkState{
		last: count == o.Chunks,
		size: size,
	}, nil
}

// scanChunkDir считает файлы чанков <i>.part с i < chunks и их суммарный размер.
// Полнота проверяется по содержимому каталога, а не по индексу. Файлы с чужими
// индексами (остаток прерванной загрузки с большим числом чанков) не считаются.
func scanChunkDir(dir string, chunks uint, prober SizeProber) (uint, uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	var (
		count uint
		size  uint64
	)
	for _, e := range entries {
		if !e.Type().IsRegular() || !isChunkFile(e.Name(), chunks) {
			continue
		}
		count++
		size += prober.Size(filepath.Join(dir, e.Name()))
	}

	return count, size, nil
}

// isChunkFile сообщает, что name имеет вид <index>.part и index < chunks.
func isChunkFile(name string, chunks uint) bool {
	idx, ok := strings.CutSuffix(name, uploadproto.PartSuffix)
	if !ok {
		return false
	}
	n, err := strconv.ParseUint(idx, 10, 64)
	if err != nil || strconv.FormatUint(n, 10) != idx {
		return false
	}
	return n < uint64(chunks)
}
