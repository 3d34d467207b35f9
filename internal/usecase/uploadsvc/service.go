package uploadsvc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// Service описывает операции загрузки. Реализация не хранит изменяемого
// состояния; чанки одной загрузки сериализует вызывающий (см. LockPath).
type Service interface {
	Handle(ctx context.Context, o Options, src Source) (models.UploadResult, error)
	Combine(ctx context.Context, o Options) (models.UploadResult, error)
	Sweep(dir string, maxAge time.Duration) ([]string, error)
}

type Deps struct {
	Logger  *zap.Logger
	Janitor *Janitor
}

type Uploads struct {
	Deps
}

var _ Service = (*Uploads)(nil)

// New конструирует сервис загрузки с заданными зависимостями.
func New(deps Deps) *Uploads {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Janitor == nil {
		deps.Janitor = NewJanitor(deps.Logger)
	}
	return &Uploads{Deps: deps}
}

// Handle обрабатывает один запрос: целый файл, промежуточный или последний чанк.
func (s *Uploads) Handle(ctx context.Context, o Options, src Source) (models.UploadResult, error) {
	o = o.withDefaults()
	if err := o.Validate(); err != nil {
		return models.UploadResult{}, err
	}

	if o.Cleanup {
		s.sweep(o)
	}

	declared := ""
	if src != nil {
		declared = src.DeclaredName()
	}
	t, err := resolveTarget(o.FileName, declared, o)
	if err != nil {
		return models.UploadResult{}, err
	}

	if !o.Chunked() {
		if _, err = writeUploadTo(ctx, src, t.partPath, writeTruncate); err != nil {
			if discardFailed(ctx, o, err) {
				_ = os.Remove(t.partPath)
			}
			return models.UploadResult{}, err
		}
		return s.commit(t, o)
	}

	state, err := storeChunk(ctx, src, t, o)
	if err != nil {
		return models.UploadResult{}, err
	}
	s.Logger.Debug("chunk stored",
		zap.String("name", t.name),
		zap.Uint("chunk", o.Chunk),
		zap.Uint("chunks", o.Chunks),
		zap.String("mode", string(o.Mode())),
		zap.Bool("last", state.last),
	)

	if !state.last {
		return intermediate(t, o.Chunk, state.size), nil
	}

	if o.AppendChunks {
		return s.commit(t, o)
	}
	if !o.CombineOnComplete {
		return intermediate(t, o.Chunk, state.size), nil
	}

	if err = combineChunks(ctx, t, t.partPath, o.Chunks, o.Cleanup); err != nil {
		return models.UploadResult{}, err
	}
	return s.commit(t, o)
}

// Combine собирает уже полученные чанки каталога <target>.dir.part и фиксирует
// файл. Нужен, когда чанки принимались без CombineOnComplete.
func (s *Uploads) Combine(ctx context.Context, o Options) (models.UploadResult, error) {
	o = o.withDefaults()
	if err := o.Validate(); err != nil {
		return models.UploadResult{}, err
	}
	if !o.Chunked() {
		return models.UploadResult{}, models.NewError(models.ErrInput, "combine", "", fmt.Errorf("chunk count is required"))
	}

	t, err := resolveTarget(o.FileName, "", o)
	if err != nil {
		return models.UploadResult{}, err
	}

	if err = combineChunks(ctx, t, t.partPath, o.Chunks, o.Cleanup); err != nil {
		return models.UploadResult{}, err
	}
	return s.commit(t, o)
}

// Sweep запускает уборщика по каталогу.
func (s *Uploads) Sweep(dir string, maxAge time.Duration) ([]string, error) {
	return s.Janitor.Sweep(dir, maxAge)
}

// LockPath возвращает путь файла блокировки загрузки с данным именем.
// Вызывающий берёт блокировку на время Handle/Combine, чтобы чанки одной
// загрузки не писались и не собирались параллельно.
func LockPath(o Options, declared string) (string, error) {
	o = o.withDefaults()
	t, err := resolveTarget(o.FileName, declared, o)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(t.partPath), uploadproto.LocksDir, t.name+uploadproto.LockSuffix), nil
}

func (s *Uploads) commit(t target, o Options) (models.UploadResult, error) {
	res, err := commit(t.partPath, t.path, o)
	if err != nil {
		return models.UploadResult{}, err
	}
	s.Logger.Info("upload committed",
		zap.String("name", res.Name),
		zap.String("path", res.Path),
		zap.Uint64("size", res.Size),
		zap.String("mode", string(o.Mode())),
	)
	return res, nil
}

// sweep — уборка перед операцией; её сбой операцию не прерывает.
func (s *Uploads) sweep(o Options) {
	if _, err := s.Janitor.Sweep(o.TmpDir, o.MaxPartialAge); err != nil {
		s.Logger.Warn("sweep of partial uploads failed", zap.String("dir", o.TmpDir), zap.Error(err))
	}
}

// discardFailed решает, удалять ли артефакт упавшей записи. Прерванный
// клиентом запрос оставляет файл уборщику.
func discardFailed(ctx context.Context, o Options, err error) bool {
	return o.Cleanup && ctx.Err() == nil && models.KindOf(err) != models.ErrTempDir
}

func intermediate(t target, chunk uint, size uint64) models.UploadResult {
	return models.UploadResult{
		Name:  t.name,
		Path:  t.path,
		Chunk: &chunk,
		Size:  size,
	}
}
