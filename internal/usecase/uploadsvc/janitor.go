package uploadsvc

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// Janitor удаляет брошенные частичные артефакты: *.part файлы, каталоги
// *.dir.part и файлы блокировок, которые старше заданного возраста.
type Janitor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewJanitor создаёт уборщика; nil-логгер заменяется на пустой.
func NewJanitor(logger *zap.Logger) *Janitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{logger: logger, now: time.Now}
}

// Sweep проходит по dir и удаляет устаревшие записи. Удаление — best-effort:
// ошибки по отдельным записям собираются в одну и только сообщаются, обход не прерывают.
// maxAge <= 0 отключает уборку.
func (j *Janitor) Sweep(dir string, maxAge time.Duration) ([]string, error) {
	if maxAge <= 0 {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	now := j.now()
	var (
		removed []string
		result  *multierror.Error
	)
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), uploadproto.PartSuffix) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		ok, err := j.removeIfStale(path, now, maxAge)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if ok {
			removed = append(removed, path)
		}
	}

	locks, err := j.sweepLocks(filepath.Join(dir, uploadproto.LocksDir), now, maxAge)
	removed = append(removed, locks...)
	if err != nil {
		result = multierror.Append(result, err)
	}

	for _, p := range removed {
		j.logger.Debug("stale partial upload removed", zap.String("path", p))
	}

	return removed, result.ErrorOrNil()
}

// removeIfStale удаляет запись, если она не менялась дольше maxAge.
func (j *Janitor) removeIfStale(path string, now time.Time, maxAge time.Duration) (bool, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if now.Sub(fi.ModTime()) < maxAge {
		return false, nil
	}

	if fi.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	return true, nil
}

func (j *Janitor) sweepLocks(dir string, now time.Time, maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var (
		removed []string
		result  *multierror.Error
	)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), uploadproto.LockSuffix) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		ok, err := j.removeIfStale(path, now, maxAge)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if ok {
			removed = append(removed, path)
		}
	}

	return removed, result.ErrorOrNil()
}
