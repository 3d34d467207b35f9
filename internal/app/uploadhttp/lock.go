package uploadhttp

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fluxcd/pkg/lockedfile"

	"github.com/yourname/upload_lite/internal/models"
)

// lockUpload берёт межпроцессную блокировку загрузки по пути lockPath.
// Файл блокировки обновляет mtime при захвате, чтобы уборщик не счёл его брошенным.
func lockUpload(lockPath string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, models.NewError(models.ErrTempDir, "lock", filepath.Dir(lockPath), err)
	}

	unlock, err := lockedfile.MutexAt(lockPath).Lock()
	if err != nil {
		return nil, models.NewError(models.ErrTempDir, "lock", lockPath, err)
	}

	now := time.Now()
	_ = os.Chtimes(lockPath, now, now)

	return unlock, nil
}
