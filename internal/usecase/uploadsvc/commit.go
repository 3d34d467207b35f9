package uploadsvc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourname/upload_lite/internal/models"
)

// commit проверяет готовый временный файл и атомарно переименовывает его в финальный путь.
// Отклонённый или неперемещённый файл по финальному пути никогда не появляется.
func commit(tmpPath, finalPath string, o Options) (models.UploadResult, error) {
	if o.Checker != nil && !o.Checker.Check(tmpPath) {
		if o.Cleanup {
			_ = os.Remove(tmpPath)
		}
		return models.UploadResult{}, models.NewError(models.ErrSecurity, "commit", tmpPath,
			fmt.Errorf("file rejected by validation hook"))
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), dirPerm); err != nil {
		return models.UploadResult{}, models.NewError(models.ErrTempDir, "commit", filepath.Dir(finalPath), err)
	}

	// rename в пределах одной файловой системы атомарен: читатель видит либо
	// старое содержимое, либо полный файл.
	if err := os.Rename(tmpPath, finalPath); err != nil {
		if o.Cleanup {
			_ = os.Remove(tmpPath)
		}
		return models.UploadResult{}, models.NewError(models.ErrMove, "commit", finalPath, err)
	}

	return models.UploadResult{
		Name: filepath.Base(finalPath),
		Path: finalPath,
		Size: o.SizeProber.Size(finalPath),
	}, nil
}
