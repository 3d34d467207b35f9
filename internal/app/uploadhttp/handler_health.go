package uploadhttp

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// healthStats — payload ответа /health.
type healthStats struct {
	OK             bool  `json:"ok"`
	TotalBytes     int64 `json:"total_bytes"`
	PartialEntries int   `json:"partial_entries"`
}

// health возвращает агрегированную статистику по каталогу загрузок.
func (a *Server) health(w http.ResponseWriter, r *http.Request) {
	var total int64
	// Проходим по всем файлам в TargetDir и суммируем их размер для простого capacity-метрика.
	err := filepath.WalkDir(a.cfg.TargetDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()

		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	partials, err := countPartials(a.cfg.TmpDir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(healthStats{
		OK:             true,
		TotalBytes:     total,
		PartialEntries: partials,
	})

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func countPartials(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	n := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), uploadproto.PartSuffix) {
			n++
		}
	}
	return n, nil
}
