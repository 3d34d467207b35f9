package uploadhttp

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yourname/upload_lite/pkg/httperrors"
)

// gcResp — тело ответа ручной уборки.
type gcResp struct {
	Removed []string `json:"removed"`
}

// gcOnce вручную запускает уборку частичных загрузок.
func (a *Server) gcOnce(w http.ResponseWriter, _ *http.Request) {
	removed := a.sweepOnce()
	if removed == nil {
		removed = []string{}
	}
	httperrors.WriteOK(w, http.StatusOK, gcResp{Removed: removed})
}

// StartGC запускает периодическую уборку каталога частичных загрузок и
// блокируется до отмены ctx. Нулевой интервал или возраст отключают уборку.
func (a *Server) StartGC(ctx context.Context) error {
	every := a.cfg.GCInterval
	if every <= 0 || a.cfg.MaxPartialAge <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.sweepOnce()
		case <-ctx.Done():
			return nil
		}
	}
}

// sweepOnce проходит уборщиком по tmp-каталогу; ошибки только логируются.
func (a *Server) sweepOnce() []string {
	removed, err := a.uploads.Sweep(a.cfg.TmpDir, a.cfg.MaxPartialAge)
	if err != nil {
		a.logger.Warn("partial upload sweep failed", zap.String("dir", a.cfg.TmpDir), zap.Error(err))
	}
	if len(removed) > 0 {
		a.metrics.sweptEntries.Add(float64(len(removed)))
		a.logger.Info("partial uploads swept", zap.Int("removed", len(removed)))
	}
	return removed
}
