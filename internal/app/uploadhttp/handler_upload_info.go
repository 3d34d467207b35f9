package uploadhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yourname/upload_lite/internal/usecase/uploadsvc"
	"github.com/yourname/upload_lite/pkg/httperrors"
)

// uploadInfo отдаёт запись реестра по имени файла (имя санитизируется так же, как при загрузке).
func (a *Server) uploadInfo(w http.ResponseWriter, r *http.Request) {
	name := uploadsvc.SanitizeFileName(chi.URLParam(r, "name"))

	file, err := a.store.Get(r.Context(), name)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	httperrors.WriteOK(w, http.StatusOK, file)
}
