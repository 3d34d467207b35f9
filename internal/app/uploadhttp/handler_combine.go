package uploadhttp

import (
	"context"
	"net/http"
	"strings"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// combine собирает чанки загрузки, принятые без сборки на последнем чанке.
func (a *Server) combine(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	req := &uploadRequest{
		name:     strings.TrimSpace(params.Get(uploadproto.ParamName)),
		checksum: strings.TrimSpace(r.Header.Get(uploadproto.HeaderChecksum)),
	}

	var err error
	if req.chunks, err = parseUint(params, uploadproto.ParamChunks); err != nil {
		a.reject(w, r, "combine", err)
		return
	}

	o, err := a.options(req)
	if err != nil {
		a.reject(w, r, "combine", err)
		return
	}

	res, err := a.run(r.Context(), "combine", o, req, func(ctx context.Context) (models.UploadResult, error) {
		return a.uploads.Combine(ctx, o)
	})
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	httperrors.WriteOK(w, http.StatusOK, res)
}
