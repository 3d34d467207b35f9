package uploadhttp

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/internal/usecase/uploadsvc"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// maxFieldBytes ограничивает размер обычного поля формы перед файловым слотом.
const maxFieldBytes = 4 << 10

// uploadRequest содержит разобранные параметры запроса и источник данных.
type uploadRequest struct {
	name     string
	chunk    uint
	chunks   uint
	checksum string
	src      uploadsvc.Source
}

// parseUploadRequest читает параметры из query и полей multipart, идущих до файлового слота.
// Тело дальше слота не читается: слот отдаётся движку потоком.
func (a *Server) parseUploadRequest(r *http.Request) (*uploadRequest, error) {
	params := r.URL.Query()
	req := &uploadRequest{
		checksum: strings.TrimSpace(r.Header.Get(uploadproto.HeaderChecksum)),
	}

	if isMultipart(r) {
		slot, err := a.readMultipart(r, params)
		if err != nil {
			return nil, err
		}
		req.src = slot
	} else {
		req.src = uploadsvc.BodySource(r.Body, extractFileName(r))
	}

	var err error
	req.name = strings.TrimSpace(params.Get(uploadproto.ParamName))
	if req.chunk, err = parseUint(params, uploadproto.ParamChunk); err != nil {
		return nil, err
	}
	if req.chunks, err = parseUint(params, uploadproto.ParamChunks); err != nil {
		return nil, err
	}

	return req, nil
}

// readMultipart дописывает в params поля формы до слота cfg.FileDataName и возвращает слот.
// Если слота нет, возвращается nil-слот: движок ответит InputError.
func (a *Server) readMultipart(r *http.Request, params url.Values) (*uploadsvc.Slot, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, models.NewError(models.ErrInput, "parse request", "", err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return &uploadsvc.Slot{Field: a.cfg.FileDataName, Err: err}, nil
		}

		if part.FormName() == a.cfg.FileDataName {
			return &uploadsvc.Slot{
				Field:    part.FormName(),
				FileName: part.FileName(),
				Reader:   part,
			}, nil
		}

		if part.FileName() == "" {
			b, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			if err != nil {
				return &uploadsvc.Slot{Field: a.cfg.FileDataName, Err: err}, nil
			}
			params.Set(part.FormName(), string(b))
		}
		_ = part.Close()
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// parseUint: отсутствующий параметр равен 0, мусор — InputError.
func parseUint(params url.Values, key string) (uint, error) {
	v := strings.TrimSpace(params.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, models.NewError(models.ErrInput, "parse request", "", fmt.Errorf("invalid %s %q", key, v))
	}
	return uint(n), nil
}

// extractFileName пытается вытащить имя файла из заголовков или query-параметра.
func extractFileName(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(uploadproto.HeaderFileName)); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.Header.Get(uploadproto.HeaderFilenameAlt)); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.URL.Query().Get(uploadproto.ParamFilename)); v != "" {
		return v
	}
	return ""
}

// options собирает параметры движка для запроса.
func (a *Server) options(req *uploadRequest) (uploadsvc.Options, error) {
	opts := append(a.cfg.UploadOptions(),
		uploadsvc.WithFileName(req.name),
		uploadsvc.WithChunk(req.chunk, req.chunks),
	)

	if a.cfg.VerifyChecksum && req.checksum != "" {
		checker, err := uploadsvc.NewSHA256Checker(req.checksum)
		if err != nil {
			return uploadsvc.Options{}, models.NewError(models.ErrInput, "parse request", "", err)
		}
		opts = append(opts, uploadsvc.WithChecker(checker))
	}

	return uploadsvc.NewOptions(a.cfg.TargetDir, opts...)
}
