package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yourname/upload_lite/internal/models"
)

// copyBlockSize — размер блока потокового копирования; файл целиком в память не читается.
const copyBlockSize = 4096

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Source — входящий поток загрузки: тело запроса или именованный слот multipart.
type Source interface {
	// Open возвращает поток с данными; источник читается один раз.
	Open() (io.ReadCloser, error)
	// DeclaredName — имя файла, заявленное транспортом; может быть пустым.
	DeclaredName() string
}

type bodySource struct {
	body io.ReadCloser
	name string
}

// BodySource оборачивает сырое тело запроса. declaredName берётся из заголовков, если есть.
func BodySource(body io.ReadCloser, declaredName string) Source {
	return &bodySource{body: body, name: declaredName}
}

func (s *bodySource) Open() (io.ReadCloser, error) {
	if s.body == nil {
		return nil, fmt.Errorf("request body is empty")
	}
	return s.body, nil
}

func (s *bodySource) DeclaredName() string { return s.name }

// Slot — файловое поле multipart-тела.
type Slot struct {
	// Field — имя поля формы.
	Field string
	// FileName — имя файла из Content-Disposition; пустое значит, что поле не файл.
	FileName string
	// Reader — содержимое поля.
	Reader io.Reader
	// Err — ошибка транспорта при разборе тела.
	Err error
}

func (s *Slot) Open() (io.ReadCloser, error) {
	switch {
	case s == nil || (s.Reader == nil && s.Err == nil):
		return nil, fmt.Errorf("upload field is missing")
	case s.Err != nil:
		return nil, fmt.Errorf("upload field %q: %w", s.Field, s.Err)
	case s.FileName == "":
		return nil, fmt.Errorf("upload field %q is not a file", s.Field)
	}

	if rc, ok := s.Reader.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(s.Reader), nil
}

func (s *Slot) DeclaredName() string {
	if s == nil {
		return ""
	}
	return s.FileName
}

// writeMode задаёт, как открывается файл назначения.
type writeMode int

const (
	writeTruncate writeMode = iota
	writeAppend
)

func (m writeMode) flags() int {
	if m == writeAppend {
		return os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	return os.O_CREATE | os.O_WRONLY | os.O_TRUNC
}

// writeUploadTo копирует источник в dest, создавая родительские каталоги.
// Дескрипторы закрываются всегда; ошибки закрытия игнорируются.
func writeUploadTo(ctx context.Context, src Source, dest string, mode writeMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return 0, models.NewError(models.ErrTempDir, "write", filepath.Dir(dest), err)
	}

	if src == nil {
		return 0, models.NewError(models.ErrInput, "write", dest, fmt.Errorf("no upload source"))
	}
	in, err := src.Open()
	if err != nil {
		return 0, models.NewError(models.ErrInput, "write", dest, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, mode.flags(), filePerm)
	if err != nil {
		return 0, models.NewError(models.ErrOutput, "write", dest, err)
	}
	defer func() { _ = out.Close() }()

	return copyBlocks(ctx, out, in, dest)
}

// copyBlocks переносит данные блоками copyBlockSize до конца входа.
// Ошибка чтения — ErrInput, ошибка записи — ErrOutput; отмена ctx считается ошибкой входа.
func copyBlocks(ctx context.Context, dst io.Writer, src io.Reader, dstPath string) (int64, error) {
	buf := make([]byte, copyBlockSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, models.NewError(models.ErrInput, "copy", dstPath, err)
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr == nil && wn < n {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				return written, models.NewError(models.ErrOutput, "copy", dstPath, werr)
			}
		}

		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, models.NewError(models.ErrInput, "copy", dstPath, rerr)
		}
	}
}
