package uploadsvc

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

// target содержит все вычисленные пути одной загрузки.
type target struct {
	name     string
	path     string
	partPath string
	chunkDir string
}

// chunkPath возвращает путь файла чанка с индексом idx.
func (t target) chunkPath(idx uint) string {
	return filepath.Join(t.chunkDir, fmt.Sprintf(uploadproto.ChunkFileFormat, idx))
}

// ResolveName превращает сырое имя в санитизированное имя и абсолютный путь в TargetDir.
// Пустое имя берётся из declared (имя, заявленное транспортом).
func ResolveName(raw, declared string, o Options) (name, path string, err error) {
	t, err := resolveTarget(raw, declared, o)
	if err != nil {
		return "", "", err
	}
	return t.name, t.path, nil
}

func resolveTarget(raw, declared string, o Options) (target, error) {
	if strings.TrimSpace(raw) == "" {
		raw = declared
	}
	if strings.TrimSpace(raw) == "" {
		return target{}, models.NewError(models.ErrInput, "resolve name", "", fmt.Errorf("file name is empty"))
	}

	sanitizer := o.Sanitizer
	if sanitizer == nil {
		sanitizer = DefaultSanitizer
	}
	name := sanitizer.Sanitize(raw)
	if name == "" {
		return target{}, models.NewError(models.ErrInput, "resolve name", "",
			fmt.Errorf("file name %q is empty after sanitizing", raw))
	}

	if err := checkExtension(name, o.AllowedExtensions); err != nil {
		return target{}, err
	}

	path, err := joinAbs(o.TargetDir, name)
	if err != nil {
		return target{}, models.NewError(models.ErrInput, "resolve name", name, err)
	}

	tmpDir := o.TmpDir
	if tmpDir == "" {
		tmpDir = o.TargetDir
	}
	base, err := joinAbs(tmpDir, name)
	if err != nil {
		return target{}, models.NewError(models.ErrInput, "resolve name", name, err)
	}

	return target{
		name:     name,
		path:     path,
		partPath: base + uploadproto.PartSuffix,
		chunkDir: base + uploadproto.ChunkDirSuffix,
	}, nil
}

func checkExtension(name string, allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	ok := slices.ContainsFunc(allowed, func(a string) bool {
		return strings.EqualFold(strings.TrimPrefix(a, "."), ext)
	})
	if !ok {
		return models.NewError(models.ErrType, "resolve name", name,
			fmt.Errorf("extension %q not in %v", ext, allowed))
	}
	return nil
}

// joinAbs склеивает каталог и имя, не выпуская результат за пределы каталога.
func joinAbs(dir, name string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return securejoin.SecureJoin(root, name)
}
