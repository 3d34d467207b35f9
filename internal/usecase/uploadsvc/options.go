package uploadsvc

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/yourname/upload_lite/internal/models"
)

const (
	DefaultFileDataName  = "file"
	DefaultMaxPartialAge = 5 * time.Hour
)

var extensionSeparator = regexp.MustCompile(`\s*,\s*`)

// Options — неизменяемый набор параметров одной операции загрузки.
// Передаётся по значению; разделяемого состояния между операциями нет.
type Options struct {
	FileDataName      string
	TargetDir         string
	TmpDir            string
	Chunk             uint
	Chunks            uint
	FileName          string
	AllowedExtensions []string
	AppendChunks      bool
	CombineOnComplete bool
	Cleanup           bool
	MaxPartialAge     time.Duration

	Sanitizer  Sanitizer
	Checker    Checker
	SizeProber SizeProber
}

// Option настраивает Options.
type Option func(*Options)

// NewOptions собирает параметры загрузки в targetDir. Значения по умолчанию:
// поле "file", tmp-каталог совпадает с targetDir, режим отдельного каталога
// чанков со сборкой на последнем чанке, очистка включена, возраст 5h,
// санитайзер DefaultSanitizer, проверки файла нет, размер через os.Stat.
func NewOptions(targetDir string, opts ...Option) (Options, error) {
	o := Options{
		FileDataName:      DefaultFileDataName,
		TargetDir:         targetDir,
		CombineOnComplete: true,
		Cleanup:           true,
		MaxPartialAge:     DefaultMaxPartialAge,
		Sanitizer:         DefaultSanitizer,
		SizeProber:        StatSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.TmpDir == "" {
		o.TmpDir = o.TargetDir
	}
	o.AllowedExtensions = normalizeExtensions(o.AllowedExtensions)

	if err := o.Validate(); err != nil {
		return Options{}, err
	}

	return o, nil
}

// Validate проверяет инварианты параметров.
func (o Options) Validate() error {
	if strings.TrimSpace(o.TargetDir) == "" {
		return models.NewError(models.ErrTempDir, "options", "", fmt.Errorf("target dir is empty"))
	}
	if o.Chunks > 0 && o.Chunk >= o.Chunks {
		return models.NewError(models.ErrInput, "options", "",
			fmt.Errorf("chunk index %d out of range for %d chunks", o.Chunk, o.Chunks))
	}
	if o.MaxPartialAge < 0 {
		return models.NewError(models.ErrInput, "options", "", fmt.Errorf("negative max partial age"))
	}

	return nil
}

// withDefaults подставляет стандартные хуки вместо пустых.
func (o Options) withDefaults() Options {
	if o.FileDataName == "" {
		o.FileDataName = DefaultFileDataName
	}
	if o.TmpDir == "" {
		o.TmpDir = o.TargetDir
	}
	if o.Sanitizer == nil {
		o.Sanitizer = DefaultSanitizer
	}
	if o.SizeProber == nil {
		o.SizeProber = StatSize
	}
	return o
}

// Chunked сообщает, идёт ли загрузка по частям.
func (o Options) Chunked() bool {
	return o.Chunks > 0
}

// Mode возвращает способ накопления для этой операции.
func (o Options) Mode() models.Mode {
	switch {
	case !o.Chunked():
		return models.ModeSingle
	case o.AppendChunks:
		return models.ModeAppend
	default:
		return models.ModeSideDir
	}
}

func WithFileDataName(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.FileDataName = name
		}
	}
}

func WithTmpDir(dir string) Option {
	return func(o *Options) { o.TmpDir = dir }
}

// WithChunk задаёт индекс текущего чанка и общее число чанков (0 — без чанков).
func WithChunk(index, count uint) Option {
	return func(o *Options) {
		o.Chunk = index
		o.Chunks = count
	}
}

func WithFileName(name string) Option {
	return func(o *Options) { o.FileName = name }
}

// WithAllowedExtensions ограничивает расширения; сравнение без учёта регистра.
func WithAllowedExtensions(exts ...string) Option {
	return func(o *Options) { o.AllowedExtensions = exts }
}

// WithAllowedExtensionList принимает список через запятую: "jpg, jpeg,png".
func WithAllowedExtensionList(list string) Option {
	return func(o *Options) { o.AllowedExtensions = ParseExtensions(list) }
}

func WithAppendChunks(v bool) Option {
	return func(o *Options) { o.AppendChunks = v }
}

func WithCombineOnComplete(v bool) Option {
	return func(o *Options) { o.CombineOnComplete = v }
}

func WithCleanup(v bool) Option {
	return func(o *Options) { o.Cleanup = v }
}

func WithMaxPartialAge(d time.Duration) Option {
	return func(o *Options) { o.MaxPartialAge = d }
}

func WithSanitizer(s Sanitizer) Option {
	return func(o *Options) {
		if s != nil {
			o.Sanitizer = s
		}
	}
}

func WithChecker(c Checker) Option {
	return func(o *Options) { o.Checker = c }
}

func WithSizeProber(p SizeProber) Option {
	return func(o *Options) {
		if p != nil {
			o.SizeProber = p
		}
	}
}

// ParseExtensions разбивает строку расширений по запятым с пробелами вокруг.
func ParseExtensions(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}
	return extensionSeparator.Split(list, -1)
}

func normalizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		return nil
	}
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
