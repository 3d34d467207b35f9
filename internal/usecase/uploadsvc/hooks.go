package uploadsvc

import (
	_ "crypto/sha256"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/opencontainers/go-digest"
)

type (
	// Sanitizer превращает сырое имя от клиента в безопасное имя файла.
	Sanitizer interface {
		Sanitize(name string) string
	}

	// Checker проверяет собранный временный файл перед фиксацией.
	Checker interface {
		Check(path string) bool
	}

	// SizeProber определяет размер файла.
	SizeProber interface {
		Size(path string) uint64
	}
)

// SanitizerFunc адаптирует функцию к Sanitizer.
type SanitizerFunc func(string) string

func (f SanitizerFunc) Sanitize(name string) string { return f(name) }

// CheckerFunc адаптирует функцию к Checker.
type CheckerFunc func(string) bool

func (f CheckerFunc) Check(path string) bool { return f(path) }

// SizeProberFunc адаптирует функцию к SizeProber.
type SizeProberFunc func(string) uint64

func (f SizeProberFunc) Size(path string) uint64 { return f(path) }

var (
	specialChars = strings.NewReplacer(
		"?", "", "[", "", "]", "", "/", "", "\\", "", "=", "", "<", "", ">", "",
		":", "", ";", "", ",", "", "'", "", "\"", "", "&", "", "$", "", "#", "",
		"*", "", "(", "", ")", "", "|", "", "~", "", "`", "", "!", "", "{", "",
		"}", "",
	)
	dashRuns = regexp.MustCompile(`[\s-]+`)
)

// DefaultSanitizer вырезает спецсимволы оболочки и путей, схлопывает пробелы
// и дефисы в один дефис и обрезает '.', '-', '_' по краям.
var DefaultSanitizer = SanitizerFunc(SanitizeFileName)

// SanitizeFileName — реализация DefaultSanitizer.
func SanitizeFileName(name string) string {
	name = specialChars.Replace(name)
	name = dashRuns.ReplaceAllString(name, "-")
	return strings.Trim(name, ".-_")
}

// StatSize берёт размер из os.Stat; int64 покрывает файлы больше 2^31 на любой платформе.
var StatSize = SizeProberFunc(func(path string) uint64 {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() < 0 {
		return 0
	}
	return uint64(fi.Size())
})

// DigestChecker сверяет содержимое файла с ожидаемым дайджестом.
type DigestChecker struct {
	Expected digest.Digest
}

// NewSHA256Checker строит проверку по hex-строке sha256, как её присылает клиент.
func NewSHA256Checker(hex string) (*DigestChecker, error) {
	d := digest.NewDigestFromEncoded(digest.SHA256, strings.ToLower(strings.TrimSpace(hex)))
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sha256 checksum %q: %w", hex, err)
	}
	return &DigestChecker{Expected: d}, nil
}

// Check читает файл целиком через верификатор дайджеста.
func (c *DigestChecker) Check(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	verifier := c.Expected.Verifier()
	if _, err = io.Copy(verifier, f); err != nil {
		return false
	}
	return verifier.Verified()
}

// Checkers объединяет несколько проверок: файл проходит, только если прошёл все.
type Checkers []Checker

func (cs Checkers) Check(path string) bool {
	for _, c := range cs {
		if c != nil && !c.Check(path) {
			return false
		}
	}
	return true
}
