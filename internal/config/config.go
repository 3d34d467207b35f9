package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourname/upload_lite/internal/logger"
	"github.com/yourname/upload_lite/internal/usecase/uploadsvc"
)

const defaultConfigPath = "./config.yaml"

type Config struct {
	ListenAddr        string        `yaml:"listen_addr" json:"listen_addr"`
	TargetDir         string        `yaml:"target_dir" json:"target_dir"`
	TmpDir            string        `yaml:"tmp_dir" json:"tmp_dir"`
	FileDataName      string        `yaml:"file_data_name" json:"file_data_name"`
	AllowedExtensions string        `yaml:"allowed_extensions" json:"allowed_extensions"`
	AppendChunks      bool          `yaml:"append_chunks" json:"append_chunks"`
	CombineOnComplete bool          `yaml:"combine_on_complete" json:"combine_on_complete"`
	Cleanup           bool          `yaml:"cleanup" json:"cleanup"`
	MaxPartialAge     time.Duration `yaml:"max_partial_age" json:"max_partial_age"`
	GCInterval        time.Duration `yaml:"gc_interval" json:"gc_interval"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes" json:"max_upload_bytes"`
	VerifyChecksum    bool          `yaml:"verify_checksum" json:"verify_checksum"`
	CORSOrigin        string        `yaml:"cors_origin" json:"cors_origin"`
	MetaDSN           string        `yaml:"meta_dsn" json:"meta_dsn"`
	LogLevel          string        `yaml:"log_level" json:"log_level"`
	LogEncoding       string        `yaml:"log_encoding" json:"log_encoding"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		ListenAddr:        ":8080",
		TargetDir:         "./uploads",
		FileDataName:      uploadsvc.DefaultFileDataName,
		CombineOnComplete: true,
		Cleanup:           true,
		MaxPartialAge:     uploadsvc.DefaultMaxPartialAge,
		GCInterval:        30 * time.Minute,
		VerifyChecksum:    true,
		CORSOrigin:        "*",
		MetaDSN:           "memory://",
		LogLevel:          "info",
		LogEncoding:       "json",
	}
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Отсутствие файла по пути по умолчанию не ошибка: остаются значения Default.
func Load() (*Config, error) {
	path, explicit := os.LookupEnv("CONFIG_PATH")
	if !explicit || path == "" {
		path = defaultConfigPath
		explicit = false
	}
	return LoadFile(path, explicit)
}

// LoadFile читает конфигурацию из path. required=false разрешает отсутствие файла.
func LoadFile(path string, required bool) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(b, c); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, err
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if c.TmpDir == "" {
		c.TmpDir = c.TargetDir
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// decode разбирает YAML поверх значений по умолчанию; неизвестные ключи запрещены.
func decode(b []byte, c *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	// ENV override
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("TARGET_DIR"); v != "" {
		c.TargetDir = v
	}
	if v := os.Getenv("UPLOAD_TMP_DIR"); v != "" {
		c.TmpDir = v
	}
	if v := os.Getenv("META_DSN"); v != "" {
		c.MetaDSN = v
	}
	if v := os.Getenv("ALLOWED_EXTENSIONS"); v != "" {
		c.AllowedExtensions = strings.Join(splitComma(v), ",")
	}
	if v := os.Getenv("MAX_PARTIAL_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MAX_PARTIAL_AGE: %w", err)
		}
		c.MaxPartialAge = d
	}
	if v := os.Getenv("GC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GC_INTERVAL: %w", err)
		}
		c.GCInterval = d
	}
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogEncoding = getenv("LOG_ENCODING", c.LogEncoding)

	return nil
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TargetDir) == "" {
		return errors.New("target_dir is required")
	}
	if c.MaxPartialAge < 0 {
		return errors.New("max_partial_age must not be negative")
	}
	if c.GCInterval < 0 {
		return errors.New("gc_interval must not be negative")
	}
	if c.MaxUploadBytes < 0 {
		return errors.New("max_upload_bytes must not be negative")
	}
	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	return nil
}

// UploadOptions переводит конфигурацию в базовые параметры движка загрузки.
func (c *Config) UploadOptions() []uploadsvc.Option {
	return []uploadsvc.Option{
		uploadsvc.WithTmpDir(c.TmpDir),
		uploadsvc.WithFileDataName(c.FileDataName),
		uploadsvc.WithAllowedExtensionList(c.AllowedExtensions),
		uploadsvc.WithAppendChunks(c.AppendChunks),
		uploadsvc.WithCombineOnComplete(c.CombineOnComplete),
		uploadsvc.WithCleanup(c.Cleanup),
		uploadsvc.WithMaxPartialAge(c.MaxPartialAge),
	}
}

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
