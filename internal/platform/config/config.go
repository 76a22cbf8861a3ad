package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const FileName = "fieldmap.yaml"

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

type Config struct {
	Workspace string  `yaml:"-"`
	StateDir  string  `yaml:"-"`
	DBPath    string  `yaml:"-"`
	Log       Log     `yaml:"log"`
	HTTP      HTTP    `yaml:"http"`
	Tickets   Tickets `yaml:"tickets"`
	Map       Map     `yaml:"map"`
	Export    Export  `yaml:"export"`
	Upload    Upload  `yaml:"upload"`
}

type Log struct {
	Level  string `yaml:"level" env:"FIELDMAP_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"FIELDMAP_LOG_FORMAT" env-default:"text"`
}

type HTTP struct {
	Addr string `yaml:"addr" env:"FIELDMAP_HTTP_ADDR" env-default:"127.0.0.1:8080"`
	// MaxUploadMB bounds multipart bodies for imports and photo batches.
	MaxUploadMB int64 `yaml:"max_upload_mb" env:"FIELDMAP_HTTP_MAX_UPLOAD_MB" env-default:"64"`
}

type Tickets struct {
	Snapshot    string `yaml:"snapshot" env:"FIELDMAP_SNAPSHOT" env-default:"field_log.csv"`
	AllowReopen bool   `yaml:"allow_reopen" env:"FIELDMAP_ALLOW_REOPEN" env-default:"false"`
}

type Map struct {
	Zoom int `yaml:"zoom" env:"FIELDMAP_MAP_ZOOM" env-default:"13"`
}

type Export struct {
	Timestamped bool `yaml:"timestamped" env:"FIELDMAP_EXPORT_TIMESTAMPED" env-default:"false"`
}

type Upload struct {
	Enabled bool          `yaml:"enabled" env:"FIELDMAP_UPLOAD_ENABLED" env-default:"false"`
	Plugin  string        `yaml:"plugin" env:"FIELDMAP_UPLOAD_PLUGIN"`
	SHA256  string        `yaml:"sha256" env:"FIELDMAP_UPLOAD_SHA256"`
	Folder  string        `yaml:"folder" env:"FIELDMAP_UPLOAD_FOLDER"`
	Timeout time.Duration `yaml:"timeout" env:"FIELDMAP_UPLOAD_TIMEOUT" env-default:"30s"`
}

// New derives the workspace paths and applies defaults without reading any file.
func New(workspace string) (Config, error) {
	if workspace == "" {
		return Config{}, fmt.Errorf("workspace path is required")
	}
	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config env: %w", err)
	}
	return cfg.withPaths(workspace)
}

// Load reads <workspace>/fieldmap.yaml when present; environment variables win.
func Load(workspace string) (Config, error) {
	if workspace == "" {
		return Config{}, fmt.Errorf("workspace path is required")
	}
	path := filepath.Join(workspace, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return New(workspace)
	}
	cfg := Config{}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg.withPaths(workspace)
}

func (c Config) withPaths(workspace string) (Config, error) {
	c.Workspace = workspace
	c.StateDir = filepath.Join(workspace, ".fieldmap")
	c.DBPath = filepath.Join(c.StateDir, "fieldmap.db")
	if c.Upload.Plugin != "" && !filepath.IsAbs(c.Upload.Plugin) {
		c.Upload.Plugin = filepath.Clean(filepath.Join(workspace, c.Upload.Plugin))
	}
	if c.Upload.Enabled && c.Upload.Plugin == "" {
		return Config{}, fmt.Errorf("upload.plugin is required when upload is enabled")
	}
	if c.Upload.SHA256 != "" && !sha256Pattern.MatchString(c.Upload.SHA256) {
		return Config{}, fmt.Errorf("upload.sha256 must be lowercase 64-char hex")
	}
	if c.Map.Zoom <= 0 {
		c.Map.Zoom = 13
	}
	return c, nil
}

// SnapshotPath is the flat tabular mirror of the ticket store.
func (c Config) SnapshotPath() string {
	if filepath.IsAbs(c.Tickets.Snapshot) {
		return c.Tickets.Snapshot
	}
	return filepath.Join(c.Workspace, c.Tickets.Snapshot)
}

// WriteDefault writes a starter fieldmap.yaml and refuses to overwrite one.
func WriteDefault(workspace string) (string, error) {
	cfg, err := New(workspace)
	if err != nil {
		return "", err
	}
	path := filepath.Join(workspace, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
