package flint

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cyw0ng95/flint/internal/SF/errors"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendBadger = "badger"

	// MemoryPath opens the badger backend without touching disk.
	MemoryPath = ":memory:"
)

// Config configures an Engine.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// LogOutput receives engine logs. nil means stderr.
	LogOutput io.Writer `yaml:"-"`

	Snapshots SnapshotConfig `yaml:"snapshots"`
}

// SnapshotConfig selects where index snapshots are kept.
type SnapshotConfig struct {
	Backend    string        `yaml:"backend"`
	Path       string        `yaml:"path"`
	SyncWrites bool          `yaml:"sync_writes"`
	Compress   bool          `yaml:"compress"`
	GCInterval time.Duration `yaml:"gc_interval"`
}

// DefaultConfig returns an in-memory configuration logging warnings as text.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "warn",
		LogFormat: "text",
		Snapshots: SnapshotConfig{
			Backend:    BackendMemory,
			SyncWrites: true,
			Compress:   true,
			GCInterval: 5 * time.Minute,
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, errors.FLINT_MISUSE, "read config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, errors.FLINT_MISUSE, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option values and normalizes the backend name.
func (c *Config) Validate() error {
	c.Snapshots.Backend = strings.ToLower(strings.TrimSpace(c.Snapshots.Backend))
	switch c.Snapshots.Backend {
	case "":
		c.Snapshots.Backend = BackendMemory
	case BackendMemory:
	case BackendBadger:
		if c.Snapshots.Path == "" {
			return errors.New(errors.FLINT_MISUSE, "snapshots.path is required for the badger backend")
		}
	default:
		return errors.New(errors.FLINT_MISUSE, "unknown snapshot backend %q", c.Snapshots.Backend)
	}
	if c.Snapshots.GCInterval < 0 {
		return errors.New(errors.FLINT_MISUSE, "snapshots.gc_interval must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return errors.New(errors.FLINT_MISUSE, "unknown log format %q", c.LogFormat)
	}
	return nil
}
