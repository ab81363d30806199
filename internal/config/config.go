// Package config provides configuration loading for pcmdec.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// PCMDEC_* environment variables. Command-line flags are applied last by the
// caller. Validate must be called before the configuration is used; it
// creates the source and destination directories when they are missing.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"pcmdec/internal/core/domain"
	"pcmdec/internal/decryption/chunking"
)

const EnvPrefix = "PCMDEC_"

// Config is the full configuration of a decryption run.
type Config struct {
	// SourceDir holds the encrypted <videoId>.pcm files.
	SourceDir string `yaml:"source_dir"`

	// DestRoot is the root of the decrypted output tree.
	DestRoot string `yaml:"dest_root"`

	// KeysFile is the key document (shared-preferences XML).
	KeysFile string `yaml:"keys_file"`

	// CatalogFile is the list document describing the output tree.
	CatalogFile string `yaml:"catalog_file"`

	// BufferSize is the chunk size used to copy unencrypted tails.
	BufferSize int `yaml:"buffer_size"`

	// Workers is the number of files decrypted concurrently.
	Workers int `yaml:"workers"`

	// AtomicOutput writes each output to a temporary file first.
	AtomicOutput bool `yaml:"atomic_output"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Storage StorageConfig `yaml:"storage"`
}

// StorageConfig configures the optional S3 bucket used for publishing
// outputs and fetching documents.
type StorageConfig struct {
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Prefix  string `yaml:"prefix"`
	Publish bool   `yaml:"publish"`
}

func Default() *Config {
	return &Config{
		SourceDir:   "downloads",
		DestRoot:    "video",
		KeysFile:    "mystorage.xml",
		CatalogFile: "com_bokecc_base_sp.xml",
		BufferSize:  8192,
		Workers:     1,
		LogLevel:    "info",
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", domain.ErrConfig, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config file %s: %v", domain.ErrConfig, path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays PCMDEC_* variables found through lookup, typically
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	strs := map[string]*string{
		"SOURCE_DIR":   &c.SourceDir,
		"DEST_ROOT":    &c.DestRoot,
		"KEYS_FILE":    &c.KeysFile,
		"CATALOG_FILE": &c.CatalogFile,
		"LOG_LEVEL":    &c.LogLevel,
		"S3_BUCKET":    &c.Storage.Bucket,
		"S3_REGION":    &c.Storage.Region,
		"S3_PREFIX":    &c.Storage.Prefix,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BUFFER_SIZE": &c.BufferSize,
		"WORKERS":     &c.Workers,
	}
	for name, dst := range ints {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s is not a valid integer: %q", domain.ErrConfig, EnvPrefix, name, v)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"ATOMIC_OUTPUT": &c.AtomicOutput,
		"S3_PUBLISH":    &c.Storage.Publish,
	}
	for name, dst := range bools {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s is not a valid boolean: %q", domain.ErrConfig, EnvPrefix, name, v)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks the configuration and creates the source and destination
// directories if they do not exist.
func (c *Config) Validate() error {
	if err := EnsureDir(c.SourceDir, "source directory"); err != nil {
		return err
	}
	if err := EnsureDir(c.DestRoot, "destination directory"); err != nil {
		return err
	}
	if err := chunking.ValidateChunkSize(c.BufferSize); err != nil {
		return fmt.Errorf("buffer size: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", domain.ErrConfig, c.Workers)
	}
	if c.Storage.Publish && c.Storage.Bucket == "" {
		return fmt.Errorf("%w: publishing requires a storage bucket", domain.ErrConfig)
	}
	return nil
}

// EnsureDir creates path if it is missing. A blank path, or one that cannot
// be created, is an ErrConfig.
func EnsureDir(path, label string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: %s must not be empty", domain.ErrConfig, label)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("%w: %s %s does not exist and cannot be created: %v", domain.ErrConfig, label, path, err)
	}
	return nil
}
