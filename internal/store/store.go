// Package store persists the record of installed binaries as a small JSON
// document.
//
// Reads never fail: a missing, unreadable, malformed or schema-invalid file is
// treated as empty. Writes replace the file atomically so a crash mid-write
// leaves the previous document intact.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-hclog"
	jsoniter "github.com/json-iterator/go"

	"ffstatic/internal/platform"
)

var (
	codec    = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New()
)

// Store reads and writes the config file at a fixed path.
type Store struct {
	path   string
	clock  Clock
	logger hclog.Logger
	mu     sync.Mutex
}

// Option customises a Store.
type Option func(*Store)

// WithClock sets the clock used for lastUpdated.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns a store bound to path.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		clock:  RealClock{},
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the config file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) empty() ConfigFile {
	return ConfigFile{Platforms: map[string]PlatformEntry{}, LastUpdated: s.clock.Now().UTC()}
}

// decode is the only place that decides whether bytes form a usable config.
func decode(data []byte) (ConfigFile, error) {
	var cfg ConfigFile
	if err := codec.Unmarshal(data, &cfg); err != nil {
		return ConfigFile{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return ConfigFile{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Read returns the stored config, or an empty one when the file is absent or
// unusable.
func (s *Store) Read() ConfigFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() ConfigFile {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("config unreadable, starting empty", "path", s.path, "error", err)
		}
		return s.empty()
	}
	cfg, err := decode(data)
	if err != nil {
		s.logger.Warn("config invalid, starting empty", "path", s.path, "error", err)
		return s.empty()
	}
	return cfg
}

// Upsert merges info for (identifier, kind) into the stored config, keeping
// every sibling entry, and persists the result.
func (s *Store) Upsert(identifier string, kind platform.Kind, info ConfigBinaryInfo) (ConfigFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.read()
	entry := cfg.Platforms[identifier]
	record := info
	entry.Set(kind, &record)
	cfg.Platforms[identifier] = entry
	cfg.LastUpdated = s.clock.Now().UTC()

	if err := s.write(cfg); err != nil {
		return ConfigFile{}, err
	}
	s.logger.Debug("config updated", "platform", identifier, "kind", kind, "version", info.Version)
	return cfg, nil
}

// Validate checks that the file exists and parses. Platform entries are not
// inspected beyond their identifiers.
func (s *Store) Validate() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	_, err = decode(data)
	return err
}

// Init writes an empty config when Validate fails.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Validate(); err == nil {
		return nil
	}
	s.logger.Info("initialising config", "path", s.path)
	return s.write(s.empty())
}

func (s *Store) write(cfg ConfigFile) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare config directory: %w", err)
	}

	buf, err := codec.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	buf = append(buf, '\n')

	tmp, err := os.CreateTemp(dir, "config-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write config temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
