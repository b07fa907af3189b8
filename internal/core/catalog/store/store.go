// Package store persists built catalogs between compilation runs.
//
// A cache file is keyed by the SHA-256 of the schema source it was built
// from and records the tool version that wrote it. Files written by a
// different major version are treated as stale.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/entql/internal/core/catalog"
	"github.com/satishbabariya/entql/internal/core/catalog/domain"
	"github.com/satishbabariya/entql/internal/core/catalog/parser"
	"github.com/satishbabariya/entql/internal/debug"
)

var (
	// ErrMiss is returned by Load when no cache file exists for the source.
	ErrMiss = errors.New("catalog cache miss")
	// ErrStale is returned by Load when the cache file cannot be used.
	ErrStale = errors.New("catalog cache is stale")
)

type entry struct {
	Version string         `yaml:"version"`
	Hash    string         `yaml:"hash"`
	Source  string         `yaml:"source,omitempty"`
	Schema  *domain.Schema `yaml:"schema"`
}

// Store reads and writes catalog cache files below one directory.
type Store struct {
	fs      afero.Fs
	dir     string
	version *version.Version
}

// New creates a store rooted at dir. toolVersion is recorded in every file
// written and compared against on load.
func New(fs afero.Fs, dir, toolVersion string) (*Store, error) {
	v, err := version.NewVersion(toolVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid tool version %q: %w", toolVersion, err)
	}
	return &Store{fs: fs, dir: dir, version: v}, nil
}

// Hash returns the cache key for a schema source.
func Hash(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// Path returns the cache file used for src.
func (s *Store) Path(src string) string {
	return filepath.Join(s.dir, Hash(src)[:16]+".yaml")
}

// Load reads the cached catalog for src.
func (s *Store) Load(src string) (*catalog.Registry, error) {
	path := s.Path(src)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to read catalog cache: %w", err)
	}

	var e entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStale, err)
	}
	if e.Hash != Hash(src) {
		return nil, fmt.Errorf("%w: source hash differs", ErrStale)
	}

	written, err := version.NewVersion(e.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStale, err)
	}
	if written.Segments()[0] != s.version.Segments()[0] {
		return nil, fmt.Errorf("%w: written by %s, running %s", ErrStale, written, s.version)
	}
	if e.Schema == nil {
		return nil, fmt.Errorf("%w: no schema recorded", ErrStale)
	}

	reg, err := catalog.FromSchema(e.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStale, err)
	}
	debug.Debug("catalog cache hit", "path", path)
	return reg, nil
}

// Save writes reg as the cached catalog for src.
func (s *Store) Save(src, name string, reg *catalog.Registry) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := yaml.Marshal(&entry{
		Version: s.version.String(),
		Hash:    Hash(src),
		Source:  name,
		Schema:  reg.Schema(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	path := s.Path(src)
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog cache: %w", err)
	}
	debug.Debug("catalog cache written", "path", path)
	return nil
}

// LoadOrBuild returns the cached catalog for src, parsing and caching it
// when there is no usable cache file.
func (s *Store) LoadOrBuild(name, src string) (*catalog.Registry, error) {
	reg, err := s.Load(src)
	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, ErrMiss) && !errors.Is(err, ErrStale) {
		return nil, err
	}
	debug.Debug("rebuilding catalog", "file", name, "reason", err)

	reg, err = parser.Load(name, src)
	if err != nil {
		return nil, err
	}
	if err := s.Save(src, name, reg); err != nil {
		debug.Warn("catalog cache not written", "error", err)
	}
	return reg, nil
}
