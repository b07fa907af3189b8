// Package commands implements CLI commands.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/entql/internal/config"
	"github.com/satishbabariya/entql/internal/core/catalog"
	"github.com/satishbabariya/entql/internal/core/catalog/parser"
	"github.com/satishbabariya/entql/internal/core/catalog/store"
	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/compiler"
	"github.com/satishbabariya/entql/internal/debug"
	"github.com/satishbabariya/entql/internal/ui"
	"github.com/satishbabariya/entql/internal/version"
)

// ErrReported is returned once a failure has already been printed.
var ErrReported = errors.New("failed")

// Flags are the global command-line overrides.
type Flags struct {
	Debug      bool
	DebugArgs  bool
	SchemaPath string
	Dialect    string
}

// App carries configuration shared by every command.
type App struct {
	Flags  Flags
	Config *config.Config
}

// Setup loads configuration and applies the global flags. It runs before
// every command.
func (a *App) Setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.Flags.SchemaPath != "" {
		cfg.SchemaPath = a.Flags.SchemaPath
	}
	if a.Flags.Dialect != "" {
		cfg.Dialect = a.Flags.Dialect
	}
	cfg.Debug = cfg.Debug || a.Flags.Debug
	cfg.DebugArgs = cfg.DebugArgs || a.Flags.DebugArgs

	debug.InitWriter(os.Stderr, cfg.Debug || cfg.DebugArgs, cfg.DebugArgs)
	a.Config = cfg
	return nil
}

// Catalog loads the configured schema, through the catalog cache when a
// cache directory is configured. Diagnostics are printed before the
// error is returned.
func (a *App) Catalog() (*catalog.Registry, error) {
	path := a.Config.SchemaPath
	src, err := afero.ReadFile(config.AppFs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var reg *catalog.Registry
	if a.Config.CacheDir == "" {
		reg, err = parser.Load(path, string(src))
	} else {
		var s *store.Store
		if s, err = store.New(config.AppFs, a.Config.CacheDir, version.Version); err != nil {
			return nil, err
		}
		reg, err = s.LoadOrBuild(path, string(src))
	}
	if err != nil {
		diagnostics.PrettyPrint(ui.Err, path, string(src), err)
		return nil, ErrReported
	}
	return reg, nil
}

// Compiler builds a compiler over reg from the configuration. An empty
// dialect uses the configured one.
func (a *App) Compiler(reg catalog.Catalog, dialect string) (*compiler.Compiler, error) {
	if dialect == "" {
		dialect = a.Config.Dialect
	}
	return compiler.New(reg,
		compiler.WithDialect(dialect),
		compiler.WithPageSize(a.Config.PageSize),
		compiler.WithFunctions(a.Config.Functions...),
		compiler.WithCache(a.Config.CacheSize),
	)
}

// NamedQuery is one entry of a query file.
type NamedQuery struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
}

// LoadQueries reads a YAML list of named queries.
func LoadQueries(path string) ([]NamedQuery, error) {
	data, err := afero.ReadFile(config.AppFs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	var queries []NamedQuery
	if err := yaml.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("invalid query file %s: %w", path, err)
	}
	for i := range queries {
		if queries[i].Name == "" {
			queries[i].Name = fmt.Sprintf("query_%d", i+1)
		}
	}
	return queries, nil
}

// inlineQueries names queries given on the command line.
func inlineQueries(args []string) []NamedQuery {
	out := make([]NamedQuery, len(args))
	for i, q := range args {
		out[i] = NamedQuery{Name: fmt.Sprintf("query_%d", i+1), Query: q}
	}
	return out
}
