package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/compiler"
	"github.com/satishbabariya/entql/internal/ui"
	"github.com/satishbabariya/entql/internal/watch"
)

type compileOptions struct {
	file   string
	format string
	watch  bool
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(app *App) *cobra.Command {
	opts := &compileOptions{}
	cmd := &cobra.Command{
		Use:   "compile [query...]",
		Short: "Compile queries to SQL",
		Long: `Compile queries given as arguments, or every query of a YAML query file,
and print the SQL with its bound arguments.`,
		Example: `  entql compile '*Maison where taille > 100'
  entql compile --file queries.yaml --format json
  entql compile --file queries.yaml --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), app, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "YAML file with a list of {name, query}")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "text", "output format: text, json, yaml or table")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "recompile when the schema or query file changes")
	return cmd
}

func runCompile(ctx context.Context, app *App, opts *compileOptions, args []string) error {
	if opts.file == "" && len(args) == 0 {
		return fmt.Errorf("no queries: pass them as arguments or with --file")
	}
	switch opts.format {
	case "text", "json", "yaml", "table":
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	once := func() error {
		queries := inlineQueries(args)
		if opts.file != "" {
			var err error
			if queries, err = LoadQueries(opts.file); err != nil {
				return err
			}
		}
		return compileAndPrint(app, opts.format, queries)
	}

	if !opts.watch {
		return once()
	}

	files := []string{app.Config.SchemaPath}
	if opts.file != "" {
		files = append(files, opts.file)
	}
	w, err := watch.NewWatcher(once, files...)
	if err != nil {
		return err
	}
	w.OnError = func(err error) {
		if err != ErrReported {
			ui.PrintError("%v", err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ui.PrintInfo("watching %s", strings.Join(files, ", "))
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func compileAndPrint(app *App, format string, queries []NamedQuery) error {
	reg, err := app.Catalog()
	if err != nil {
		return err
	}
	c, err := app.Compiler(reg, "")
	if err != nil {
		return err
	}

	var (
		compiled []*compiler.CompiledQuery
		failed   int
	)
	for _, nq := range queries {
		q, err := c.CompileNamed(nq.Name, nq.Query)
		if err != nil {
			failed++
			diagnostics.PrettyPrint(ui.Err, nq.Name, nq.Query, err)
			continue
		}
		compiled = append(compiled, q)
	}

	if err := printCompiled(ui.Out, format, compiled); err != nil {
		return err
	}
	if failed > 0 {
		ui.PrintError("%d of %d queries failed to compile", failed, len(queries))
		return ErrReported
	}
	return nil
}

func printCompiled(w io.Writer, format string, queries []*compiler.CompiledQuery) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(queries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(queries)
	case "table":
		rows := make([][]string, 0, len(queries))
		for _, q := range queries {
			rows = append(rows, []string{q.Name, q.Method(), q.SQL, strings.Join(describeArgs(q), ", ")})
		}
		return ui.PrintTable([]string{"Name", "Method", "SQL", "Args"}, rows)
	default:
		for _, q := range queries {
			ui.PrintSQL(q.Name+" ("+q.Method()+")", q.SQL, describeArgs(q))
		}
		return nil
	}
}

func describeArgs(q *compiler.CompiledQuery) []string {
	out := make([]string, len(q.Args))
	for i, p := range q.Args {
		if p.Host {
			out[i] = fmt.Sprintf(":%v", p.Value)
		} else {
			out[i] = fmt.Sprintf("%#v", p.Value)
		}
	}
	return out
}
