// Package main is the entry point for the entql CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/entql/cmd/entql/commands"
	"github.com/satishbabariya/entql/internal/version"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, commands.ErrReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	app := &commands.App{}

	rootCmd := &cobra.Command{
		Use:   "entql",
		Short: "Compile entity queries to SQL",
		Long: `entql compiles a small query language over declared entities into
parameterized SQL for postgres, mysql and sqlite.`,
		Version:           version.Get().String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.Setup,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&app.Flags.Debug, "debug", false, "log compiled SQL to stderr")
	flags.BoolVar(&app.Flags.DebugArgs, "debug-args", false, "also log bound arguments")
	flags.StringVarP(&app.Flags.SchemaPath, "schema", "s", "", "path to the schema file (default from config)")
	flags.StringVarP(&app.Flags.Dialect, "dialect", "d", "", "target dialect (default from config)")

	rootCmd.AddCommand(commands.NewInitCommand(app))
	rootCmd.AddCommand(commands.NewCompileCommand(app))
	rootCmd.AddCommand(commands.NewValidateCommand(app))
	rootCmd.AddCommand(commands.NewCatalogCommand(app))
	rootCmd.AddCommand(commands.NewVerifyCommand(app))
	rootCmd.AddCommand(commands.NewGrammarCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd.Execute()
}
