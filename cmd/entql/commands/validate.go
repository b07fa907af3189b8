package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/entql/internal/core/catalog"
	"github.com/satishbabariya/entql/internal/ui"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [schema-path]",
		Short: "Validate a schema file",
		Long: `Validate a schema file for syntax and semantic errors.

This command will:
- Parse the schema file
- Check primary keys, foreign keys and related names
- Display a summary of entities and relations`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				app.Config.SchemaPath = args[0]
			}
			return runValidate(app)
		},
	}
}

func runValidate(app *App) error {
	ui.PrintHeader("entql", "Validate Schema")

	reg, err := app.Catalog()
	if err != nil {
		return err
	}

	absPath, _ := filepath.Abs(app.Config.SchemaPath)
	ui.PrintSuccess("Schema is valid: %s", absPath)

	ui.PrintSection("Schema Summary")
	ui.PrintList(summary(reg))
	return nil
}

func summary(reg *catalog.Registry) []string {
	fields := 0
	for _, e := range reg.Entities() {
		fields += len(e.Fields)
	}
	return []string{
		fmt.Sprintf("%d entit(y/ies)", len(reg.Entities())),
		fmt.Sprintf("%d field(s)", fields),
		fmt.Sprintf("%d relation(s)", len(reg.Relations())),
	}
}
