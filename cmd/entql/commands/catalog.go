package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/entql/internal/core/catalog"
	"github.com/satishbabariya/entql/internal/core/catalog/domain"
	"github.com/satishbabariya/entql/internal/ui"
)

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(app *App) *cobra.Command {
	var entity string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List entities and relations of the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.Catalog()
			if err != nil {
				return err
			}
			if entity != "" {
				return printEntity(reg, entity)
			}
			return printCatalog(reg)
		},
	}
	cmd.Flags().StringVarP(&entity, "entity", "e", "", "show the fields of one entity")
	return cmd
}

func printCatalog(reg *catalog.Registry) error {
	ui.PrintSection("Entities")
	rows := make([][]string, 0, len(reg.Entities()))
	for _, e := range reg.Entities() {
		rows = append(rows, []string{e.Name, e.Table, e.PrimaryKey, fmt.Sprint(len(e.Fields))})
	}
	if err := ui.PrintTable([]string{"Entity", "Table", "Primary Key", "Fields"}, rows); err != nil {
		return err
	}

	if len(reg.Relations()) == 0 {
		return nil
	}
	ui.PrintSection("Relations")
	rows = rows[:0]
	for _, r := range reg.Relations() {
		rows = append(rows, []string{r.Key(), r.Target, r.RelatedName, r.FKType.String()})
	}
	return ui.PrintTable([]string{"Field", "Target", "Related Name", "Key Type"}, rows)
}

func printEntity(reg *catalog.Registry, name string) error {
	e, err := reg.GetEntity(name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	ui.PrintSection(fmt.Sprintf("%s (%s)", e.Name, e.Table))
	rows := make([][]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		rows = append(rows, []string{f.Name, f.Column, f.Type.String(), flags(f)})
	}
	return ui.PrintTable([]string{"Field", "Column", "Type", "Flags"}, rows)
}

func flags(f *domain.Field) string {
	var out []string
	if f.Flags.PrimaryKey {
		out = append(out, "id")
	}
	if f.Flags.TypeOverride != "" {
		out = append(out, "type="+f.Flags.TypeOverride)
	}
	if f.Flags.CreationArg {
		out = append(out, "create")
	}
	if f.Flags.CreationFunction != "" {
		out = append(out, "default="+f.Flags.CreationFunction)
	}
	if f.FK != nil {
		out = append(out, "-> "+f.FK.Target)
	}
	return strings.Join(out, " ")
}
