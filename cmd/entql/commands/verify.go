package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/compiler"
	"github.com/satishbabariya/entql/internal/core/verify"
	"github.com/satishbabariya/entql/internal/ui"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(app *App) *cobra.Command {
	var (
		file string
		url  string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Prepare compiled queries against a database",
		Long: `Compile every query of a query file for the database's dialect and ask
the database to prepare it. Nothing is executed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = app.Config.DatabaseURL
			}
			if url == "" {
				return fmt.Errorf("no database url: set database_url, DATABASE_URL or --url")
			}
			queries, err := LoadQueries(file)
			if err != nil {
				return err
			}

			target, err := verify.Open(url)
			if err != nil {
				return err
			}
			defer target.Close()

			reg, err := app.Catalog()
			if err != nil {
				return err
			}
			c, err := app.Compiler(reg, target.Dialect)
			if err != nil {
				return err
			}

			compiled := make([]*compiler.CompiledQuery, 0, len(queries))
			for _, nq := range queries {
				q, err := c.CompileNamed(nq.Name, nq.Query)
				if err != nil {
					diagnostics.PrettyPrint(ui.Err, nq.Name, nq.Query, err)
					return ErrReported
				}
				compiled = append(compiled, q)
			}

			spinner, _ := ui.Spinner(fmt.Sprintf("preparing %d statements on %s", len(compiled), target.Driver))
			results, err := verify.Verify(cmd.Context(), target.DB, compiled)
			if spinner != nil {
				_ = spinner.Stop()
			}
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status, detail := "ok", ""
				if !r.OK() {
					status, detail = "failed", r.Err.Error()
				}
				rows = append(rows, []string{r.Name, status, detail})
			}
			if err := ui.PrintTable([]string{"Query", "Status", "Error"}, rows); err != nil {
				return err
			}

			if n := verify.Failed(results); n > 0 {
				ui.PrintError("%d of %d statements failed to prepare", n, len(results))
				return ErrReported
			}
			ui.PrintSuccess("all %d statements prepared", len(results))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "queries.yaml", "YAML file with a list of {name, query}")
	cmd.Flags().StringVar(&url, "url", "", "database url (default from config)")
	return cmd
}
