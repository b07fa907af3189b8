package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/entql/internal/config"
	"github.com/satishbabariya/entql/internal/core/query/dialect"
	"github.com/satishbabariya/entql/internal/ui"
)

const starterSchema = `// Declare one model per table. See "entql grammar" for the query language.
model Maison {
  id      Int     @id
  adresse String  @create
  taille  Int
  piscine Boolean
}

model Piece {
  @@map("pieces")
  id      Int      @id
  nom     String   @map("nom_piece") @create
  maison  Int      @map("maison_id") @relation(Maison, "lespieces")
  created DateTime @default(NOW())
}
`

const starterQueries = `- name: big_houses
  query: "*Maison where taille > 100 order by -taille"
- name: rooms_of
  query: "*Maison[:id].lespieces"
- name: add_room
  query: "insert Piece nom = :nom, maison = :maison"
`

type initAnswers struct {
	SchemaPath string
	Dialect    string
	Starter    bool
}

// NewInitCommand creates the init command.
func NewInitCommand(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create .entql.yaml and a starter schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			answers := initAnswers{SchemaPath: "schema.entql", Dialect: app.Config.Dialect, Starter: true}
			if !yes {
				if err := askInit(&answers); err != nil {
					return err
				}
			}
			return writeProject(dir, app.Config, answers)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "accept the defaults without prompting")
	return cmd
}

func askInit(a *initAnswers) error {
	qs := []*survey.Question{
		{
			Name:     "SchemaPath",
			Prompt:   &survey.Input{Message: "Schema file:", Default: a.SchemaPath},
			Validate: survey.Required,
		},
		{
			Name: "Dialect",
			Prompt: &survey.Select{
				Message: "Target database:",
				Options: dialect.Names(),
				Default: a.Dialect,
			},
		},
		{
			Name:   "Starter",
			Prompt: &survey.Confirm{Message: "Write a starter schema and query file?", Default: a.Starter},
		},
	}
	return survey.Ask(qs, a)
}

func writeProject(dir string, base *config.Config, a initAnswers) error {
	cfg := *base
	cfg.SchemaPath = a.SchemaPath
	cfg.Dialect = a.Dialect
	cfg.CacheDir = ""

	path, err := config.SaveConfig(&cfg, dir)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	ui.PrintSuccess("Created %s", path)

	if !a.Starter {
		return nil
	}
	files := map[string]string{
		filepath.Join(dir, a.SchemaPath):   starterSchema,
		filepath.Join(dir, "queries.yaml"): starterQueries,
	}
	for _, name := range []string{filepath.Join(dir, a.SchemaPath), filepath.Join(dir, "queries.yaml")} {
		if _, err := config.AppFs.Stat(name); err == nil {
			ui.PrintWarning("%s already exists, skipping", name)
			continue
		} else if !os.IsNotExist(err) {
			return err
		}
		if err := config.AppFs.MkdirAll(filepath.Dir(name), 0755); err != nil {
			return err
		}
		if err := afero.WriteFile(config.AppFs, name, []byte(files[name]), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		ui.PrintSuccess("Created %s", name)
	}

	ui.PrintInfo("Next: entql compile --file queries.yaml")
	return nil
}
