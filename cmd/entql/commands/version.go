package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/entql/internal/ui"
	"github.com/satishbabariya/entql/internal/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	var (
		constraint string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			switch {
			case asJSON:
				enc := json.NewEncoder(ui.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case constraint == "":
				fmt.Fprintln(ui.Out, info.FullString())
				return nil
			}

			ok, err := version.Check(info.Version, constraint)
			if err != nil {
				return err
			}
			if !ok {
				ui.PrintError("entql %s does not satisfy %q", info.Version, constraint)
				return ErrReported
			}
			ui.PrintSuccess("entql %s satisfies %q", info.Version, constraint)
			return nil
		},
	}
	cmd.Flags().StringVar(&constraint, "check", "", `fail unless the version satisfies a constraint, e.g. ">= 0.3"`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print build information as JSON")
	return cmd
}
