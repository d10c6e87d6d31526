package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/crudgen/pkg/cli/internal/output"
	"github.com/getmockd/crudgen/pkg/config"
)

// ValidateOutput is the result of `crudgen validate --json`.
type ValidateOutput struct {
	Valid     bool     `json:"valid"`
	Tables    int      `json:"tables"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
}

func newValidateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.configFile == "" {
				return errors.New("--config is required")
			}
			cfg, err := config.Load(g.configFile)

			result := ValidateOutput{Valid: err == nil}
			var verrs config.ValidationErrors
			switch {
			case err == nil:
				result.Tables = len(cfg.Store.Tables)
				result.Resources = len(cfg.Resources)
			case errors.As(err, &verrs):
				for _, e := range verrs {
					result.Errors = append(result.Errors, e.Error())
				}
			default:
				return err
			}

			if g.jsonOutput {
				if err := output.JSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else if result.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d tables, %d resources\n",
					g.configFile, result.Tables, result.Resources)
			} else {
				for _, e := range result.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", e)
				}
			}
			if !result.Valid {
				return fmt.Errorf("%s: %d problems found", g.configFile, len(result.Errors))
			}
			return nil
		},
	}
}
