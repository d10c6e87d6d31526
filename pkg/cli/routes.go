package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/crudgen/pkg/cli/internal/output"
	"github.com/getmockd/crudgen/pkg/config"
	"github.com/getmockd/crudgen/pkg/logging"
)

// RouteOutput is one row of `crudgen routes --json`.
type RouteOutput struct {
	Method   string `json:"method"`
	URL      string `json:"url"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Strategy string `json:"strategy"`
}

func newRoutesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the generated routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			app, err := config.Build(cmd.Context(), schemaOnly(cfg), logging.Nop())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			var rows []RouteOutput
			for _, res := range app.Resources {
				for _, rt := range res.Routes {
					rows = append(rows, RouteOutput{
						Method:   rt.Method,
						URL:      rt.URL,
						Action:   rt.Action.ServiceName(),
						Resource: res.Name(),
						Strategy: res.Service.Strategy().Kind(),
					})
				}
			}

			if g.jsonOutput {
				if rows == nil {
					rows = []RouteOutput{}
				}
				return output.JSON(cmd.OutOrStdout(), rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No resources configured")
				return nil
			}
			tw := output.Table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "METHOD\tURL\tACTION\tRESOURCE\tSTRATEGY")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Method, r.URL, r.Action, r.Resource, r.Strategy)
			}
			return tw.Flush()
		},
	}
}

// schemaOnly returns a copy of cfg backed by the memory store, so routes and
// documents can be generated without connecting to a database.
func schemaOnly(cfg *config.Config) *config.Config {
	c := *cfg
	c.Store.Driver = config.DriverMemory
	c.Store.DSN = ""
	return &c
}

