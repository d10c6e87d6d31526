package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/crudgen/pkg/cli/internal/output"
	"github.com/getmockd/crudgen/pkg/config"
	"github.com/getmockd/crudgen/pkg/logging"
	"github.com/getmockd/crudgen/pkg/openapi"
)

func newOpenAPICmd(g *globalFlags) *cobra.Command {
	var (
		format  string
		outFile string
		version string
	)
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document of the configured resources",
		Example: `  crudgen openapi -c people.yaml
  crudgen openapi -c people.yaml --format yaml -o openapi.yaml`,
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

			doc, err := openapi.Build(cmd.Context(), openapi.Info{Title: cfg.Server.Title, Version: version}, app.Resources)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outFile, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			switch format {
			case "json":
				return output.JSON(w, doc)
			case "yaml":
				return output.YAML(w, doc)
			default:
				return fmt.Errorf("unknown format %q (use json or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, yaml)")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&version, "api-version", "", "Version reported in the document info")
	return cmd
}
