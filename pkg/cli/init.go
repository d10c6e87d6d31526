package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/crudgen/pkg/config"
	"github.com/getmockd/crudgen/pkg/store"
	"github.com/getmockd/crudgen/pkg/store/sqlstore"
)

func newInitCmd() *cobra.Command {
	var (
		outFile string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration with people, possessions and children",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(outFile); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outFile)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			data, err := config.Marshal(starterConfig(), config.FormatOf(outFile))
			if err != nil {
				return err
			}
			if err := os.WriteFile(outFile, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\nRun: crudgen serve --config %s\n", outFile, outFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "crudgen.yaml", "Output filename (.yaml, .yml or .json)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func starterConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Title = "people"
	cfg.Store.Tables = []sqlstore.TableSchema{
		{
			Name: "persons",
			Columns: []sqlstore.Column{
				{Name: "firstName", Type: sqlstore.TypeText},
				{Name: "parentId", Type: sqlstore.TypeInteger},
			},
			Relations: []store.RelationConfig{
				{Name: "children", Table: "persons", ForeignKey: "parentId"},
				{Name: "possessions", Table: "possessions", ForeignKey: "person_id"},
			},
			Seed: []store.Record{
				{"firstName": "Sylvester"},
				{"firstName": "Sage", "parentId": 1},
				{"firstName": "Sophia", "parentId": 1},
			},
		},
		{
			Name: "possessions",
			Columns: []sqlstore.Column{
				{Name: "name", Type: sqlstore.TypeText},
				{Name: "person_id", Type: sqlstore.TypeInteger},
			},
			Seed: []store.Record{
				{"name": "Car", "person_id": 1},
				{"name": "Bike", "person_id": 2},
				{"name": "Skateboard", "person_id": 3},
			},
		},
	}
	cfg.Resources = []config.ResourceConfig{
		{Chain: config.Chain{"person"}, Table: "persons"},
		{Chain: config.Chain{"possession"}, Table: "possessions"},
		{Chain: config.Chain{"person", "possession"}, Table: "persons",
			Relation: &config.RelationConfig{Name: "possessions", PrimaryKey: "person_id"}},
		{Chain: config.Chain{"person", "child"}, Table: "persons",
			Relation: &config.RelationConfig{Name: "children", PrimaryKey: "person_id"}},
	}
	return cfg
}
