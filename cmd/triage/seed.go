package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/triage/internal/seed"
)

func newSeedCmd(g *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load knowledge entries from a YAML fixture into the configured store",
		Example: `  triage seed --file config/seed/knowledge.yaml
  triage seed --env prod -f fixtures/cardiology.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if file == "" {
				file = cfg.Seed.File
			}
			if file == "" {
				return fmt.Errorf("no fixture: pass --file or set seed.file")
			}

			store, err := openStore(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := seed.Run(cmd.Context(), store, file, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d entries from %s\n", n, file)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture path (default seed.file from config)")
	return cmd
}
