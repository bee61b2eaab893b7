package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"competencymap/internal/loader"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the mapping table",
	Long: `Create the question_competency table and its indexes.

With --host-schema the question and competency tables are created too, for
standalone installations that are not attached to a host database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Open already applies the mapping schema
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if host, _ := cmd.Flags().GetBool("host-schema"); host {
			if err := store.EnsureHostSchema(cmd.Context()); err != nil {
				return err
			}
		}

		log.Info("Schema up to date", zap.String("driver", string(store.Dialect())))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.yaml>",
	Short: "Load questions and competencies from a fixture file",
	Long:  "Create the host tables if needed and insert the questions and competencies listed in a YAML fixture file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fixture, err := loader.LoadFile(args[0])
		if err != nil {
			return err
		}

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.EnsureHostSchema(cmd.Context()); err != nil {
			return err
		}
		if err := fixture.Apply(cmd.Context(), store); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d questions and %d competencies\n", len(fixture.Questions), len(fixture.Competencies))
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("host-schema", false, "Also create the question and competency host tables")
}
