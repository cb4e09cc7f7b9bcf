package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homescout/listings-cli/internal/criteria"
)

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Validate and sync the preference criteria file",
	Long: `Loads the YAML criteria file, validates it, compiles every pattern and
prints what will actually be used for scoring. With --sync the validated
set replaces the criteria stored in the database.

Examples:
  # Validate the configured criteria file
  criteria

  # Validate a specific file and sync it to the store
  criteria --file criteria.yaml --sync`,
	RunE: runCriteria,
}

func init() {
	f := criteriaCmd.Flags()
	f.String("file", "", "criteria YAML path (default: scoring.criteria_file)")
	f.Bool("sync", false, "replace stored criteria with this file")

	rootCmd.AddCommand(criteriaCmd)
}

func runCriteria(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = cfg.Scoring.CriteriaFile
	}
	sync, _ := cmd.Flags().GetBool("sync")

	raw, err := criteria.LoadFile(path)
	if err != nil {
		return err
	}
	if err := criteria.Validate(raw); err != nil {
		return err
	}

	prepared := criteria.Prepare(raw)

	fmt.Printf("%-22s %-6s %7s %6s\n", "KEY", "MUST", "WEIGHT", "RULES")
	for _, pc := range prepared {
		fmt.Printf("%-22s %-6v %7.1f %6d\n", pc.Key, pc.Must, pc.Weight, len(pc.Rules))
	}
	fmt.Printf("\n%d of %d criteria usable\n", len(prepared), len(raw))

	if !sync {
		return nil
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.ReplaceCriteria(ctx, raw); err != nil {
		return eris.Wrap(err, "criteria: sync")
	}

	zap.L().Info("criteria synced",
		zap.String("file", path),
		zap.Int("count", len(raw)),
	)
	return nil
}
