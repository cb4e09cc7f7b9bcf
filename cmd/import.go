package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homescout/listings-cli/internal/model"
)

var importJSONPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import scraped listings from a JSON file into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(importJSONPath)
		if err != nil {
			return eris.Wrapf(err, "import: read %s", importJSONPath)
		}

		var listings []model.Listing
		if err := json.Unmarshal(data, &listings); err != nil {
			return eris.Wrap(err, "import: parse listings JSON")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.UpsertListings(ctx, listings)
		if err != nil {
			return eris.Wrap(err, "import: upsert listings")
		}

		zap.L().Info("import complete",
			zap.Int("upserted", n),
			zap.String("json", importJSONPath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importJSONPath, "json", "", "path to listings JSON file (required)")
	_ = importCmd.MarkFlagRequired("json")
	rootCmd.AddCommand(importCmd)
}
