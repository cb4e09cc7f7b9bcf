package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homescout/listings-cli/internal/valuation"
	"github.com/homescout/listings-cli/pkg/zillow"
)

var valuationCmd = &cobra.Command{
	Use:   "valuation",
	Short: "Fetch market data and compute value indices for stored listings",
	Long: `Runs a valuation job: fetches price, estimate, days-on-market and price
history for every stored listing, derives market signals, composes the
weighted value index and persists the result. Swings beyond the notify
threshold against the prior stored index are logged.

Examples:
  # Run a full valuation job
  valuation

  # Inspect a single listing without persisting
  valuation --zpid 44112290`,
	RunE: runValuation,
}

func init() {
	valuationCmd.Flags().String("zpid", "", "value a single listing and print the result")
	rootCmd.AddCommand(valuationCmd)
}

func runValuation(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Zillow.APIKey == "" {
		return eris.New("zillow API key is required (HOMESCOUT_ZILLOW_API_KEY)")
	}

	client := zillow.NewClient(zillow.Config{
		APIKey:          cfg.Zillow.APIKey,
		BaseURL:         cfg.Zillow.BaseURL,
		RequestsPerSec:  cfg.Zillow.RequestsPerSec,
		CacheTTL:        time.Duration(cfg.Zillow.CacheTTLMinutes) * time.Minute,
		CacheMaxEntries: cfg.Zillow.CacheMaxEntries,
		Timeout:         time.Duration(cfg.Zillow.TimeoutSecs) * time.Second,
	})

	if zpid, _ := cmd.Flags().GetString("zpid"); zpid != "" {
		return valueOne(cmd, client, zpid)
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	orch := valuation.NewOrchestrator(st, client, cfg.Valuation, nil)
	result, err := orch.Run(ctx)
	if err != nil {
		return eris.Wrap(err, "valuation: run job")
	}

	fmt.Printf("Job:       %s\n", result.JobID)
	fmt.Printf("Processed: %d\n", result.Processed)
	fmt.Printf("Failed:    %d\n", result.Failed)
	fmt.Printf("Notified:  %d\n", result.Notified)
	return nil
}

func valueOne(cmd *cobra.Command, client zillow.Client, zpid string) error {
	ctx := cmd.Context()

	extract, err := client.FetchExtract(ctx, zpid)
	if err != nil {
		return eris.Wrapf(err, "valuation: fetch %s", zpid)
	}

	signals := valuation.Derive(*extract, cfg.Valuation, time.Now())
	result := valuation.Compute(signals, cfg.Valuation)

	zap.L().Debug("valued listing", zap.String("zpid", zpid))

	fmt.Printf("ZPID:        %s\n", zpid)
	fmt.Printf("Value index: %.2f\n", result.ValueIndex)
	fmt.Printf("Raw score:   %.4f\n", result.RawScore)
	fmt.Println("Breakdown:")
	for k, v := range result.Breakdown {
		fmt.Printf("  %-12s %+.4f\n", k, v)
	}
	return nil
}
