package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homescout/listings-cli/internal/criteria"
	"github.com/homescout/listings-cli/internal/model"
	"github.com/homescout/listings-cli/internal/scorer"
	"github.com/homescout/listings-cli/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score stored listings against the preference criteria",
	Long: `Scores every stored listing's description and feature list against the
weighted preference criteria, reports the 0-100 alignment score plus the
preferred-area location bonus, and flags listings missing must-have
criteria.

Criteria are read from the store when present, otherwise from the
configured YAML file.

Examples:
  # Score everything, print a table
  score

  # Score two zip codes, save results
  score --zips 94110,94114 --save

  # Export to CSV
  score --limit 50 --format csv --output scores.csv

  # Wipe stale scores before a full re-run
  score --clear --save`,
	RunE: runScoreListings,
}

func init() {
	f := scoreCmd.Flags()
	f.String("zips", "", "comma-separated zip codes to score")
	f.Int("limit", 0, "maximum number of listings (0=all)")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or csv")
	f.Bool("save", false, "save results to listing_scores")
	f.Bool("clear", false, "delete all stored scores before scoring")

	rootCmd.AddCommand(scoreCmd)
}

// scoredListing pairs a listing with its score for output.
type scoredListing struct {
	Listing model.Listing
	Score   scorer.AlignmentScore
}

func runScoreListings(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "score"))

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "csv" {
		return eris.Errorf("score: --format must be table or csv (got %q)", format)
	}
	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")
	clear, _ := cmd.Flags().GetBool("clear")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if clear {
		n, err := st.DeleteScores(ctx)
		if err != nil {
			return eris.Wrap(err, "score: clear scores")
		}
		log.Info("cleared stored scores", zap.Int64("deleted", n))
	}

	raw, err := st.ListCriteria(ctx)
	if err != nil {
		return eris.Wrap(err, "score: load criteria")
	}
	if len(raw) == 0 {
		raw, err = criteria.LoadFile(cfg.Scoring.CriteriaFile)
		if err != nil {
			return err
		}
		log.Info("using criteria file", zap.String("file", cfg.Scoring.CriteriaFile))
	}
	if err := criteria.Validate(raw); err != nil {
		return err
	}
	prepared := criteria.Prepare(raw)
	if len(prepared) == 0 {
		fmt.Println("No usable criteria. Nothing to score.")
		return nil
	}

	filter := store.ListingFilter{}
	if v, _ := cmd.Flags().GetString("zips"); v != "" {
		filter.ZipCodes = splitAndTrim(v)
	}
	if v, _ := cmd.Flags().GetInt("limit"); v > 0 {
		filter.Limit = v
	}

	listings, err := st.ListListings(ctx, filter)
	if err != nil {
		return eris.Wrap(err, "score: list listings")
	}

	log.Info("scoring listings",
		zap.Int("listings", len(listings)),
		zap.Int("criteria", len(prepared)),
	)

	results := make([]scoredListing, 0, len(listings))
	for _, l := range listings {
		s := scorer.ScoreListing(l, prepared, cfg.Scoring, cfg.Geo)
		results = append(results, scoredListing{Listing: l, Score: s})

		if save {
			if err := st.SaveScore(ctx, l.ZPID, &s); err != nil {
				return eris.Wrapf(err, "score: save %s", l.ZPID)
			}
		}
	}

	if err := outputScoreResults(results, format, outputPath); err != nil {
		return err
	}
	if save {
		fmt.Printf("Saved %d scores to listing_scores\n", len(results))
	}

	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func outputScoreResults(results []scoredListing, format, outputPath string) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "csv":
		return writeScoreCSV(w, results)
	default:
		return writeScoreTable(w, results)
	}
}

func writeScoreCSV(w *os.File, results []scoredListing) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"zpid", "zip_code", "alignment_score", "location_bonus", "matched", "missing_musts", "url"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "score: write CSV header")
	}

	for _, r := range results {
		row := []string{
			r.Listing.ZPID,
			r.Listing.ZipCode,
			fmt.Sprintf("%.2f", r.Score.AlignmentScore),
			fmt.Sprintf("%.2f", r.Score.LocationBonus),
			fmt.Sprintf("%d", len(r.Score.MatchedCriteriaKeys)),
			strings.Join(r.Score.MissingMusts, ";"),
			r.Listing.URL,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "score: write CSV row")
		}
	}
	return nil
}

func writeScoreTable(w *os.File, results []scoredListing) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No listings scored.")
		return err
	}

	header := fmt.Sprintf("%-12s %-7s %7s %7s %8s  %s\n",
		"ZPID", "ZIP", "SCORE", "BONUS", "MATCHED", "MISSING MUSTS")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "score: write table header")
	}

	for _, r := range results {
		line := fmt.Sprintf("%-12s %-7s %7.2f %7.2f %8d  %s\n",
			r.Listing.ZPID,
			r.Listing.ZipCode,
			r.Score.AlignmentScore,
			r.Score.LocationBonus,
			len(r.Score.MatchedCriteriaKeys),
			strings.Join(r.Score.MissingMusts, ", "),
		)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "score: write table row")
		}
	}
	return nil
}
