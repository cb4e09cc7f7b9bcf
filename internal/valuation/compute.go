package valuation

import (
	"github.com/homescout/listings-cli/internal/config"
)

// Result is the composed valuation for one listing.
type Result struct {
	// ValueIndex is the weighted sum of normalized signals, two decimals.
	ValueIndex float64 `json:"value_index"`
	// RawScore is the same sum at four decimals, kept for snapshot
	// comparison before the coarser final rounding.
	RawScore float64 `json:"raw_score"`
	// Breakdown maps each contributing signal to its weighted
	// contribution.
	Breakdown map[string]float64 `json:"breakdown"`
}

// Compute applies the configured weights and z-score normalization to the
// present signals. Signals with configured stats are z-scored first;
// others are used directly. hotFlag is the one signal that defaults to 0
// when absent and always appears in the breakdown, so downstream readers
// always see competition pressure; every other missing signal is simply
// omitted. Total function: any input shape yields a finite result.
func Compute(signals Signals, cfg config.ValuationConfig) Result {
	breakdown := make(map[string]float64, len(signals)+1)
	var raw float64

	for name, value := range signals {
		if name == config.SignalHotFlag {
			continue // handled below with its default
		}
		weight, ok := cfg.Weights[name]
		if !ok {
			continue
		}
		v := value
		if stats, ok := cfg.Stats[name]; ok {
			v = zScore(value, stats.Mean, stats.StdDev)
		}
		contribution := weight * v
		breakdown[name] = contribution
		raw += contribution
	}

	hotFlag := signals[config.SignalHotFlag] // 0 when absent
	hotContribution := cfg.Weights[config.SignalHotFlag] * hotFlag
	breakdown[config.SignalHotFlag] = hotContribution
	raw += hotContribution

	return Result{
		ValueIndex: round2(raw),
		RawScore:   round4(raw),
		Breakdown:  breakdown,
	}
}
