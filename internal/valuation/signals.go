package valuation

import (
	"regexp"
	"sort"
	"time"

	"github.com/homescout/listings-cli/internal/config"
	"github.com/homescout/listings-cli/internal/model"
)

// Signals is the bag of named numeric signals feeding the value index.
// A missing key means the signal could not be determined; derivation never
// zero-fills an undeterminable signal.
type Signals map[string]float64

// priceCutEvent matches price-history event labels that describe a
// reduction.
var priceCutEvent = regexp.MustCompile(`(?i)price change|price reduced`)

// recentCutWindow is how far back a price-change event still counts as
// recent.
const recentCutWindow = 30 * 24 * time.Hour

// Derive converts a raw market extract into normalized comparison
// signals. now anchors the recentCut 30-day window.
func Derive(extract model.MarketExtract, cfg config.ValuationConfig, now time.Time) Signals {
	signals := Signals{}

	// deltaZ: relative gap between list price and estimate.
	if extract.ListPrice != nil && extract.Zestimate != nil && *extract.Zestimate > 0 {
		signals[config.SignalDeltaZ] = (*extract.ListPrice - *extract.Zestimate) / *extract.Zestimate
	}

	// domPct: days on market relative to the configured median.
	if extract.DaysOnSite != nil && cfg.MedianDaysOnMarket > 0 {
		signals[config.SignalDOMPct] = float64(*extract.DaysOnSite) / cfg.MedianDaysOnMarket
	}

	if cut, ok := deriveRecentCut(extract.PriceHistory, now); ok {
		signals[config.SignalRecentCut] = cut
	}

	return signals
}

// deriveRecentCut inspects only the most recent price-history event. It is
// 1 when that event is a cut within the window, has a strictly earlier
// predecessor, and actually lowered the price. Absent history is
// undeterminable; every other combination is 0.
func deriveRecentCut(history []model.PriceHistoryEvent, now time.Time) (float64, bool) {
	if len(history) == 0 {
		return 0, false
	}

	sorted := make([]model.PriceHistoryEvent, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	last := sorted[0]
	if !priceCutEvent.MatchString(last.Event) {
		return 0, true
	}
	if last.Date.Before(now.Add(-recentCutWindow)) {
		return 0, true
	}
	if len(sorted) < 2 || !sorted[1].Date.Before(last.Date) {
		// Initial listing price (or a same-instant duplicate), not a cut.
		return 0, true
	}
	if last.Price < sorted[1].Price {
		return 1, true
	}
	return 0, true
}
