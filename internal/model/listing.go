// Package model defines the core records shared across the scoring and
// valuation pipeline.
package model

import "time"

// Listing holds the scraped attributes of a single property listing that
// the scoring engine consumes. Coordinates are optional; the geo bonus
// falls back to ZipCode when they are absent.
type Listing struct {
	ZPID        string   `json:"zpid" yaml:"zpid"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
	Description string   `json:"description" yaml:"description"`
	Features    []string `json:"features,omitempty" yaml:"features,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	ZipCode     string   `json:"zip_code,omitempty" yaml:"zip_code,omitempty"`
}

// Criterion is a single named, weighted preference rule. Pattern encodes a
// literal phrase, an OR-list joined by '|', or a /regex/flags expression.
// Synonyms are compiled the same way as Pattern.
type Criterion struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	Key      string   `json:"key" yaml:"key"`
	Weight   float64  `json:"weight" yaml:"weight"`
	Must     bool     `json:"must" yaml:"must"`
	Pattern  string   `json:"pattern" yaml:"pattern"`
	Synonyms []string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
}

// PriceHistoryEvent is one entry in a listing's price history. Ordering is
// not guaranteed by the source; consumers sort before use.
type PriceHistoryEvent struct {
	Event string    `json:"event"`
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// MarketExtract is the raw market data bundle for one listing, as returned
// by the property data provider. Optional fields stay nil when the
// provider omitted them; signal derivation never zero-fills.
type MarketExtract struct {
	ZPID         string              `json:"zpid"`
	ListPrice    *float64            `json:"list_price,omitempty"`
	Zestimate    *float64            `json:"zestimate,omitempty"`
	DaysOnSite   *int                `json:"days_on_site,omitempty"`
	PriceHistory []PriceHistoryEvent `json:"price_history,omitempty"`
	Latitude     *float64            `json:"latitude,omitempty"`
	Longitude    *float64            `json:"longitude,omitempty"`
	ZipCode      string              `json:"zip_code,omitempty"`
}
