// Package store persists listings, criteria, scores and valuations.
package store

import (
	"context"

	"github.com/homescout/listings-cli/internal/model"
	"github.com/homescout/listings-cli/internal/scorer"
	"github.com/homescout/listings-cli/internal/valuation"
)

// ListingFilter narrows listing queries.
type ListingFilter struct {
	ZipCodes []string `json:"zip_codes,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// Store defines the persistence interface for the scoring pipeline.
type Store interface {
	// Listings
	UpsertListings(ctx context.Context, listings []model.Listing) (int, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]model.Listing, error)
	ListListingIDs(ctx context.Context) ([]string, error)

	// Criteria
	ReplaceCriteria(ctx context.Context, criteria []model.Criterion) error
	ListCriteria(ctx context.Context) ([]model.Criterion, error)

	// Scores
	SaveScore(ctx context.Context, zpid string, score *scorer.AlignmentScore) error
	GetScore(ctx context.Context, zpid string) (*scorer.AlignmentScore, error)
	DeleteScores(ctx context.Context) (int64, error)

	// Valuations
	SaveValuation(ctx context.Context, zpid string, result *valuation.Result) error
	GetValuation(ctx context.Context, zpid string) (*valuation.Result, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
