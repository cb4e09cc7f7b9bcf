package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescout/listings-cli/internal/model"
	"github.com/homescout/listings-cli/internal/scorer"
	"github.com/homescout/listings-cli/internal/valuation"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func ptr(f float64) *float64 { return &f }

func testListings() []model.Listing {
	return []model.Listing{
		{ZPID: "1001", URL: "https://example.com/1001", Description: "bright condo", ZipCode: "94110", Latitude: ptr(37.75), Longitude: ptr(-122.42)},
		{ZPID: "1002", Description: "garden flat", ZipCode: "94114"},
		{ZPID: "1003", Description: "loft", ZipCode: "94110", Features: []string{"parking", "deck"}},
	}
}

func TestSQLiteUpsertAndListListings(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	n, err := s.UpsertListings(ctx, testListings())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.ListListings(ctx, ListingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1001", all[0].ZPID)
	assert.Equal(t, "bright condo", all[0].Description)
	require.NotNil(t, all[0].Latitude)
	assert.Equal(t, 37.75, *all[0].Latitude)
	assert.Equal(t, []string{"parking", "deck"}, all[2].Features)
}

func TestSQLiteUpsertReplacesExisting(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.UpsertListings(ctx, testListings())
	require.NoError(t, err)

	n, err := s.UpsertListings(ctx, []model.Listing{
		{ZPID: "1001", Description: "renovated condo", ZipCode: "94131"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := s.ListListings(ctx, ListingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "renovated condo", all[0].Description)
	assert.Equal(t, "94131", all[0].ZipCode)
}

func TestSQLiteUpsertSkipsBlankZPID(t *testing.T) {
	s := newTestSQLite(t)

	n, err := s.UpsertListings(context.Background(), []model.Listing{
		{Description: "no id"},
		{ZPID: "1001"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteListListingsFilter(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.UpsertListings(ctx, testListings())
	require.NoError(t, err)

	byZip, err := s.ListListings(ctx, ListingFilter{ZipCodes: []string{"94110"}})
	require.NoError(t, err)
	require.Len(t, byZip, 2)

	limited, err := s.ListListings(ctx, ListingFilter{ZipCodes: []string{"94110", "94114"}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "1001", limited[0].ZPID)

	none, err := s.ListListings(ctx, ListingFilter{ZipCodes: []string{"00000"}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteListListingIDs(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.UpsertListings(ctx, testListings())
	require.NoError(t, err)

	ids, err := s.ListListingIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1001", "1002", "1003"}, ids)
}

func TestSQLiteCriteriaRoundtrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	criteria := []model.Criterion{
		{ID: "c1", Key: "light", Weight: 100, Must: true, Pattern: "natural light", Synonyms: []string{"sun-drenched"}},
		{ID: "c2", Key: "kitchen", Weight: 80, Pattern: `/open kitchen/i`},
	}
	require.NoError(t, s.ReplaceCriteria(ctx, criteria))

	got, err := s.ListCriteria(ctx)
	require.NoError(t, err)
	assert.Equal(t, criteria, got)

	// Replace keeps only the new set, in its order.
	require.NoError(t, s.ReplaceCriteria(ctx, criteria[1:]))
	got, err = s.ListCriteria(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kitchen", got[0].Key)
}

func TestSQLiteScoreRoundtrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.UpsertListings(ctx, testListings())
	require.NoError(t, err)

	score := &scorer.AlignmentScore{
		AlignmentScore:      78.26,
		MissingMusts:        []string{},
		MatchedCriteriaKeys: []string{"light", "kitchen"},
		DetailedHits: []scorer.Hit{
			{CriterionKey: "light", MatchedPattern: "natural light", MatchType: scorer.MatchPrimary, Confidence: 1},
		},
		LocationBonus: 30,
	}
	require.NoError(t, s.SaveScore(ctx, "1001", score))

	got, err := s.GetScore(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, score, got)

	missing, err := s.GetScore(ctx, "9999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := s.DeleteScores(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	gone, err := s.GetScore(ctx, "1001")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSQLiteValuationRoundtrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	result := &valuation.Result{
		ValueIndex: -0.57,
		RawScore:   -0.5733,
		Breakdown:  map[string]float64{"deltaZ": -0.3333, "hotFlag": 0},
	}
	require.NoError(t, s.SaveValuation(ctx, "1001", result))

	got, err := s.GetValuation(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, result, got)

	// Upsert overwrites.
	updated := &valuation.Result{ValueIndex: 0.12, RawScore: 0.1234, Breakdown: map[string]float64{"hotFlag": 0.5}}
	require.NoError(t, s.SaveValuation(ctx, "1001", updated))

	got, err = s.GetValuation(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	missing, err := s.GetValuation(ctx, "9999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
