package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twpayne/go-geom"

	"github.com/homescout/listings-cli/internal/config"
)

func TestHaversineKM(t *testing.T) {
	// Austin to Dallas, roughly 290 km.
	d := haversineKM(30.2672, -97.7431, 32.7767, -96.7970)
	assert.InDelta(t, 290, d, 15)

	// Same point.
	assert.InDelta(t, 0, haversineKM(37.7598, -122.4261, 37.7598, -122.4261), 0.001)
}

func testGeoConfig() config.GeoConfig {
	return config.GeoConfig{
		FullBonusKM:   0.8,
		HalfBonusKM:   1.5,
		ZipMatchBonus: 5,
		PreferredAreas: []config.PreferredArea{
			{Name: "Dolores Heights", Centroid: geom.Coord{-122.4261, 37.7598}, Weight: 30, Zip: "94110"},
			{Name: "Noe Valley", Centroid: geom.Coord{-122.4330, 37.7518}, Weight: 25, Zip: "94114"},
		},
	}
}

func ptr(f float64) *float64 { return &f }

func TestLocationBonus(t *testing.T) {
	cfg := testGeoConfig()

	tests := []struct {
		name     string
		lat, lon *float64
		zip      string
		expected float64
	}{
		{
			name:     "exact centroid gets full area weight",
			lat:      ptr(37.7598),
			lon:      ptr(-122.4261),
			expected: 30,
		},
		{
			name: "within half radius gets half weight",
			// About 1.1 km east of the Dolores Heights centroid and more
			// than 1.5 km from Noe Valley.
			lat:      ptr(37.7598),
			lon:      ptr(-122.4136),
			expected: 15,
		},
		{
			name:     "far from every centroid",
			lat:      ptr(37.8715),
			lon:      ptr(-122.2730),
			expected: 0,
		},
		{
			name:     "no coords but matching zip gets flat bonus",
			zip:      "94114",
			expected: 5,
		},
		{
			name:     "no coords and unknown zip",
			zip:      "94999",
			expected: 0,
		},
		{
			name:     "coords take precedence over zip",
			lat:      ptr(37.8715),
			lon:      ptr(-122.2730),
			zip:      "94110",
			expected: 0,
		},
		{
			name:     "nothing to go on",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bonus := locationBonus(tt.lat, tt.lon, tt.zip, cfg)
			assert.Equal(t, tt.expected, bonus)
		})
	}
}

func TestLocationBonusMaxNotSum(t *testing.T) {
	// Two overlapping areas, both within half radius: the larger half
	// weight wins, the bonuses never stack.
	cfg := config.GeoConfig{
		FullBonusKM: 0.1,
		HalfBonusKM: 5,
		PreferredAreas: []config.PreferredArea{
			{Name: "A", Centroid: geom.Coord{-122.4261, 37.7598}, Weight: 10},
			{Name: "B", Centroid: geom.Coord{-122.4330, 37.7518}, Weight: 30},
		},
	}

	bonus := locationBonus(ptr(37.7560), ptr(-122.4300), "", cfg)
	assert.Equal(t, 15.0, bonus)
}

func TestLocationBonusSkipsMalformedCentroid(t *testing.T) {
	cfg := config.GeoConfig{
		FullBonusKM: 0.8,
		HalfBonusKM: 1.5,
		PreferredAreas: []config.PreferredArea{
			{Name: "broken", Centroid: geom.Coord{}, Weight: 50},
			{Name: "ok", Centroid: geom.Coord{-122.4261, 37.7598}, Weight: 30},
		},
	}

	bonus := locationBonus(ptr(37.7598), ptr(-122.4261), "", cfg)
	assert.Equal(t, 30.0, bonus)
}
