package scorer

import (
	"math"

	"github.com/homescout/listings-cli/internal/config"
)

const earthRadiusKM = 6371.0

// haversineKM returns the great-circle distance in kilometers between two
// lat/lon points.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// locationBonus computes the preferred-area bonus for a listing. With
// coordinates, each area's centroid distance is compared against the full
// and half bonus radii; the best candidate wins (max, not sum) and a
// full-bonus match stops the scan. Without coordinates, an exact ZIP
// match awards the flat ZIP bonus. Anything else is 0.
func locationBonus(lat, lon *float64, zip string, cfg config.GeoConfig) float64 {
	var bonus float64

	switch {
	case lat != nil && lon != nil:
		for _, area := range cfg.PreferredAreas {
			if len(area.Centroid) < 2 {
				continue
			}
			d := haversineKM(*lat, *lon, area.Centroid.Y(), area.Centroid.X())
			if d <= cfg.FullBonusKM {
				bonus = math.Max(bonus, area.Weight)
				break
			}
			if d <= cfg.HalfBonusKM {
				bonus = math.Max(bonus, area.Weight/2)
			}
		}
	case zip != "":
		for _, area := range cfg.PreferredAreas {
			if area.Zip == zip {
				bonus = math.Max(bonus, cfg.ZipMatchBonus)
				break
			}
		}
	}

	return bonus
}
