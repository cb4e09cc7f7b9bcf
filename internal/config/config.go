package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Geo       GeoConfig       `yaml:"geo" mapstructure:"geo"`
	Valuation ValuationConfig `yaml:"valuation" mapstructure:"valuation"`
	Zillow    ZillowConfig    `yaml:"zillow" mapstructure:"zillow"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ScoringConfig holds the criteria-matching constants. Confidence values
// are multipliers applied to a criterion's weight on a hit; primary stays
// above synonym, and synonym above fuzzy.
type ScoringConfig struct {
	CriteriaFile      string  `yaml:"criteria_file" mapstructure:"criteria_file"`
	PrimaryConfidence float64 `yaml:"primary_confidence" mapstructure:"primary_confidence"`
	SynonymConfidence float64 `yaml:"synonym_confidence" mapstructure:"synonym_confidence"`
	FuzzyConfidence   float64 `yaml:"fuzzy_confidence" mapstructure:"fuzzy_confidence"`
	FuzzyMinScore     float64 `yaml:"fuzzy_min_score" mapstructure:"fuzzy_min_score"`
}

// PreferredArea is one geographic area that earns a location bonus.
// Centroid is a lon/lat pair.
type PreferredArea struct {
	Name     string     `yaml:"name" mapstructure:"name"`
	Centroid geom.Coord `yaml:"centroid" mapstructure:"centroid"`
	Weight   float64    `yaml:"weight" mapstructure:"weight"`
	Zip      string     `yaml:"zip" mapstructure:"zip"`
}

// GeoConfig configures the location bonus calculation.
type GeoConfig struct {
	FullBonusKM    float64         `yaml:"full_bonus_km" mapstructure:"full_bonus_km"`
	HalfBonusKM    float64         `yaml:"half_bonus_km" mapstructure:"half_bonus_km"`
	ZipMatchBonus  float64         `yaml:"zip_match_bonus" mapstructure:"zip_match_bonus"`
	PreferredAreas []PreferredArea `yaml:"preferred_areas" mapstructure:"preferred_areas"`
}

// SignalStats holds the reference mean and standard deviation used to
// z-score a valuation signal.
type SignalStats struct {
	Mean   float64 `yaml:"mean" mapstructure:"mean"`
	StdDev float64 `yaml:"std_dev" mapstructure:"std_dev"`
}

// ValuationConfig configures signal derivation and the value index
// composition. Signals without an entry in Stats are used directly;
// signals without an entry in Weights contribute nothing.
type ValuationConfig struct {
	Weights             map[string]float64     `yaml:"weights" mapstructure:"weights"`
	Stats               map[string]SignalStats `yaml:"stats" mapstructure:"stats"`
	MedianDaysOnMarket  float64                `yaml:"median_days_on_market" mapstructure:"median_days_on_market"`
	NotifyThreshold     float64                `yaml:"notify_threshold" mapstructure:"notify_threshold"`
	MaxParallelExtracts int                    `yaml:"max_parallel_extracts" mapstructure:"max_parallel_extracts"`
}

// ZillowConfig holds the ZenRows property data API settings.
type ZillowConfig struct {
	APIKey          string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec  float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	CacheTTLMinutes int     `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
	CacheMaxEntries int     `yaml:"cache_max_entries" mapstructure:"cache_max_entries"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Valuation signal names. These match the keys the dashboard reads from
// the valuations breakdown, so they stay camel-cased.
const (
	SignalDeltaZ    = "deltaZ"
	SignalDOMPct    = "domPct"
	SignalRecentCut = "recentCut"
	SignalHotFlag   = "hotFlag"
)

// DefaultValuationWeights returns the fixed per-signal weights. Negative
// weights reward listings priced below market signals.
func DefaultValuationWeights() map[string]float64 {
	return map[string]float64{
		SignalDeltaZ:    -1.0,
		SignalDOMPct:    -0.6,
		SignalRecentCut: -0.4,
		SignalHotFlag:   0.5,
	}
}

// DefaultSignalStats returns the reference distributions for z-scored
// signals. recentCut and hotFlag are 0/1 flags and are used directly.
func DefaultSignalStats() map[string]SignalStats {
	return map[string]SignalStats{
		SignalDeltaZ: {Mean: 0.05, StdDev: 0.15},
		SignalDOMPct: {Mean: 1.0, StdDev: 0.5},
	}
}

// DefaultPreferredAreas returns the built-in preferred-area list. Order
// matters: the bonus scan short-circuits on the first full-bonus match.
func DefaultPreferredAreas() []PreferredArea {
	return []PreferredArea{
		{Name: "Dolores Heights", Centroid: geom.Coord{-122.4261, 37.7598}, Weight: 30, Zip: "94110"},
		{Name: "Noe Valley", Centroid: geom.Coord{-122.4330, 37.7518}, Weight: 25, Zip: "94114"},
		{Name: "Potrero Hill", Centroid: geom.Coord{-122.3968, 37.7586}, Weight: 22, Zip: "94107"},
		{Name: "Pacific Heights", Centroid: geom.Coord{-122.43, 37.7925}, Weight: 22, Zip: "94115"},
		{Name: "Marina District", Centroid: geom.Coord{-122.4399, 37.8025}, Weight: 18, Zip: "94123"},
		{Name: "North Beach", Centroid: geom.Coord{-122.4084, 37.8050}, Weight: 7, Zip: "94133"},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HOMESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "listings.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("scoring.criteria_file", "criteria.yaml")
	v.SetDefault("scoring.primary_confidence", 1.0)
	v.SetDefault("scoring.synonym_confidence", 0.7)
	v.SetDefault("scoring.fuzzy_confidence", 0.6)
	v.SetDefault("scoring.fuzzy_min_score", 0.7)
	v.SetDefault("geo.full_bonus_km", 0.8)
	v.SetDefault("geo.half_bonus_km", 1.5)
	v.SetDefault("geo.zip_match_bonus", 5)
	v.SetDefault("valuation.median_days_on_market", 55)
	v.SetDefault("valuation.notify_threshold", 0.1)
	v.SetDefault("valuation.max_parallel_extracts", 3)
	// Registered empty so the env override is visible to Unmarshal.
	v.SetDefault("zillow.api_key", "")
	v.SetDefault("zillow.base_url", "https://api.zenrows.com/v1")
	v.SetDefault("zillow.requests_per_sec", 2)
	v.SetDefault("zillow.cache_ttl_minutes", 5)
	v.SetDefault("zillow.cache_max_entries", 1000)
	v.SetDefault("zillow.timeout_secs", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Structured defaults that don't flatten into viper keys.
	if len(cfg.Geo.PreferredAreas) == 0 {
		cfg.Geo.PreferredAreas = DefaultPreferredAreas()
	}
	if len(cfg.Valuation.Weights) == 0 {
		cfg.Valuation.Weights = DefaultValuationWeights()
	}
	if len(cfg.Valuation.Stats) == 0 {
		cfg.Valuation.Stats = DefaultSignalStats()
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
