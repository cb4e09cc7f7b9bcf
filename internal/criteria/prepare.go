package criteria

import (
	"strings"

	"go.uber.org/zap"

	"github.com/homescout/listings-cli/internal/model"
)

// PreparedCriterion is a criterion with its pattern strings resolved into
// compiled rules, ready for scoring.
type PreparedCriterion struct {
	Key    string
	Must   bool
	Weight float64
	// Rules holds the compiled rules in match order: primary first, then
	// synonyms in their original order.
	Rules []Rule
	// PrimaryPattern keeps the raw primary pattern string for the fuzzy
	// fallback, even when it failed to compile as a rule.
	PrimaryPattern string
}

// Prepare compiles every criterion's primary pattern and synonyms, and
// returns the criteria that ended up with at least one usable rule.
// Compile failures are logged and skipped; a criterion whose patterns all
// failed (or were blank) is dropped entirely and contributes nothing to
// scoring.
func Prepare(raw []model.Criterion) []PreparedCriterion {
	prepared := make([]PreparedCriterion, 0, len(raw))

	var ruleCount int
	for _, c := range raw {
		var rules []Rule

		if strings.TrimSpace(c.Pattern) != "" {
			r, err := Compile(c.Pattern, OriginPrimary)
			if err != nil {
				zap.L().Warn("criteria: primary pattern failed to compile",
					zap.String("key", c.Key),
					zap.String("id", c.ID),
					zap.Error(err),
				)
			} else {
				rules = append(rules, *r)
			}
		}

		for _, syn := range c.Synonyms {
			if strings.TrimSpace(syn) == "" {
				continue
			}
			r, err := Compile(syn, OriginSynonym)
			if err != nil {
				zap.L().Warn("criteria: synonym pattern failed to compile",
					zap.String("key", c.Key),
					zap.String("id", c.ID),
					zap.String("synonym", syn),
					zap.Error(err),
				)
				continue
			}
			rules = append(rules, *r)
		}

		if len(rules) == 0 {
			zap.L().Warn("criteria: no usable rules, dropping criterion",
				zap.String("key", c.Key),
				zap.String("id", c.ID),
			)
			continue
		}

		ruleCount += len(rules)
		prepared = append(prepared, PreparedCriterion{
			Key:            c.Key,
			Must:           c.Must,
			Weight:         c.Weight,
			Rules:          rules,
			PrimaryPattern: c.Pattern,
		})
	}

	zap.L().Info("criteria: prepared",
		zap.Int("criteria", len(prepared)),
		zap.Int("rules", ruleCount),
	)
	return prepared
}
