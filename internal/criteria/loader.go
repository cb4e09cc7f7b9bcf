package criteria

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/homescout/listings-cli/internal/model"
)

// criteriaFile is the on-disk shape of a criteria definition file.
type criteriaFile struct {
	Criteria []model.Criterion `yaml:"criteria"`
}

// LoadFile reads criterion definitions from a YAML file.
func LoadFile(path string) ([]model.Criterion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "criteria: read %s", path)
	}

	var f criteriaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "criteria: parse %s", path)
	}

	if err := Validate(f.Criteria); err != nil {
		return nil, err
	}
	return f.Criteria, nil
}

// Validate checks structural requirements on raw criteria: non-blank
// unique keys and positive weights. Pattern validity is not checked here;
// bad patterns are handled per-rule during Prepare.
func Validate(raw []model.Criterion) error {
	var errs []string
	seen := make(map[string]bool, len(raw))

	for i, c := range raw {
		key := strings.TrimSpace(c.Key)
		if key == "" {
			errs = append(errs, fmt.Sprintf("criterion %d: key is required", i))
			continue
		}
		if seen[key] {
			errs = append(errs, fmt.Sprintf("criterion %q: duplicate key", key))
		}
		seen[key] = true
		if c.Weight <= 0 {
			errs = append(errs, fmt.Sprintf("criterion %q: weight must be > 0", key))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("criteria: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
