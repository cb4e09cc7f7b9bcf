package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescout/listings-cli/internal/model"
)

func TestPrepareRuleOrder(t *testing.T) {
	raw := []model.Criterion{
		{
			ID:       "c1",
			Key:      "outdoor_space",
			Weight:   20,
			Pattern:  "backyard",
			Synonyms: []string{"deck|patio", "garden"},
		},
	}

	prepared := Prepare(raw)
	require.Len(t, prepared, 1)

	pc := prepared[0]
	assert.Equal(t, "outdoor_space", pc.Key)
	assert.Equal(t, 20.0, pc.Weight)
	assert.Equal(t, "backyard", pc.PrimaryPattern)

	require.Len(t, pc.Rules, 3)
	assert.Equal(t, OriginPrimary, pc.Rules[0].Origin)
	assert.Equal(t, OriginSynonym, pc.Rules[1].Origin)
	assert.Equal(t, OriginSynonym, pc.Rules[2].Origin)
	assert.Equal(t, "deck|patio", pc.Rules[1].Source)
}

func TestPrepareDropsUnusableCriteria(t *testing.T) {
	raw := []model.Criterion{
		{ID: "c1", Key: "blank", Weight: 10},
		{ID: "c2", Key: "invalid", Weight: 10, Pattern: `/([bad/i`},
		{ID: "c3", Key: "kept", Weight: 10, Pattern: "garage"},
	}

	prepared := Prepare(raw)
	require.Len(t, prepared, 1)
	assert.Equal(t, "kept", prepared[0].Key)
}

func TestPrepareKeepsSynonymsWhenPrimaryFails(t *testing.T) {
	raw := []model.Criterion{
		{
			ID:       "c1",
			Key:      "parking",
			Weight:   15,
			Pattern:  `/([bad/i`,
			Synonyms: []string{"garage", "carport"},
		},
	}

	prepared := Prepare(raw)
	require.Len(t, prepared, 1)

	pc := prepared[0]
	require.Len(t, pc.Rules, 2)
	assert.Equal(t, OriginSynonym, pc.Rules[0].Origin)
	// Raw primary pattern survives for the fuzzy fallback.
	assert.Equal(t, `/([bad/i`, pc.PrimaryPattern)
}

func TestPrepareSkipsBlankSynonyms(t *testing.T) {
	raw := []model.Criterion{
		{ID: "c1", Key: "light", Weight: 5, Pattern: "natural light", Synonyms: []string{"", "  ", "sunny"}},
	}

	prepared := Prepare(raw)
	require.Len(t, prepared, 1)
	assert.Len(t, prepared[0].Rules, 2)
}

func TestPrepareEmptyInput(t *testing.T) {
	assert.Empty(t, Prepare(nil))
	assert.Empty(t, Prepare([]model.Criterion{}))
}
