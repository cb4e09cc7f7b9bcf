package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileLiteral(t *testing.T) {
	r, err := Compile("chef's kitchen", OriginPrimary)
	require.NoError(t, err)

	assert.Equal(t, KindLiteral, r.Kind)
	assert.Equal(t, OriginPrimary, r.Origin)
	assert.Equal(t, "chef's kitchen", r.Source)

	assert.True(t, r.Matches("gorgeous chef's kitchen with island"))
	assert.True(t, r.Matches("CHEF'S KITCHEN"))
	assert.False(t, r.Matches("chef kitchen"))
}

func TestCompileLiteralEscapesMetaChars(t *testing.T) {
	r, err := Compile("2+ car garage", OriginPrimary)
	require.NoError(t, err)

	assert.Equal(t, KindLiteral, r.Kind)
	assert.True(t, r.Matches("huge 2+ car garage"))
	assert.False(t, r.Matches("22 car garage"))
}

func TestCompileAlternation(t *testing.T) {
	r, err := Compile("deck | patio |backyard", OriginSynonym)
	require.NoError(t, err)

	assert.Equal(t, KindAlternation, r.Kind)
	assert.Equal(t, OriginSynonym, r.Origin)

	assert.True(t, r.Matches("sunny back Patio"))
	assert.True(t, r.Matches("large BACKYARD oasis"))
	assert.False(t, r.Matches("rooftop"))
}

func TestCompileRawExpression(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		match   []string
		noMatch []string
	}{
		{
			name:    "case-insensitive flag",
			pattern: `/gara?ge/i`,
			match:   []string{"Garage parking", "garge"},
			noMatch: []string{"carport"},
		},
		{
			name:    "js-only flags accepted as no-ops",
			pattern: `/view/gi`,
			match:   []string{"panoramic VIEW"},
			noMatch: []string{"vista"},
		},
		{
			name:    "no flags stays case-sensitive",
			pattern: `/ADU/`,
			match:   []string{"legal ADU below"},
			noMatch: []string{"adu"},
		},
		{
			name:    "embedded slash belongs to the expression",
			pattern: `/washer\/dryer/i`,
			match:   []string{"in-unit Washer/Dryer"},
			noMatch: []string{"washer and dryer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Compile(tt.pattern, OriginPrimary)
			require.NoError(t, err)
			assert.Equal(t, KindRawExpression, r.Kind)
			for _, s := range tt.match {
				assert.True(t, r.Matches(s), "should match %q", s)
			}
			for _, s := range tt.noMatch {
				assert.False(t, r.Matches(s), "should not match %q", s)
			}
		})
	}
}

func TestCompileRawExpressionInvalid(t *testing.T) {
	_, err := Compile(`/([unclosed/i`, OriginPrimary)
	assert.Error(t, err)
}

func TestCompileUnrecognizedFlagsFallBackToLiteral(t *testing.T) {
	// 'x' is not a recognized flag letter, so the whole string is treated
	// as a literal phrase, slashes included.
	r, err := Compile(`/view/x`, OriginPrimary)
	require.NoError(t, err)
	assert.Equal(t, KindLiteral, r.Kind)
	assert.True(t, r.Matches("see /view/x here"))
	assert.False(t, r.Matches("panoramic view"))
}
