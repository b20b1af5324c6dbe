package classifier

import (
	"testing"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/evidence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(set evidence.Set) Result {
	return New(DefaultConfig()).Classify(set)
}

func TestExplicitTierDominates(t *testing.T) {
	res := classify(evidence.Set{
		Explicit:   []string{"MZA"},
		Cultural:   []string{"mate", "che", "asado"},
		Contextual: []string{"20hs"},
	})

	require.Equal(t, MethodExplicit, res.Method)
	assert.Equal(t, 95, res.Confidence)
	assert.True(t, res.Argentine)
	// Lower tiers keep their tokens in the audit trail only.
	assert.Equal(t, []string{"MZA", "mate", "che", "asado", "20hs"}, res.Indicators)
}

func TestCulturalScoring(t *testing.T) {
	cases := []struct {
		name string
		toks []string
		want int
	}{
		{"single", []string{"mate"}, 85},
		{"three matches", []string{"vos sabés", "mate", "che"}, 89},
		{"capped", []string{"a", "b", "c", "d", "e", "f", "g", "h"}, 94},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := classify(evidence.Set{Cultural: tc.toks})
			assert.Equal(t, MethodCultural, res.Method)
			assert.Equal(t, tc.want, res.Confidence)
			assert.True(t, res.Argentine)
		})
	}
}

func TestContextualNeverReachesCulturalFloor(t *testing.T) {
	res := classify(evidence.Set{
		Contextual: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
	})
	require.Equal(t, MethodContextual, res.Method)
	assert.Less(t, res.Confidence, 85)
	assert.Equal(t, 84, res.Confidence)
}

func TestConfidenceMonotonicInMatches(t *testing.T) {
	prev := 0
	toks := []string{}
	for i := 0; i < 12; i++ {
		toks = append(toks, string(rune('a'+i)))
		res := classify(evidence.Set{Cultural: append([]string(nil), toks...)})
		assert.GreaterOrEqual(t, res.Confidence, prev)
		prev = res.Confidence
	}
	assert.Equal(t, 94, prev)
}

func TestNoEvidence(t *testing.T) {
	res := classify(evidence.Set{})
	assert.Equal(t, MethodNone, res.Method)
	assert.Equal(t, 0, res.Confidence)
	assert.False(t, res.Argentine)
}

func TestForeignMarkerVetoesWithoutExplicit(t *testing.T) {
	res := classify(evidence.Set{
		Cultural: []string{"mate"},
		Excluded: []string{"madrid"},
	})
	assert.Equal(t, MethodNone, res.Method)
	assert.False(t, res.Argentine)
	assert.Equal(t, []string{"madrid"}, res.Excluded)
}

func TestExplicitOverridesForeignMarker(t *testing.T) {
	res := classify(evidence.Set{
		Explicit: []string{"argentina"},
		Excluded: []string{"chile"},
	})
	assert.Equal(t, MethodExplicit, res.Method)
	assert.True(t, res.Argentine)
}

func TestAcceptThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AcceptThreshold = 90
	res := New(cfg).Classify(evidence.Set{Cultural: []string{"mate"}})
	assert.Equal(t, 85, res.Confidence)
	assert.False(t, res.Argentine, "confidence below the acceptance threshold")
}

func TestContextualCapClampedBelowCulturalBase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContextualCap = 90 // misconfigured above the cultural floor
	res := New(cfg).Classify(evidence.Set{
		Contextual: []string{"a", "b", "c", "d", "e", "f", "g", "h"},
	})
	assert.Less(t, res.Confidence, cfg.CulturalBase)
}
