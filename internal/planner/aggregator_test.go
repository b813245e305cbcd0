package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduce_AllSourcesPresentUsesNominalWeights(t *testing.T) {
	a := NewAggregator()
	score := a.Reduce(map[Source]float64{
		SourceNews:    1.0,
		SourceSocial:  1.0,
		SourceOnChain: 1.0,
	})
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestReduce_MissingSourceRedistributesWeight(t *testing.T) {
	a := NewAggregator()
	// Only news and social present; onchain's 0.3 weight redistributes
	// proportionally across the remaining 0.4+0.3=0.7.
	score := a.Reduce(map[Source]float64{
		SourceNews:   1.0,
		SourceSocial: 0.0,
	})
	expected := 1.0 * (0.4 / 0.7)
	assert.InDelta(t, expected, score, 1e-9)
}

func TestReduce_EmptyReadingsYieldsZero(t *testing.T) {
	a := NewAggregator()
	assert.Zero(t, a.Reduce(nil))
}

func TestReduce_UnknownSourceIgnored(t *testing.T) {
	a := NewAggregator()
	score := a.Reduce(map[Source]float64{
		SourceNews:   1.0,
		Source("fx"): 1.0,
	})
	assert.InDelta(t, 1.0, score, 1e-9)
}
