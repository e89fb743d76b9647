package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProvisional(t *testing.T) {
	assert.InDelta(t, 40.0, Provisional(20, 60), 1e-9)
	assert.InDelta(t, 0.0, Provisional(0, 0), 1e-9)
	assert.InDelta(t, 0.2*15+0.6*33.5, Provisional(15, 33.5), 1e-9)

	for auto := 0; auto <= MaxAutoScore; auto += PointsPerCheck {
		for llm := 0.0; llm <= MaxLLMScore; llm += 0.25 {
			p := Provisional(auto, llm)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 40.0+1e-9)
		}
	}
}

func TestFinal(t *testing.T) {
	tt := map[string]struct {
		provisional, delta, expected float64
	}{
		"raise":        {provisional: 40, delta: 10, expected: 44},
		"lower":        {provisional: 40, delta: -10, expected: 36},
		"no change":    {provisional: 27.5, delta: 0, expected: 27.5},
		"max raise":    {provisional: 40, delta: 20, expected: 48},
		"max lower":    {provisional: 40, delta: -20, expected: 32},
		"zero stays 0": {provisional: 0, delta: 20, expected: 0},
		"upper clamp":  {provisional: 95, delta: 20, expected: 100},
	}

	for name, tc := range tt {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Round2(Final(tc.provisional, tc.delta)), 1e-9)
		})
	}

	// scenario values must be exact before rounding
	assert.Equal(t, 44.0, Final(40, 10))
	assert.Equal(t, 36.0, Final(40, -10))
}

func TestFinalMonotonicInDelta(t *testing.T) {
	for _, p := range []float64{0, 1.5, 17.25, 33.33, 40} {
		prev := math.Inf(-1)
		for d := MinDeltaPct; d <= MaxDeltaPct; d += 0.5 {
			f := Final(p, d)
			assert.GreaterOrEqual(t, f, prev, "p=%v d=%v", p, d)
			assert.GreaterOrEqual(t, f, 0.0)
			assert.LessOrEqual(t, f, MaxFinalScore)
			prev = f
		}
	}
}

func TestValidDelta(t *testing.T) {
	assert.True(t, ValidDelta(-20))
	assert.True(t, ValidDelta(20))
	assert.True(t, ValidDelta(0))
	assert.False(t, ValidDelta(20.01))
	assert.False(t, ValidDelta(-21))
	assert.False(t, ValidDelta(math.NaN()))
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 1.13, Round2(1.125), 1e-9)
	assert.InDelta(t, -1.13, Round2(-1.125), 1e-9)
	assert.InDelta(t, 44.0, Round2(44.0000001), 1e-9)
}
