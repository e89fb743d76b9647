package scoring

import "math"

const (
	AutoWeight = 0.2
	LLMWeight  = 0.6

	MinDeltaPct = -20.0
	MaxDeltaPct = 20.0

	MaxFinalScore = 100.0
)

// Provisional blends the checklist and rubric scores. The weights sum to 0.8, so the
// result tops out at 40.
func Provisional(scoreAuto int, scoreLLM float64) float64 {
	return AutoWeight*float64(scoreAuto) + LLMWeight*scoreLLM
}

// Final applies a judge's percentage adjustment to a provisional score and clamps the
// result to [0, 100]. deltaPct is assumed to be within [MinDeltaPct, MaxDeltaPct].
func Final(provisional, deltaPct float64) float64 {
	return clamp(provisional*(100+deltaPct)/100, 0, MaxFinalScore)
}

func ValidDelta(deltaPct float64) bool {
	return !math.IsNaN(deltaPct) && deltaPct >= MinDeltaPct && deltaPct <= MaxDeltaPct
}

// Round2 rounds to two decimals, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// floor2 truncates to two decimals. The epsilon absorbs representation error such as
// 154.99999999999997.
func floor2(v float64) float64 {
	return math.Floor(v*100+1e-9) / 100
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
