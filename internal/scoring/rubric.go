package scoring

// Dimension maxima for the LLM rubric. Per-challenge rubric weights are stored but do
// not change these.
const (
	MaxProblemFit = 15.0
	MaxTechDepth  = 20.0
	MaxUXFlow     = 15.0
	MaxImpact     = 10.0

	MaxLLMScore = MaxProblemFit + MaxTechDepth + MaxUXFlow + MaxImpact
)

// Rubric is the per-challenge rubric as organizers entered it. Scoring accepts it but
// only the title and description reach the prompt.
type Rubric struct {
	Weights     map[string]float64 `json:"weights,omitempty"`
	Description string             `json:"description,omitempty"`
}

type Challenge struct {
	Rubric Rubric
	Title  string
}

type SubScores struct {
	ProblemFit float64 `json:"problem_fit"`
	TechDepth  float64 `json:"tech_depth"`
	UXFlow     float64 `json:"ux_flow"`
	Impact     float64 `json:"impact"`
}

// Clamp bounds every dimension to [0, max].
func (s SubScores) Clamp() SubScores {
	return SubScores{
		ProblemFit: clamp(s.ProblemFit, 0, MaxProblemFit),
		TechDepth:  clamp(s.TechDepth, 0, MaxTechDepth),
		UXFlow:     clamp(s.UXFlow, 0, MaxUXFlow),
		Impact:     clamp(s.Impact, 0, MaxImpact),
	}
}

func (s SubScores) Total() float64 {
	return s.ProblemFit + s.TechDepth + s.UXFlow + s.Impact
}
