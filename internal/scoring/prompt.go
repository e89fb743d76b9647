package scoring

import (
	"fmt"
	"strings"
)

// WriteupPromptBudget caps the writeup runes sent to the model.
const WriteupPromptBudget = 6000

const systemPrompt = `You are an experienced hackathon judge. You score project submissions against a fixed rubric and reply with a single JSON object and nothing else.`

const rubricPrompt = `Score the submission below on four dimensions.

- problem_fit (0-%g): how well the project addresses the challenge
- tech_depth (0-%g): technical ambition and quality of execution
- ux_flow (0-%g): clarity and polish of the user experience
- impact (0-%g): potential real-world impact

Reply with exactly this JSON shape:
{"problem_fit": <number>, "tech_depth": <number>, "ux_flow": <number>, "impact": <number>, "rationale": "<two to four sentences>"}
`

func buildPrompt(ch Challenge, a Artifacts) string {
	var b strings.Builder

	fmt.Fprintf(&b, rubricPrompt, MaxProblemFit, MaxTechDepth, MaxUXFlow, MaxImpact)

	b.WriteString("\n## Challenge\n")
	title := strings.TrimSpace(ch.Title)
	if title == "" {
		title = "(untitled)"
	}
	b.WriteString(title)
	b.WriteString("\n")
	if desc := strings.TrimSpace(ch.Rubric.Description); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n")
	}

	b.WriteString("\n## Artifacts\n")
	fmt.Fprintf(&b, "- repository: %s\n", presence(a.RepoURL))
	fmt.Fprintf(&b, "- pitch deck: %s\n", presence(a.DeckURL))
	fmt.Fprintf(&b, "- demo: %s\n", presence(a.DemoURL))

	b.WriteString("\n## Writeup\n")
	writeup, truncated := truncateRunes(strings.TrimSpace(a.WriteupMD), WriteupPromptBudget)
	if writeup == "" {
		b.WriteString("(no writeup provided)\n")
	} else {
		b.WriteString(writeup)
		b.WriteString("\n")
		if truncated {
			b.WriteString("[writeup truncated]\n")
		}
	}

	return b.String()
}

func presence(s string) string {
	if present(s) {
		return "provided"
	}
	return "missing"
}

func truncateRunes(s string, limit int) (string, bool) {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i], true
		}
		count++
	}
	return s, false
}
