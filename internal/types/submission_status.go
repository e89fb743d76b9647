package types

type SubmissionStatus string

// Statuses only ever move forward in the order listed.
const (
	SubmissionStatusQueued      SubmissionStatus = "QUEUED"      // Created, scoring not started
	SubmissionStatusScoring     SubmissionStatus = "SCORING"     // Scorers are running
	SubmissionStatusProvisional SubmissionStatus = "PROVISIONAL" // Auto and LLM scores persisted, awaiting judge
	SubmissionStatusFinal       SubmissionStatus = "FINAL"       // Judge locked the score. Terminal.
)

var submissionStatusOrder = map[SubmissionStatus]int{
	SubmissionStatusQueued:      0,
	SubmissionStatusScoring:     1,
	SubmissionStatusProvisional: 2,
	SubmissionStatusFinal:       3,
}

func (s SubmissionStatus) Valid() bool {
	_, ok := submissionStatusOrder[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next keeps the status monotonic.
// Staying in place is allowed for every status except FINAL.
func (s SubmissionStatus) CanAdvanceTo(next SubmissionStatus) bool {
	from, ok := submissionStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := submissionStatusOrder[next]
	if !ok {
		return false
	}
	if s == SubmissionStatusFinal {
		return false
	}
	return to >= from
}
