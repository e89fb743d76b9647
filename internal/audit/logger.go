package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/buildathon/scoring-api/internal/logger"
	"github.com/buildathon/scoring-api/internal/types"
)

type Context struct {
	UserID       *string
	SubmissionID string
	ChallengeID  string
}

func newMessage(c Context, evt EventType, disposition Disposition) Message {
	return Message{
		UserID:        c.UserID,
		LogContext:    logContext,
		SchemaVersion: schemaVersion,
		SubmissionID:  c.SubmissionID,
		ChallengeID:   c.ChallengeID,
		Disposition:   disposition,
		Type:          evt,
		Timestamp:     time.Now().UTC().UnixMilli(),
	}
}

// emit writes one event per line to stdout, separate from the stderr application log.
func emit(event any, evt EventType, c Context) {
	evtStr, err := json.Marshal(event)
	if err != nil {
		logger.Logger.Error(
			"could not serialize audit event",
			"eventType", evt,
			"submissionID", c.SubmissionID,
			"error", err,
		)
		return
	}

	fmt.Println(string(evtStr))
}

func LogSubmissionCreated(c Context, status types.SubmissionStatus, hasRepo, hasDeck, hasDemo, hasWriteup bool) {
	event := SubmissionCreated{}
	event.Message = newMessage(c, EvtSubmissionCreated, DispositionNeutral)

	event.Event.Status = status
	event.Event.HasRepo = hasRepo
	event.Event.HasDeck = hasDeck
	event.Event.HasDemo = hasDemo
	event.Event.HasWriteup = hasWriteup

	emit(event, EvtSubmissionCreated, c)
}

func LogSubmissionScored(
	c Context,
	status types.SubmissionStatus,
	scoreAuto int,
	scoreLLM float64,
	model string,
	attempts int,
	fallback bool,
) {
	disposition := DispositionGood
	if fallback {
		disposition = DispositionNeutral
	}

	event := SubmissionScored{}
	event.Message = newMessage(c, EvtSubmissionScored, disposition)

	event.Event.Status = status
	event.Event.ScoreAuto = scoreAuto
	event.Event.ScoreLLM = scoreLLM
	event.Event.Model = model
	event.Event.Attempts = attempts
	event.Event.Fallback = fallback

	emit(event, EvtSubmissionScored, c)
}

func LogScoringFailed(c Context, errStr string) {
	event := ScoringFailed{}
	event.Message = newMessage(c, EvtScoringFailed, DispositionBad)

	event.Event.Error = errStr

	emit(event, EvtScoringFailed, c)
}

func LogSubmissionLocked(c Context, judgeID string, provisional, deltaPct, final float64) {
	event := SubmissionLocked{}
	event.Message = newMessage(c, EvtSubmissionLocked, DispositionGood)

	event.Event.JudgeID = judgeID
	event.Event.ProvisionalScore = provisional
	event.Event.DeltaPct = deltaPct
	event.Event.FinalScore = final

	emit(event, EvtSubmissionLocked, c)
}
