package interview

// Phase is the position of a session in the interview lifecycle.
type Phase string

const (
	PhaseSetup                   Phase = "setup"
	PhaseInterviewing            Phase = "interviewing"
	PhaseAwaitingFeedbackRequest Phase = "awaiting_feedback_request"
	PhaseFeedbackShown           Phase = "feedback_shown"
)

// MaxUserTurns caps the number of answers a candidate can send.
const MaxUserTurns = 5

// RepliedTurns is how many of those answers receive an interviewer reply.
const RepliedTurns = MaxUserTurns - 1

// MaxAnswerLength bounds a single answer, in characters.
const MaxAnswerLength = 1000

var phaseOrder = map[Phase]int{
	PhaseSetup:                   0,
	PhaseInterviewing:            1,
	PhaseAwaitingFeedbackRequest: 2,
	PhaseFeedbackShown:           3,
}

// Before reports whether p comes strictly earlier in the lifecycle than other.
func (p Phase) Before(other Phase) bool {
	return phaseOrder[p] < phaseOrder[other]
}
