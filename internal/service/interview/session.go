package interview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
)

// Responder streams the interviewer reply for a transcript.
type Responder interface {
	StreamReply(ctx context.Context, transcript []interview.Message) (*schema.StreamReader[*schema.Message], error)
}

// Evaluator grades a finished transcript.
type Evaluator interface {
	Evaluate(ctx context.Context, transcript []interview.Message) (interview.Feedback, error)
}

// DeltaFunc receives reply text as it arrives, in emission order.
type DeltaFunc func(delta string)

// Turn describes one accepted answer.
type Turn struct {
	Number int                `json:"number"`
	User   interview.Message  `json:"user"`
	Reply  *interview.Message `json:"reply,omitempty"`
	Final  bool               `json:"final"`
}

// Session is the state of one interview. It is not safe for concurrent use;
// Service serializes access per session.
type Session struct {
	ID            string
	Profile       interview.Profile
	Transcript    []interview.Message
	UserTurnCount int
	Phase         interview.Phase
	Feedback      *interview.Feedback
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// pending marks the last transcript message as a user answer whose reply
	// call failed.
	pending bool
	now     func() time.Time
}

// NewSession returns a session in the Setup phase.
func NewSession(id string) *Session {
	s := &Session{ID: id, now: time.Now}
	s.reset()
	return s
}

func (s *Session) reset() {
	ts := s.clock()
	s.Profile = interview.Profile{}
	s.Transcript = make([]interview.Message, 0, 2*interview.MaxUserTurns)
	s.UserTurnCount = 0
	s.Phase = interview.PhaseSetup
	s.Feedback = nil
	s.pending = false
	s.CreatedAt = ts
	s.UpdatedAt = ts
}

func (s *Session) clock() time.Time {
	if s.now == nil {
		s.now = time.Now
	}
	return s.now().UTC()
}

// Start freezes the profile and opens the interview. It is a no-op outside
// the Setup phase, so repeated starts neither duplicate the system message
// nor reset the turn counter.
func (s *Session) Start(profile interview.Profile) error {
	if s.Phase != interview.PhaseSetup {
		return nil
	}

	frozen := profile.Normalize()
	if err := frozen.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	s.Profile = frozen
	if len(s.Transcript) == 0 {
		s.append(interview.RoleSystem, frozen.SystemPrompt())
	}
	s.advance(interview.PhaseInterviewing)
	s.UpdatedAt = s.clock()
	return nil
}

// Submit accepts one answer. For the first RepliedTurns answers the whole
// transcript is sent to responder and the reply is streamed to onDelta; the
// final answer gets no reply. A failed call leaves the answer pending and the
// counter untouched.
func (s *Session) Submit(ctx context.Context, input string, responder Responder, onDelta DeltaFunc) (Turn, error) {
	if s.Phase != interview.PhaseInterviewing {
		return Turn{}, ErrNotInterviewing
	}

	content := strings.TrimSpace(input)
	if content == "" {
		return Turn{}, ErrEmptyInput
	}
	if utf8.RuneCountInString(content) > interview.MaxAnswerLength {
		return Turn{}, ErrInputTooLong
	}

	if s.pending {
		s.Transcript[len(s.Transcript)-1].Content = content
	} else {
		s.append(interview.RoleUser, content)
	}
	userMsg := s.Transcript[len(s.Transcript)-1]

	turn := Turn{Number: s.UserTurnCount + 1, User: userMsg}

	if s.UserTurnCount < interview.RepliedTurns {
		reply, err := s.streamReply(ctx, responder, onDelta)
		if err != nil {
			s.pending = true
			s.UpdatedAt = s.clock()
			return Turn{}, &ExternalServiceError{Op: "interview turn", Err: err}
		}
		replyMsg := s.append(interview.RoleAssistant, reply)
		turn.Reply = &replyMsg
	}

	s.pending = false
	s.UserTurnCount++
	if s.UserTurnCount >= interview.MaxUserTurns {
		s.advance(interview.PhaseAwaitingFeedbackRequest)
		turn.Final = true
	}
	s.UpdatedAt = s.clock()
	return turn, nil
}

func (s *Session) streamReply(ctx context.Context, responder Responder, onDelta DeltaFunc) (string, error) {
	if responder == nil {
		return "", errors.New("no responder configured")
	}

	stream, err := responder.StreamReply(ctx, s.TranscriptCopy())
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var builder strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		builder.WriteString(chunk.Content)
		if onDelta != nil {
			onDelta(chunk.Content)
		}
	}

	if builder.Len() == 0 {
		return "", ErrEmptyReply
	}
	return builder.String(), nil
}

// RequestFeedback evaluates the transcript once. After the first success the
// stored feedback is returned without another call. The transcript is never
// modified.
func (s *Session) RequestFeedback(ctx context.Context, evaluator Evaluator) (interview.Feedback, error) {
	switch s.Phase {
	case interview.PhaseFeedbackShown:
		if s.Feedback != nil {
			return *s.Feedback, nil
		}
	case interview.PhaseAwaitingFeedbackRequest:
	default:
		return interview.Feedback{}, ErrFeedbackUnavailable
	}

	if evaluator == nil {
		return interview.Feedback{}, &ExternalServiceError{Op: "feedback", Err: errors.New("no evaluator configured")}
	}

	fb, err := evaluator.Evaluate(ctx, s.TranscriptCopy())
	if err != nil {
		return interview.Feedback{}, &ExternalServiceError{Op: "feedback", Err: err}
	}

	s.Feedback = &fb
	s.advance(interview.PhaseFeedbackShown)
	s.UpdatedAt = s.clock()
	return fb, nil
}

// advance moves the session forward. Phases never go back except through
// Restart, which resets the whole state.
func (s *Session) advance(to interview.Phase) {
	if s.Phase.Before(to) {
		s.Phase = to
	}
}

// Restart discards the whole state and returns to Setup. The id is kept.
func (s *Session) Restart() {
	s.reset()
}

// Pending reports whether the last answer is waiting for a retried reply.
func (s *Session) Pending() bool {
	return s.pending
}

// TranscriptCopy returns the full transcript, system message included.
func (s *Session) TranscriptCopy() []interview.Message {
	out := make([]interview.Message, len(s.Transcript))
	copy(out, s.Transcript)
	return out
}

func (s *Session) append(role interview.Role, content string) interview.Message {
	msg := interview.Message{Role: role, Content: content, CreatedAt: s.clock()}
	s.Transcript = append(s.Transcript, msg)
	return msg
}

// View is the state exposed to shells. The system message is omitted.
type View struct {
	ID                 string              `json:"id"`
	Phase              interview.Phase     `json:"phase"`
	Profile            *interview.Profile  `json:"profile,omitempty"`
	Messages           []interview.Message `json:"messages"`
	UserTurnCount      int                 `json:"userTurnCount"`
	MaxTurns           int                 `json:"maxTurns"`
	RemainingTurns     int                 `json:"remainingTurns"`
	Pending            bool                `json:"pending"`
	CanSubmit          bool                `json:"canSubmit"`
	CanRequestFeedback bool                `json:"canRequestFeedback"`
	Feedback           *interview.Feedback `json:"feedback,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// View snapshots the session.
func (s *Session) View() View {
	v := View{
		ID:                 s.ID,
		Phase:              s.Phase,
		Messages:           interview.Visible(s.Transcript),
		UserTurnCount:      s.UserTurnCount,
		MaxTurns:           interview.MaxUserTurns,
		RemainingTurns:     interview.MaxUserTurns - s.UserTurnCount,
		Pending:            s.pending,
		CanSubmit:          s.Phase == interview.PhaseInterviewing,
		CanRequestFeedback: s.Phase == interview.PhaseAwaitingFeedbackRequest,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	if s.Phase != interview.PhaseSetup {
		profile := s.Profile
		v.Profile = &profile
	}
	if s.Feedback != nil {
		fb := *s.Feedback
		v.Feedback = &fb
	}
	return v
}
