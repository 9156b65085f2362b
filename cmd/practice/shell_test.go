package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
	"github.com/zhouzirui/z-interview/backend/internal/service/ai"
	"github.com/zhouzirui/z-interview/backend/internal/service/feedback"
	interviewService "github.com/zhouzirui/z-interview/backend/internal/service/interview"
	"github.com/zhouzirui/z-interview/backend/internal/testutil"
)

// scriptedPrompter returns queued inputs. Inputs rejected by the validator are
// recorded and the next one is used, the way the terminal re-prompts.
type scriptedPrompter struct {
	inputs   []string
	rejected []string
	labels   []string
}

func (p *scriptedPrompter) next(label string) (string, error) {
	p.labels = append(p.labels, label)
	if len(p.inputs) == 0 {
		return "", errQuit
	}
	v := p.inputs[0]
	p.inputs = p.inputs[1:]
	return v, nil
}

func (p *scriptedPrompter) Ask(label, _ string, validate func(string) error) (string, error) {
	for {
		v, err := p.next(label)
		if err != nil {
			return "", err
		}
		if validate != nil && validate(v) != nil {
			p.rejected = append(p.rejected, v)
			continue
		}
		return v, nil
	}
}

func (p *scriptedPrompter) Choose(label string, items []string) (string, error) {
	v, err := p.next(label)
	if err != nil {
		return "", err
	}
	for _, item := range items {
		if item == v {
			return v, nil
		}
	}
	return "", errors.New("not an option: " + v)
}

func newShell(t *testing.T, fake *testutil.FakeChatModel, inputs ...string) (*shell, *scriptedPrompter, *bytes.Buffer) {
	t.Helper()
	client := ai.NewServiceWithModel(fake, "gpt-4o", "gpt-3.5-turbo", nil)
	evaluator, err := feedback.NewService(context.Background(), client, nil)
	require.NoError(t, err)

	p := &scriptedPrompter{inputs: inputs}
	out := &bytes.Buffer{}
	return &shell{
		session:   interviewService.NewSession("terminal"),
		catalog:   interview.NewMemoryStore(interview.Seed()),
		responder: client,
		evaluator: evaluator,
		prompter:  p,
		out:       out,
		logger:    zap.NewNop(),
	}, p, out
}

func TestShellFullInterview(t *testing.T) {
	fake := &testutil.FakeChatModel{
		Replies:       [][]string{{"Why ", "data?"}},
		DefaultReply:  "Tell me more.",
		GenerateReply: "Overall Score: 9\nFeedback: Great.",
	}
	sh, p, out := newShell(t, fake,
		strings.Repeat("Ada ", 60), "", "SQL", "Senior", choiceOther, "Data Analyst", "Meta",
		"", "a1", "a2", "a3", "a4", "a5",
		choiceFeedback, choiceQuit,
	)

	err := sh.Run(context.Background())
	require.ErrorIs(t, err, errQuit)

	assert.Equal(t, interview.PhaseFeedbackShown, sh.session.Phase)
	assert.Equal(t, interview.MaxUserTurns, sh.session.UserTurnCount)
	assert.Equal(t, "Data Analyst", sh.session.Profile.Position)
	assert.Equal(t, strings.TrimSpace(strings.Repeat("Ada ", 60)), sh.session.Profile.Name)
	assert.Equal(t, interview.Senior, sh.session.Profile.Level)
	assert.Equal(t, []string{""}, p.rejected)
	assert.Equal(t, interview.RepliedTurns, fake.StreamCount())

	assert.Contains(t, out.String(), "Interviewer: Why data?")
	assert.Contains(t, out.String(), "That was the last question")
	assert.Contains(t, out.String(), "Overall Score: 9\nFeedback: Great.")
}

func TestShellRetriesAfterUpstreamFailure(t *testing.T) {
	fake := &testutil.FakeChatModel{DefaultReply: "Next.", FailNextStream: testutil.ErrUnavailable}
	sh, p, out := newShell(t, fake,
		"", "", "", "Junior", "Data Scientist", "Amazon",
		"first", "first",
	)

	err := sh.Run(context.Background())
	require.ErrorIs(t, err, errQuit)

	assert.Contains(t, out.String(), "Your answer was kept")
	assert.Equal(t, 1, sh.session.UserTurnCount)
	assert.False(t, sh.session.Pending())
	assert.Contains(t, p.labels, "Answer 1/5 (retry)")
}

func TestShellRestartReturnsToSetup(t *testing.T) {
	fake := &testutil.FakeChatModel{DefaultReply: "ok"}
	sh, p, _ := newShell(t, fake,
		"", "", "", "Mid", "BI Analyst", "Udemy",
		"a1", "a2", "a3", "a4", "a5",
		choiceRestart,
	)

	err := sh.Run(context.Background())
	require.ErrorIs(t, err, errQuit)

	assert.Equal(t, interview.PhaseSetup, sh.session.Phase)
	assert.Empty(t, sh.session.Transcript)
	assert.Equal(t, "Name", p.labels[len(p.labels)-1])
}

func TestValidateAnswer(t *testing.T) {
	assert.ErrorIs(t, validateAnswer("  "), interviewService.ErrEmptyInput)
	assert.ErrorIs(t, validateAnswer(string(make([]rune, interview.MaxAnswerLength+1))), interviewService.ErrInputTooLong)
	assert.NoError(t, validateAnswer("fine"))
}
