package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
	interviewService "github.com/zhouzirui/z-interview/backend/internal/service/interview"
)

const (
	choiceOther    = "Other..."
	choiceFeedback = "Get feedback"
	choiceRestart  = "Restart"
	choiceQuit     = "Quit"
)

var errQuit = errors.New("quit requested")

// shell drives one session from the terminal.
type shell struct {
	session   *interviewService.Session
	catalog   interview.Store
	responder interviewService.Responder
	evaluator interviewService.Evaluator
	prompter  prompter
	out       io.Writer
	logger    *zap.Logger
}

// Run loops through setup, interview and feedback until the user quits.
func (s *shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return errQuit
		}

		var err error
		switch s.session.Phase {
		case interview.PhaseSetup:
			err = s.setup()
		case interview.PhaseInterviewing:
			err = s.answer(ctx)
		case interview.PhaseAwaitingFeedbackRequest:
			err = s.afterInterview(ctx, true)
		case interview.PhaseFeedbackShown:
			err = s.afterInterview(ctx, false)
		}
		if err != nil {
			return err
		}
	}
}

func (s *shell) setup() error {
	fmt.Fprintln(s.out, "Let's prepare your interview. Leave a field blank to skip it.")

	defaults := s.catalog.Options().Defaults
	var profile interview.Profile
	var err error

	if profile.Name, err = s.prompter.Ask("Name", "", nil); err != nil {
		return err
	}
	if profile.Experience, err = s.prompter.Ask("Experience", "", nil); err != nil {
		return err
	}
	if profile.Skills, err = s.prompter.Ask("Skills", "", nil); err != nil {
		return err
	}

	levels := s.catalog.Options().Levels
	items := make([]string, 0, len(levels))
	for _, lvl := range levels {
		items = append(items, string(lvl))
	}
	level, err := s.prompter.Choose(fmt.Sprintf("Level (default %s)", defaults.Level), items)
	if err != nil {
		return err
	}
	profile.Level = interview.Level(level)

	if profile.Position, err = s.pick("Position", s.catalog.Options().Positions); err != nil {
		return err
	}
	if profile.Company, err = s.pick("Company", s.catalog.Options().Companies); err != nil {
		return err
	}

	if err := s.session.Start(profile); err != nil {
		fmt.Fprintf(s.out, "Could not start the interview: %v\n", err)
		return nil
	}

	p := s.session.Profile
	fmt.Fprintf(s.out, "\nInterview for %s %s at %s. You have %d answers.\n\n", p.Level, p.Position, p.Company, interview.MaxUserTurns)
	s.logger.Debug("interview started", zap.String("session", s.session.ID))
	return nil
}

// pick offers the catalog values plus a free-form entry.
func (s *shell) pick(label string, options []string) (string, error) {
	choice, err := s.prompter.Choose(label, append(append([]string{}, options...), choiceOther))
	if err != nil {
		return "", err
	}
	if choice != choiceOther {
		return choice, nil
	}
	return s.prompter.Ask(label, "", nil)
}

func (s *shell) answer(ctx context.Context) error {
	label := fmt.Sprintf("Answer %d/%d", s.session.UserTurnCount+1, interview.MaxUserTurns)
	if s.session.Pending() {
		label += " (retry)"
	}

	content, err := s.prompter.Ask(label, "", validateAnswer)
	if err != nil {
		return err
	}

	wrote := false
	turn, err := s.session.Submit(ctx, content, s.responder, func(delta string) {
		if !wrote {
			fmt.Fprint(s.out, "Interviewer: ")
			wrote = true
		}
		fmt.Fprint(s.out, delta)
	})
	if wrote {
		fmt.Fprintln(s.out)
	}

	switch {
	case errors.Is(err, interviewService.ErrExternalService):
		fmt.Fprintf(s.out, "The interviewer is unavailable (%v). Your answer was kept; submit again to retry.\n", err)
		s.logger.Warn("turn failed", zap.Error(err))
		return nil
	case err != nil:
		fmt.Fprintf(s.out, "%v\n", err)
		return nil
	}

	if turn.Final {
		fmt.Fprintln(s.out, "\nThat was the last question. Thank you!")
	}
	fmt.Fprintln(s.out)
	return nil
}

func (s *shell) afterInterview(ctx context.Context, feedbackPending bool) error {
	items := []string{choiceRestart, choiceQuit}
	if feedbackPending {
		items = append([]string{choiceFeedback}, items...)
	}

	choice, err := s.prompter.Choose("What next?", items)
	if err != nil {
		return err
	}

	switch choice {
	case choiceFeedback:
		fmt.Fprintln(s.out, "Evaluating your interview...")
		fb, err := s.session.RequestFeedback(ctx, s.evaluator)
		if err != nil {
			fmt.Fprintf(s.out, "Feedback failed: %v\n", err)
			return nil
		}
		fmt.Fprintf(s.out, "\n%s\n\n", fb.Raw)
	case choiceRestart:
		s.session.Restart()
		fmt.Fprintln(s.out)
	default:
		return errQuit
	}
	return nil
}

func validateAnswer(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return interviewService.ErrEmptyInput
	}
	if utf8.RuneCountInString(trimmed) > interview.MaxAnswerLength {
		return fmt.Errorf("%w (%d characters max)", interviewService.ErrInputTooLong, interview.MaxAnswerLength)
	}
	return nil
}
