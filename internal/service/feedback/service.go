package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	analysis "github.com/zhouzirui/z-interview/backend/internal/analysis/feedback"
	"github.com/zhouzirui/z-interview/backend/internal/logger"
	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
	"github.com/zhouzirui/z-interview/backend/internal/service/ai"
)

// ErrEmptyEvaluation is returned when the model answers with blank text.
var ErrEmptyEvaluation = errors.New("evaluation returned empty text")

// Completer is the process-wide chat client.
type Completer interface {
	Complete(ctx context.Context, req ai.Request) (ai.Response, error)
	FeedbackModel() string
}

// Service grades a finished interview with one non-streaming call.
type Service struct {
	evaluator compose.Runnable[map[string]any, *schema.Message]
	model     string
	logger    *zap.Logger
	now       func() time.Time
}

// NewService compiles the evaluation chain. The rendered prompt goes through
// client as a non-streaming request for the feedback model.
func NewService(ctx context.Context, client Completer, log *zap.Logger) (*Service, error) {
	if client == nil {
		return nil, errors.New("chat client is required")
	}
	modelName := client.FeedbackModel()

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(evaluationSystemPrompt),
		schema.UserMessage(evaluationUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendLambda(compose.InvokableLambda(func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
		resp, err := client.Complete(ctx, ai.Request{
			Model:    modelName,
			Messages: messages,
			Stream:   false,
		})
		if err != nil {
			return nil, err
		}
		return resp.Message, nil
	}))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile evaluation chain: %w", err)
	}

	return &Service{
		evaluator: runnable,
		model:     modelName,
		logger:    logger.OrNop(log),
		now:       time.Now,
	}, nil
}

// Evaluate serializes the full transcript, system message included, and
// returns the evaluator text verbatim alongside the parsed score.
func (s *Service) Evaluate(ctx context.Context, transcript []interview.Message) (interview.Feedback, error) {
	input := map[string]any{
		"transcript": interview.FormatTranscript(transcript),
	}

	msg, err := s.evaluator.Invoke(ctx, input)
	if err != nil {
		return interview.Feedback{}, fmt.Errorf("failed to run evaluation chain: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return interview.Feedback{}, ErrEmptyEvaluation
	}

	report := analysis.Parse(msg.Content)
	if !analysis.WellFormed(msg.Content) {
		s.logger.Warn("evaluation does not follow the requested format",
			zap.String("preview", logger.TruncateForLog(msg.Content, 120)))
	}

	s.logger.Info("evaluation generated",
		zap.String("model", s.model),
		zap.Int("messages", len(transcript)),
		zap.Bool("scored", report.HasScore()))

	return interview.Feedback{
		Raw:         msg.Content,
		Score:       report.Score,
		Summary:     report.Summary,
		Model:       s.model,
		GeneratedAt: s.now().UTC(),
	}, nil
}

const evaluationSystemPrompt = `You are a helpful tool that provides feedback on an interviewee performance.
Before the Feedback, give a score of 1-10.
Follow this format:
Overall Score: //Your score
Feedback: //Here you put your feedback
Give only the feedback do not ask any additional questions.`

const evaluationUserPrompt = "This is the interview you need to evaluate. Keep in mind that you are only a tool and you shouldn't engage in a conversation. {transcript}"
