package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-interview/backend/internal/config"
	"github.com/zhouzirui/z-interview/backend/internal/logger"
	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
)

// Request is one call to the chat completion endpoint.
type Request struct {
	Model    string
	Messages []*schema.Message
	Stream   bool
}

// Response carries either the finished message (Stream=false) or the chunk
// reader (Stream=true). The caller owns the reader and must drain and close it.
type Response struct {
	Message *schema.Message
	Stream  *schema.StreamReader[*schema.Message]
}

// Service is the single chat completion client owned by the process.
type Service struct {
	chatModel      model.BaseChatModel
	interviewModel string
	feedbackModel  string
	logger         *zap.Logger
}

// NewService creates the chat model from configuration and wraps it.
func NewService(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(chatModel, cfg.InterviewModel, cfg.FeedbackModel, log), nil
}

// NewServiceWithModel wraps an existing chat model.
func NewServiceWithModel(chatModel model.BaseChatModel, interviewModel, feedbackModel string, log *zap.Logger) *Service {
	return &Service{
		chatModel:      chatModel,
		interviewModel: interviewModel,
		feedbackModel:  feedbackModel,
		logger:         logger.OrNop(log),
	}
}

// Complete sends req and returns the message or the stream depending on req.Stream.
func (s *Service) Complete(ctx context.Context, req Request) (Response, error) {
	if s == nil || s.chatModel == nil {
		return Response{}, errors.New("chat model is not initialized")
	}

	var opts []model.Option
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}

	if req.Stream {
		stream, err := s.chatModel.Stream(ctx, req.Messages, opts...)
		if err != nil {
			return Response{}, fmt.Errorf("failed to stream chat completion: %w", err)
		}
		s.logger.Debug("chat stream opened", zap.String("model", req.Model), zap.Int("messages", len(req.Messages)))
		return Response{Stream: stream}, nil
	}

	msg, err := s.chatModel.Generate(ctx, req.Messages, opts...)
	if err != nil {
		return Response{}, fmt.Errorf("failed to generate chat completion: %w", err)
	}
	s.logger.Debug("chat completion received", zap.String("model", req.Model), zap.Int("length", len(msg.Content)))
	return Response{Message: msg}, nil
}

// StreamReply streams the interviewer reply for the whole transcript.
func (s *Service) StreamReply(ctx context.Context, transcript []interview.Message) (*schema.StreamReader[*schema.Message], error) {
	resp, err := s.Complete(ctx, Request{
		Model:    s.interviewModel,
		Messages: ToSchemaMessages(transcript),
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}
	return resp.Stream, nil
}

// InterviewModel returns the model identifier used for interview turns.
func (s *Service) InterviewModel() string {
	return s.interviewModel
}

// FeedbackModel returns the model identifier used for evaluation.
func (s *Service) FeedbackModel() string {
	return s.feedbackModel
}

// ToSchemaMessages converts transcript entries into eino messages, keeping
// order and roles.
func ToSchemaMessages(messages []interview.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case interview.RoleSystem:
			out = append(out, schema.SystemMessage(msg.Content))
		case interview.RoleUser:
			out = append(out, schema.UserMessage(msg.Content))
		case interview.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return out
}
