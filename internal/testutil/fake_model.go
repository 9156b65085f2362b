// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeChatModel is a scripted model.BaseChatModel.
type FakeChatModel struct {
	mu sync.Mutex

	// Replies are consumed in order, one per Stream call. When exhausted,
	// DefaultReply is streamed as a single chunk.
	Replies      [][]string
	DefaultReply string

	// FailNextStream is returned by the next Stream call, then cleared.
	FailNextStream error
	// FailMidStream is sent after the chunks of the next Stream call, then cleared.
	FailMidStream error

	GenerateReply string
	GenerateErr   error

	StreamCalls   [][]*schema.Message
	GenerateCalls [][]*schema.Message
	Models        []string
}

var _ model.BaseChatModel = (*FakeChatModel)(nil)

// Generate returns GenerateReply or GenerateErr.
func (f *FakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.GenerateCalls = append(f.GenerateCalls, cloneMessages(input))
	f.Models = append(f.Models, modelName(opts))
	if f.GenerateErr != nil {
		return nil, f.GenerateErr
	}
	return schema.AssistantMessage(f.GenerateReply, nil), nil
}

// Stream emits the next scripted reply chunk by chunk.
func (f *FakeChatModel) Stream(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.StreamCalls = append(f.StreamCalls, cloneMessages(input))
	f.Models = append(f.Models, modelName(opts))

	if err := f.FailNextStream; err != nil {
		f.FailNextStream = nil
		return nil, err
	}

	chunks := []string{f.DefaultReply}
	if len(f.Replies) > 0 {
		chunks = f.Replies[0]
		f.Replies = f.Replies[1:]
	}

	messages := make([]*schema.Message, 0, len(chunks))
	for _, c := range chunks {
		messages = append(messages, schema.AssistantMessage(c, nil))
	}

	midErr := f.FailMidStream
	f.FailMidStream = nil
	if midErr == nil {
		return schema.StreamReaderFromArray(messages), nil
	}

	sr, sw := schema.Pipe[*schema.Message](len(messages) + 1)
	for _, m := range messages {
		sw.Send(m, nil)
	}
	sw.Send(nil, midErr)
	sw.Close()
	return sr, nil
}

// StreamCount returns how many Stream calls were made.
func (f *FakeChatModel) StreamCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.StreamCalls)
}

// GenerateCount returns how many Generate calls were made.
func (f *FakeChatModel) GenerateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.GenerateCalls)
}

// ErrUnavailable is a canned endpoint failure.
var ErrUnavailable = errors.New("upstream unavailable")

func modelName(opts []model.Option) string {
	options := model.GetCommonOptions(&model.Options{}, opts...)
	if options.Model == nil {
		return ""
	}
	return *options.Model
}

func cloneMessages(in []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(in))
	for _, m := range in {
		if m == nil {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out
}
