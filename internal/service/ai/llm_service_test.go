package ai

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
	"github.com/zhouzirui/z-interview/backend/internal/testutil"
)

func TestStreamReplySendsWholeTranscriptWithInterviewModel(t *testing.T) {
	fake := &testutil.FakeChatModel{Replies: [][]string{{"Tell me ", "about you."}}}
	svc := NewServiceWithModel(fake, "gpt-4o", "gpt-3.5-turbo", nil)

	transcript := []interview.Message{
		{Role: interview.RoleSystem, Content: "frame"},
		{Role: interview.RoleUser, Content: "Hello"},
	}

	sr, err := svc.StreamReply(context.Background(), transcript)
	require.NoError(t, err)
	defer sr.Close()

	var chunks []string
	for {
		msg, recvErr := sr.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		require.NoError(t, recvErr)
		chunks = append(chunks, msg.Content)
	}

	assert.Equal(t, []string{"Tell me ", "about you."}, chunks)
	require.Len(t, fake.StreamCalls, 1)
	require.Len(t, fake.StreamCalls[0], 2)
	assert.Equal(t, schema.System, fake.StreamCalls[0][0].Role)
	assert.Equal(t, schema.User, fake.StreamCalls[0][1].Role)
	assert.Equal(t, []string{"gpt-4o"}, fake.Models)
}

func TestCompleteNonStreaming(t *testing.T) {
	fake := &testutil.FakeChatModel{GenerateReply: "done"}
	svc := NewServiceWithModel(fake, "a", "b", nil)

	resp, err := svc.Complete(context.Background(), Request{Model: svc.FeedbackModel(), Messages: []*schema.Message{schema.UserMessage("x")}})
	require.NoError(t, err)

	assert.Nil(t, resp.Stream)
	assert.Equal(t, "done", resp.Message.Content)
	assert.Equal(t, []string{"b"}, fake.Models)
}

func TestCompleteWrapsFailure(t *testing.T) {
	fake := &testutil.FakeChatModel{FailNextStream: testutil.ErrUnavailable}
	svc := NewServiceWithModel(fake, "a", "b", nil)

	_, err := svc.Complete(context.Background(), Request{Stream: true})
	assert.ErrorIs(t, err, testutil.ErrUnavailable)
}

func TestCompleteWithoutModel(t *testing.T) {
	var svc *Service
	_, err := svc.Complete(context.Background(), Request{})
	assert.Error(t, err)
}

func TestToSchemaMessagesKeepsOrder(t *testing.T) {
	out := ToSchemaMessages([]interview.Message{
		{Role: interview.RoleSystem, Content: "s"},
		{Role: interview.RoleUser, Content: "u"},
		{Role: interview.RoleAssistant, Content: "a"},
	})

	require.Len(t, out, 3)
	assert.Equal(t, schema.Assistant, out[2].Role)
	assert.Equal(t, "a", out[2].Content)
}
