package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/textgraph/internal/metrics"
	"github.com/raphaelgruber/textgraph/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func collect(t *testing.T, m *Model, req Request) ([]stream.Chunk, error) {
	t.Helper()
	var chunks []stream.Chunk
	for c, err := range m.Stream(context.Background(), req) {
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func TestStream_FragmentsThenUsage(t *testing.T) {
	fake := &fakeLLM{
		fragments: []string{"Hello ", "world."},
		info:      map[string]any{"PromptTokens": 12, "CompletionTokens": 3, "TotalTokens": 15},
	}
	col := metrics.NewCollector()
	m := NewModelFromLLM(fake, "fake", time.Second).WithMetrics(col)

	chunks, err := collect(t, m, Request{UserPrompt: "hi", Temperature: 0.7, MaxTokens: 1000})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hello ", chunks[0].Text)
	assert.Equal(t, "world.", chunks[1].Text)
	require.NotNil(t, chunks[2].Usage)
	assert.Equal(t, stream.Usage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15}, *chunks[2].Usage)

	assert.InDelta(t, 0.7, fake.gotOpts.Temperature, 1e-9)
	assert.Equal(t, 1000, fake.gotOpts.MaxTokens)
	assert.Contains(t, col.Snapshot().Operations, metrics.OpLLMStream)
}

func TestStream_NoUsageReported(t *testing.T) {
	fake := &fakeLLM{fragments: []string{"one"}}
	m := NewModelFromLLM(fake, "fake", time.Second)

	chunks, err := collect(t, m, Request{UserPrompt: "hi"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Nil(t, chunks[0].Usage)
}

func TestStream_Stalled(t *testing.T) {
	fake := &fakeLLM{fragments: []string{"late"}, delay: 500 * time.Millisecond}
	m := NewModelFromLLM(fake, "fake", 20*time.Millisecond)

	chunks, err := collect(t, m, Request{UserPrompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStreamStalled)
	assert.Empty(t, chunks)
}

func TestStream_SlowConsumerIsNotStalled(t *testing.T) {
	fake := &fakeLLM{fragments: []string{"a", "b", "c"}, delay: 5 * time.Millisecond}
	m := NewModelFromLLM(fake, "fake", 50*time.Millisecond)

	var got []string
	for c, err := range m.Stream(context.Background(), Request{UserPrompt: "hi"}) {
		require.NoError(t, err)
		got = append(got, c.Text)
		time.Sleep(80 * time.Millisecond)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestStream_ProviderError(t *testing.T) {
	fake := &fakeLLM{fragments: []string{"partial"}, err: errors.New("HTTP 401: invalid api key")}
	col := metrics.NewCollector()
	m := NewModelFromLLM(fake, "fake", time.Second).WithMetrics(col)

	chunks, err := collect(t, m, Request{UserPrompt: "hi"})
	require.Len(t, chunks, 1)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, int64(1), col.Snapshot().Operations[metrics.OpLLMStream].Failures)
}

func TestStream_ConsumerStopsEarly(t *testing.T) {
	fake := &fakeLLM{fragments: []string{"a", "b", "c"}}
	m := NewModelFromLLM(fake, "fake", time.Second)

	var got []string
	for c, err := range m.Stream(context.Background(), Request{UserPrompt: "hi"}) {
		require.NoError(t, err)
		got = append(got, c.Text)
		break
	}
	assert.Equal(t, []string{"a"}, got)
}

func TestComplete(t *testing.T) {
	fake := &fakeLLM{
		content: "```json\n{\"nodes\": []}\n```",
		info:    map[string]any{"InputTokens": 40, "OutputTokens": 8},
	}
	col := metrics.NewCollector()
	m := NewModelFromLLM(fake, "fake", 0).WithMetrics(col)

	out, err := m.Complete(context.Background(), Request{
		SystemPrompt: "sys",
		UserPrompt:   "user",
		Temperature:  0.7,
		MaxTokens:    10000,
		JSONMode:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"nodes": []}`, out)

	require.Len(t, fake.gotMessages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, fake.gotMessages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, fake.gotMessages[1].Role)
	assert.True(t, fake.gotOpts.JSONMode)
	assert.Equal(t, 10000, fake.gotOpts.MaxTokens)

	snap := col.Snapshot().Operations[metrics.OpLLMGenerate]
	require.NotNil(t, snap.TotalInputTokens)
	assert.Equal(t, int64(40), *snap.TotalInputTokens)
	assert.Equal(t, int64(8), *snap.TotalOutputTokens)
}

func TestComplete_NoSystemPrompt(t *testing.T) {
	fake := &fakeLLM{content: "{}"}
	m := NewModelFromLLM(fake, "fake", 0)

	_, err := m.Complete(context.Background(), Request{UserPrompt: "user"})
	require.NoError(t, err)
	require.Len(t, fake.gotMessages, 1)
}

func TestComplete_Error(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection reset")}
	m := NewModelFromLLM(fake, "fake", 0)

	_, err := m.Complete(context.Background(), Request{UserPrompt: "user"})
	require.Error(t, err)
	assert.False(t, IsFatal(err))
	assert.True(t, strings.HasPrefix(err.Error(), "generate: "))
}

func TestNewModelFromLLM_DefaultTimeout(t *testing.T) {
	m := NewModelFromLLM(&fakeLLM{}, "fake", 0)
	assert.Equal(t, DefaultStreamTimeout, m.streamTimeout)
	assert.Equal(t, "fake", m.Model())
}
