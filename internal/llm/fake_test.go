package llm

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// fakeLLM replays canned fragments through the streaming callback.
type fakeLLM struct {
	fragments []string
	content   string
	info      map[string]any
	err       error
	// delay is applied before each fragment.
	delay time.Duration

	gotOpts     llms.CallOptions
	gotMessages []llms.MessageContent
}

func (f *fakeLLM) GenerateContent(ctx context.Context, msgs []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.gotMessages = msgs
	for _, o := range options {
		o(&f.gotOpts)
	}
	for _, frag := range f.fragments {
		if f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if f.gotOpts.StreamingFunc != nil {
			if err := f.gotOpts.StreamingFunc(ctx, []byte(frag)); err != nil {
				return nil, err
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        f.content,
		GenerationInfo: f.info,
	}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}
