package service

import (
	"context"
	"iter"

	"github.com/raphaelgruber/textgraph/internal/llm"
	"github.com/raphaelgruber/textgraph/internal/stream"
)

// StreamText streams a generation as complete sentences. The cancel signal
// is reset first, so a Cancel from an earlier stream does not carry over.
func (e *Extractor) StreamText(ctx context.Context, system, user string, p Params) iter.Seq[stream.Event] {
	e.signal.Reset()
	src := e.gen.Stream(ctx, llm.Request{
		SystemPrompt: system,
		UserPrompt:   user,
		Temperature:  p.Temperature,
		MaxTokens:    p.MaxTokens,
	})
	return stream.NewSentenceDecoder(e.signal).Decode(src)
}

// StreamJSON streams a generation as flat JSON objects, each yielded as
// soon as it is complete. Like StreamText it ends with llm.ErrStreamStalled
// when the provider sends no fragment within the stream timeout.
func (e *Extractor) StreamJSON(ctx context.Context, system, user string, p Params) iter.Seq[stream.Event] {
	e.signal.Reset()
	src := e.gen.Stream(ctx, llm.Request{
		SystemPrompt: system,
		UserPrompt:   user,
		Temperature:  p.Temperature,
		MaxTokens:    p.MaxTokens,
		JSONMode:     true,
	})
	return stream.NewJSONDecoder(e.signal).Decode(src)
}
