// Package llm wraps langchaingo providers for one-shot JSON completions and
// streamed generation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/textgraph/internal/config"
	"github.com/raphaelgruber/textgraph/internal/metrics"
	"github.com/raphaelgruber/textgraph/internal/stream"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultStreamTimeout bounds the wait between two streamed fragments.
const DefaultStreamTimeout = 10 * time.Second

// Request is a single generation call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	// JSONMode asks the provider for a JSON object response where supported.
	JSONMode bool
}

// Model wraps a langchaingo LLM for text generation.
type Model struct {
	llm           llms.Model
	modelName     string
	streamTimeout time.Duration
	metrics       *metrics.Collector
}

// NewModel creates an LLM model based on configuration.
func NewModel(ctx context.Context, cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		opts := []openai.Option{
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		model, err = openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		model, err = bedrock.New(
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
			bedrock.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return NewModelFromLLM(model, cfg.LLMModel, cfg.StreamTimeout), nil
}

// NewModelFromLLM wraps an already constructed langchaingo model.
// A non-positive streamTimeout selects DefaultStreamTimeout.
func NewModelFromLLM(model llms.Model, name string, streamTimeout time.Duration) *Model {
	if streamTimeout <= 0 {
		streamTimeout = DefaultStreamTimeout
	}
	return &Model{llm: model, modelName: name, streamTimeout: streamTimeout}
}

// WithMetrics makes the model record call timings and token usage in c.
func (m *Model) WithMetrics(c *metrics.Collector) *Model {
	m.metrics = c
	return m
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

func messages(req Request) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}
	return append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, req.UserPrompt))
}

func callOptions(req Request) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}
	return opts
}

// Complete runs a non-streamed generation and returns the response text
// with any markdown fence removed.
func (m *Model) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	resp, err := m.llm.GenerateContent(ctx, messages(req), callOptions(req)...)
	if err != nil {
		m.metrics.RecordFailure(metrics.OpLLMGenerate, time.Since(start))
		return "", fmt.Errorf("generate: %w", wrapFatalError(err))
	}
	if len(resp.Choices) == 0 {
		m.metrics.RecordFailure(metrics.OpLLMGenerate, time.Since(start))
		return "", fmt.Errorf("generate: %w", ErrEmptyResponse)
	}
	m.recordUsage(metrics.OpLLMGenerate, start, usageFromResponse(resp))
	return CleanJSON(resp.Choices[0].Content), nil
}

type streamResult struct {
	resp *llms.ContentResponse
	err  error
}

// Stream starts a streamed generation. Fragments are yielded as they
// arrive; a final chunk carries token usage when the provider reports it.
// The stream fails with ErrStreamStalled if the provider sends no fragment
// within the stream timeout; time spent in the consumer does not count.
// Stopping iteration cancels the underlying request.
func (m *Model) Stream(ctx context.Context, req Request) iter.Seq2[stream.Chunk, error] {
	return func(yield func(stream.Chunk, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		start := time.Now()
		frags := make(chan string)
		done := make(chan streamResult, 1)

		opts := append(callOptions(req), llms.WithStreamingFunc(func(_ context.Context, b []byte) error {
			select {
			case frags <- string(b):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}))

		go func() {
			resp, err := m.llm.GenerateContent(ctx, messages(req), opts...)
			done <- streamResult{resp: resp, err: err}
		}()

		timer := time.NewTimer(m.streamTimeout)
		defer timer.Stop()

		for {
			select {
			case frag := <-frags:
				// The stall bound covers the provider only, not the consumer.
				timer.Stop()
				if !yield(stream.Chunk{Text: frag}, nil) {
					return
				}
				timer.Reset(m.streamTimeout)

			case res := <-done:
				if res.err != nil {
					m.metrics.RecordFailure(metrics.OpLLMStream, time.Since(start))
					yield(stream.Chunk{}, fmt.Errorf("stream: %w", wrapFatalError(res.err)))
					return
				}
				usage := usageFromResponse(res.resp)
				m.recordUsage(metrics.OpLLMStream, start, usage)
				if usage != nil {
					yield(stream.Chunk{Usage: usage}, nil)
				}
				return

			case <-timer.C:
				m.metrics.RecordFailure(metrics.OpLLMStream, time.Since(start))
				slog.Warn("stream stalled", "model", m.modelName, "timeout", m.streamTimeout)
				yield(stream.Chunk{}, fmt.Errorf("%w: no fragment within %s", ErrStreamStalled, m.streamTimeout))
				return
			}
		}
	}
}

func (m *Model) recordUsage(op string, start time.Time, usage *stream.Usage) {
	if usage == nil {
		m.metrics.RecordTiming(op, time.Since(start))
		return
	}
	m.metrics.RecordLLMUsage(op, time.Since(start), usage.PromptTokens, usage.CompletionTokens)
}

// IsFatal reports whether err came from an unrecoverable provider failure.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalAPI)
}
