// Package service runs the two-phase knowledge graph extraction: nodes are
// extracted and stored first, then relationships between the stored nodes.
package service

import (
	"context"
	"errors"
	"iter"

	"github.com/raphaelgruber/textgraph/internal/llm"
	"github.com/raphaelgruber/textgraph/internal/metrics"
	"github.com/raphaelgruber/textgraph/internal/models"
	"github.com/raphaelgruber/textgraph/internal/prompts"
	"github.com/raphaelgruber/textgraph/internal/stream"
)

// Error classes of a pipeline run. Use errors.Is to check them.
var (
	ErrPromptLoad  = errors.New("prompt load")
	ErrGeneration  = errors.New("generation")
	ErrPersistence = errors.New("persistence")
	// ErrValidation marks candidates that are skipped, never a failed run.
	ErrValidation = errors.New("validation")
)

// Stage labels used in failed reports.
const (
	StageLoadingPrompts = "loading prompts"
	StageGenerating     = "generating LLM response"
	StageCreatingNodes  = "creating graph nodes"
	StageAssembling     = "assembling report"
	StageSample         = "creating knowledge graph"
)

// Prompt and schema names.
const (
	NodeExtractionPrompt         = "node_extraction"
	RelationshipExtractionPrompt = "relationship_extraction"
	NodeSchema                   = "node_schema"
	RelationshipSchema           = "relationship_schema"
)

// GraphStore persists nodes and relationships.
type GraphStore interface {
	ClearAll(ctx context.Context) (bool, error)
	CreateNode(ctx context.Context, label string, properties map[string]any) (models.GraphNode, error)
	CreateRelationship(ctx context.Context, sourceID, targetID, relType string, properties map[string]any) (models.GraphRelationship, error)
	FullSnapshot(ctx context.Context) (models.GraphSnapshot, error)
}

// Prompts renders templates and loads schema documents.
type Prompts interface {
	Render(kind prompts.Kind, name string, subs map[string]string) (string, error)
	LoadSchema(name string) (string, error)
}

// Generator produces model output, either in one piece or streamed.
type Generator interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
	Stream(ctx context.Context, req llm.Request) iter.Seq2[stream.Chunk, error]
}

// Params are the sampling parameters of one generation call.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// Default parameters per call kind.
var (
	CompletionParams = Params{Temperature: 0.7, MaxTokens: 10000}
	TextStreamParams = Params{Temperature: 0.7, MaxTokens: 10000}
	JSONStreamParams = Params{Temperature: 0.7, MaxTokens: 1000}
)

// Extractor builds knowledge graphs from text.
type Extractor struct {
	store      GraphStore
	prompts    Prompts
	gen        Generator
	signal     *stream.CancelSignal
	completion Params
	metrics    *metrics.Collector
}

// NewExtractor creates an extractor over the given collaborators.
func NewExtractor(store GraphStore, p Prompts, gen Generator) *Extractor {
	return &Extractor{
		store:      store,
		prompts:    p,
		gen:        gen,
		signal:     &stream.CancelSignal{},
		completion: CompletionParams,
	}
}

// WithMetrics makes the extractor record run timings in m.
func (e *Extractor) WithMetrics(m *metrics.Collector) *Extractor {
	e.metrics = m
	return e
}

// WithCompletionParams overrides the parameters of the extraction calls.
func (e *Extractor) WithCompletionParams(p Params) *Extractor {
	e.completion = p
	return e
}

// Cancel stops the active stream at its next fragment. It is safe to call
// from any goroutine.
func (e *Extractor) Cancel() {
	e.signal.Cancel()
}
