package service

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/raphaelgruber/textgraph/internal/db"
	"github.com/raphaelgruber/textgraph/internal/llm"
	"github.com/raphaelgruber/textgraph/internal/models"
	"github.com/raphaelgruber/textgraph/internal/prompts"
	"github.com/raphaelgruber/textgraph/internal/stream"
)

// memStore is an in-memory GraphStore.
type memStore struct {
	nodes  []models.GraphNode
	rels   []models.GraphRelationship
	nextID int

	clears    int
	clearErr  error
	createErr error
	snapErr   error
	// snapErrAfter fails FullSnapshot from the n-th call on, when > 0.
	snapErrAfter int
	snapCalls    int
}

func (s *memStore) ClearAll(context.Context) (bool, error) {
	if s.clearErr != nil {
		return false, s.clearErr
	}
	s.clears++
	had := len(s.nodes) > 0
	s.nodes, s.rels = nil, nil
	return had, nil
}

func (s *memStore) CreateNode(_ context.Context, label string, props map[string]any) (models.GraphNode, error) {
	if s.createErr != nil {
		return models.GraphNode{}, s.createErr
	}
	s.nextID++
	n := models.GraphNode{ID: fmt.Sprintf("n%d", s.nextID), Label: label, Properties: props}
	s.nodes = append(s.nodes, n)
	return n, nil
}

func (s *memStore) CreateRelationship(_ context.Context, src, dst, relType string, props map[string]any) (models.GraphRelationship, error) {
	if !s.has(src) || !s.has(dst) {
		return models.GraphRelationship{}, fmt.Errorf("%w: %s -> %s", db.ErrNodeNotFound, src, dst)
	}
	s.nextID++
	r := models.GraphRelationship{ID: fmt.Sprintf("e%d", s.nextID), Source: src, Target: dst, Type: relType, Properties: props}
	s.rels = append(s.rels, r)
	return r, nil
}

func (s *memStore) FullSnapshot(context.Context) (models.GraphSnapshot, error) {
	s.snapCalls++
	if s.snapErr != nil && s.snapCalls >= s.snapErrAfter {
		return models.GraphSnapshot{}, s.snapErr
	}
	return models.GraphSnapshot{Nodes: s.nodes, Relationships: s.rels}, nil
}

func (s *memStore) has(id string) bool {
	for _, n := range s.nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// scriptedGen answers Complete calls in order and streams fixed fragments.
type scriptedGen struct {
	responses []string
	err       error
	fragments []string
	usage     *stream.Usage

	requests []llm.Request
}

func (g *scriptedGen) Complete(_ context.Context, req llm.Request) (string, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	if len(g.requests) > len(g.responses) {
		return "", errors.New("unexpected completion call")
	}
	return g.responses[len(g.requests)-1], nil
}

func (g *scriptedGen) Stream(_ context.Context, req llm.Request) iter.Seq2[stream.Chunk, error] {
	g.requests = append(g.requests, req)
	return func(yield func(stream.Chunk, error) bool) {
		for _, f := range g.fragments {
			if !yield(stream.Chunk{Text: f}, nil) {
				return
			}
		}
		if g.usage != nil {
			yield(stream.Chunk{Usage: g.usage}, nil)
		}
	}
}

// brokenPrompts fails schema loading.
type brokenPrompts struct{}

func (brokenPrompts) Render(prompts.Kind, string, map[string]string) (string, error) {
	return "", prompts.ErrTemplateNotFound
}

func (brokenPrompts) LoadSchema(string) (string, error) {
	return "", prompts.ErrSchemaNotFound
}

func defaultPrompts() *prompts.Store {
	s, err := prompts.NewStore(prompts.Defaults())
	if err != nil {
		panic(err)
	}
	return s
}
