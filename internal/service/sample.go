package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/textgraph/internal/metrics"
	"github.com/raphaelgruber/textgraph/internal/models"
)

// sampleNodes and sampleRelationships return fresh copies of the sample
// dataset so callers cannot mutate it between runs.
func sampleNodes() []models.NodeCandidate {
	return []models.NodeCandidate{
		{
			Type: "Character",
			Properties: map[string]any{
				"name":        "Alice",
				"description": "A curious adventurer in Wonderland",
				"age":         12,
				"traits":      []any{"curious", "brave", "intelligent"},
			},
		},
		{
			Type: "Character",
			Properties: map[string]any{
				"name":        "White Rabbit",
				"description": "A peculiar character always in a hurry",
				"occupation":  "Royal Herald",
				"traits":      []any{"anxious", "punctual"},
			},
		},
		{
			Type: "Character",
			Properties: map[string]any{
				"name":              "Cheshire Cat",
				"description":       "Known for its enigmatic smile",
				"magical_abilities": []any{"invisibility", "teleportation"},
				"traits":            []any{"mysterious", "intelligent"},
			},
		},
		{
			Type: "Location",
			Properties: map[string]any{
				"name":        "Wonderland Garden",
				"description": "A magical garden with talking flowers",
				"features":    []any{"talking flowers", "maze"},
				"size":        "vast",
			},
		},
	}
}

func sampleRelationships() []models.RelationshipCandidate {
	return []models.RelationshipCandidate{
		{
			SourceNode: "Alice",
			TargetNode: "Wonderland Garden",
			Type:       "VISITS",
			Properties: map[string]any{
				"duration":   "2 hours",
				"activities": []any{"talking to flowers", "exploring"},
			},
		},
		{
			SourceNode: "Alice",
			TargetNode: "White Rabbit",
			Type:       "FOLLOWS",
			Properties: map[string]any{
				"reason":   "curiosity",
				"distance": "long",
			},
		},
		{
			SourceNode: "Cheshire Cat",
			TargetNode: "Alice",
			Type:       "GUIDES",
			Properties: map[string]any{
				"advice_given": []any{"all paths lead somewhere", "we're all mad here"},
				"manner":       "cryptic",
			},
		},
	}
}

// ExtractSampleGraph replaces the stored graph with a small fixed dataset.
// It makes no generation calls and is useful as a connectivity check.
func (e *Extractor) ExtractSampleGraph(ctx context.Context) models.ExtractionReport {
	start := time.Now()
	runID := uuid.New().String()
	log := slog.With("run_id", runID)
	log.Info("creating sample graph")

	persisted, err := e.persistNodes(ctx, log, sampleNodes())
	if err != nil {
		e.metrics.RecordFailure(metrics.OpSample, time.Since(start))
		return failed(log, StageSample, err)
	}
	relTypes, failures := e.persistRelationships(ctx, log, persisted.ids, sampleRelationships())

	snap, err := e.store.FullSnapshot(ctx)
	if err != nil {
		e.metrics.RecordFailure(metrics.OpSample, time.Since(start))
		return failed(log, StageSample, fmt.Errorf("%w: fetch graph: %w", ErrPersistence, err))
	}

	e.metrics.RecordTiming(metrics.OpSample, time.Since(start))
	return Assemble(snap, Run{
		ID:                   runID,
		Description:          "Test knowledge graph from Alice in Wonderland",
		Message:              "Knowledge graph created successfully",
		NodeTypes:            persisted.types,
		RelationshipTypes:    relTypes,
		RelationshipFailures: failures,
	})
}
