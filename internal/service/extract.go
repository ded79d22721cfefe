package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/textgraph/internal/llm"
	"github.com/raphaelgruber/textgraph/internal/metrics"
	"github.com/raphaelgruber/textgraph/internal/models"
	"github.com/raphaelgruber/textgraph/internal/prompts"
)

const extractDescription = "Knowledge graph extracted from input text"

// ExtractGraph replaces the stored graph with one extracted from text.
//
// The store is cleared before nodes are written. Stages are not wrapped in a
// transaction: when a later stage fails, the nodes already written stay in
// the store. Relationships that cannot be stored are skipped and listed in
// the report metadata. Failures never escape as errors; they are reported
// through the returned report's status.
func (e *Extractor) ExtractGraph(ctx context.Context, text string) models.ExtractionReport {
	start := time.Now()
	runID := uuid.New().String()
	log := slog.With("run_id", runID)
	log.Info("extracting graph", "text_len", len(text))

	report, err := e.extract(ctx, log, runID, text)
	if err != nil {
		e.metrics.RecordFailure(metrics.OpExtraction, time.Since(start))
		return report
	}
	e.metrics.RecordTiming(metrics.OpExtraction, time.Since(start))
	log.Info("graph extracted",
		"nodes", report.Metadata.NodeCount,
		"relationships", report.Metadata.RelationshipCount,
		"duration", time.Since(start))
	return report
}

func (e *Extractor) extract(ctx context.Context, log *slog.Logger, runID, text string) (models.ExtractionReport, error) {
	// Nodes.
	system, user, err := e.renderNodePrompts(text)
	if err != nil {
		return failed(log, StageLoadingPrompts, err), err
	}
	nodes, err := generateList[models.NodeCandidate](ctx, e, system, user, "nodes")
	if err != nil {
		return failed(log, StageGenerating, err), err
	}
	log.Debug("node candidates generated", "count", len(nodes))

	persisted, err := e.persistNodes(ctx, log, nodes)
	if err != nil {
		return failed(log, StageCreatingNodes, err), err
	}

	// Relationships.
	system, user, err = e.renderRelationshipPrompts(ctx, text)
	if err != nil {
		return failed(log, StageLoadingPrompts, err), err
	}
	rels, err := generateList[models.RelationshipCandidate](ctx, e, system, user, "relationships")
	if err != nil {
		return failed(log, StageGenerating, err), err
	}
	log.Debug("relationship candidates generated", "count", len(rels))

	relTypes, failures := e.persistRelationships(ctx, log, persisted.ids, rels)

	snap, err := e.store.FullSnapshot(ctx)
	if err != nil {
		err = fmt.Errorf("%w: fetch graph: %w", ErrPersistence, err)
		return failed(log, StageAssembling, err), err
	}
	return Assemble(snap, Run{
		ID:                   runID,
		Description:          extractDescription,
		Message:              "Knowledge graph extracted successfully",
		NodeTypes:            persisted.types,
		RelationshipTypes:    relTypes,
		SkippedNodes:         persisted.skipped,
		RelationshipFailures: failures,
	}), nil
}

func (e *Extractor) renderNodePrompts(text string) (string, string, error) {
	schema, err := e.prompts.LoadSchema(NodeSchema)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrPromptLoad, err)
	}
	return e.renderPair(NodeExtractionPrompt, map[string]string{
		"text":   text,
		"schema": schema,
	})
}

// renderRelationshipPrompts lists the stored nodes so the model can refer
// to them by name or id.
func (e *Extractor) renderRelationshipPrompts(ctx context.Context, text string) (string, string, error) {
	schema, err := e.prompts.LoadSchema(RelationshipSchema)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrPromptLoad, err)
	}
	snap, err := e.store.FullSnapshot(ctx)
	if err != nil {
		return "", "", fmt.Errorf("%w: fetch nodes: %w", ErrPromptLoad, err)
	}
	nodesList, err := json.MarshalIndent(snap.Nodes, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("%w: encode nodes: %w", ErrPromptLoad, err)
	}
	return e.renderPair(RelationshipExtractionPrompt, map[string]string{
		"text":       text,
		"schema":     schema,
		"nodes_list": string(nodesList),
	})
}

func (e *Extractor) renderPair(name string, subs map[string]string) (string, string, error) {
	system, err := e.prompts.Render(prompts.KindSystem, name, nil)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrPromptLoad, err)
	}
	user, err := e.prompts.Render(prompts.KindUser, name, subs)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrPromptLoad, err)
	}
	return system, user, nil
}

// generateList runs a JSON completion and decodes the list under key.
func generateList[T any](ctx context.Context, e *Extractor, system, user, key string) ([]T, error) {
	payload, err := e.gen.Complete(ctx, llm.Request{
		SystemPrompt: system,
		UserPrompt:   user,
		Temperature:  e.completion.Temperature,
		MaxTokens:    e.completion.MaxTokens,
		JSONMode:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	items, err := parseList[T](payload, key)
	if err != nil {
		slog.Warn("unparsable model response", "key", key, "payload", payload)
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return items, nil
}

// parseList accepts either {"<key>": [...]} or a bare array.
func parseList[T any](payload, key string) ([]T, error) {
	payload = llm.CleanJSON(payload)
	if strings.HasPrefix(payload, "[") {
		var items []T
		if err := json.Unmarshal([]byte(payload), &items); err != nil {
			return nil, fmt.Errorf("parse %s: %w", key, err)
		}
		return items, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &wrapped); err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	raw, ok := wrapped[key]
	if !ok {
		return nil, fmt.Errorf("parse %s: response has no %q field", key, key)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return items, nil
}

func failed(log *slog.Logger, stage string, err error) models.ExtractionReport {
	log.Error("extraction failed", "stage", stage, "error", err)
	return models.ExtractionReport{
		Status: models.ReportStatus{
			Success: false,
			Message: fmt.Sprintf("Error %s: %v", stage, err),
			Stage:   stage,
		},
	}
}
