package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/textgraph/internal/models"
)

type persistedNodes struct {
	// ids maps node names to store ids.
	ids     map[string]string
	types   []string
	skipped int
}

// persistNodes clears the store and creates every candidate with a usable,
// unique name. Other candidates are skipped. Any store error aborts.
func (e *Extractor) persistNodes(ctx context.Context, log *slog.Logger, candidates []models.NodeCandidate) (persistedNodes, error) {
	cleared, err := e.store.ClearAll(ctx)
	if err != nil {
		return persistedNodes{}, fmt.Errorf("%w: clear graph: %w", ErrPersistence, err)
	}
	log.Debug("graph cleared", "had_nodes", cleared)

	out := persistedNodes{ids: make(map[string]string, len(candidates))}
	for i, c := range candidates {
		if err := validateNode(c, out.ids); err != nil {
			log.Debug("skipping node candidate", "index", i, "error", err)
			out.skipped++
			continue
		}
		name, _ := c.Name()

		node, err := e.store.CreateNode(ctx, c.Type, c.Properties)
		if err != nil {
			return persistedNodes{}, fmt.Errorf("%w: create node %q: %w", ErrPersistence, name, err)
		}
		out.ids[name] = node.ID
		out.types = append(out.types, c.Type)
	}

	if out.skipped > 0 {
		log.Warn("skipped invalid node candidates", "skipped", out.skipped, "created", len(out.ids))
	}
	return out, nil
}

func validateNode(c models.NodeCandidate, seen map[string]string) error {
	name, ok := c.Name()
	if !ok {
		return fmt.Errorf("%w: node has no name", ErrValidation)
	}
	if _, dup := seen[name]; dup {
		return fmt.Errorf("%w: duplicate node name %q", ErrValidation, name)
	}
	return nil
}

// persistRelationships creates each candidate independently. Endpoints are
// resolved through ids when they name a node of this run and used verbatim
// otherwise. A failed relationship is recorded and does not stop the rest.
func (e *Extractor) persistRelationships(
	ctx context.Context,
	log *slog.Logger,
	ids map[string]string,
	candidates []models.RelationshipCandidate,
) ([]string, []models.RelationshipFailure) {
	var (
		types    []string
		failures []models.RelationshipFailure
	)
	resolve := func(ref string) string {
		if id, ok := ids[strings.TrimSpace(ref)]; ok {
			return id
		}
		return ref
	}

	for _, c := range candidates {
		types = append(types, c.Type)

		_, err := e.store.CreateRelationship(ctx, resolve(c.SourceNode), resolve(c.TargetNode), c.Type, c.Properties)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrPersistence, err)
			log.Warn("failed to create relationship",
				"source", c.SourceNode,
				"target", c.TargetNode,
				"type", c.Type,
				"error", err)
			failures = append(failures, models.RelationshipFailure{
				Source: c.SourceNode,
				Target: c.TargetNode,
				Type:   c.Type,
				Error:  err.Error(),
			})
		}
	}
	return types, failures
}
