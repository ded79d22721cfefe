package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/textgraph/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// CreateNode stores a node and returns it with its store-assigned id.
func (c *Client) CreateNode(ctx context.Context, label string, properties map[string]any) (models.GraphNode, error) {
	defer c.track(time.Now())

	if properties == nil {
		properties = map[string]any{}
	}

	sql := `CREATE node SET label = $label, properties = $properties RETURN AFTER`
	results, err := surrealdb.Query[[]models.Node](ctx, c.db, sql, map[string]any{
		"label":      label,
		"properties": properties,
	})
	if err != nil {
		return models.GraphNode{}, fmt.Errorf("create node: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return models.GraphNode{}, fmt.Errorf("create node: no result returned")
	}

	return (*results)[0].Result[0].ToGraphNode()
}

// CreateRelationship relates two existing nodes by their store ids.
// Returns ErrNodeNotFound if either endpoint does not exist.
func (c *Client) CreateRelationship(
	ctx context.Context,
	sourceID string,
	targetID string,
	relType string,
	properties map[string]any,
) (models.GraphRelationship, error) {
	defer c.track(time.Now())

	if properties == nil {
		properties = map[string]any{}
	}

	sql := `
		LET $from = type::record("node", $from_id);
		LET $to = type::record("node", $to_id);

		IF !record::exists($from) OR !record::exists($to) {
			THROW "node not found"
		};

		RELATE $from->edge->$to SET
			rel_type = $rel_type,
			properties = $properties
		RETURN AFTER;
	`

	results, err := surrealdb.Query[[]models.Edge](ctx, c.db, sql, map[string]any{
		"from_id":    sourceID,
		"to_id":      targetID,
		"rel_type":   relType,
		"properties": properties,
	})
	if err != nil {
		return models.GraphRelationship{}, fmt.Errorf("create relationship %s->%s: %w", sourceID, targetID, wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return models.GraphRelationship{}, fmt.Errorf("create relationship: no result returned")
	}

	last := (*results)[len(*results)-1].Result
	if len(last) == 0 {
		return models.GraphRelationship{}, fmt.Errorf("create relationship: no result returned")
	}
	return last[0].ToGraphRelationship()
}

// FullSnapshot returns every node and relationship in creation order.
func (c *Client) FullSnapshot(ctx context.Context) (models.GraphSnapshot, error) {
	defer c.track(time.Now())

	nodeResults, err := surrealdb.Query[[]models.Node](ctx, c.db, `SELECT * FROM node ORDER BY created ASC`, nil)
	if err != nil {
		return models.GraphSnapshot{}, fmt.Errorf("select nodes: %w", err)
	}
	edgeResults, err := surrealdb.Query[[]models.Edge](ctx, c.db, `SELECT * FROM edge ORDER BY created ASC`, nil)
	if err != nil {
		return models.GraphSnapshot{}, fmt.Errorf("select edges: %w", err)
	}

	snap := models.GraphSnapshot{
		Nodes:         []models.GraphNode{},
		Relationships: []models.GraphRelationship{},
	}
	if nodeResults != nil && len(*nodeResults) > 0 {
		for _, n := range (*nodeResults)[0].Result {
			gn, err := n.ToGraphNode()
			if err != nil {
				return models.GraphSnapshot{}, err
			}
			snap.Nodes = append(snap.Nodes, gn)
		}
	}
	if edgeResults != nil && len(*edgeResults) > 0 {
		for _, e := range (*edgeResults)[0].Result {
			gr, err := e.ToGraphRelationship()
			if err != nil {
				return models.GraphSnapshot{}, err
			}
			snap.Relationships = append(snap.Relationships, gr)
		}
	}
	return snap, nil
}

// ClearAll deletes every relationship and node. It reports whether any
// node was deleted.
func (c *Client) ClearAll(ctx context.Context) (bool, error) {
	defer c.track(time.Now())
	c.logger.Warn("clearing graph")

	if _, err := surrealdb.Query[any](ctx, c.db, `DELETE edge`, nil); err != nil {
		return false, fmt.Errorf("delete edges: %w", err)
	}

	results, err := surrealdb.Query[[]models.Node](ctx, c.db, `DELETE node RETURN BEFORE`, nil)
	if err != nil {
		return false, fmt.Errorf("delete nodes: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return false, nil
	}
	return len((*results)[0].Result) > 0, nil
}
