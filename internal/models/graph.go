// Package models defines the graph and report types shared by the store,
// the extraction pipeline and the CLI.
package models

import (
	"fmt"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// NameProperty is the node property used to reference nodes within one
// extraction batch.
const NameProperty = "name"

// Node is a node record as stored in SurrealDB.
type Node struct {
	ID         surrealmodels.RecordID `json:"id"`
	Label      string                 `json:"label"`
	Properties map[string]any         `json:"properties"`
	Created    time.Time              `json:"created,omitempty"`
}

// Edge is a typed, directed relationship record as stored in SurrealDB.
type Edge struct {
	ID         surrealmodels.RecordID `json:"id"`
	In         surrealmodels.RecordID `json:"in"`
	Out        surrealmodels.RecordID `json:"out"`
	RelType    string                 `json:"rel_type"`
	Properties map[string]any         `json:"properties"`
	Created    time.Time              `json:"created,omitempty"`
}

// GraphNode is the store-independent view of a node.
// ID is the opaque store-assigned identifier.
type GraphNode struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// Name returns the node's name property, if it is a non-empty string.
func (n GraphNode) Name() string {
	s, _ := n.Properties[NameProperty].(string)
	return s
}

// GraphRelationship is the store-independent view of a relationship.
// Source and Target are store-assigned node ids.
type GraphRelationship struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// GraphSnapshot holds the full contents of the store at one point in time.
type GraphSnapshot struct {
	Nodes         []GraphNode         `json:"nodes"`
	Relationships []GraphRelationship `json:"relationships"`
}

// ToGraphNode converts a stored node record.
func (n Node) ToGraphNode() (GraphNode, error) {
	id, err := RecordIDString(n.ID)
	if err != nil {
		return GraphNode{}, fmt.Errorf("node id: %w", err)
	}
	return GraphNode{ID: id, Label: n.Label, Properties: nonNilProps(n.Properties)}, nil
}

// ToGraphRelationship converts a stored edge record.
func (e Edge) ToGraphRelationship() (GraphRelationship, error) {
	id, err := RecordIDString(e.ID)
	if err != nil {
		return GraphRelationship{}, fmt.Errorf("edge id: %w", err)
	}
	src, err := RecordIDString(e.In)
	if err != nil {
		return GraphRelationship{}, fmt.Errorf("edge source: %w", err)
	}
	dst, err := RecordIDString(e.Out)
	if err != nil {
		return GraphRelationship{}, fmt.Errorf("edge target: %w", err)
	}
	return GraphRelationship{
		ID:         id,
		Source:     src,
		Target:     dst,
		Type:       e.RelType,
		Properties: nonNilProps(e.Properties),
	}, nil
}

func nonNilProps(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}
