package models

import "strings"

// NodeCandidate is a node proposed by the extraction model, not yet stored.
type NodeCandidate struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Name returns the trimmed name property and whether it is usable.
// Names that are not strings are rejected.
func (c NodeCandidate) Name() (string, bool) {
	s, ok := c.Properties[NameProperty].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// RelationshipCandidate is a relationship proposed by the extraction model.
// SourceNode and TargetNode are node names from the same batch, or store ids.
type RelationshipCandidate struct {
	SourceNode string         `json:"source_node"`
	TargetNode string         `json:"target_node"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}
