package models

// ReportVersion is the format version stamped on every report.
const ReportVersion = "1.0"

// ExtractionReport is the result of one extraction run. Failed runs carry
// only Status.
type ExtractionReport struct {
	Metadata  *ReportMetadata `json:"metadata,omitempty"`
	GraphData *GraphSnapshot  `json:"graph_data,omitempty"`
	Status    ReportStatus    `json:"status"`
}

// ReportMetadata summarises what a run produced.
type ReportMetadata struct {
	Version              string                `json:"version"`
	Description          string                `json:"description"`
	RunID                string                `json:"run_id"`
	NodeCount            int                   `json:"node_count"`
	RelationshipCount    int                   `json:"relationship_count"`
	NodeTypes            []string              `json:"node_types"`
	RelationshipTypes    []string              `json:"relationship_types"`
	SkippedNodes         int                   `json:"skipped_nodes"`
	RelationshipFailures []RelationshipFailure `json:"relationship_failures,omitempty"`
}

// ReportStatus is the terminal state of a run. Stage names the failed
// pipeline stage and is empty on success.
type ReportStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

// RelationshipFailure records one relationship that could not be stored.
type RelationshipFailure struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Error  string `json:"error"`
}
