package service

import (
	"slices"

	"github.com/google/uuid"
	"github.com/raphaelgruber/textgraph/internal/models"
)

// Run describes what one pipeline run wrote, for report assembly.
type Run struct {
	// ID is generated when empty.
	ID                   string
	Description          string
	Message              string
	NodeTypes            []string
	RelationshipTypes    []string
	SkippedNodes         int
	RelationshipFailures []models.RelationshipFailure
}

// Assemble builds a successful report. Counts come from the snapshot; type
// lists come from the run and are returned sorted and distinct.
func Assemble(snap models.GraphSnapshot, run Run) models.ExtractionReport {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if snap.Nodes == nil {
		snap.Nodes = []models.GraphNode{}
	}
	if snap.Relationships == nil {
		snap.Relationships = []models.GraphRelationship{}
	}

	return models.ExtractionReport{
		Metadata: &models.ReportMetadata{
			Version:              models.ReportVersion,
			Description:          run.Description,
			RunID:                run.ID,
			NodeCount:            len(snap.Nodes),
			RelationshipCount:    len(snap.Relationships),
			NodeTypes:            distinct(run.NodeTypes),
			RelationshipTypes:    distinct(run.RelationshipTypes),
			SkippedNodes:         run.SkippedNodes,
			RelationshipFailures: run.RelationshipFailures,
		},
		GraphData: &snap,
		Status: models.ReportStatus{
			Success: true,
			Message: run.Message,
		},
	}
}

func distinct(values []string) []string {
	out := slices.Clone(values)
	if out == nil {
		return []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
