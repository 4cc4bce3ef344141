package mcp

import (
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driven"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driving"
)

// Ports aggregates the interfaces the MCP server needs. This provides a
// single injection point for dependency injection.
type Ports struct {
	// Retrieval ranks stored segments against a query. Required.
	Retrieval driving.RetrievalService

	// Answer generates cited answers. Optional; without it the ask tool
	// is not registered.
	Answer driving.AnswerFlow

	// Ingest reports the registry summary. Optional.
	Ingest driving.IngestService

	// FullText serves complete document texts. Optional.
	FullText driven.FullTextStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
