package tui

import (
	"errors"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driving"
)

// Ports bundles the driving ports the TUI needs.
type Ports struct {
	// Retrieval ranks stored segments against a query. Required.
	Retrieval driving.RetrievalService

	// Answer generates cited answers. Optional: when nil the ask mode
	// is unavailable and tab does nothing.
	Answer driving.AnswerFlow

	// TopK is how many segments to retrieve per query. Zero means the
	// retrieval service default.
	TopK int
}

// Validate checks that the required ports are present.
func (p *Ports) Validate() error {
	if p == nil {
		return errors.New("ports are nil")
	}
	if p.Retrieval == nil {
		return errors.New("retrieval service is required")
	}
	return nil
}
