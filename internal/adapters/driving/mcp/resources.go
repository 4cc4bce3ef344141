package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for bizbrain resources.
const uriScheme = "bizbrain://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the registry summary.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "registry",
		Name:        "registry",
		Description: "Summary of ingested documents and batches",
		MIMEType:    "application/json",
	}, s.handleRegistryResource)

	// Template for full document text.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-text",
		Description: "Full extracted text of an ingested document",
		MIMEType:    "text/plain",
	}, s.handleDocumentTextResource)
}

// handleRegistryResource returns the registry summary as JSON.
func (s *Server) handleRegistryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingest == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "{}",
			}},
		}, nil
	}

	reg, err := s.ports.Ingest.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}

	type documentInfo struct {
		DocumentID string `json:"document_id"`
		Filename   string `json:"filename"`
		Status     string `json:"status"`
		Segments   int    `json:"segments"`
		BatchID    string `json:"batch_id,omitempty"`
	}
	summary := struct {
		TotalDocuments int            `json:"total_documents"`
		TotalSegments  int            `json:"total_segments"`
		TotalBatches   int            `json:"total_batches"`
		Documents      []documentInfo `json:"documents"`
	}{
		TotalDocuments: reg.TotalDocuments,
		TotalSegments:  reg.TotalChunks,
		TotalBatches:   reg.TotalBatches,
	}

	names := make([]string, 0, len(reg.Documents))
	for name := range reg.Documents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rec := reg.Documents[name]
		summary.Documents = append(summary.Documents, documentInfo{
			DocumentID: rec.DocumentID,
			Filename:   name,
			Status:     rec.Status,
			Segments:   rec.ChunkCount,
			BatchID:    rec.BatchID,
		})
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling summary: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDocumentTextResource returns the full text of one document.
func (s *Server) handleDocumentTextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.FullText == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	documentID := strings.TrimPrefix(req.Params.URI, uriScheme+"documents/")
	if documentID == "" || documentID == req.Params.URI {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	text, err := s.ports.FullText.Load(ctx, documentID)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}, nil
}
