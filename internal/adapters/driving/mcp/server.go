package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the MCP server version.
const Version = "0.1.0"

// shutdownGrace bounds how long in-flight HTTP requests may drain after
// the context is cancelled.
const shutdownGrace = 5 * time.Second

// instructions tells connecting clients what the corpus holds and how to
// query it. The ask tool is mentioned conditionally because it is only
// registered when an answer backend is configured.
const (
	searchOnlyInstructions = `BizBrain serves a local corpus of ingested business documents
(contracts, policies, reports) split into overlapping segments. Use the
"search" tool for hybrid semantic plus keyword retrieval; lower scores
are better matches, and keyword_only marks hits found by text match
alone. The bizbrain://registry resource summarises ingested batches and
documents, and bizbrain://documents/{documentId} returns a document's
full extracted text.`

	askInstructions = searchOnlyInstructions + `
The "ask" tool answers a question in prose, cited against the retrieved
segments; it declines rather than guessing when the corpus has no
relevant material.`
)

// Server exposes retrieval and question answering over MCP.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "bizbrain",
		Version: Version,
	}
	opts := &mcp.ServerOptions{Instructions: searchOnlyInstructions}
	if ports.Answer != nil {
		opts.Instructions = askInstructions
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, opts),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the given address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		drain, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		httpServer.Shutdown(drain) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
