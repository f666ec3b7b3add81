package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for esgmon resources.
	uriScheme = "esg://"

	mimeJSON     = "application/json"
	mimeMarkdown = "text/markdown"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "framework",
		Name:        "framework",
		Description: "Analysis framework: relevance bands, theme taxonomy, importance bands, geographies",
		MIMEType:    mimeJSON,
	}, s.handleFrameworkResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "Source registry: search categories, queries and direct publisher pages",
		MIMEType:    mimeJSON,
	}, s.handleSourcesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "digests/{week}",
		Name:        "digest",
		Description: "Stored digest for a week ending YYYY-MM-DD",
		MIMEType:    mimeMarkdown,
	}, s.handleDigestResource)
}

// handleFrameworkResource returns the analysis framework.
func (s *Server) handleFrameworkResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Digests.Framework())
}

// sourcesView is the serialised registry.
type sourcesView struct {
	Categories    []domain.SourceCategory `json:"categories"`
	DirectSources []domain.DirectSource   `json:"direct_sources"`
	QueryCount    int                     `json:"query_count"`
}

// handleSourcesResource returns the source registry.
func (s *Server) handleSourcesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	reg := s.ports.Digests.Registry()
	return jsonResource(req.Params.URI, sourcesView{
		Categories:    reg.Categories(),
		DirectSources: nonNil(reg.DirectSources()),
		QueryCount:    reg.QueryCount(),
	})
}

// handleDigestResource returns a stored digest, as Markdown when a renderer is wired.
func (s *Server) handleDigestResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	weekStr := extractWeek(req.Params.URI)
	if weekStr == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	week, err := domain.ParseDay(weekStr)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	digest, err := s.ports.Digests.Get(ctx, week)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting digest: %w", err)
	}

	if s.ports.Renderer == nil {
		return jsonResource(req.Params.URI, digest)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: mimeMarkdown,
			Text:     s.ports.Renderer.Markdown(digest),
		}},
	}, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}

// extractWeek extracts the week from a URI like esg://digests/{week}.
func extractWeek(uri string) string {
	const prefix = uriScheme + "digests/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	week := strings.TrimPrefix(uri, prefix)
	if strings.Contains(week, "/") {
		return ""
	}
	return week
}
