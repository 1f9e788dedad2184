package mcp

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/pipeline"
	"github.com/maialino123/ecomate-extract/internal/reqctx"
	"github.com/maialino123/ecomate-extract/internal/utils/output"
	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

func (s *Server) registerTools() {
	// extract_product
	extractTool := mcp.NewTool("extract_product",
		mcp.WithDescription("Capture a 1688.com offer page and return the validated product record as JSON"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Offer page URL, e.g. https://detail.1688.com/offer/610947572360.html"),
		),
		mcp.WithString("mode",
			mcp.Description("Capture engine: auto, static or browser (default: auto)"),
			mcp.Enum(string(models.ModeAuto), string(models.ModeStatic), string(models.ModeBrowser)),
		),
	)
	s.mcp.AddTool(extractTool, s.handleExtractProduct)

	// extract_product_html
	htmlTool := mcp.NewTool("extract_product_html",
		mcp.WithDescription("Extract the product record from offer page HTML the client already has"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL the HTML was loaded from"),
		),
		mcp.WithString("html",
			mcp.Required(),
			mcp.Description("Full page HTML"),
		),
	)
	s.mcp.AddTool(htmlTool, s.handleExtractProductHTML)
}

func (s *Server) handleExtractProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := request.GetString("url", "")
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	mode := models.FetchMode(request.GetString("mode", string(models.ModeAuto)))

	p, err := s.pipelines(mode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := p.Run(ctx, models.FetchOptions{URL: url, Mode: mode})
	if err != nil {
		return mcp.NewToolResultError(engine.UserMessage(err)), nil
	}
	return productResult(res.Product)
}

func (s *Server) handleExtractProductHTML(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := request.GetString("url", "")
	html := request.GetString("html", "")
	if url == "" || html == "" {
		return mcp.NewToolResultError("url and html are required"), nil
	}
	if !urlutil.IsMarketplaceURL(url) {
		return mcp.NewToolResultError(pipeline.InvalidPageMessage), nil
	}

	p, err := s.pipelines(models.ModeStatic)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap := &models.PageSnapshot{
		URL:        url,
		StatusCode: 200,
		HTML:       html,
		Engine:     "mcp",
		FetchedAt:  time.Now(),
	}
	res, err := p.RunSnapshot(reqctx.WithRequestContext(ctx, url), snap)
	if err != nil {
		return mcp.NewToolResultError(engine.UserMessage(err)), nil
	}
	return productResult(res.Product)
}

func productResult(p *models.Product1688) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := output.WriteJSON(&buf, p); err != nil {
		return nil, fmt.Errorf("encode product: %w", err)
	}
	return mcp.NewToolResultText(buf.String()), nil
}
