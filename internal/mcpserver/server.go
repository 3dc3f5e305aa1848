// Package mcpserver assembles the MCP server: the time_now tool, the
// timezone resource, and the current_time prompt, all registered against
// a mark3labs/mcp-go server instance that owns protocol handling,
// routing, and schema validation.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/yourorg/mcptime/internal/repository"
	"github.com/yourorg/mcptime/pkg/localtime"
	"github.com/yourorg/mcptime/pkg/metrics"
	"github.com/yourorg/mcptime/pkg/model"
	"github.com/yourorg/mcptime/pkg/version"
)

// TimeNowToolName is the registry name of the time tool.
// It must stay stable: clients look tools up by name
const TimeNowToolName = "time_now"

// timeNowDescription is shown to clients enumerating tools
const timeNowDescription = "Get the current time in Moscow (UTC+3), formatted per the Russian locale as day.month.year hour:minute:second. Takes no arguments."

// TimezoneResourceURI identifies the static resource documenting the
// fixed timezone/locale contract
const TimezoneResourceURI = "mcptime://timezone"

// newTimeNowTool declares the time_now tool with the empty object input
// schema: no parameter options means no properties and no required list,
// so the hosting framework rejects unexpected arguments before the
// handler runs
func newTimeNowTool() mcp.Tool {
	return mcp.NewTool(TimeNowToolName,
		mcp.WithDescription(timeNowDescription),
	)
}

// NewServer creates and configures a new MCP server with the time_now tool
func NewServer(log *slog.Logger, clock *localtime.Clock) *server.MCPServer {
	return newServer(log, clock, nil, nil)
}

// NewServerWithMetrics creates a new MCP server with metrics tracking and,
// when auditRepo is non-nil, an invocation audit trail
func NewServerWithMetrics(log *slog.Logger, m *metrics.Metrics, clock *localtime.Clock, auditRepo repository.InvocationRepository) *server.MCPServer {
	return newServer(log, clock, m, auditRepo)
}

func newServer(log *slog.Logger, clock *localtime.Clock, m *metrics.Metrics, auditRepo repository.InvocationRepository) *server.MCPServer {
	// Create server with capabilities and options
	mcpServer := server.NewMCPServer(
		version.ServiceName,
		version.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	// Register the time_now tool
	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleTimeNow(ctx, request, log, clock)
	}
	if auditRepo != nil {
		handler = wrapWithAudit(TimeNowToolName, auditRepo, log, handler)
	}
	if m != nil {
		handler = wrapWithMetrics(TimeNowToolName, m, handler)
	}
	mcpServer.AddTool(newTimeNowTool(), handler)

	// Register the timezone contract resource
	mcpServer.AddResource(mcp.NewResource(TimezoneResourceURI, "timezone",
		mcp.WithResourceDescription("The fixed timezone and locale contract of the time_now tool"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleTimezoneResource(ctx, request)
	})

	// Register the current_time prompt
	mcpServer.AddPrompt(mcp.NewPrompt("current_time",
		mcp.WithPromptDescription("Ask for the current Moscow time via the time_now tool"),
	), handleCurrentTimePrompt)

	log.Info("MCP server initialized",
		"name", version.ServiceName,
		"version", version.Version,
		"tools", []string{TimeNowToolName},
		"resources", []string{TimezoneResourceURI},
		"prompts", []string{"current_time"},
	)

	return mcpServer
}

// wrapWithMetrics wraps a tool handler with metrics tracking
func wrapWithMetrics(toolName string, m *metrics.Metrics, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		// Track in-flight tool calls
		m.MCPToolCallsInFlight.Inc()
		defer m.MCPToolCallsInFlight.Dec()

		// Execute the tool handler
		result, err := handler(ctx, request)

		// Record metrics
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}

		m.MCPToolCallsTotal.WithLabelValues(toolName, status).Inc()
		m.MCPToolCallDuration.WithLabelValues(toolName).Observe(duration)

		return result, err
	}
}

// wrapWithAudit records every successful tool call in the audit repository.
// Audit failures are logged but never fail the call itself
func wrapWithAudit(toolName string, repo repository.InvocationRepository, log *slog.Logger, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := handler(ctx, request)
		if err != nil || result == nil || result.IsError {
			return result, err
		}

		if recordErr := repo.Record(ctx, model.NewInvocation(toolName, firstText(result))); recordErr != nil {
			log.Error("failed to record invocation",
				"tool", toolName,
				"error", recordErr,
			)
		}

		return result, err
	}
}

// firstText extracts the text of the first text content block, if any
func firstText(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// handleTimezoneResource serves the static timezone contract document
func handleTimezoneResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc, err := json.Marshal(map[string]string{
		"timezone":   localtime.ZoneName,
		"utc_offset": "+03:00",
		"locale":     "ru-RU",
		"layout":     localtime.Layout,
		"example":    localtime.Prefix + "15.01.2024 13:30:00",
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(doc),
		},
	}, nil
}

// handleCurrentTimePrompt returns a user message steering the model
// toward the time_now tool
func handleCurrentTimePrompt(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return mcp.NewGetPromptResult(
		"Ask for the current Moscow time",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleUser,
				mcp.NewTextContent("What is the current time? Call the time_now tool and repeat its answer verbatim."),
			),
		},
	), nil
}
