package mcpserver

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/yourorg/mcptime/pkg/localtime"
)

// handleTimeNow handles the time_now tool.
//
// The tool takes no arguments, so the request is never inspected: any
// non-empty argument object is the hosting framework's problem, rejected
// against the empty schema before this runs. The only side effect is
// reading the system clock
func handleTimeNow(_ context.Context, _ mcp.CallToolRequest, log *slog.Logger, clock *localtime.Clock) (*mcp.CallToolResult, error) {
	sentence := clock.Sentence(clock.Now())

	log.Info("time_now executed", "result", sentence)

	return mcp.NewToolResultText(sentence), nil
}
