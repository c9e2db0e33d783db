// internal/dataservice/mcp.go
package dataservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"telecom-query-gateway/internal/common/config"
	"telecom-query-gateway/internal/common/logger"
	"telecom-query-gateway/internal/common/metrics"
	"telecom-query-gateway/internal/models"
)

// Tool names exposed by the data service over the tool channel.
const (
	ToolQueryRun     = "telecom.query.run"
	ToolProductsList = "telecom.products.list"
)

// Timestamps on the wire use the warehouse format.
const wireTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// toolCaller is the slice of the MCP client this package uses.
type toolCaller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// MCPService reaches the data service through an MCP tool channel.
// Request/response correlation and transport framing belong to the MCP
// client; this type only shapes calls and decodes results.
type MCPService struct {
	caller  toolCaller
	timeout time.Duration
	logger  logger.Logger
}

// Connect dials the configured transport, initializes the MCP session and
// returns a ready service plus a close function.
func Connect(ctx context.Context, cfg config.DataServiceConfig, log logger.Logger) (*MCPService, func() error, error) {
	var (
		c   *client.Client
		err error
	)
	switch cfg.Transport {
	case "stdio":
		c, err = client.NewStdioMCPClient(cfg.Command, nil, cfg.Args...)
	default:
		c, err = client.NewStreamableHttpClient(cfg.BaseURL)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create mcp client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("start mcp client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "telecom-query-gateway", Version: "0.1.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("initialize mcp session: %w", err)
	}

	svc := NewMCPService(c, cfg.TimeoutDuration(), log)
	return svc, c.Close, nil
}

// NewMCPService wraps an initialized tool caller. Split out from Connect
// so tests can inject a fake caller.
func NewMCPService(caller toolCaller, timeout time.Duration, log logger.Logger) *MCPService {
	return &MCPService{
		caller:  caller,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "dataservice"}),
	}
}

func (s *MCPService) Query(ctx context.Context, q *models.StructuredQuery) ([]models.Row, error) {
	args := map[string]interface{}{
		"entity": q.Entity,
	}
	if len(q.Filters) > 0 {
		filters := make(map[string]interface{}, len(q.Filters))
		for k, v := range q.Filters {
			filters[k] = v
		}
		args["filters"] = filters
	}
	if q.Limit > 0 {
		args["limit"] = q.Limit
	}
	if q.Window != nil {
		args["from_time"] = q.Window.From.UTC().Format(wireTimeFormat)
		args["to_time"] = q.Window.To.UTC().Format(wireTimeFormat)
	}

	payload, err := s.call(ctx, ToolQueryRun, args)
	if err != nil {
		metrics.DataServiceCalls.WithLabelValues("error").Inc()
		return nil, err
	}

	var decoded struct {
		Rows []models.Row `json:"rows"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		metrics.DataServiceCalls.WithLabelValues("error").Inc()
		return nil, &DataError{Kind: ErrKindBackendUnavailable, Message: fmt.Sprintf("malformed rows payload: %v", err)}
	}
	metrics.DataServiceCalls.WithLabelValues("ok").Inc()

	s.logger.Debug("query completed", map[string]interface{}{
		"entity": q.Entity,
		"rows":   len(decoded.Rows),
	})
	return decoded.Rows, nil
}

func (s *MCPService) Discover(ctx context.Context) ([]string, error) {
	payload, err := s.call(ctx, ToolProductsList, map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	var decoded struct {
		Products []string `json:"products"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &DataError{Kind: ErrKindBackendUnavailable, Message: fmt.Sprintf("malformed products payload: %v", err)}
	}
	return decoded.Products, nil
}

// call invokes one tool under the per-call timeout and returns the raw
// JSON text payload, translating failures into DataError values.
func (s *MCPService) call(ctx context.Context, tool string, args map[string]interface{}) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	result, err := s.caller.CallTool(ctx, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &DataError{Kind: ErrKindTimeout, Message: fmt.Sprintf("tool %s exceeded %s", tool, s.timeout), Transient: true}
		}
		return nil, &DataError{Kind: ErrKindBackendUnavailable, Message: err.Error(), Transient: true}
	}

	text := firstText(result)
	if result.IsError {
		return nil, decodeError(text)
	}
	if text == "" {
		return nil, &DataError{Kind: ErrKindBackendUnavailable, Message: fmt.Sprintf("tool %s returned no text content", tool)}
	}
	return []byte(text), nil
}

func firstText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// decodeError maps a tool error payload onto DataError. Services that
// return plain text instead of the structured envelope are treated as
// unavailable backends.
func decodeError(text string) *DataError {
	var envelope struct {
		Error *DataError `json:"error"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err == nil && envelope.Error != nil && envelope.Error.Kind != "" {
		return envelope.Error
	}
	return &DataError{Kind: ErrKindBackendUnavailable, Message: text, Transient: true}
}
