// Package mcp provides an MCP (Model Context Protocol) server that exposes
// donewatch functionality as tools for AI assistants.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/donewatch/internal/core"
	"github.com/valter-silva-au/donewatch/internal/observability"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

// Server wraps donewatch services and exposes them as MCP tools.
type Server struct {
	server   *gomcp.Server
	config   core.ConfigProvider
	reader   core.ContentReader
	action   core.ActionRunner
	eventLog observability.EventLog
	tools    []string
}

// NewServer creates a new MCP server. eventLog may be nil if the event log
// could not be opened. A nil action leaves run_script unregistered, which
// makes the server read-only.
func NewServer(config core.ConfigProvider, reader core.ContentReader, action core.ActionRunner, eventLog observability.EventLog, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		config:   config,
		reader:   reader,
		action:   action,
		eventLog: eventLog,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "donewatch", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// Tools returns the names of the registered tools in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type extractInput struct {
	Path string `json:"path" jsonschema:"required,vault-relative path of the task board (e.g. boards/work.md)"`
}

type taskOutput struct {
	Title string `json:"title"`
}

type extractOutput struct {
	Path  string       `json:"path"`
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type listTargetsInput struct{}

type listTargetsOutput struct {
	Targets      []string `json:"targets"`
	Enabled      bool     `json:"enabled"`
	CalendarName string   `json:"calendar_name"`
}

type runScriptInput struct {
	Title string `json:"title,omitempty" jsonschema:"optional task title; when set the script receives it as input"`
}

type runScriptOutput struct {
	Output string `json:"output"`
}

type recentDispatchesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of dispatches to return, newest last. Defaults to 10."`
}

type dispatchOutput struct {
	ID    string `json:"id"`
	Time  string `json:"time"`
	Path  string `json:"path"`
	Title string `json:"title"`
}

type recentDispatchesOutput struct {
	Dispatches []dispatchOutput `json:"dispatches"`
	Count      int              `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	addTool(s, &gomcp.Tool{
		Name:        "extract_done_tasks",
		Description: "Read a task board and return the wiki-linked entries of its '## Done' section in document order.",
	}, s.handleExtract)

	addTool(s, &gomcp.Tool{
		Name:        "list_targets",
		Description: "List the task boards monitored for newly completed tasks.",
	}, s.handleListTargets)

	if s.action != nil {
		addTool(s, &gomcp.Tool{
			Name:        "run_script",
			Description: "Run the configured automation script, optionally passing a task title as input.",
		}, s.handleRunScript)
	}

	addTool(s, &gomcp.Tool{
		Name:        "recent_dispatches",
		Description: "Return the most recent completed tasks that triggered the automation script.",
	}, s.handleRecentDispatches)
}

func addTool[In, Out any](s *Server, tool *gomcp.Tool, handler gomcp.ToolHandlerFor[In, Out]) {
	gomcp.AddTool(s.server, tool, handler)
	s.tools = append(s.tools, tool.Name)
}

// --- Tool handlers ---

func (s *Server) handleExtract(ctx context.Context, _ *gomcp.CallToolRequest, input extractInput) (*gomcp.CallToolResult, extractOutput, error) {
	if input.Path == "" {
		return errorResult("path is required"), extractOutput{}, nil
	}

	text, err := s.reader.ReadFile(ctx, input.Path)
	if err != nil {
		return errorResult(fmt.Sprintf("reading %s: %s", input.Path, err)), extractOutput{}, nil
	}

	tasks := core.ExtractDoneTasks(text)
	out := extractOutput{
		Path:  input.Path,
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskOutput{Title: t.Title}
	}
	return nil, out, nil
}

func (s *Server) handleListTargets(_ context.Context, _ *gomcp.CallToolRequest, _ listTargetsInput) (*gomcp.CallToolResult, listTargetsOutput, error) {
	cfg := s.config.Current()
	return nil, listTargetsOutput{
		Targets:      cfg.TargetFiles,
		Enabled:      cfg.EnableDoneHeadingTrigger,
		CalendarName: cfg.CalendarName,
	}, nil
}

func (s *Server) handleRunScript(ctx context.Context, _ *gomcp.CallToolRequest, input runScriptInput) (*gomcp.CallToolResult, runScriptOutput, error) {
	var payload *models.DispatchPayload
	if input.Title != "" {
		p := models.NewDispatchPayload(models.TaskRecord{Title: input.Title})
		payload = &p
	}

	out, err := s.action.Run(ctx, payload)
	if err != nil {
		return errorResult(err.Error()), runScriptOutput{}, nil
	}
	return nil, runScriptOutput{Output: out}, nil
}

func (s *Server) handleRecentDispatches(_ context.Context, _ *gomcp.CallToolRequest, input recentDispatchesInput) (*gomcp.CallToolResult, recentDispatchesOutput, error) {
	if s.eventLog == nil {
		return errorResult("event log is not available"), recentDispatchesOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	events, err := s.eventLog.Read(observability.EventFilter{Type: observability.EventDispatched, Limit: limit})
	if err != nil {
		return errorResult(fmt.Sprintf("reading events: %s", err)), recentDispatchesOutput{}, nil
	}

	out := recentDispatchesOutput{
		Dispatches: make([]dispatchOutput, len(events)),
		Count:      len(events),
	}
	for i, e := range events {
		title, _ := e.Data["title"].(string)
		out.Dispatches[i] = dispatchOutput{
			ID:    e.ID,
			Time:  e.Time.Format("2006-01-02T15:04:05Z07:00"),
			Path:  e.Path,
			Title: title,
		}
	}
	return nil, out, nil
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
