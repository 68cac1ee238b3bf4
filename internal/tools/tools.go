// Package tools exposes the provider clients and the technical-analysis
// package as MCP tools.
//
// Every tool is registered twice over the same handler: once on the MCP
// server for protocol clients, and once in an internal registry the HTTP
// bridge dispatches through. Handlers return structured errors from
// pkg/errors; failures become error-flagged tool results rather than
// protocol errors, so a client always sees the code and message.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/finbridge/investor-agent/pkg/errors"
	"github.com/finbridge/investor-agent/pkg/providers/alpaca"
	"github.com/finbridge/investor-agent/pkg/providers/feeds"
	"github.com/finbridge/investor-agent/pkg/providers/questrade"
	"github.com/finbridge/investor-agent/pkg/providers/yahoo"
)

// maxConcurrentFetches bounds upstream parallelism in multi-ticker tools.
const maxConcurrentFetches = 4

// Deps are the wired provider clients. Yahoo and Feeds are credential-free
// and default to fresh clients when nil. Alpaca and Questrade need
// credentials, so they are supplied as constructors and built lazily on
// first use: the server starts and lists every tool even when no brokerage
// credential is configured, and the affected tools surface a configuration
// error at call time instead.
type Deps struct {
	Yahoo        *yahoo.Client
	Feeds        *feeds.Client
	NewAlpaca    func() (*alpaca.Client, error)
	NewQuestrade func() (*questrade.Client, error)
	Logger       *log.Logger
}

// Server holds the tool registry and the clients the handlers close over.
type Server struct {
	yahoo     *yahoo.Client
	feeds     *feeds.Client
	alpaca    func() (*alpaca.Client, error)
	questrade func() (*questrade.Client, error)
	logger    *log.Logger

	defs []toolDef
}

type toolDef struct {
	name        string
	description string
	register    func(m *mcp.Server)
	call        func(ctx context.Context, args json.RawMessage) (any, error)
}

// New builds the full tool registry from the given dependencies.
func New(deps Deps) *Server {
	s := &Server{
		yahoo:  deps.Yahoo,
		feeds:  deps.Feeds,
		logger: deps.Logger,
	}
	if s.yahoo == nil {
		s.yahoo = yahoo.NewClient(yahoo.Config{Logger: deps.Logger})
	}
	if s.feeds == nil {
		s.feeds = feeds.NewClient(feeds.Config{Logger: deps.Logger})
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	newAlpaca := deps.NewAlpaca
	if newAlpaca == nil {
		newAlpaca = func() (*alpaca.Client, error) {
			return alpaca.NewClient(alpaca.Config{Logger: deps.Logger})
		}
	}
	newQuestrade := deps.NewQuestrade
	if newQuestrade == nil {
		newQuestrade = func() (*questrade.Client, error) {
			return questrade.NewClient(questrade.Config{Logger: deps.Logger})
		}
	}
	s.alpaca = sync.OnceValues(newAlpaca)
	s.questrade = sync.OnceValues(newQuestrade)

	s.registerMarket()
	s.registerTechnical()
	s.registerFundamental()
	s.registerBrokerage()
	return s
}

// Register adds every tool to the MCP server.
func (s *Server) Register(m *mcp.Server) {
	for _, d := range s.defs {
		d.register(m)
	}
}

// Info describes one registered tool.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Tools lists the registered tools sorted by name.
func (s *Server) Tools() []Info {
	out := make([]Info, 0, len(s.defs))
	for _, d := range s.defs {
		out = append(out, Info{Name: d.name, Description: d.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the registered tool with the given name.
func (s *Server) Lookup(name string) (Info, bool) {
	for _, d := range s.defs {
		if d.name == name {
			return Info{Name: d.name, Description: d.description}, true
		}
	}
	return Info{}, false
}

// Call dispatches a tool by name with raw JSON arguments. The HTTP bridge
// uses this path; MCP clients go through the mcp.Server registration.
func (s *Server) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	for _, d := range s.defs {
		if d.name == name {
			return d.call(ctx, args)
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown tool %q", name)
}

// addTool registers one handler under both dispatch paths. The MCP wrapper
// converts handler errors into error-flagged results carrying the structured
// code, keeping the transport-level protocol clean.
func addTool[In, Out any](s *Server, name, description string, h func(ctx context.Context, in In) (Out, error)) {
	s.defs = append(s.defs, toolDef{
		name:        name,
		description: description,
		register: func(m *mcp.Server) {
			mcp.AddTool(m, &mcp.Tool{Name: name, Description: description},
				func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
					out, err := h(ctx, in)
					if err != nil {
						s.logger.Warn("tool call failed", "tool", name, "code", errors.GetCode(err), "err", err)
						var zero Out
						return &mcp.CallToolResult{
							IsError: true,
							Content: []mcp.Content{&mcp.TextContent{Text: toolErrorText(err)}},
						}, zero, nil
					}
					return nil, out, nil
				})
		},
		call: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in In
			if len(args) > 0 {
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid arguments for %s", name)
				}
			}
			return h(ctx, in)
		},
	})
}

// toolErrorText renders an error for a tool result: the code makes the
// failure class machine-checkable, the message stays human-readable.
func toolErrorText(err error) string {
	if code := errors.GetCode(err); code != "" {
		return fmt.Sprintf("%s: %s", code, errors.UserMessage(err))
	}
	return err.Error()
}
