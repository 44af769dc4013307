package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"datecalc/internal/calc"
	appLog "datecalc/internal/log"
	"datecalc/internal/notes"
)

// Info is reported to clients in the initialize result.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Server dispatches MCP requests to the date engine and the note store. It
// is transport independent; the stdio and HTTP transports both feed it raw
// messages.
type Server struct {
	engine  *calc.Engine
	notes   notes.Store
	info    Info
	timeout time.Duration

	tools    []toolDef
	toolByID map[string]toolDef

	mu        sync.Mutex
	listeners map[int]func(Notification)
	nextID    int
}

type ServerOption func(*Server)

// WithRequestTimeout bounds each request's context. Zero disables it.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.timeout = d }
}

func NewServer(engine *calc.Engine, store notes.Store, info Info, opts ...ServerOption) *Server {
	s := &Server{
		engine:    engine,
		notes:     store,
		info:      info,
		listeners: make(map[int]func(Notification)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tools = s.buildTools()
	s.toolByID = make(map[string]toolDef, len(s.tools))
	for _, t := range s.tools {
		s.toolByID[t.Name] = t
	}
	return s
}

func (s *Server) Info() Info           { return s.info }
func (s *Server) Engine() *calc.Engine { return s.engine }
func (s *Server) Notes() notes.Store   { return s.notes }

// Subscribe registers fn for server-initiated notifications. The returned
// func removes it.
func (s *Server) Subscribe(fn func(Notification)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Server) broadcast(method string) {
	s.mu.Lock()
	fns := make([]func(Notification), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	n := Notification{JSONRPC: JSONRPCVersion, Method: method}
	for _, fn := range fns {
		fn(n)
	}
}

// HandleMessage decodes one raw JSON-RPC message and dispatches it. It
// returns nil for notifications.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) *Response {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		return errorResponse(nil, CodeInvalidRequest, "batch requests are not supported")
	}
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		appLog.Debug("mcp parse error", "err", err.Error())
		return errorResponse(nil, CodeParseError, "parse error: "+err.Error())
	}
	return s.Handle(ctx, &req)
}

// Handle dispatches a decoded request.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != JSONRPCVersion || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.ID, CodeInvalidRequest, "invalid request: jsonrpc must be \"2.0\" and method is required")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, rpcErr := s.dispatch(ctx, req)
	appLog.Debug("mcp request", "method", req.Method, "duration_ms", time.Since(start).Milliseconds(), "ok", rpcErr == nil)

	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return &Response{JSONRPC: JSONRPCVersion, ID: req.ID, Error: rpcErr}
	}
	return &Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, *Error) {
	switch req.Method {
	case MethodInitialize:
		return s.initialize(), nil
	case MethodInitialized, MethodCancelled:
		return nil, nil
	case MethodPing:
		return struct{}{}, nil
	case MethodToolsList:
		return s.listTools(), nil
	case MethodToolsCall:
		var p struct {
			Name      string                     `json:"name"`
			Arguments map[string]json.RawMessage `json:"arguments"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.CallTool(ctx, p.Name, p.Arguments)
	case MethodResourcesList:
		return s.listResources(ctx)
	case MethodResourcesRead:
		var p struct {
			URI string `json:"uri"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.readResource(ctx, p.URI)
	case MethodPromptsList:
		return map[string]any{"prompts": promptList}, nil
	case MethodPromptsGet:
		var p struct {
			Name      string            `json:"name"`
			Arguments map[string]string `json:"arguments"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.getPrompt(ctx, p.Name, p.Arguments)
	}
	return nil, &Error{Code: CodeMethodNotFound, Message: "method not found: " + req.Method}
}

func decodeParams(raw json.RawMessage, v any) *Error {
	if len(raw) == 0 || string(raw) == "null" {
		return &Error{Code: CodeInvalidParams, Message: "params are required"}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &Error{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	return nil
}

func (s *Server) initialize() map[string]any {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{"listChanged": false},
			"resources": map[string]any{"subscribe": false, "listChanged": true},
			"prompts":   map[string]any{"listChanged": false},
		},
		"serverInfo": s.info,
	}
}
