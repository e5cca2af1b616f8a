package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/video-transcribe-mcp/logger"
	"github.com/kbukum/video-transcribe-mcp/tools"
)

// maxLineSize bounds one JSON-RPC message.
const maxLineSize = 4 << 20

// Server answers MCP requests one at a time, so jobs never overlap.
type Server struct {
	name       string
	version    string
	dispatcher *tools.Dispatcher
	log        *logger.Logger

	mu  sync.Mutex
	out *json.Encoder
}

// NewServer creates a server that reports name and version in the
// initialize handshake.
func NewServer(name, version string, dispatcher *tools.Dispatcher) *Server {
	return &Server{
		name:       name,
		version:    version,
		dispatcher: dispatcher,
		log:        logger.Get("mcp"),
	}
}

// Serve reads requests from in and writes responses to out until in is
// exhausted or ctx is cancelled. A clean EOF returns nil.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	s.mu.Lock()
	s.out = enc
	s.mu.Unlock()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64*1024), maxLineSize)
		for sc.Scan() {
			line := bytes.Clone(sc.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	s.log.Info("mcp server listening on stdio", logger.Fields("server", s.name, "version", s.version))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			s.log.Info("stdin closed, shutting down")
			return nil
		case line := <-lines:
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			if resp := s.handleLine(ctx, line); resp != nil {
				if err := s.write(resp); err != nil {
					return err
				}
			}
		}
	}
}

func (s *Server) write(resp *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.out.Encode(resp); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// handleLine decodes one message and returns the response to send, or nil
// for notifications.
func (s *Server) handleLine(ctx context.Context, line []byte) *Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.Warn("unparseable message", logger.Fields(logger.FieldError, err.Error()))
		return errorResponse(json.RawMessage("null"), &RPCError{Code: CodeParseError, Message: "Parse error"})
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.ID, &RPCError{Code: CodeInvalidRequest, Message: "Invalid Request"})
	}

	ctx = logger.ContextWithRequestID(ctx, uuid.NewString())
	result, rpcErr := s.Handle(ctx, &req)
	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr)
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

// Handle dispatches one request by method.
func (s *Server) Handle(ctx context.Context, req *Request) (any, *RPCError) {
	log := s.log.WithContext(ctx)
	switch req.Method {
	case MethodInitialize:
		var p initializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
			}
		}
		log.Info("client connected", logger.Fields(
			"client", p.ClientInfo.Name,
			"client_version", p.ClientInfo.Version,
			"protocol", p.ProtocolVersion,
		))
		version := p.ProtocolVersion
		if version == "" {
			version = ProtocolVersion
		}
		return initializeResult{
			ProtocolVersion: version,
			Capabilities:    capabilities{Tools: toolsCapability{}},
			ServerInfo:      serverInfo{Name: s.name, Version: s.version},
		}, nil

	case MethodInitialized:
		return nil, nil

	case MethodPing:
		return struct{}{}, nil

	case MethodToolsList:
		return map[string]any{"tools": tools.Definitions()}, nil

	case MethodToolsCall:
		var p callParams
		if err := json.Unmarshal(req.Params, &p); err != nil || p.Name == "" {
			msg := "tools/call requires a tool name"
			if err != nil {
				msg = err.Error()
			}
			return nil, &RPCError{Code: CodeInvalidParams, Message: msg}
		}
		res := s.dispatcher.Call(ctx, p.Name, p.Arguments)
		text, err := tools.Render(res)
		if err != nil {
			return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
		}
		return CallResult{Content: []Content{{Type: "text", Text: text}}}, nil

	default:
		if req.IsNotification() {
			log.Debug("ignoring notification", logger.Fields("method", req.Method))
			return nil, nil
		}
		return nil, &RPCError{Code: CodeMethodNotFound, Message: "Method not found: " + req.Method}
	}
}

func errorResponse(id json.RawMessage, err *RPCError) *Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return &Response{JSONRPC: "2.0", ID: id, Error: err}
}
