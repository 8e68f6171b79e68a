package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/blob-tools-mcp/internal/colortable"
	"github.com/ironsheep/blob-tools-mcp/internal/config"
	"github.com/ironsheep/blob-tools-mcp/internal/imaging"
	"github.com/ironsheep/blob-tools-mcp/internal/pipeline"
)

// Version is reported in the initialize handshake. main overrides it from
// ldflags.
var Version = "dev"

// Server handles MCP protocol communication
type Server struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	cache    *imaging.ImageCache
	tables   *colortable.Holder
	pipeline *pipeline.Pipeline
	watcher  *colortable.Watcher

	// pending holds previewed table edits until they are committed.
	pendingMu sync.Mutex
	pending   *colortable.Table
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes used by the server.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// New creates a server from cfg.
//
// If cfg names a color table it is loaded up front. A missing file is not an
// error: the server starts with an empty table so one can be trained and saved
// to that path. With watch_table set, the file is reloaded whenever it
// changes on disk.
func New(cfg *config.Config, logger *zap.SugaredLogger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tables := colortable.NewHolder(nil)
	if path := cfg.GetColorTable(); path != "" {
		t, err := colortable.Load(path)
		switch {
		case err == nil:
			logger.Infow("loaded color table", "path", path)
		case errors.Is(err, fs.ErrNotExist):
			logger.Warnw("color table not found, starting empty", "path", path)
			t = colortable.New()
		default:
			return nil, err
		}
		tables.Store(t)
	}

	p, err := pipeline.New(cfg, tables)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		log:      logger,
		cache:    imaging.NewImageCache(),
		tables:   tables,
		pipeline: p,
	}

	if cfg.GetWatchTable() {
		s.watcher, err = colortable.Watch(cfg.GetColorTable(), tables,
			colortable.OnReload(func(*colortable.Table) {
				logger.Infow("reloaded color table", "path", cfg.GetColorTable())
			}),
			colortable.OnError(func(err error) {
				logger.Warnw("color table reload failed", "error", err)
			}),
		)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close releases the table watcher, if any.
func (s *Server) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Run reads newline-delimited JSON-RPC requests from r and writes responses
// to w until r is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		// Increase buffer size for large requests
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	encoder := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("scanner error: %w", err)
					}
				default:
				}
				return nil
			}
			if len(line) == 0 {
				continue
			}

			var resp *MCPResponse
			var req MCPRequest
			if err := json.Unmarshal(line, &req); err != nil {
				s.log.Warnw("failed to parse request", "error", err)
				resp = s.errorResponse(nil, codeParseError, "Parse error", err.Error())
			} else {
				resp = s.handleRequest(ctx, &req)
			}

			if resp != nil {
				if err := encoder.Encode(resp); err != nil {
					return fmt.Errorf("failed to encode response: %w", err)
				}
			}
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.Debugw("request", "method", req.Method, "id", req.ID)
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return s.errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "blob-tools-mcp",
				"version": Version,
			},
		},
	}
}

// handleToolsList returns the tool table.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
// An empty data string is omitted from the response.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}
