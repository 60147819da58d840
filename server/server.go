package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/lexcodex/quill/parse"
	"github.com/lexcodex/quill/tools"
)

// Server exposes the tool registry and the response parser over JSON-RPC,
// so editors and sidecar processes can reuse them without linking Go code.
type Server struct {
	registry *tools.Registry
	parser   *parse.ResponseParser
	log      logrus.FieldLogger
}

// New builds a server around the given registry. A nil logger falls back to
// the logrus standard logger.
func New(registry *tools.Registry, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		registry: registry,
		parser:   parse.NewResponseParser(log),
		log:      log,
	}
}

// ToolInfo describes one registered tool for tools/list.
type ToolInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []ParamInfo `json:"parameters,omitempty"`
}

// ParamInfo mirrors tools.Param in wire-friendly form.
type ParamInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required,omitempty"`
	Default     interface{} `json:"default,omitempty"`
}

// CallParams are the arguments of tools/call.
type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ParseParams are the arguments of response/parse.
type ParseParams struct {
	Text string `json:"text"`
}

// Serve runs the JSON-RPC loop on rwc until the peer disconnects or ctx is
// canceled.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle))
	defer conn.Close()
	select {
	case <-conn.DisconnectNotify():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeStdio runs the server over the process's standard streams.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, stdioPipe{})
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	s.log.Debugf("rpc %s", req.Method)
	switch req.Method {
	case "tools/list":
		return s.listTools(), nil
	case "tools/call":
		return s.callTool(ctx, req)
	case "response/parse":
		return s.parseResponse(req)
	case "shutdown":
		return nil, nil
	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method %s not handled", req.Method)}
	}
}

func (s *Server) listTools() []ToolInfo {
	list := s.registry.List()
	out := make([]ToolInfo, 0, len(list))
	for _, tool := range list {
		info := ToolInfo{Name: tool.Name(), Description: tool.Description()}
		for _, p := range tool.Parameters() {
			info.Parameters = append(info.Parameters, ParamInfo{
				Name:        p.Name,
				Type:        p.Type,
				Description: p.Description,
				Required:    p.Required,
				Default:     p.Default,
			})
		}
		out = append(out, info)
	}
	return out
}

func (s *Server) callTool(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	if req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "params required"}
	}
	var params CallParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	if params.Name == "" {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "tool name required"}
	}
	args := parse.NewObject()
	if len(params.Arguments) > 0 {
		if err := args.UnmarshalJSON(params.Arguments); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: fmt.Sprintf("arguments: %v", err)}
		}
	}
	return s.registry.Dispatch(ctx, parse.ToolCall{Name: params.Name, Args: args}), nil
}

func (s *Server) parseResponse(req *jsonrpc2.Request) (interface{}, error) {
	if req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "params required"}
	}
	var params ParseParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return s.parser.Parse(params.Text), nil
}

// stdioPipe adapts stdin/stdout into the single stream jsonrpc2 expects.
type stdioPipe struct{}

func (stdioPipe) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioPipe) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioPipe) Close() error                { return nil }
