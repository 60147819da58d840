package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lexcodex/quill/parse"
)

// Registry holds the tools available to a session, keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	log   logrus.FieldLogger
}

// NewRegistry builds an empty registry. A nil logger falls back to the
// logrus standard logger.
func NewRegistry(log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		tools: make(map[string]Tool),
		log:   log,
	}
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns every registered tool sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Dispatch executes the invocation and always returns a result the
// conversation can continue with. Unknown tools, panics, and execution
// errors all become failure results instead of aborting the session.
func (r *Registry) Dispatch(ctx context.Context, call parse.ToolCall) (result *Result) {
	tool, ok := r.Get(call.Name)
	if !ok {
		r.log.Warnf("unknown tool requested: %s", call.Name)
		return failure(fmt.Sprintf("unknown tool %q", call.Name))
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorf("tool %s panicked: %v", call.Name, rec)
			result = failure(fmt.Sprintf("tool %s failed", call.Name))
		}
	}()
	start := time.Now()
	res, err := tool.Execute(ctx, call.Args)
	elapsed := time.Since(start)
	if err != nil {
		r.log.Warnf("tool %s failed after %s: %v", call.Name, elapsed, err)
		return failure(err.Error())
	}
	if res == nil {
		res = &Result{Success: true}
	}
	r.log.Debugf("tool %s completed in %s", call.Name, elapsed)
	return res
}

// Builtin registers the standard file tools rooted at basePath.
func Builtin(basePath string, log logrus.FieldLogger) *Registry {
	r := NewRegistry(log)
	r.Register(&ListFiles{BasePath: basePath})
	r.Register(&ReadFile{BasePath: basePath})
	r.Register(&SearchText{BasePath: basePath})
	return r
}
