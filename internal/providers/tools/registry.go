package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/log"
)

// Handler executes one tool call with raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Definition describes one tool a provider contributes.
type Definition struct {
	Description string
	Schema      string
	Handler     Handler
}

// Provider contributes named tools to the registry.
type Provider interface {
	GetDefinitions() map[string]Definition
}

// External is an out-of-process tool source (MCP servers). Its tools are
// merged with native ones at spec time and dispatched to at call time.
type External interface {
	GetTools(ctx context.Context) ([]core.Tool, error)
	CallTool(ctx context.Context, name, args string) (string, error)
	Has(name string) bool
}

// Registry implements core.ToolExecutor over native Go tools plus an
// optional external MCP source.
type Registry struct {
	handlers map[string]Handler
	defs     []core.Tool
	external External
	timeout  time.Duration
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		timeout:  timeout,
	}
}

func (r *Registry) Register(p Provider) {
	for name, def := range p.GetDefinitions() {
		r.handlers[name] = def.Handler
		r.defs = append(r.defs, core.Tool{
			Type: "function",
			Function: core.Function{
				Name:        name,
				Description: def.Description,
				Parameters:  json.RawMessage(def.Schema),
			},
		})
	}
}

// AttachExternal wires an MCP source into the registry.
func (r *Registry) AttachExternal(ext External) {
	r.external = ext
}

func (r *Registry) Specs(ctx context.Context) ([]core.Tool, error) {
	specs := make([]core.Tool, len(r.defs))
	copy(specs, r.defs)

	if r.external != nil {
		extTools, err := r.external.GetTools(ctx)
		if err != nil {
			// External source failing must not hide the native tools.
			log.FromCtx(ctx).Warn().Err(err).Msg("failed to list external tools")
			return specs, nil
		}
		specs = append(specs, extTools...)
	}
	return specs, nil
}

func (r *Registry) Execute(ctx context.Context, name string, args string) (string, error) {
	log.FromCtx(ctx).Info().Str("tool", name).Str("args", args).Msg("executing tool")

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if handler, ok := r.handlers[name]; ok {
		return handler(ctx, json.RawMessage(args))
	}

	if r.external != nil && r.external.Has(name) {
		return r.external.CallTool(ctx, name, args)
	}

	return "", fmt.Errorf("tool not found: %s", name)
}
