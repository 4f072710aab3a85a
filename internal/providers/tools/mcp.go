package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	mcpproto "github.com/mark3labs/mcp-go/mcp"

	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/log"
)

// MCPServerConfig is one entry in mcp_config.json.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

type mcpConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
}

const (
	mcpListTimeout = 5 * time.Second
	mcpCallTimeout = 2 * time.Minute
)

// MCPSource connects to configured stdio MCP servers and exposes their
// tools through the registry's External interface. A missing config file
// means no external tools, not an error.
type MCPSource struct {
	mu           sync.RWMutex
	configPath   string
	config       mcpConfig
	clients      map[string]*client.Client
	toolToClient map[string]*client.Client

	cachedTools []core.Tool
	cacheValid  bool
}

func NewMCPSource(configPath string) *MCPSource {
	return &MCPSource{
		configPath:   configPath,
		clients:      make(map[string]*client.Client),
		toolToClient: make(map[string]*client.Client),
	}
}

func (m *MCPSource) Start(ctx context.Context) error {
	if err := m.loadConfig(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheValid = false

	for name, srv := range m.config.MCPServers {
		log.FromCtx(ctx).Info().Str("server", name).Msg("starting mcp connection")

		cli, err := m.connect(ctx, srv)
		if err != nil {
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		m.clients[name] = cli
	}
	return nil
}

func (m *MCPSource) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, cli := range m.clients {
		if err := cli.Close(); err != nil {
			log.FromCtx(ctx).Error().Err(err).Str("server", name).Msg("failed to close mcp client")
		}
	}
	return nil
}

func (m *MCPSource) loadConfig() error {
	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		m.config = mcpConfig{MCPServers: map[string]MCPServerConfig{}}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read mcp config: %w", err)
	}
	if err := json.Unmarshal(data, &m.config); err != nil {
		return fmt.Errorf("parse mcp config: %w", err)
	}
	return nil
}

func (m *MCPSource) connect(ctx context.Context, srv MCPServerConfig) (*client.Client, error) {
	var env []string
	for k, v := range srv.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	cli, err := client.NewStdioMCPClient(srv.Command, env, srv.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	req := mcpproto.InitializeRequest{}
	req.Params.ProtocolVersion = mcpproto.LATEST_PROTOCOL_VERSION
	req.Params.Capabilities = mcpproto.ClientCapabilities{}
	req.Params.ClientInfo = mcpproto.Implementation{
		Name:    core.AppName,
		Version: core.AppVersion,
	}

	if _, err := cli.Initialize(ctx, req); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}
	return cli, nil
}

func (m *MCPSource) GetTools(ctx context.Context) ([]core.Tool, error) {
	m.mu.RLock()
	if m.cacheValid {
		tools := m.cachedTools
		m.mu.RUnlock()
		return tools, nil
	}
	clientsSnapshot := make(map[string]*client.Client, len(m.clients))
	for k, v := range m.clients {
		clientsSnapshot[k] = v
	}
	m.mu.RUnlock()

	var allTools []core.Tool
	newToolToClient := make(map[string]*client.Client)

	for name, cli := range clientsSnapshot {
		tCtx, cancel := context.WithTimeout(ctx, mcpListTimeout)
		resp, err := cli.ListTools(tCtx, mcpproto.ListToolsRequest{})
		cancel()
		if err != nil {
			log.FromCtx(ctx).Error().Err(err).Str("server", name).Msg("failed to list tools")
			continue
		}

		for _, t := range resp.Tools {
			newToolToClient[t.Name] = cli

			schemaBytes, _ := json.Marshal(t.InputSchema)
			allTools = append(allTools, core.Tool{
				Type: "function",
				Function: core.Function{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  schemaBytes,
				},
			})
		}
	}

	m.mu.Lock()
	m.cachedTools = allTools
	m.toolToClient = newToolToClient
	m.cacheValid = true
	m.mu.Unlock()

	return allTools, nil
}

func (m *MCPSource) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.toolToClient[name]
	return ok
}

func (m *MCPSource) CallTool(ctx context.Context, name, args string) (string, error) {
	m.mu.RLock()
	cli, ok := m.toolToClient[name]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("tool not found: %s", name)
	}

	var argsMap map[string]interface{}
	if err := json.Unmarshal([]byte(args), &argsMap); err != nil {
		return "", fmt.Errorf("invalid json arguments: %w", err)
	}

	req := mcpproto.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = argsMap

	tCtx, cancel := context.WithTimeout(ctx, mcpCallTimeout)
	defer cancel()

	res, err := cli.CallTool(tCtx, req)
	if err != nil {
		return "", err
	}
	if res.IsError {
		return "", fmt.Errorf("tool execution failed")
	}

	var output string
	for _, content := range res.Content {
		if text, ok := content.(mcpproto.TextContent); ok {
			output += text.Text + "\n"
		} else if textPtr, ok := content.(*mcpproto.TextContent); ok {
			output += textPtr.Text + "\n"
		}
	}
	return output, nil
}
