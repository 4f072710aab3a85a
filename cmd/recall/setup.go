package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/recall-agent/recall/internal/config"
	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/internal/providers/llm"
	"github.com/recall-agent/recall/internal/providers/tools"
	"github.com/recall-agent/recall/internal/service/agent"
	"github.com/recall-agent/recall/internal/service/command"
	"github.com/recall-agent/recall/internal/service/memory"
	"github.com/recall-agent/recall/internal/storage/chromem"
	"github.com/recall-agent/recall/internal/storage/mongo"
	"github.com/recall-agent/recall/internal/storage/sqlite"
	"github.com/recall-agent/recall/internal/transport/cli"
	"github.com/recall-agent/recall/pkg/log"
	"github.com/recall-agent/recall/pkg/srv"
)

const defaultSystemPrompt = `You are a helpful assistant with long-term memory. You remember facts
about the user, past conversations, and which tools worked before. Use that
memory when it is relevant, and answer directly when you already know enough.

You have access to the following tools:
%s

Use a tool only when the answer requires information you do not have.`

func NewServices(ctx context.Context, stop func()) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	appCfg := config.NewAppConfig(ctx)

	// 1. Local storage. The product catalog and appointment book always live
	// in sqlite, whatever backs the memory tiers.
	embedder := llm.NewEmbeddingClient(config.NewEmbeddingConfig(ctx))

	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	services = append(services, srv.NewCleanup(db.Close))

	// 2. Memory tier backends
	var semantic core.SemanticStore
	switch appCfg.SemanticBackend {
	case "chromem":
		semantic = chromem.NewSemanticRepo(embedder)
	default:
		semantic = sqlite.NewSemanticRepo(db, embedder)
	}

	var episodic core.EpisodicStore
	var procedural core.ProceduralStore
	if appCfg.StorageBackend == "mongo" {
		client, err := mongo.NewClient(ctx, config.NewMongoConfig(ctx))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to mongodb")
		}
		services = append(services, srv.NewCleanup(func() error {
			return client.Close(context.Background())
		}))
		episodic = mongo.NewEpisodicRepo(client)
		procedural = mongo.NewProceduralRepo(client)
	} else {
		episodic = sqlite.NewEpisodicRepo(db)
		procedural = sqlite.NewProceduralRepo(db)
	}

	// 3. LLM provider
	provider, err := llm.NewProvider(ctx, appCfg, config.NewLLMConfig(ctx))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 4. Tools
	registry := tools.NewRegistry(time.Duration(appCfg.ToolTimeoutSeconds) * time.Second)
	registry.Register(tools.NewWebSearch())
	registry.Register(tools.NewProductSearch(sqlite.NewProductsRepo(db)))
	registry.Register(tools.NewAppointmentManagement(sqlite.NewAppointmentsRepo(db)))

	mcpSource := tools.NewMCPSource(appCfg.GetMCPConfigPath())
	registry.AttachExternal(mcpSource)
	services = append(services, mcpSource)

	// 5. Memory services
	var estimator memory.TokenEstimator = memory.HeuristicEstimator{}
	if appCfg.UseTiktoken {
		te, err := memory.NewTiktokenEstimator()
		if err != nil {
			logger.Warn().Err(err).Msg("tiktoken unavailable, falling back to heuristic token counting")
		} else {
			estimator = te
		}
	}

	ag := agent.New(appCfg, agent.Deps{
		AI:        provider,
		Tools:     registry,
		Sessions:  memory.NewSessions(appCfg.BufferTokenLimit, estimator),
		Assembler: memory.NewAssembler(semantic, episodic, procedural),
		Extractor: memory.NewExtractor(provider, semantic),
		Recorder:  memory.NewRecorder(procedural),
		Episodic:  episodic,
	}, loadSystemPrompt(appCfg))

	// 6. Chat transport
	router := command.New(command.NewCommands(semantic, episodic, registry, appCfg.UserID))
	repl, err := cli.NewReadLine(ag, router, episodic, appCfg, appCfg.UserID, stop)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize chat transport")
	}
	services = append(services, repl)

	return services
}

// loadSystemPrompt prefers an operator-provided SYSTEM.md in the runtime
// directory, falling back to the built-in template. The agent substitutes
// the tool catalog each turn, so external tools are covered once their
// server is up.
func loadSystemPrompt(cfg *config.AppConfig) string {
	if content, err := os.ReadFile(cfg.GetSystemPromptPath()); err == nil && len(content) > 0 {
		return string(content)
	}
	return defaultSystemPrompt
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
