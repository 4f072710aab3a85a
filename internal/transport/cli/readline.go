package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/recall-agent/recall/internal/config"
	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/internal/service/agent"
	"github.com/recall-agent/recall/internal/service/command"
	"github.com/recall-agent/recall/internal/service/ui"
	"github.com/recall-agent/recall/pkg/log"
)

const defaultSessionID = "cli-local"

// ReadLine is the interactive chat transport. One instance serves one local
// user; the conversation it opens spans the whole process lifetime, while
// /reset only drops the short-term buffer.
type ReadLine struct {
	cfg      *config.AppConfig
	agent    *agent.Agent
	router   *command.Router
	episodic core.EpisodicStore
	userID   string
	rl       *readline.Instance
	stop     func()
}

func NewReadLine(ag *agent.Agent, router *command.Router, episodic core.EpisodicStore, cfg *config.AppConfig, userID string, stop func()) (*ReadLine, error) {
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:      cfg,
		agent:    ag,
		router:   router,
		episodic: episodic,
		userID:   userID,
		rl:       rl,
		stop:     stop,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	conversationID, err := r.episodic.CreateConversation(ctx, r.userID)
	if err != nil {
		return fmt.Errorf("failed to open conversation: %w", err)
	}
	logger.Info().Str("conversation_id", conversationID).Msg("chat started, type 'exit' to quit")

	defer r.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil
				}
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit":
			return nil
		case line == "/reset":
			r.agent.ResetSession(defaultSessionID)
			fmt.Fprintln(r.rl.Stdout(), ui.NoticeStyle.Render("short-term memory cleared"))
			continue
		}

		if out, handled := r.router.Execute(ctx, defaultSessionID, line); handled {
			fmt.Fprintf(r.rl.Stdout(), "%s\n", out)
			continue
		}

		response := r.agent.ProcessMessage(ctx, r.userID, defaultSessionID, conversationID, line)
		fmt.Fprintf(r.rl.Stdout(), "%s\n", response)
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
