package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/recall-agent/recall/internal/config"
	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/internal/service/memory"
	"github.com/recall-agent/recall/pkg/log"
	"github.com/recall-agent/recall/pkg/retry"
)

const (
	// FallbackResponse is returned when the model never produced an answer.
	FallbackResponse = "I'm sorry, I wasn't able to generate a proper response."
	errorResponseFmt = "I'm sorry, I encountered an error: %v"
)

// Deps carries everything the agent orchestrates. All fields are required
// except Extractor and Recorder, which may be nil to disable learning.
type Deps struct {
	AI        core.AIProvider
	Tools     core.ToolExecutor
	Sessions  *memory.Sessions
	Assembler *memory.Assembler
	Extractor *memory.Extractor
	Recorder  *memory.Recorder
	Episodic  core.EpisodicStore
}

// Agent runs the reason-act loop over the four memory tiers. One Agent
// serves many users and sessions; per-session state lives in the session
// store.
//
// The prompt template may carry a single %s slot; it is filled with the
// current tool catalog on every turn, so tools that register late (for
// example from external servers) still show up.
type Agent struct {
	cfg            *config.AppConfig
	deps           Deps
	retrier        *retry.Retrier
	promptTemplate string
}

func New(cfg *config.AppConfig, deps Deps, promptTemplate string) *Agent {
	return &Agent{
		cfg:            cfg,
		deps:           deps,
		retrier:        retry.NewDefaultRetrier(),
		promptTemplate: promptTemplate,
	}
}

// ProcessMessage runs one full turn and always returns a printable
// response. Failures inside the turn degrade to a polite error string; the
// caller never sees a Go error.
func (a *Agent) ProcessMessage(ctx context.Context, userID, sessionID, conversationID, text string) (response string) {
	logger := log.FromCtx(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recovered from panic while processing message")
			response = fmt.Sprintf(errorResponseFmt, r)
		}
	}()

	buf := a.deps.Sessions.Get(sessionID)

	userMsg := core.Message{Role: core.RoleUser, Content: text}
	buf.Add(userMsg)
	if err := a.deps.Episodic.AppendMessage(ctx, userID, conversationID, userMsg); err != nil {
		logger.Warn().Err(err).Msg("failed to log user message")
	}

	response, toolsUsed, answered := a.runLoop(ctx, userID, text, buf.Messages())

	finalMsg := core.Message{Role: core.RoleAssistant, Content: response}
	buf.Add(finalMsg)
	if err := a.deps.Episodic.AppendMessage(ctx, userID, conversationID, finalMsg); err != nil {
		logger.Warn().Err(err).Msg("failed to log assistant message")
	}

	if a.deps.Recorder != nil && answered {
		a.deps.Recorder.RecordTurnPattern(ctx, userID, text, toolsUsed)
	}

	a.maybeExtract(ctx, userID, buf)

	return response
}

// ResetSession drops the short-term buffer for a session. Long-term memory
// is untouched. Resetting an unknown session is a no-op.
func (a *Agent) ResetSession(sessionID string) {
	a.deps.Sessions.Clear(sessionID)
}

// runLoop drives think/use-tool transitions until the model answers or the
// step cap forces a fallback. Intermediate messages stay in the working copy
// only; the buffer sees just the user message and the final response. The
// answered flag reports whether the model actually produced the response.
func (a *Agent) runLoop(ctx context.Context, userID, query string, history []core.Message) (string, []string, bool) {
	logger := log.FromCtx(ctx)

	working := make([]core.Message, len(history))
	copy(working, history)

	specs, err := a.deps.Tools.Specs(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to list tools, continuing without")
		specs = nil
	}
	systemPrompt := a.renderSystemPrompt(specs)

	var toolsUsed []string
	for step := 0; step < a.cfg.MaxTurnSteps; step++ {
		reply, err := a.chat(ctx, a.assemble(ctx, userID, query, systemPrompt, working), specs)
		if err != nil {
			logger.Error().Err(err).Int("step", step).Msg("chat request failed")
			return fmt.Sprintf(errorResponseFmt, err), toolsUsed, false
		}
		working = append(working, reply)

		switch Transition(reply) {
		case StateRespond:
			if reply.Content == "" {
				return FallbackResponse, toolsUsed, false
			}
			return reply.Content, toolsUsed, true
		case StateUseTool:
			results, used := a.executeCalls(ctx, userID, query, reply.ToolCalls)
			working = append(working, results...)
			toolsUsed = append(toolsUsed, used...)
		}
	}

	logger.Warn().Int("max_steps", a.cfg.MaxTurnSteps).Msg("step cap reached without a response")
	return FallbackResponse, toolsUsed, false
}

// assemble builds the model-facing history: system prompt, then any
// retrieved memory context (first think of a turn only, when the newest
// message is the user's), then the working history.
func (a *Agent) assemble(ctx context.Context, userID, query, systemPrompt string, working []core.Message) []core.Message {
	messages := make([]core.Message, 0, len(working)+2)
	messages = append(messages, core.Message{Role: core.RoleSystem, Content: systemPrompt})

	if len(working) > 0 && working[len(working)-1].Role == core.RoleUser {
		if memoryCtx := a.deps.Assembler.BuildContext(ctx, userID, query); memoryCtx != memory.NoRelevantMemory {
			messages = append(messages, core.Message{Role: core.RoleSystem, Content: memoryCtx})
		}
	}

	return append(messages, working...)
}

// renderSystemPrompt fills the template's catalog slot with one line per
// currently known tool. Templates without a slot pass through untouched.
func (a *Agent) renderSystemPrompt(specs []core.Tool) string {
	if !strings.Contains(a.promptTemplate, "%s") {
		return a.promptTemplate
	}

	descriptions := make([]string, 0, len(specs))
	for _, spec := range specs {
		descriptions = append(descriptions, fmt.Sprintf("- %s: %s", spec.Function.Name, spec.Function.Description))
	}
	return fmt.Sprintf(a.promptTemplate, strings.Join(descriptions, "\n"))
}

func (a *Agent) chat(ctx context.Context, messages []core.Message, tools []core.Tool) (core.Message, error) {
	var reply core.Message
	err := a.retrier.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.LLMTimeoutSeconds)*time.Second)
		defer cancel()

		var chatErr error
		reply, chatErr = a.deps.AI.Chat(callCtx, messages, tools)
		return chatErr
	})
	return reply, err
}

// maybeExtract distills facts out of the buffer once it has grown past the
// extraction interval, at every exact multiple of it. The window is the last
// interval's worth of messages.
func (a *Agent) maybeExtract(ctx context.Context, userID string, buf *memory.Buffer) {
	if a.deps.Extractor == nil {
		return
	}
	interval := a.cfg.ExtractionInterval
	if interval <= 0 {
		return
	}

	msgs := buf.Messages()
	count := len(msgs)
	if count <= interval || count%interval != 0 {
		return
	}

	stored := a.deps.Extractor.ExtractAndStore(ctx, userID, msgs[count-interval:])
	if stored > 0 {
		log.FromCtx(ctx).Info().Int("facts", stored).Str("user_id", userID).Msg("stored extracted facts")
	}
}
