// Package agent runs a language-model agent that may call tools before it
// answers. Tools are supplied as an ordinary slice at construction.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bakkerme/reddit-scout/internal/core"
	"github.com/bakkerme/reddit-scout/internal/llm"
	"github.com/bakkerme/reddit-scout/internal/retry"
	"github.com/bakkerme/reddit-scout/internal/tools"
)

var (
	// ErrToolNotCalled is returned when the model answers without invoking
	// any tool although the agent requires one.
	ErrToolNotCalled = errors.New("agent answered without calling a tool")
	// ErrMaxTurnsExceeded is returned when the model keeps requesting tools.
	ErrMaxTurnsExceeded = errors.New("agent exceeded its turn limit")
)

type Config struct {
	Name             string
	Description      string
	Model            string
	Temperature      *float64
	Instruction      string
	DefaultSubreddit string
	MaxTurns         int
	RequireToolCall  bool
	LLMAttempts      int
}

// ToolInvocation records one tool call made during a run.
type ToolInvocation struct {
	CallID    string
	Name      string
	Arguments string
	Output    string
	Err       error
}

type Reply struct {
	Content   string
	ToolCalls []ToolInvocation
	Turns     int
}

type Agent struct {
	config      Config
	client      llm.Client
	tools       []tools.Tool
	byName      map[string]tools.Tool
	definitions []llm.ToolDefinition
	instruction *template.Template
	logger      *slog.Logger
}

func New(cfg Config, client llm.Client, toolset []tools.Tool, logger *slog.Logger) (*Agent, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if cfg.MaxTurns < 1 {
		cfg.MaxTurns = 5
	}
	if cfg.LLMAttempts < 1 {
		cfg.LLMAttempts = 1
	}
	if cfg.RequireToolCall && len(toolset) == 0 {
		return nil, fmt.Errorf("agent %s requires a tool call but has no tools", cfg.Name)
	}
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := parseInstruction(cfg.Name, cfg.Instruction)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		config:      cfg,
		client:      client,
		byName:      map[string]tools.Tool{},
		instruction: tmpl,
		logger:      logger,
	}
	for _, tool := range toolset {
		if tool == nil {
			continue
		}
		if _, dup := a.byName[tool.Name()]; dup {
			return nil, fmt.Errorf("duplicate tool %q", tool.Name())
		}
		a.tools = append(a.tools, tool)
		a.byName[tool.Name()] = tool
		a.definitions = append(a.definitions, llm.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.InputSchema(),
		})
	}
	return a, nil
}

func (a *Agent) Name() string {
	return a.config.Name
}

func (a *Agent) Description() string {
	return a.config.Description
}

// Instruction renders the system instruction for this agent.
func (a *Agent) Instruction() (string, error) {
	return renderInstruction(a.instruction, instructionData{
		Name:             a.config.Name,
		DefaultSubreddit: a.config.DefaultSubreddit,
		ToolNames:        tools.Names(a.tools),
	})
}

// Run answers prompt, executing any tool calls the model requests along the way.
func (a *Agent) Run(ctx context.Context, prompt string) (*Reply, error) {
	ctx, logger, runID := core.StartRun(ctx, a.logger)
	logger = logger.With("agent", a.config.Name)

	ctx, span := otel.Tracer("reddit-scout/agent").Start(ctx, "agent.run")
	span.SetAttributes(
		attribute.String("agent.name", a.config.Name),
		attribute.String("llm.model", a.config.Model),
		attribute.String("run.id", runID),
	)
	defer span.End()

	reply, err := a.run(ctx, logger, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return reply, err
	}
	span.SetAttributes(
		attribute.Int("agent.turns", reply.Turns),
		attribute.Int("agent.tool_calls", len(reply.ToolCalls)),
	)
	span.SetStatus(codes.Ok, "")
	return reply, nil
}

func (a *Agent) run(ctx context.Context, logger *slog.Logger, prompt string) (*Reply, error) {
	instruction, err := a.Instruction()
	if err != nil {
		return nil, err
	}
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: instruction},
		{Role: llm.RoleUser, Content: prompt},
	}

	reply := &Reply{}
	// Failed invocations do not satisfy RequireToolCall.
	succeeded := 0
	for turn := 1; turn <= a.config.MaxTurns; turn++ {
		reply.Turns = turn

		choice := llm.ToolChoiceAuto
		if a.config.RequireToolCall && succeeded == 0 {
			choice = llm.ToolChoiceRequired
		}
		request := llm.ChatRequest{
			Model:       a.config.Model,
			Messages:    messages,
			Temperature: a.config.Temperature,
		}
		if len(a.definitions) > 0 {
			request.Tools = a.definitions
			request.ToolChoice = choice
		}

		started := time.Now()
		var response llm.ChatResponse
		retryConfig := retry.Config{
			Attempts: a.config.LLMAttempts,
			OnRetry: func(attempt int, err error, wait time.Duration) {
				logger.Warn("llm call failed, retrying", "turn", turn, "attempt", attempt, "error", err, "wait", wait)
			},
		}
		err := retry.Do(ctx, retryConfig, func() error {
			var err error
			response, err = a.client.ChatCompletion(ctx, request)
			return err
		})
		if err != nil {
			return reply, fmt.Errorf("agent %s turn %d: %w", a.config.Name, turn, err)
		}
		logger.Info("llm turn completed", "turn", turn, "tool_calls", len(response.ToolCalls), "elapsed", time.Since(started))

		if len(response.ToolCalls) == 0 {
			if a.config.RequireToolCall && succeeded == 0 {
				return reply, ErrToolNotCalled
			}
			reply.Content = response.Content
			return reply, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})
		for _, call := range response.ToolCalls {
			invocation := a.invoke(ctx, logger, call)
			reply.ToolCalls = append(reply.ToolCalls, invocation)
			content := invocation.Output
			if invocation.Err != nil {
				content = "Error: " + invocation.Err.Error()
			} else {
				succeeded++
			}
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    content,
				ToolCallID: call.ID,
			})
		}
	}
	return reply, ErrMaxTurnsExceeded
}

func (a *Agent) invoke(ctx context.Context, logger *slog.Logger, call llm.ToolCall) ToolInvocation {
	invocation := ToolInvocation{CallID: call.ID, Name: call.Name, Arguments: call.Arguments}

	ctx, span := otel.Tracer("reddit-scout/agent").Start(ctx, "agent.tool")
	span.SetAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	)
	defer span.End()

	tool, ok := a.byName[call.Name]
	if !ok {
		invocation.Err = fmt.Errorf("unknown tool %q", call.Name)
		span.SetStatus(codes.Error, invocation.Err.Error())
		logger.Warn("model requested unknown tool", "tool", call.Name)
		return invocation
	}

	started := time.Now()
	output, err := tool.Execute(ctx, json.RawMessage(call.Arguments))
	if err != nil {
		invocation.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("tool call failed", "tool", call.Name, "error", err, "elapsed", time.Since(started))
		return invocation
	}
	invocation.Output = output
	span.SetStatus(codes.Ok, "")
	logger.Info("tool call completed", "tool", call.Name, "elapsed", time.Since(started))
	return invocation
}
