// Package runner executes one CLI mode against already-built components.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bakkerme/reddit-scout/internal/agent"
	"github.com/bakkerme/reddit-scout/internal/digest"
	"github.com/bakkerme/reddit-scout/internal/tools"
)

type Mode string

const (
	ModeAsk      Mode = "ask"
	ModeFetch    Mode = "fetch"
	ModeDigest   Mode = "digest"
	ModeSchedule Mode = "schedule"
)

func ParseMode(raw string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return ModeAsk, nil
	case ModeAsk, ModeFetch, ModeDigest, ModeSchedule:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected ask, fetch, digest or schedule)", raw)
	}
}

type Asker interface {
	Run(ctx context.Context, prompt string) (*agent.Reply, error)
}

type DigestRunner interface {
	Run(ctx context.Context) (*digest.Result, error)
}

type Scheduler interface {
	Run(ctx context.Context) error
}

type Runner struct {
	logger *slog.Logger
	out    io.Writer
}

func New(logger *slog.Logger, out io.Writer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{logger: logger, out: out}
}

// Ask sends prompt to the agent and prints its answer.
func (r *Runner) Ask(ctx context.Context, asker Asker, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("a prompt is required in ask mode")
	}
	started := time.Now()
	reply, err := asker.Run(ctx, prompt)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	r.logger.Info("ask completed", "turns", reply.Turns, "tool_calls", len(reply.ToolCalls), "elapsed", time.Since(started))
	_, err = fmt.Fprintln(r.out, reply.Content)
	return err
}

// Fetch calls tool directly with the given arguments and prints its JSON
// output, exactly as the agent would receive it.
func (r *Runner) Fetch(ctx context.Context, tool tools.Tool, subreddit string, limit int) error {
	subreddit = strings.TrimPrefix(strings.TrimSpace(subreddit), "r/")
	if subreddit == "" {
		return fmt.Errorf("a subreddit is required in fetch mode")
	}
	args := map[string]any{"subreddit": subreddit}
	if limit > 0 {
		args["limit"] = limit
	}
	input, err := json.Marshal(args)
	if err != nil {
		return err
	}
	output, err := tool.Execute(ctx, input)
	if err != nil {
		return fmt.Errorf("%s failed: %w", tool.Name(), err)
	}
	_, err = fmt.Fprintln(r.out, output)
	return err
}

// Digest produces one digest. Undelivered digests are printed.
func (r *Runner) Digest(ctx context.Context, d DigestRunner) error {
	result, err := d.Run(ctx)
	if err != nil {
		return err
	}
	if !result.Delivered {
		_, err = fmt.Fprintln(r.out, result.Markdown)
	}
	return err
}

// Schedule blocks until ctx is done.
func (r *Runner) Schedule(ctx context.Context, s Scheduler) error {
	r.logger.Info("waiting for scheduled digests; interrupt to stop")
	return s.Run(ctx)
}
