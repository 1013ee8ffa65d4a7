// Package digest turns one agent answer into an HTML e-mail, either once or
// on a cron schedule.
package digest

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bakkerme/reddit-scout/internal/agent"
	"github.com/bakkerme/reddit-scout/internal/config"
	"github.com/bakkerme/reddit-scout/internal/core"
	"github.com/bakkerme/reddit-scout/internal/outputs/email"
)

// Runner answers a prompt. *agent.Agent satisfies it.
type Runner interface {
	Name() string
	Run(ctx context.Context, prompt string) (*agent.Reply, error)
}

type Options struct {
	Prompt string
	// Email is optional; without it the digest is only logged.
	Email  *config.EmailOutput
	Sender email.Sender
	Logger *slog.Logger
	Now    func() time.Time
}

type Result struct {
	RunID     string
	Markdown  string
	HTML      string
	Delivered bool
}

type Digest struct {
	runner    Runner
	prompt    string
	email     *config.EmailOutput
	sender    email.Sender
	template  *template.Template
	converter goldmark.Markdown
	logger    *slog.Logger
	now       func() time.Time
}

func New(runner Runner, opts Options) (*Digest, error) {
	if runner == nil {
		return nil, fmt.Errorf("digest runner is required")
	}
	if strings.TrimSpace(opts.Prompt) == "" {
		return nil, fmt.Errorf("digest prompt is required")
	}
	d := &Digest{
		runner:    runner,
		prompt:    opts.Prompt,
		converter: newMarkdownConverter(),
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	if opts.Email != nil {
		if opts.Sender == nil {
			return nil, fmt.Errorf("digest email sender is required")
		}
		if opts.Email.To == "" || opts.Email.Subject == "" {
			return nil, fmt.Errorf("digest email to and subject are required")
		}
		tmpl, err := parseEmailTemplate(opts.Email.Template)
		if err != nil {
			return nil, err
		}
		emailCfg := *opts.Email
		d.email = &emailCfg
		d.sender = opts.Sender
		d.template = tmpl
	}
	return d, nil
}

// Run asks the agent the digest prompt, renders the answer and delivers it.
func (d *Digest) Run(ctx context.Context) (*Result, error) {
	ctx, logger, runID := core.StartRun(ctx, d.logger)

	ctx, span := otel.Tracer("reddit-scout/digest").Start(ctx, "digest.run")
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.String("agent.name", d.runner.Name()),
		attribute.Bool("digest.email", d.email != nil),
	)
	defer span.End()

	result, err := d.run(ctx, logger, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("digest failed", "error", err)
		return result, err
	}
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (d *Digest) run(ctx context.Context, logger *slog.Logger, runID string) (*Result, error) {
	started := d.now()
	reply, err := d.runner.Run(ctx, d.prompt)
	if err != nil {
		return nil, fmt.Errorf("digest agent run: %w", err)
	}

	html, err := renderMarkdown(d.converter, reply.Content)
	if err != nil {
		return nil, err
	}
	result := &Result{RunID: runID, Markdown: reply.Content, HTML: html}

	if d.email == nil {
		logger.Info("digest generated", "tool_calls", len(reply.ToolCalls), "digest", reply.Content)
		return result, nil
	}

	body, err := renderEmail(d.template, emailData{
		Subject:     d.email.Subject,
		Prompt:      d.prompt,
		Agent:       d.runner.Name(),
		RunID:       runID,
		Markdown:    reply.Content,
		HTML:        template.HTML(html),
		GeneratedAt: d.now(),
	})
	if err != nil {
		return result, err
	}
	err = d.sender.Send(ctx, email.Message{
		From:    d.email.From,
		To:      d.email.To,
		Subject: d.email.Subject,
		HTML:    body,
		Text:    reply.Content,
	})
	if err != nil {
		return result, fmt.Errorf("deliver digest: %w", err)
	}
	result.Delivered = true
	logger.Info("digest delivered", "to", d.email.To, "elapsed", d.now().Sub(started))
	return result, nil
}
