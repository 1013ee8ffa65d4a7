// Package factory builds the scout's components from environment settings
// and a scout document.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bakkerme/reddit-scout/internal/agent"
	"github.com/bakkerme/reddit-scout/internal/config"
	"github.com/bakkerme/reddit-scout/internal/digest"
	"github.com/bakkerme/reddit-scout/internal/headlines"
	"github.com/bakkerme/reddit-scout/internal/llm"
	llmopenai "github.com/bakkerme/reddit-scout/internal/llm/openai"
	"github.com/bakkerme/reddit-scout/internal/outputs/email"
	"github.com/bakkerme/reddit-scout/internal/outputs/email/smtp"
	"github.com/bakkerme/reddit-scout/internal/sources/reddit"
	"github.com/bakkerme/reddit-scout/internal/tools"
	"github.com/bakkerme/reddit-scout/internal/tools/redditnews"
)

type Factory struct {
	Logger             *slog.Logger
	LLMClient          llm.Client
	DefaultModel       string
	DefaultTemperature *float64
	RedditCredentials  reddit.Credentials
	RedditDialer       reddit.Dialer
	SMTPDefaults       config.SMTPEnvConfig
	// EmailSender overrides the SMTP sender built from the digest's email block.
	EmailSender email.Sender
}

func NewFromEnvConfig(logger *slog.Logger, env config.EnvConfig) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		Logger:             logger,
		LLMClient:          llmopenai.NewClient(env.OpenAI),
		DefaultModel:       env.OpenAI.Model,
		DefaultTemperature: env.OpenAI.Temperature,
		RedditCredentials: reddit.Credentials{
			ClientID:     env.Reddit.ClientID,
			ClientSecret: env.Reddit.ClientSecret,
			UserAgent:    env.Reddit.UserAgent,
		},
		RedditDialer: reddit.NewDialer(reddit.ClientOptions{
			HTTPTimeout: env.Reddit.HTTPTimeout,
			BaseURL:     env.Reddit.BaseURL,
			TokenURL:    env.Reddit.TokenURL,
			Logger:      logger,
		}),
		SMTPDefaults: env.SMTP,
	}
}

func (f *Factory) NewFetcher(cfg config.ToolConfig) (*headlines.Fetcher, error) {
	opts := []headlines.Option{headlines.WithLogger(f.Logger)}
	if cfg.Exclude != "" {
		rule, err := headlines.CompileExclusion(cfg.Exclude)
		if err != nil {
			return nil, err
		}
		opts = append(opts, headlines.WithExclusion(rule))
	}
	return headlines.NewFetcher(f.RedditCredentials, f.RedditDialer, opts...)
}

func (f *Factory) NewRedditNewsTool(cfg config.ToolConfig, fetcher redditnews.HeadlineFetcher) (*redditnews.Tool, error) {
	return redditnews.New(fetcher, cfg.DefaultLimit)
}

// NewAgent builds the agent; document settings win over OPENAI_* defaults.
func (f *Factory) NewAgent(cfg config.AgentConfig, toolset []tools.Tool) (*agent.Agent, error) {
	model := cfg.Model
	if model == "" {
		model = f.DefaultModel
	}
	temperature := cfg.Temperature
	if temperature == nil {
		temperature = f.DefaultTemperature
	}
	return agent.New(agent.Config{
		Name:             cfg.Name,
		Description:      cfg.Description,
		Model:            model,
		Temperature:      temperature,
		Instruction:      cfg.Instruction,
		DefaultSubreddit: cfg.DefaultSubreddit,
		MaxTurns:         cfg.MaxTurns,
		RequireToolCall:  cfg.RequiresToolCall(),
		LLMAttempts:      cfg.LLMAttempts,
	}, f.LLMClient, toolset, f.Logger)
}

// NewDigest builds a digest for runner. prompt overrides the document's
// digest prompt when non-empty.
func (f *Factory) NewDigest(cfg config.DigestConfig, runner digest.Runner, prompt string) (*digest.Digest, error) {
	if prompt == "" {
		prompt = cfg.Prompt
	}
	opts := digest.Options{Prompt: prompt, Logger: f.Logger}
	if cfg.Email != nil {
		merged := cfg.Email.MergeSMTP(f.SMTPDefaults)
		sender, err := f.newEmailSender(merged)
		if err != nil {
			return nil, err
		}
		opts.Email = &merged
		opts.Sender = sender
	}
	return digest.New(runner, opts)
}

func (f *Factory) NewSchedule(cfg config.DigestConfig, d *digest.Digest) (*digest.Schedule, error) {
	if cfg.Schedule == "" {
		return nil, fmt.Errorf("digest schedule is not configured")
	}
	return digest.NewSchedule(cfg.Schedule, cfg.Timezone, func(ctx context.Context) error {
		_, err := d.Run(ctx)
		return err
	}, f.Logger)
}

func (f *Factory) newEmailSender(merged config.EmailOutput) (email.Sender, error) {
	if f.EmailSender != nil {
		return f.EmailSender, nil
	}
	sender, err := smtp.NewSender(smtp.ConfigFromOutput(merged, f.SMTPDefaults.InsecureSkipVerify), f.Logger)
	if err != nil {
		return nil, fmt.Errorf("digest email: %w", err)
	}
	return sender, nil
}
