package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/bakkerme/reddit-scout/internal/config"
	"github.com/bakkerme/reddit-scout/internal/core"
	"github.com/bakkerme/reddit-scout/internal/observability/otelx"
	"github.com/bakkerme/reddit-scout/internal/runner"
	"github.com/bakkerme/reddit-scout/internal/runner/factory"
	"github.com/bakkerme/reddit-scout/internal/tools"
)

var version = "dev"

type options struct {
	configPath string
	mode       runner.Mode
	prompt     string
	subreddit  string
	limit      int
}

func main() {
	envFile := flag.String("env-file", "", "additional .env file to load")
	configPath := flag.String("config", "", "path to scout document (default $SCOUT_CONFIG, built-in scout if unset)")
	modeFlag := flag.String("mode", "", "ask, fetch, digest or schedule (default $SCOUT_MODE or ask)")
	prompt := flag.String("prompt", "", "prompt for ask and digest modes (default $SCOUT_PROMPT or the remaining arguments)")
	subreddit := flag.String("subreddit", "", "subreddit for fetch mode (default: the agent's default subreddit)")
	limit := flag.Int("limit", 0, "post limit for fetch mode (default: the tool's default limit)")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}
	env := config.LoadEnv()
	logger := core.NewLogger(os.Stderr, env.Log.Level, env.Log.Format)
	slog.SetDefault(logger)

	opts := options{
		configPath: firstNonEmpty(*configPath, env.ScoutConfigPath),
		prompt:     firstNonEmpty(*prompt, env.Prompt, strings.Join(flag.Args(), " ")),
		subreddit:  *subreddit,
		limit:      *limit,
	}
	mode, err := runner.ParseMode(firstNonEmpty(*modeFlag, env.Mode))
	if err != nil {
		log.Fatalf("%v", err)
	}
	opts.mode = mode

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, env, opts); err != nil {
		stop()
		log.Fatalf("%s failed: %v", opts.mode, err)
	}
}

func run(ctx context.Context, logger *slog.Logger, env config.EnvConfig, opts options) error {
	doc, err := config.LoadDocument(opts.configPath)
	if err != nil {
		return fmt.Errorf("load scout document: %w", err)
	}

	shutdown, err := otelx.Init(ctx, logger, env.OTel, version)
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("otel shutdown failed", "error", err)
		}
	}()

	f := factory.NewFromEnvConfig(logger, env)
	fetcher, err := f.NewFetcher(doc.Tool)
	if err != nil {
		return fmt.Errorf("build headline fetcher: %w", err)
	}
	newsTool, err := f.NewRedditNewsTool(doc.Tool, fetcher)
	if err != nil {
		return fmt.Errorf("build reddit news tool: %w", err)
	}

	r := runner.New(logger, os.Stdout)
	if opts.mode == runner.ModeFetch {
		return r.Fetch(ctx, newsTool, firstNonEmpty(opts.subreddit, doc.Agent.DefaultSubreddit), opts.limit)
	}

	scout, err := f.NewAgent(doc.Agent, []tools.Tool{newsTool})
	if err != nil {
		return fmt.Errorf("build agent: %w", err)
	}
	logger.Debug("agent ready", "agent", scout.Name(), "model", firstNonEmpty(doc.Agent.Model, env.OpenAI.Model))

	if opts.mode == runner.ModeAsk {
		return r.Ask(ctx, scout, opts.prompt)
	}

	d, err := f.NewDigest(doc.Digest, scout, opts.prompt)
	if err != nil {
		return fmt.Errorf("build digest: %w", err)
	}
	if opts.mode == runner.ModeDigest {
		return r.Digest(ctx, d)
	}
	schedule, err := f.NewSchedule(doc.Digest, d)
	if err != nil {
		return fmt.Errorf("build schedule: %w", err)
	}
	return r.Schedule(ctx, schedule)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
