// Package headlines fetches the titles of a subreddit's hot listing and
// shapes them, or the reason there are none, into a single-key result.
package headlines

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bakkerme/reddit-scout/internal/core"
	"github.com/bakkerme/reddit-scout/internal/sources/reddit"
)

const DefaultLimit = 5

type Fetcher struct {
	creds   reddit.Credentials
	dial    reddit.Dialer
	exclude *Exclusion
	logger  *slog.Logger
}

type Option func(*Fetcher)

// WithExclusion drops posts matching rule from every listing.
func WithExclusion(rule *Exclusion) Option {
	return func(f *Fetcher) {
		f.exclude = rule
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func NewFetcher(creds reddit.Credentials, dial reddit.Dialer, opts ...Option) (*Fetcher, error) {
	if dial == nil {
		return nil, fmt.Errorf("reddit dialer is required")
	}
	f := &Fetcher{
		creds:  creds,
		dial:   dial,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch returns up to limit hot post titles for subreddit. A limit below 1
// means the default of 5. It never fails: every problem is reported on the
// returned Result.
func (f *Fetcher) Fetch(ctx context.Context, subreddit string, limit int) (result Result) {
	if limit < 1 {
		limit = DefaultLimit
	}

	tracer := otel.Tracer("reddit-scout/headlines")
	ctx, span := tracer.Start(ctx, "reddit.headlines.fetch")
	span.SetAttributes(
		attribute.String("reddit.subreddit", subreddit),
		attribute.Int("reddit.limit", limit),
		attribute.String("run.id", core.RunIDFromContext(ctx)),
	)
	defer span.End()

	logger := core.LoggerFromContextOr(ctx, f.logger).With("subreddit", subreddit)

	defer func() {
		if r := recover(); r != nil {
			result = failure(subreddit, KindUnexpected, fmt.Errorf("%v", r))
		}
		if result.Err != nil {
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, result.Err.Error())
			logger.Warn("Fetching hot posts failed", slog.String("kind", string(result.Err.Kind)), slog.String("error", result.Err.Error()))
			return
		}
		span.SetAttributes(attribute.Int("reddit.titles", len(result.Titles)))
		span.SetStatus(codes.Ok, "")
	}()

	if !f.creds.Complete() {
		return configurationError(subreddit)
	}

	client, err := f.dial(ctx, f.creds)
	if err != nil {
		return classify(subreddit, err)
	}

	// The names are not consulted; the call surfaces auth failures and
	// names the service refuses before the listing is requested.
	if _, err := client.SearchSubredditNames(ctx, subreddit); err != nil {
		return classify(subreddit, err)
	}

	logger.Info("Fetching hot posts", slog.Int("limit", limit))
	posts, err := client.HotPosts(ctx, subreddit, limit)
	if err != nil {
		return classify(subreddit, err)
	}

	// Stickied posts come on top of limit in Reddit's hot listing.
	titles := make([]string, 0, min(limit, len(posts)))
	for _, post := range posts {
		if len(titles) == limit {
			break
		}
		if post == nil {
			continue
		}
		if f.exclude != nil {
			drop, err := f.exclude.Excludes(post)
			if err != nil {
				return failure(subreddit, KindUnexpected, err)
			}
			if drop {
				logger.Debug("Excluded post", slog.String("post_id", post.ID), slog.String("rule", f.exclude.String()))
				continue
			}
		}
		titles = append(titles, post.Title)
	}

	if len(titles) == 0 {
		return Result{Subreddit: subreddit, Empty: true}
	}
	return Result{Subreddit: subreddit, Titles: titles}
}

func classify(subreddit string, err error) Result {
	if reddit.IsAPIError(err) {
		return failure(subreddit, KindRemoteAPI, err)
	}
	return failure(subreddit, KindUnexpected, err)
}
