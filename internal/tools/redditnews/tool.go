package redditnews

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bakkerme/reddit-scout/internal/headlines"
)

const Name = "get_reddit_news"

const description = `Fetches the top hot post titles from a given subreddit.
Arguments: subreddit is the name of the subreddit without "r/" (e.g. "springboot", "java"); limit is the maximum number of posts to retrieve (default: %d).
Returns a JSON object mapping the subreddit to its list of post titles, or to a single error or notice message if no titles are available.`

// HeadlineFetcher is the part of headlines.Fetcher the tool relies on.
type HeadlineFetcher interface {
	Fetch(ctx context.Context, subreddit string, limit int) headlines.Result
}

type Tool struct {
	fetcher      HeadlineFetcher
	defaultLimit int
}

type arguments struct {
	Subreddit string `json:"subreddit"`
	Limit     *int   `json:"limit,omitempty"`
}

func New(fetcher HeadlineFetcher, defaultLimit int) (*Tool, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("headline fetcher is required")
	}
	if defaultLimit < 1 {
		defaultLimit = headlines.DefaultLimit
	}
	return &Tool{fetcher: fetcher, defaultLimit: defaultLimit}, nil
}

func (t *Tool) Name() string {
	return Name
}

func (t *Tool) Description() string {
	return fmt.Sprintf(description, t.defaultLimit)
}

func (t *Tool) InputSchema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subreddit": map[string]any{
				"type":        "string",
				"description": `Name of the subreddit, without the "r/" prefix.`,
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of posts to retrieve.",
				"minimum":     1,
				"default":     t.defaultLimit,
			},
		},
		"required":             []string{"subreddit"},
		"additionalProperties": false,
	}
	raw, _ := json.Marshal(schema)
	return raw
}

func (t *Tool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	args, err := t.decode(input)
	if err != nil {
		return "", err
	}

	ctx, span := otel.Tracer("reddit-scout/tools").Start(ctx, "tool."+Name)
	span.SetAttributes(attribute.String("reddit.subreddit", args.Subreddit))
	defer span.End()

	result := t.fetcher.Fetch(ctx, args.Subreddit, *args.Limit)
	if result.Err != nil {
		span.SetAttributes(attribute.String("reddit.error_kind", string(result.Err.Kind)))
	}

	out, err := json.Marshal(result.Map())
	if err != nil {
		return "", fmt.Errorf("encode %s result: %w", Name, err)
	}
	return string(out), nil
}

func (t *Tool) decode(input json.RawMessage) (arguments, error) {
	var args arguments
	if len(strings.TrimSpace(string(input))) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return args, fmt.Errorf("invalid %s arguments: %w", Name, err)
		}
	}
	if args.Subreddit == "" {
		return args, fmt.Errorf("invalid %s arguments: subreddit is required", Name)
	}
	if args.Limit == nil || *args.Limit < 1 {
		limit := t.defaultLimit
		args.Limit = &limit
	}
	return args, nil
}
