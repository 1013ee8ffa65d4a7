package reddit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	goreddit "github.com/vartanbeno/go-reddit/v2/reddit"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultBaseURL  = "https://oauth.reddit.com"
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
)

// ClientOptions tune how the go-reddit client reaches the API.
type ClientOptions struct {
	HTTPTimeout time.Duration
	BaseURL     string
	TokenURL    string
	Logger      *slog.Logger
}

// Client implements API on top of go-reddit, authenticated with an
// application-only (client credentials) token.
type Client struct {
	client *goreddit.Client
}

// NewDialer returns a Dialer that builds a fresh Client per call.
func NewDialer(opts ClientOptions) Dialer {
	return func(ctx context.Context, creds Credentials) (API, error) {
		return NewClient(ctx, creds, opts)
	}
}

func NewClient(ctx context.Context, creds Credentials, opts ClientOptions) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}

	// Reddit rejects token requests without a descriptive User-Agent.
	tokenHTTP := &http.Client{
		Timeout:   opts.HTTPTimeout,
		Transport: &userAgentTransport{userAgent: creds.UserAgent, base: http.DefaultTransport},
	}
	cc := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// The token source must outlive ctx, which may be a single request.
	tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, tokenHTTP)
	httpClient := &http.Client{
		Timeout: opts.HTTPTimeout,
		Transport: &oauth2.Transport{
			Source: cc.TokenSource(tokenCtx),
			Base:   &userAgentTransport{userAgent: creds.UserAgent, base: http.DefaultTransport},
		},
	}

	logger.Debug("Using app-only Reddit client", slog.String("clientID", creds.ClientID), slog.String("baseURL", baseURL))
	client, err := goreddit.NewReadonlyClient(
		goreddit.WithHTTPClient(httpClient),
		goreddit.WithUserAgent(creds.UserAgent),
		goreddit.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create reddit client: %w", err)
	}
	return &Client{client: client}, nil
}

type subredditNames struct {
	Names []string `json:"names"`
}

// SearchSubredditNames runs an exact name search; Reddit answers 404 for a
// subreddit that does not exist.
func (c *Client) SearchSubredditNames(ctx context.Context, name string) ([]string, error) {
	path := "api/search_reddit_names?exact=true&query=" + url.QueryEscape(name)
	req, err := c.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	root := new(subredditNames)
	if _, err := c.client.Do(ctx, req, root); err != nil {
		return nil, err
	}
	return root.Names, nil
}

func (c *Client) HotPosts(ctx context.Context, subreddit string, limit int) ([]*Post, error) {
	posts, _, err := c.client.Subreddit.HotPosts(ctx, subreddit, &goreddit.ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}

	out := make([]*Post, 0, len(posts))
	for _, post := range posts {
		if post == nil {
			continue
		}
		out = append(out, &Post{
			ID:          post.ID,
			Title:       post.Title,
			Author:      post.Author,
			Permalink:   canonicalRedditPostURL(post.Permalink),
			URL:         post.URL,
			Score:       post.Score,
			NumComments: post.NumberOfComments,
			Stickied:    post.Stickied,
			NSFW:        post.NSFW,
			CreatedAt:   timestampToTime(post.Created),
		})
	}
	return out, nil
}

type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.userAgent == "" {
		return base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return base.RoundTrip(clone)
}

func canonicalRedditPostURL(permalink string) string {
	if permalink == "" {
		return ""
	}
	if strings.HasPrefix(permalink, "http://") || strings.HasPrefix(permalink, "https://") {
		return permalink
	}
	if strings.HasPrefix(permalink, "/") {
		return "https://www.reddit.com" + permalink
	}
	return "https://www.reddit.com/" + permalink
}

func timestampToTime(ts *goreddit.Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.Time.UTC()
}
