package reddit

import (
	"context"
	"time"
)

// Credentials are the app-only OAuth credentials for the Reddit API.
type Credentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
}

// Complete reports whether all three credentials are present.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.UserAgent != ""
}

// Post represents a single entry of a subreddit listing.
type Post struct {
	ID          string
	Title       string
	Author      string
	Permalink   string
	URL         string
	Score       int
	NumComments int
	Stickied    bool
	NSFW        bool
	CreatedAt   time.Time
}

// API is the read-only slice of the Reddit API the scout consumes.
type API interface {
	// SearchSubredditNames looks up subreddit names matching name.
	SearchSubredditNames(ctx context.Context, name string) ([]string, error)
	// HotPosts lists up to limit posts from the subreddit's hot listing, in listing order.
	HotPosts(ctx context.Context, subreddit string, limit int) ([]*Post, error)
}

// Dialer builds an API client from credentials.
type Dialer func(ctx context.Context, creds Credentials) (API, error)
