package mock

import (
	"context"

	"github.com/bakkerme/reddit-scout/internal/sources/reddit"
)

type HotPostsCall struct {
	Subreddit string
	Limit     int
}

// API replays canned listings and records every call made against it.
type API struct {
	Names     []string
	SearchErr error
	Posts     []*reddit.Post
	HotErr    error
	// HotPanic, when set, is raised from HotPosts.
	HotPanic any

	SearchCalls []string
	HotCalls    []HotPostsCall
}

func (a *API) SearchSubredditNames(ctx context.Context, name string) ([]string, error) {
	_ = ctx
	a.SearchCalls = append(a.SearchCalls, name)
	if a.SearchErr != nil {
		return nil, a.SearchErr
	}
	return a.Names, nil
}

func (a *API) HotPosts(ctx context.Context, subreddit string, limit int) ([]*reddit.Post, error) {
	_ = ctx
	a.HotCalls = append(a.HotCalls, HotPostsCall{Subreddit: subreddit, Limit: limit})
	if a.HotPanic != nil {
		panic(a.HotPanic)
	}
	if a.HotErr != nil {
		return nil, a.HotErr
	}
	return a.Posts, nil
}

// Dialer hands out API and counts how often it was asked to.
type Dialer struct {
	API   *API
	Err   error
	Creds []reddit.Credentials
}

func (d *Dialer) Dial(ctx context.Context, creds reddit.Credentials) (reddit.API, error) {
	_ = ctx
	d.Creds = append(d.Creds, creds)
	if d.Err != nil {
		return nil, d.Err
	}
	return d.API, nil
}

// Titles builds posts with the given titles, in order.
func Titles(titles ...string) []*reddit.Post {
	posts := make([]*reddit.Post, 0, len(titles))
	for _, title := range titles {
		posts = append(posts, &reddit.Post{Title: title})
	}
	return posts
}
