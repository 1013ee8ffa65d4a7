package headlines

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is wrapped by configuration errors.
var ErrMissingCredentials = errors.New("missing Reddit API credentials")

// Kind classifies why a fetch produced no titles.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindRemoteAPI     Kind = "remote_api"
	KindUnexpected    Kind = "unexpected"
)

// Error is the tagged failure carried on a Result. Its message is the
// exact line presented to the agent in place of titles.
type Error struct {
	Kind      Kind
	Subreddit string
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConfiguration:
		return "Error: Missing Reddit API credentials."
	case KindRemoteAPI:
		return fmt.Sprintf("API error accessing r/%s: %v", e.Subreddit, e.Err)
	default:
		return fmt.Sprintf("Unexpected error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the outcome of one fetch. Exactly one of three shapes holds:
// titles were found, the listing was empty, or Err is set.
type Result struct {
	Subreddit string
	Titles    []string
	Empty     bool
	Err       *Error
}

// Lines returns the sequence handed to the agent: the titles, or a single
// notice or error line.
func (r Result) Lines() []string {
	switch {
	case r.Err != nil:
		return []string{r.Err.Error()}
	case r.Empty || len(r.Titles) == 0:
		return []string{fmt.Sprintf("No hot posts found in r/%s.", r.Subreddit)}
	default:
		out := make([]string, len(r.Titles))
		copy(out, r.Titles)
		return out
	}
}

// Map returns the single-key mapping keyed by the subreddit exactly as queried.
func (r Result) Map() map[string][]string {
	return map[string][]string{r.Subreddit: r.Lines()}
}

func configurationError(subreddit string) Result {
	return Result{
		Subreddit: subreddit,
		Err:       &Error{Kind: KindConfiguration, Subreddit: subreddit, Err: ErrMissingCredentials},
	}
}

func failure(subreddit string, kind Kind, err error) Result {
	return Result{
		Subreddit: subreddit,
		Err:       &Error{Kind: kind, Subreddit: subreddit, Err: err},
	}
}
