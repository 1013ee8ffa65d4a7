package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	goreddit "github.com/vartanbeno/go-reddit/v2/reddit"
	"golang.org/x/oauth2"
)

func TestCredentialsComplete(t *testing.T) {
	cases := []struct {
		creds Credentials
		want  bool
	}{
		{Credentials{ClientID: "id", ClientSecret: "secret", UserAgent: "ua"}, true},
		{Credentials{ClientSecret: "secret", UserAgent: "ua"}, false},
		{Credentials{ClientID: "id", UserAgent: "ua"}, false},
		{Credentials{ClientID: "id", ClientSecret: "secret"}, false},
		{Credentials{ClientID: "  ", ClientSecret: "secret", UserAgent: "ua"}, true},
		{Credentials{}, false},
	}
	for _, tc := range cases {
		if got := tc.creds.Complete(); got != tc.want {
			t.Fatalf("Complete(%+v)=%v want %v", tc.creds, got, tc.want)
		}
	}
}

func TestUserAgentTransport_SetsHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &userAgentTransport{userAgent: "scout-test/1.0"}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if got != "scout-test/1.0" {
		t.Fatalf("user agent = %q", got)
	}
}

func TestNewClient_TokenRejectionIsAPIError(t *testing.T) {
	var (
		mu        sync.Mutex
		tokenUA   string
		tokenUser string
		apiCalls  int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.URL.Path == "/token" {
			tokenUA = r.Header.Get("User-Agent")
			tokenUser, _, _ = r.BasicAuth()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		apiCalls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), Credentials{
		ClientID:     "id",
		ClientSecret: "secret",
		UserAgent:    "scout-test/1.0",
	}, ClientOptions{
		HTTPTimeout: 5 * time.Second,
		BaseURL:     srv.URL,
		TokenURL:    srv.URL + "/token",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.SearchSubredditNames(context.Background(), "golang")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsAPIError(err) {
		t.Fatalf("expected api error, got %T: %v", err, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if tokenUA != "scout-test/1.0" {
		t.Fatalf("token request user agent = %q", tokenUA)
	}
	if tokenUser != "id" {
		t.Fatalf("token request client id = %q", tokenUser)
	}
	if apiCalls != 0 {
		t.Fatalf("api calls = %d, want 0", apiCalls)
	}
}

func newTestServer(t *testing.T, search http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"token","token_type":"bearer","expires_in":3600}`))
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/search_reddit_names") {
			search(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), Credentials{
		ClientID:     "id",
		ClientSecret: "secret",
		UserAgent:    "scout-test/1.0",
	}, ClientOptions{
		HTTPTimeout: 5 * time.Second,
		BaseURL:     srv.URL,
		TokenURL:    srv.URL + "/token",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSearchSubredditNames_ExactMatch(t *testing.T) {
	var query url.Values
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"names":["springboot"]}`))
	})

	names, err := newTestClient(t, srv).SearchSubredditNames(context.Background(), "spring boot&x")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if query.Get("exact") != "true" || query.Get("query") != "spring boot&x" {
		t.Fatalf("query = %v", query)
	}
	if len(names) != 1 || names[0] != "springboot" {
		t.Fatalf("names = %v", names)
	}
}

func TestSearchSubredditNames_UnknownSubredditIsAPIError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("exact") != "true" {
			_, _ = w.Write([]byte(`{"names":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found","error":404}`))
	})

	_, err := newTestClient(t, srv).SearchSubredditNames(context.Background(), "nosuchsub")
	if err == nil {
		t.Fatalf("expected error for unknown subreddit")
	}
	if !IsAPIError(err) {
		t.Fatalf("expected api error, got %T: %v", err, err)
	}
}

func TestSearchSubredditNames_JSONErrorsAreAPIErrors(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"json":{"errors":[["SUBREDDIT_NOEXIST","that subreddit doesn't exist","sr_name"]]}}`))
	})

	_, err := newTestClient(t, srv).SearchSubredditNames(context.Background(), "nosuchsub")
	var jsonErr *goreddit.JSONErrorResponse
	if !errors.As(err, &jsonErr) {
		t.Fatalf("err = %T %v, want JSONErrorResponse", err, err)
	}
	if !IsAPIError(err) {
		t.Fatalf("expected api error")
	}
}

func errResponse(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Request:    httptest.NewRequest(http.MethodGet, "https://oauth.reddit.com/r/golang/hot", nil),
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsAPIError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"error response", &goreddit.ErrorResponse{Response: errResponse(http.StatusForbidden), Message: "forbidden"}, true},
		{"wrapped error response", fmt.Errorf("search names: %w", &goreddit.ErrorResponse{Response: errResponse(http.StatusNotFound), Message: "not found"}), true},
		{"json errors", fmt.Errorf("search names: %w", &goreddit.JSONErrorResponse{Response: errResponse(http.StatusOK)}), true},
		{"rate limit", &goreddit.RateLimitError{Response: errResponse(http.StatusTooManyRequests), Message: "slow down"}, true},
		{"token", &oauth2.RetrieveError{Body: []byte("invalid_client")}, true},
		{"transport", &url.Error{Op: "Get", URL: "https://oauth.reddit.com", Err: errors.New("connection refused")}, true},
		{"net", timeoutErr{}, true},
	}
	for _, tc := range cases {
		if got := IsAPIError(tc.err); got != tc.want {
			t.Fatalf("%s: IsAPIError=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanonicalRedditPostURL(t *testing.T) {
	cases := map[string]string{
		"":                               "",
		"/r/java/comments/abc/x/":        "https://www.reddit.com/r/java/comments/abc/x/",
		"r/java/comments/abc/x/":         "https://www.reddit.com/r/java/comments/abc/x/",
		"https://www.reddit.com/r/java/": "https://www.reddit.com/r/java/",
	}
	for in, want := range cases {
		if got := canonicalRedditPostURL(in); got != want {
			t.Fatalf("canonicalRedditPostURL(%q)=%q want %q", in, got, want)
		}
	}
}
