package redditnews

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/bakkerme/reddit-scout/internal/headlines"
	"github.com/bakkerme/reddit-scout/internal/sources/reddit"
	redditmock "github.com/bakkerme/reddit-scout/internal/sources/reddit/mock"
)

type fetchCall struct {
	subreddit string
	limit     int
}

type fetcherStub struct {
	result headlines.Result
	calls  []fetchCall
}

func (f *fetcherStub) Fetch(ctx context.Context, subreddit string, limit int) headlines.Result {
	_ = ctx
	f.calls = append(f.calls, fetchCall{subreddit: subreddit, limit: limit})
	res := f.result
	res.Subreddit = subreddit
	return res
}

func TestTool_DefaultLimit(t *testing.T) {
	stub := &fetcherStub{result: headlines.Result{Titles: []string{"A"}}}
	tool, err := New(stub, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"subreddit":"springboot"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(stub.calls) != 1 || stub.calls[0] != (fetchCall{"springboot", 5}) {
		t.Fatalf("calls = %+v", stub.calls)
	}
	if out != `{"springboot":["A"]}` {
		t.Fatalf("output = %s", out)
	}
}

func TestTool_ExplicitLimit(t *testing.T) {
	stub := &fetcherStub{result: headlines.Result{Titles: []string{"A"}}}
	tool, err := New(stub, 5)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := tool.Execute(context.Background(), json.RawMessage(`{"subreddit":"java","limit":3}`)); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if stub.calls[0] != (fetchCall{"java", 3}) {
		t.Fatalf("call = %+v", stub.calls[0])
	}
}

func TestTool_InvalidArguments(t *testing.T) {
	stub := &fetcherStub{}
	tool, err := New(stub, 5)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, input := range []string{``, `{}`, `{"subreddit":""}`, `not json`, `{"subreddit":1}`} {
		if _, err := tool.Execute(context.Background(), json.RawMessage(input)); err == nil {
			t.Fatalf("input %q: expected error", input)
		}
	}
	if len(stub.calls) != 0 {
		t.Fatalf("fetcher called %d times on invalid input", len(stub.calls))
	}
}

func TestTool_ErrorsAreReturnedAsData(t *testing.T) {
	fetcher, err := headlines.NewFetcher(reddit.Credentials{}, (&redditmock.Dialer{}).Dial)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	tool, err := New(fetcher, 5)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"subreddit":"springboot"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var got map[string][]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	want := map[string][]string{"springboot": {"Error: Missing Reddit API credentials."}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("output = %v, want %v", got, want)
	}
}

func TestTool_EndToEndWithMockAPI(t *testing.T) {
	api := &redditmock.API{Posts: redditmock.Titles("A", "B", "C")}
	dialer := &redditmock.Dialer{API: api}
	fetcher, err := headlines.NewFetcher(reddit.Credentials{ClientID: "id", ClientSecret: "secret", UserAgent: "ua"}, dialer.Dial)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	tool, err := New(fetcher, 5)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"subreddit":"java","limit":3}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != `{"java":["A","B","C"]}` {
		t.Fatalf("output = %s", out)
	}
	if api.HotCalls[0].Limit != 3 {
		t.Fatalf("limit = %d", api.HotCalls[0].Limit)
	}
}

func TestTool_SchemaDeclaresArguments(t *testing.T) {
	tool, err := New(&fetcherStub{}, 7)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var schema struct {
		Type       string                    `json:"type"`
		Required   []string                  `json:"required"`
		Properties map[string]map[string]any `json:"properties"`
	}
	if err := json.Unmarshal(tool.InputSchema(), &schema); err != nil {
		t.Fatalf("schema is not valid json: %v", err)
	}
	if schema.Type != "object" || !reflect.DeepEqual(schema.Required, []string{"subreddit"}) {
		t.Fatalf("schema = %+v", schema)
	}
	if schema.Properties["subreddit"]["type"] != "string" {
		t.Fatalf("subreddit property = %v", schema.Properties["subreddit"])
	}
	if schema.Properties["limit"]["type"] != "integer" || schema.Properties["limit"]["default"] != float64(7) {
		t.Fatalf("limit property = %v", schema.Properties["limit"])
	}
	if tool.Name() != "get_reddit_news" {
		t.Fatalf("name = %q", tool.Name())
	}
}

func TestNew_RequiresFetcher(t *testing.T) {
	if _, err := New(nil, 5); err == nil {
		t.Fatalf("expected error")
	}
}
