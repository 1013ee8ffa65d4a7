package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"

	"github.com/bakkerme/reddit-scout/internal/config"
	"github.com/bakkerme/reddit-scout/internal/llm"
)

const toolCallResponse = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": null,
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "get_reddit_news", "arguments": "{\"subreddit\":\"java\",\"limit\":3}"}
      }]
    }
  }]
}`

type capturedRequest struct {
	Model      string           `json:"model"`
	ToolChoice any              `json:"tool_choice"`
	Messages   []map[string]any `json:"messages"`
	Tools      []struct {
		Type     string `json:"type"`
		Function struct {
			Name       string         `json:"name"`
			Parameters map[string]any `json:"parameters"`
		} `json:"function"`
	} `json:"tools"`
}

func TestChatCompletion_ToolCalls(t *testing.T) {
	var captured capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(toolCallResponse))
	}))
	defer srv.Close()

	client := NewClient(config.OpenAIEnvConfig{APIKey: "test", BaseURL: srv.URL + "/v1/"}, option.WithMaxRetries(0))

	resp, err := client.ChatCompletion(context.Background(), llm.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "instruction"},
			{Role: llm.RoleUser, Content: "spring news?"},
		},
		Tools: []llm.ToolDefinition{{
			Name:        "get_reddit_news",
			Description: "fetch",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"subreddit":{"type":"string"}},"required":["subreddit"]}`),
		}},
		ToolChoice: llm.ToolChoiceRequired,
	})
	if err != nil {
		t.Fatalf("chat completion: %v", err)
	}

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(resp.ToolCalls))
	}
	call := resp.ToolCalls[0]
	if call.ID != "call_1" || call.Name != "get_reddit_news" || call.Arguments != `{"subreddit":"java","limit":3}` {
		t.Fatalf("tool call = %+v", call)
	}

	if captured.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q", captured.Model)
	}
	if captured.ToolChoice != "required" {
		t.Fatalf("tool_choice = %v", captured.ToolChoice)
	}
	if len(captured.Tools) != 1 || captured.Tools[0].Function.Name != "get_reddit_news" {
		t.Fatalf("tools = %+v", captured.Tools)
	}
	if captured.Tools[0].Function.Parameters["type"] != "object" {
		t.Fatalf("parameters = %v", captured.Tools[0].Function.Parameters)
	}
	if len(captured.Messages) != 2 || captured.Messages[0]["role"] != "system" || captured.Messages[1]["role"] != "user" {
		t.Fatalf("messages = %v", captured.Messages)
	}
}

func TestBuildParams_ToolRoundTrip(t *testing.T) {
	params, err := buildParams(llm.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "instruction"},
			{Role: llm.RoleUser, Content: "news"},
			{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "get_reddit_news", Arguments: `{"subreddit":"java"}`}}},
			{Role: llm.RoleTool, ToolCallID: "call_1", Content: `{"java":["A"]}`},
			{Role: llm.RoleAssistant, Content: "- A"},
		},
	})
	if err != nil {
		t.Fatalf("build params: %v", err)
	}
	if len(params.Messages) != 5 {
		t.Fatalf("messages = %d, want 5", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil || params.Messages[1].OfUser == nil {
		t.Fatalf("unexpected leading message types")
	}
	assistant := params.Messages[2].OfAssistant
	if assistant == nil || len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].ID != "call_1" {
		t.Fatalf("assistant tool call message = %+v", assistant)
	}
	tool := params.Messages[3].OfTool
	if tool == nil || tool.ToolCallID != "call_1" {
		t.Fatalf("tool message = %+v", tool)
	}
	if params.Messages[4].OfAssistant == nil {
		t.Fatalf("expected final assistant message")
	}
	if len(params.Tools) != 0 {
		t.Fatalf("tools = %d, want 0", len(params.Tools))
	}
}

func TestBuildParams_InvalidToolSchema(t *testing.T) {
	_, err := buildParams(llm.ChatRequest{
		Model: "gpt-4o-mini",
		Tools: []llm.ToolDefinition{{Name: "broken", Parameters: json.RawMessage(`[1,2`)}},
	})
	if err == nil {
		t.Fatalf("expected error for invalid tool schema")
	}
}

func TestCaptureReadCloser_Truncates(t *testing.T) {
	var (
		got       string
		truncated bool
	)
	rc := newCaptureReadCloser(io.NopCloser(strings.NewReader("abcdefgh")), 4, func(body []byte, tr bool) {
		got = string(body)
		truncated = tr
	})
	all, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(all) != "abcdefgh" {
		t.Fatalf("passthrough = %q", all)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got != "abcd" || !truncated {
		t.Fatalf("captured %q truncated=%v", got, truncated)
	}
}
