package mock

import (
	"context"

	"github.com/bakkerme/reddit-scout/internal/llm"
)

// Client replays Responses in order; the last one repeats once the script runs out.
type Client struct {
	Responses []llm.ChatResponse
	Err       error
	// Errs are returned, one per call, before Responses are consulted.
	Errs  []error
	Calls []llm.ChatRequest
}

func (c *Client) ChatCompletion(ctx context.Context, request llm.ChatRequest) (llm.ChatResponse, error) {
	_ = ctx
	c.Calls = append(c.Calls, cloneRequest(request))
	if c.Err != nil {
		return llm.ChatResponse{}, c.Err
	}
	if len(c.Errs) > 0 {
		err := c.Errs[0]
		c.Errs = c.Errs[1:]
		return llm.ChatResponse{}, err
	}
	if len(c.Responses) == 0 {
		return llm.ChatResponse{}, nil
	}
	response := c.Responses[0]
	if len(c.Responses) > 1 {
		c.Responses = c.Responses[1:]
	}
	return response, nil
}

func cloneRequest(request llm.ChatRequest) llm.ChatRequest {
	request.Messages = append([]llm.Message(nil), request.Messages...)
	request.Tools = append([]llm.ToolDefinition(nil), request.Tools...)
	return request
}
