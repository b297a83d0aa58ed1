package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/zephyrlab/triad/core"
	"github.com/zephyrlab/triad/internal/util"
)

// Request captures the normalized model input produced by the agent pipelines.
type Request struct {
	Instructions string         `json:"instructions"` // System instructions for the model
	Messages     []core.Message `json:"messages"`     // Conversation context in turn order
	Schema       map[string]any `json:"schema,omitempty"`
	SchemaName   string         `json:"schema_name,omitempty"`
	Stream       bool           `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a streaming model. For
// streamed requests adapters emit incremental Partial chunks followed by one
// final response carrying the full accumulated text.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name           string `json:"name"`
	Provider       string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsSchema bool   `json:"supports_schema"`
}

// Model is the minimal interface required by the agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// GenerateText drains a Generate call and returns the final response text.
// Partial chunks are discarded; the caller wraps provider errors into the
// turn error taxonomy.
func GenerateText(ctx context.Context, m Model, req Request) (string, error) {
	respCh, errCh := m.Generate(ctx, req)

	var final string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				select {
				case err := <-errCh:
					if err != nil {
						return "", err
					}
				default:
				}
				return final, nil
			}
			if !resp.Partial {
				final = resp.Text
			}
		case err := <-errCh:
			if err != nil {
				return "", err
			}
		}
	}
}

// GenerateObject requests a structured completion matching the JSON schema
// reflected from T. A response that fails to decode triggers exactly one
// repair attempt before the call is reported as malformed.
func GenerateObject[T any](ctx context.Context, m Model, req Request) (T, error) {
	var out T

	req.Schema = util.SchemaFor[T]()
	if req.SchemaName == "" {
		req.SchemaName = fmt.Sprintf("%T", out)
	}
	req.Stream = false

	text, err := GenerateText(ctx, m, req)
	if err != nil {
		return out, err
	}

	if decodeErr := decodeJSON(text, &out); decodeErr != nil {
		repair := req
		repair.Messages = append(append([]core.Message{}, req.Messages...),
			core.NewAssistantMessage(text),
			core.NewUserMessage("The previous response was not valid JSON for the required schema. Respond again with only a valid JSON object."),
		)
		text, err = GenerateText(ctx, m, repair)
		if err != nil {
			return out, err
		}
		if decodeErr = decodeJSON(text, &out); decodeErr != nil {
			return out, core.Malformed("model.generate_object", decodeErr)
		}
	}

	return out, nil
}

// decodeJSON tolerates prose or code fences around the JSON object by
// decoding from the first '{' to the matching end of input.
func decodeJSON(text string, out any) error {
	trimmed := strings.TrimSpace(text)
	if i := strings.Index(trimmed, "{"); i > 0 {
		trimmed = trimmed[i:]
	}
	if j := strings.LastIndex(trimmed, "}"); j >= 0 {
		trimmed = trimmed[:j+1]
	}
	return json.Unmarshal([]byte(trimmed), out)
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	mu        sync.Mutex
	responses map[string]string
	handler   func(req Request) (string, error)
	calls     []Request
}

// NewMockModel constructs a MockModel with schema support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:           name,
			Provider:       provider,
			SupportsSchema: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion keyed by the text
// of the last request message.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetHandler installs a per-request hook that takes precedence over canned
// responses. Returning an error simulates a provider failure.
func (m *MockModel) SetHandler(fn func(req Request) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
}

// Calls returns a copy of every request the mock has served, in order.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Request, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Generate implements Model; emits optional streaming char chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.calls = append(m.calls, req)
	handler := m.handler
	var full string
	var handlerErr error
	if handler != nil {
		full, handlerErr = handler(req)
	} else {
		var last string
		if len(req.Messages) > 0 {
			last = req.Messages[len(req.Messages)-1].Content
		}
		full = m.responses[last]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", last)
		}
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)
		if handlerErr != nil {
			errCh <- handlerErr
			return
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Text: full, FinishReason: "stop"}:
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
