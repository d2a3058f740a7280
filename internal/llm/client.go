package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// Client talks to any OpenAI-compatible chat completion API
// (Ollama, OpenAI, LM Studio, vLLM).
type Client struct {
	client  *openai.Client
	model   string
	baseURL string
}

// Compile-time check: *Client satisfies Completer.
var _ Completer = (*Client)(nil)

// NewClient creates a completion client for the given endpoint and model.
func NewClient(baseURL, apiKey, model string) *Client {
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)
	return &Client{
		client:  &client,
		model:   model,
		baseURL: baseURL,
	}
}

// Complete sends a single-turn prompt and returns the model's text reply.
// Rate-limit responses are retried with backoff; every other failure is
// wrapped in *ServiceError.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: param.NewOpt(temperature),
	}

	var completion *openai.ChatCompletion
	var err error
	for attempt := range 3 {
		completion, err = c.client.Chat.Completions.New(ctx, params)
		if err == nil {
			break
		}
		if !strings.Contains(err.Error(), "429") || attempt == 2 {
			return "", &ServiceError{Op: "complete", Wrapped: err}
		}
		wait := time.Duration(2<<attempt) * time.Second // 2s, 4s
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", &ServiceError{Op: "complete", Wrapped: ctx.Err()}
		}
	}

	if len(completion.Choices) == 0 {
		return "", &ServiceError{Op: "complete", Wrapped: fmt.Errorf("no choices returned")}
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// ListModels queries Ollama's native /api/tags endpoint for available models.
// The baseURL is expected to end with /v1/ (OpenAI-compat); we strip that to
// reach the native Ollama API.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	base := strings.TrimRight(c.baseURL, "/")
	base = strings.TrimSuffix(base, "/v1")
	url := base + "/api/tags"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ServiceError{Op: "list-models", Wrapped: err}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Op: "list-models", Wrapped: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ServiceError{
			Op:      "list-models",
			Wrapped: fmt.Errorf("ollama API returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	var result struct {
		Models []struct {
			Name       string `json:"name"`
			Size       int64  `json:"size"`
			ModifiedAt string `json:"modified_at"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ServiceError{Op: "list-models", Wrapped: fmt.Errorf("decoding response: %w", err)}
	}

	models := make([]ModelInfo, len(result.Models))
	for i, m := range result.Models {
		models[i] = ModelInfo{
			Name:       m.Name,
			Size:       m.Size,
			ModifiedAt: m.ModifiedAt,
		}
	}
	return models, nil
}
