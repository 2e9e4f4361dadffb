// Package ollama queries a local Ollama server with a cropped image.
package ollama

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultURL is used when no server URL is configured
const DefaultURL = "http://localhost:11434"

// ErrEmptyAnswer is returned when the model answers without any text
var ErrEmptyAnswer = errors.New("ollama returned no text")

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
}

// NewClient creates a new Ollama client
func NewClient(ollamaURL string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = DefaultURL
	}

	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", ollamaURL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	// Create client with the specified URL, ignoring environment
	client := api.NewClient(baseURL, http.DefaultClient)

	return &Client{client: client}, nil
}

// SimpleQuery sends one chat message with an image and returns the answer
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 120*time.Second)
		defer cancel()
	}

	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream:  &streamFalse,
		Options: modelOptions(model),
	}

	var answer strings.Builder
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		answer.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	if answer.Len() == 0 {
		return "", ErrEmptyAnswer
	}
	return answer.String(), nil
}

// modelOptions returns sampling options tuned for known models
func modelOptions(model string) map[string]any {
	options := map[string]any{}
	modelLower := strings.ToLower(model)
	if strings.Contains(modelLower, "minicpm-v4") ||
		strings.Contains(modelLower, "minicpm-v-4") ||
		strings.Contains(modelLower, "minicpmv4") {
		// short answers only, keep it deterministic
		options["temperature"] = 0.2
		options["top_p"] = 0.8
		options["num_ctx"] = 2048
	}
	return options
}
