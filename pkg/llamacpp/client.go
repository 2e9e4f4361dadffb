// Package llamacpp talks to a llama.cpp server through its OpenAI-compatible
// chat endpoint.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultURL is used when no server URL is configured
const DefaultURL = "http://localhost:8080"

const chatPath = "/v1/chat/completions"

// ErrEmptyAnswer is returned when the server answers without any text
var ErrEmptyAnswer = errors.New("llama.cpp returned no text")

// Client sends single-image chat requests
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"` // string or []contentPart
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a client for the server at serverURL. Any path on the
// URL is dropped.
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = DefaultURL
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", serverURL)
	}

	return &Client{
		baseURL:    u.Scheme + "://" + u.Host,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// SimpleQuery sends prompt and an optional base64 JPEG and returns the
// answer text
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	parts := []contentPart{{Type: "text", Text: prompt}}
	if imgB64 != "" {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: "data:image/jpeg;base64," + imgB64},
		})
	}
	content, err := json.Marshal(parts)
	if err != nil {
		return "", err
	}

	req := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: content}},
		Temperature: 0.2,
		TopP:        0.9,
		MaxTokens:   64,
	}

	var resp chatResponse
	if err := c.post(ctx, chatPath, &req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	return messageText(resp.Choices[0].Message.Content)
}

// messageText extracts the text of a message whose content is either a plain
// string or a list of parts
func messageText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", ErrEmptyAnswer
		}
		return s, nil
	}

	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("unexpected message content: %w", err)
	}
	var sb strings.Builder
	for _, p := range parts {
		if p.Type == "text" {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyAnswer
	}
	return sb.String(), nil
}

func (c *Client) post(ctx context.Context, path string, in any, out *chatResponse) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llama.cpp request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// OpenAI-style error body if there is one
		if json.Unmarshal(data, out) == nil && out.Error != nil && out.Error.Message != "" {
			return fmt.Errorf("llama.cpp returned %d: %s", resp.StatusCode, out.Error.Message)
		}
		return fmt.Errorf("llama.cpp returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
