// Package summarize turns collected news material into digest prose via the
// Perplexity chat-completions API.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sentinel is the reserved backend reply meaning nothing in the material
// qualifies. Callers must translate it before showing text to a recipient.
const Sentinel = "NO_NEWS_LAST_24_HOURS"

const apiURL = "https://api.perplexity.ai/chat/completions"

const instruction = `You are a sanctions monitoring assistant. You will receive a list of announcements from official sources (OFAC, BIS, EUR-Lex, EC and similar), one per line as [source] title — link, all published within the last 24 hours. Summarize the new sanctions measures in at most 3 short bullet points, each ending with its source link. If none of the items describe new sanctions measures, reply with exactly: NO_NEWS_LAST_24_HOURS`

// Summarizer generates a digest summary from formatted news material.
type Summarizer interface {
	Summarize(ctx context.Context, materials string) (string, error)
}

// Client calls the Perplexity chat-completions endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// New creates a Client for the given model.
func New(apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: apiURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize sends the materials with the fixed instruction and returns the
// backend's reply, which may be the Sentinel. Non-2xx status is a hard
// failure; the call is never retried.
func (c *Client) Summarize(ctx context.Context, materials string) (string, error) {
	body, _ := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: materials},
		},
		Temperature: 0,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("perplexity API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("perplexity API %d: %s", resp.StatusCode, string(b))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty perplexity response")
	}
	return cr.Choices[0].Message.Content, nil
}
