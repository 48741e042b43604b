package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	grokURL      = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel = "llama-3.3-70b-versatile"
)

type grokClient struct {
	apiKey     string
	model      string
	url        string
	prompt     string
	expertise  Expertise
	httpClient *http.Client
}

type GrokOption func(*grokClient)

func WithModel(model string) GrokOption {
	return func(c *grokClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithPrompt(prompt string) GrokOption { return func(c *grokClient) { c.prompt = prompt } }

func WithExpertise(e Expertise) GrokOption { return func(c *grokClient) { c.expertise = e } }

// WithBaseURL points the client at another OpenAI compatible endpoint.
func WithBaseURL(url string) GrokOption { return func(c *grokClient) { c.url = url } }

// NewGrokClient creates a cover letter writer backed by Groq's chat completion API.
func NewGrokClient(apiKey string, opts ...GrokOption) CoverLetterWriter {
	c := &grokClient{
		apiKey:     apiKey,
		model:      DefaultModel,
		url:        grokURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type grokMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type grokRequest struct {
	Model       string        `json:"model"`
	Messages    []grokMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type grokResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// WriteCoverLetter asks the model for a letter. Length limits are the caller's concern.
func (c *grokClient) WriteCoverLetter(ctx context.Context, jobDescription string) (string, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return "", errors.New("empty job description")
	}

	reqBody := grokRequest{
		Model: c.model,
		Messages: []grokMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(c.prompt, jobDescription, c.expertise)},
		},
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal grok request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("grok API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var grokResp grokResponse
	if err := json.Unmarshal(bodyBytes, &grokResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if grokResp.Error != nil {
		return "", fmt.Errorf("API error: %s", grokResp.Error.Message)
	}
	if len(grokResp.Choices) == 0 {
		return "", errors.New("no choices returned from grok API")
	}

	letter := cleanMarkdown(grokResp.Choices[0].Message.Content)
	if letter == "" {
		return "", errors.New("grok API returned an empty letter")
	}
	return letter, nil
}

// cleanMarkdown strips a code fence if the model wrapped its answer in one.
func cleanMarkdown(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if i := strings.IndexByte(content, '\n'); i >= 0 && !strings.Contains(content[:i], " ") {
			content = content[i+1:]
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}
