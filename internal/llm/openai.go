package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// OpenAIClient calls the chat completion and audio transcription endpoints.
type OpenAIClient struct {
	httpClient         *http.Client
	limiter            *rateLimiter
	apiKey             string
	baseURL            string
	model              string
	transcriptionModel string
	maxTokens          int
}

// NewOpenAIClient creates a new OpenAI API client.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = defaults.TranscriptionModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	client := &OpenAIClient{
		apiKey:             cfg.APIKey,
		baseURL:            strings.TrimRight(cfg.BaseURL, "/"),
		model:              cfg.Model,
		transcriptionModel: cfg.TranscriptionModel,
		maxTokens:          cfg.MaxTokens,
		httpClient:         &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RateLimit > 0 {
		client.limiter = newRateLimiter(cfg.RateLimit)
	}
	return client, nil
}

// Complete sends a deterministic (temperature 0) chat completion request in
// JSON mode, so the reply content is always a JSON object.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": systemPrompt,
			},
			{
				"role":    "user",
				"content": userPrompt,
			},
		},
		"temperature":     0,
		"response_format": map[string]string{"type": "json_object"},
	}
	if c.maxTokens > 0 {
		requestBody["max_tokens"] = c.maxTokens
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.post(ctx, "/v1/chat/completions", "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return response.Choices[0].Message.Content, nil
}

// Transcribe uploads an audio file and returns the recognized speech.
func (c *OpenAIClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	audio, err := os.Open(audioPath) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to open audio: %w", err)
	}
	defer func() { _ = audio.Close() }()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("model", c.transcriptionModel); err != nil {
		return "", fmt.Errorf("failed to build form: %w", err)
	}
	part, err := form.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to build form: %w", err)
	}

	body, err := c.post(ctx, "/v1/audio/transcriptions", form.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}

	var response struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return response.Text, nil
}

func (c *OpenAIClient) post(ctx context.Context, path, contentType string, payload io.Reader) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
}
