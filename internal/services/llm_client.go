package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// ChatClient is the narrow LLM contract the generator depends on. A
// completion returns the raw assistant text for a system/user prompt pair.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type requestPayload struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"` // "user" or "system"
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type apiResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenRouterClient calls the OpenRouter chat completions API. Structured
// outputs are requested as JSON objects so responses parse directly into
// the argument/moderation types.
type OpenRouterClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewOpenRouterClient reads OPENROUTER_API_KEY and AI_MODEL from the
// environment. An empty API key is an error: without it every turn would
// fall back and the debate would be pure boilerplate.
func NewOpenRouterClient(logger *logrus.Logger) (*OpenRouterClient, error) {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not found in environment")
	}

	modelName := os.Getenv("AI_MODEL")
	if modelName == "" {
		modelName = "deepseek/deepseek-chat-v3.1:free" // Default fallback
	}

	return &OpenRouterClient{
		apiKey:     apiKey,
		model:      modelName,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}, nil
}

func (c *OpenRouterClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := requestPayload{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:      8192,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openRouterURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openrouter returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		c.logger.Warnf("No response choices received: %s", string(body))
		return "", fmt.Errorf("no response choices received")
	}
	return apiResp.Choices[0].Message.Content, nil
}
