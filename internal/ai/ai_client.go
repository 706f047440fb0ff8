package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/service"
)

type aiClient struct {
	provider   string
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *logger.Logger
}

const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
	// ProviderMessages is any Messages-API compatible endpoint
	// (POST /messages, reply in content[0].text).
	ProviderMessages = "messages"

	maxTokens = 512
)

type Options struct {
	Provider string
	APIKey   string
	// BaseURL and Model override the provider defaults when set.
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewAIClient(opts Options, logger *logger.Logger) service.AIClient {
	provider := strings.ToLower(opts.Provider)
	if provider == "" {
		provider = ProviderOpenAI
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = getBaseURL(provider)
	}
	model := opts.Model
	if model == "" {
		model = getModel(provider)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &aiClient{
		provider:   provider,
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// getBaseURL returns the appropriate API base URL based on the provider
func getBaseURL(provider string) string {
	switch provider {
	case ProviderDeepSeek:
		return "https://api.deepseek.com"
	case ProviderGemini:
		return "https://generativelanguage.googleapis.com/v1beta"
	case ProviderMessages:
		return "https://api.anthropic.com/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// getModel returns the appropriate model based on the provider
func getModel(provider string) string {
	switch provider {
	case ProviderDeepSeek:
		return "deepseek-chat"
	case ProviderGemini:
		return "gemini-2.0-flash-lite"
	case ProviderMessages:
		return "claude-3-5-haiku-latest"
	default:
		return "gpt-4o"
	}
}

// OpenAI/DeepSeek API request/response structures
type chatCompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Gemini API request/response structures
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// Messages API structures
type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (a *aiClient) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	var err error

	switch a.provider {
	case ProviderGemini:
		text, err = a.generateWithGemini(ctx, prompt)
	case ProviderMessages:
		text, err = a.generateWithMessages(ctx, prompt)
	default:
		text, err = a.generateWithOpenAIStyle(ctx, prompt)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate text with %s: %w", a.provider, err)
	}

	a.logger.Debug("Generated text with", a.provider)
	return strings.TrimSpace(text), nil
}

// generateWithOpenAIStyle handles OpenAI/DeepSeek chat completions
func (a *aiClient) generateWithOpenAIStyle(ctx context.Context, prompt string) (string, error) {
	request := chatCompletionRequest{
		Model:     a.model,
		Messages:  []message{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}

	var resp chatCompletionResponse
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}
	if err := a.postJSON(ctx, a.baseURL+"/chat/completions", headers, request, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from AI")
	}
	return resp.Choices[0].Message.Content, nil
}

// generateWithGemini handles the Google Gemini generateContent API
func (a *aiClient) generateWithGemini(ctx context.Context, prompt string) (string, error) {
	request := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}

	var resp geminiResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, a.model)
	headers := map[string]string{"x-goog-api-key": a.apiKey}
	if err := a.postJSON(ctx, url, headers, request, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content parts in Gemini response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// generateWithMessages handles Messages-API style endpoints
func (a *aiClient) generateWithMessages(ctx context.Context, prompt string) (string, error) {
	request := chatCompletionRequest{
		Model:     a.model,
		Messages:  []message{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}

	var resp messagesResponse
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"Authorization":     "Bearer " + a.apiKey,
		"anthropic-version": "2023-06-01",
	}
	if err := a.postJSON(ctx, a.baseURL+"/messages", headers, request, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no content returned from Messages API")
	}
	return resp.Content[0].Text, nil
}

// postJSON sends body as JSON and decodes a 2xx response into out.
func (a *aiClient) postJSON(ctx context.Context, url string, headers map[string]string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
