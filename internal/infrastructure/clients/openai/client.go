package openai

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

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/providers"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	"github.com/zatekoja/notefhir/pkg/config"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
	"github.com/zatekoja/notefhir/pkg/retry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	providerName   = "openai"
)

// Client implements providers.ChatProvider against the OpenAI chat completions API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *tokenBucket
	retry      retry.Config
}

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.OpenAIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	retryCfg := retry.LookupConfig(3)
	retryCfg.ShouldRetry = isRetryable

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: newTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst),
		retry:   retryCfg,
	}, nil
}

// Name implements providers.ChatProvider.
func (c *Client) Name() string {
	return providerName
}

// Model returns the default model.
func (c *Client) Model() string {
	return c.model
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireFunctionCall `json:"function"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type chatPayload struct {
	Model      string                    `json:"model"`
	Messages   []wireMessage             `json:"messages"`
	Tools      []entities.ToolDescriptor `json:"tools,omitempty"`
	ToolChoice string                    `json:"tool_choice,omitempty"`
}

type chatChoice struct {
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatEnvelope struct {
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// statusError carries a non-2xx response status.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("openai request failed with status %d: %s", e.code, e.message)
	}
	return fmt.Sprintf("openai request failed with status %d", e.code)
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return false
}

// Complete sends one exchange to the chat completions endpoint.
func (c *Client) Complete(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, apperrors.NewValidationError("chat request requires messages")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordOpenAIMetric(ctx, model, 0, 0, err)
			return nil, err
		}
		recordOpenAIRateLimitWait(ctx, model, time.Since(waitStart))
	}

	payload := chatPayload{
		Model:    model,
		Messages: toWireMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		payload.Tools = req.Tools
		payload.ToolChoice = string(req.ToolChoice)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var envelope *chatEnvelope
	err = retry.DoWithLog(ctx, c.retry, providerName, func() error {
		var callErr error
		envelope, callErr = c.post(ctx, model, body)
		return callErr
	}, func(attempt int, err error, next time.Duration) {
		observability.LoggerFromContext(ctx).Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("openai request failed, retrying")
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusUnauthorized || se.code == http.StatusForbidden) {
			return nil, apperrors.NewUnauthorizedError("openai rejected the credentials", fmt.Errorf("%w: %v", providers.ErrChatUnauthorized, err))
		}
		return nil, apperrors.NewExternalError("openai chat completion failed", err)
	}

	if len(envelope.Choices) == 0 {
		return nil, apperrors.NewExternalError("openai response has no choices", nil)
	}
	choice := envelope.Choices[0]
	return &entities.ChatResponse{
		Message:      fromWireMessage(choice.Message),
		FinishReason: choice.FinishReason,
		Model:        envelope.Model,
		InputTokens:  envelope.Usage.PromptTokens,
		OutputTokens: envelope.Usage.CompletionTokens,
	}, nil
}

func (c *Client) post(ctx context.Context, model string, body []byte) (*chatEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordOpenAIMetric(ctx, model, 0, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &statusError{code: resp.StatusCode}
		var apiErr errorEnvelope
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); readErr == nil && json.Unmarshal(data, &apiErr) == nil {
			se.message = apiErr.Error.Message
		}
		recordOpenAIMetric(ctx, model, resp.StatusCode, time.Since(start), se)
		return nil, se
	}

	var envelope chatEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordOpenAIMetric(ctx, model, resp.StatusCode, time.Since(start), err)
		return nil, fmt.Errorf("failed to decode openai response: %w", err)
	}

	recordOpenAIMetric(ctx, model, resp.StatusCode, time.Since(start), nil)
	return &envelope, nil
}

func toWireMessages(messages []entities.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		content := m.Content
		wm := wireMessage{
			Role:       string(m.Role),
			Content:    &content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		if len(m.ToolCalls) > 0 {
			if content == "" {
				wm.Content = nil
			}
			for _, tc := range m.ToolCalls {
				wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
					ID:       tc.ID,
					Type:     "function",
					Function: wireFunctionCall{Name: tc.Name, Arguments: tc.Arguments},
				})
			}
		}
		out = append(out, wm)
	}
	return out
}

func fromWireMessage(wm wireMessage) entities.Message {
	m := entities.Message{Role: entities.Role(wm.Role)}
	if wm.Content != nil {
		m.Content = *wm.Content
	}
	for _, tc := range wm.ToolCalls {
		m.ToolCalls = append(m.ToolCalls, entities.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return m
}
