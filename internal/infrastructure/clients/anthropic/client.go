// Package anthropic implements the chat provider on the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/providers"
	"github.com/zatekoja/notefhir/pkg/config"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

const (
	defaultModel     = "claude-3-5-haiku-20241022"
	defaultMaxTokens = 2048
	providerName     = "anthropic"
	maxRetries       = 2
)

// ErrAPIKeyRequired is returned when no API key is configured.
var ErrAPIKeyRequired = errors.New("anthropic api key is required")

// Client implements providers.ChatProvider.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClient creates a new Anthropic client. Extra request options are appended after the
// configured ones.
func NewClient(cfg *config.AnthropicConfig, opts ...option.RequestOption) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	options := append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(maxRetries),
	}, opts...)

	return &Client{
		client:    anthropic.NewClient(options...),
		model:     model,
		maxTokens: maxTokens,
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

// Complete implements providers.ChatProvider.
func (c *Client) Complete(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, apperrors.NewValidationError("chat request requires messages")
	}

	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return nil, apperrors.NewUnauthorizedError("anthropic rejected the credentials", fmt.Errorf("%w: %v", providers.ErrChatUnauthorized, err))
		}
		return nil, apperrors.NewExternalError("anthropic message request failed", err)
	}

	return toChatResponse(message)
}

func (c *Client) buildParams(req *entities.ChatRequest) (anthropic.MessageNewParams, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	system, messages, err := toMessageParams(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  messages,
	}

	switch {
	case len(req.Tools) > 0:
		for _, tool := range req.Tools {
			params.Tools = append(params.Tools, toToolParam(tool))
		}
		switch req.ToolChoice {
		case entities.ToolChoiceNone:
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		default:
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
		}
	default:
		// The Messages API requires tool definitions whenever the transcript replays
		// tool_use or tool_result blocks.
		if names := calledTools(req.Messages); len(names) > 0 {
			for _, name := range names {
				params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
					Name:        name,
					InputSchema: anthropic.ToolInputSchemaParam{},
				}})
			}
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		}
	}
	return params, nil
}

// calledTools lists the distinct tool names called in the transcript, in first-call order.
func calledTools(transcript []entities.Message) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, m := range transcript {
		for _, call := range m.ToolCalls {
			if _, ok := seen[call.Name]; ok {
				continue
			}
			seen[call.Name] = struct{}{}
			names = append(names, call.Name)
		}
	}
	return names
}

// toMessageParams converts a transcript. System messages become the system prompt and
// consecutive tool results are merged into a single user turn.
func toMessageParams(transcript []entities.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam, error) {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(pendingResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, m := range transcript {
		switch m.Role {
		case entities.RoleSystem:
			if m.Content != "" {
				system = append(system, anthropic.TextBlockParam{Text: m.Content})
			}
		case entities.RoleTool:
			isError := strings.HasPrefix(m.Content, "error: ")
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, isError))
		case entities.RoleUser:
			flush()
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case entities.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				args := strings.TrimSpace(call.Arguments)
				if args == "" {
					args = "{}"
				}
				if !json.Valid([]byte(args)) {
					return nil, nil, apperrors.NewValidationError(fmt.Sprintf("tool call %s has invalid arguments", call.ID))
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, json.RawMessage(args), call.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			return nil, nil, apperrors.NewValidationError(fmt.Sprintf("unsupported message role %q", m.Role))
		}
	}
	flush()
	return system, messages, nil
}

func toToolParam(tool entities.ToolDescriptor) anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{}
	if props, ok := tool.Function.Parameters["properties"]; ok {
		schema.Properties = props
	}
	if required, ok := tool.Function.Parameters["required"].([]interface{}); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	param := &anthropic.ToolParam{
		Name:        tool.Function.Name,
		InputSchema: schema,
	}
	if tool.Function.Description != "" {
		param.Description = anthropic.String(tool.Function.Description)
	}
	return anthropic.ToolUnionParam{OfTool: param}
}

func toChatResponse(message *anthropic.Message) (*entities.ChatResponse, error) {
	out := entities.Message{Role: entities.RoleAssistant}
	var text []string
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			text = append(text, block.Text)
		case "tool_use":
			input, err := json.Marshal(block.Input)
			if err != nil {
				return nil, apperrors.NewExternalError("anthropic tool input is not JSON", err)
			}
			out.ToolCalls = append(out.ToolCalls, entities.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(input),
			})
		}
	}
	out.Content = strings.Join(text, "\n")

	return &entities.ChatResponse{
		Message:      out,
		FinishReason: string(message.StopReason),
		Model:        string(message.Model),
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}
