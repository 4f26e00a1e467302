package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/pkg/config"
	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(&config.AnthropicConfig{APIKey: "test-key"},
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(&config.AnthropicConfig{})
	assert.ErrorIs(t, err, ErrAPIKeyRequired)

	c, err := NewClient(&config.AnthropicConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, defaultModel, c.Model())
	assert.Equal(t, "anthropic", c.Name())
}

func TestComplete_ToolUse(t *testing.T) {
	var body map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-20241022",
			"stop_reason": "tool_use",
			"content": [
				{"type": "text", "text": "Recording the condition."},
				{"type": "tool_use", "id": "toolu_1", "name": "extract_fhir_condition", "input": {"condition": "chest pain"}}
			],
			"usage": {"input_tokens": 50, "output_tokens": 12}
		}`))
	})

	resp, err := client.Complete(context.Background(), &entities.ChatRequest{
		Messages: []entities.Message{
			entities.SystemMessage("You extract resources."),
			entities.UserMessage("Chest pain today."),
		},
		Tools: []entities.ToolDescriptor{{
			Type: "function",
			Function: entities.FunctionDescriptor{
				Name:        "extract_fhir_condition",
				Description: "Record a condition",
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": map[string]interface{}{"condition": map[string]interface{}{"type": "string"}},
					"required":   []interface{}{"condition"},
				},
			},
		}},
		ToolChoice: entities.ToolChoiceAuto,
	})
	require.NoError(t, err)

	system := body["system"].([]interface{})
	assert.Equal(t, "You extract resources.", system[0].(map[string]interface{})["text"])
	assert.Len(t, body["messages"], 1)
	tools := body["tools"].([]interface{})
	tool := tools[0].(map[string]interface{})
	assert.Equal(t, "extract_fhir_condition", tool["name"])
	schema := tool["input_schema"].(map[string]interface{})
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []interface{}{"condition"}, schema["required"])
	assert.Equal(t, "auto", body["tool_choice"].(map[string]interface{})["type"])

	assert.Equal(t, "Recording the condition.", resp.Message.Content)
	require.Len(t, resp.Message.ToolCalls, 1)
	call := resp.Message.ToolCalls[0]
	assert.Equal(t, "toolu_1", call.ID)
	assert.Equal(t, "extract_fhir_condition", call.Name)
	assert.JSONEq(t, `{"condition":"chest pain"}`, call.Arguments)
	assert.Equal(t, "tool_use", resp.FinishReason)
	assert.Equal(t, 50, resp.InputTokens)
}

func TestToMessageParams_MergesToolResults(t *testing.T) {
	c1 := entities.ToolCall{ID: "toolu_1", Name: "extract_fhir_condition", Arguments: `{"condition":"chest pain"}`}
	c2 := entities.ToolCall{ID: "toolu_2", Name: "extract_fhir_procedure", Arguments: ``}
	system, messages, err := toMessageParams([]entities.Message{
		entities.SystemMessage("prompt"),
		entities.UserMessage("note"),
		{Role: entities.RoleAssistant, ToolCalls: []entities.ToolCall{c1, c2}},
		entities.ToolResultMessage(c1, "Condition was added"),
		entities.ToolResultMessage(c2, "error: MISSING_FIELD: required field \"procedure\" is missing"),
	})
	require.NoError(t, err)
	require.Len(t, system, 1)
	require.Len(t, messages, 3)

	data, err := json.Marshal(messages)
	require.NoError(t, err)
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "user", decoded[0]["role"])
	assert.Equal(t, "assistant", decoded[1]["role"])
	assert.Len(t, decoded[1]["content"], 2)
	assert.Equal(t, "user", decoded[2]["role"])
	results := decoded[2]["content"].([]interface{})
	require.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "tool_result", first["type"])
	assert.Equal(t, "toolu_1", first["tool_use_id"])
	second := results[1].(map[string]interface{})
	assert.Equal(t, true, second["is_error"])
}

func TestComplete_SecondExchangeDeclaresCalledTools(t *testing.T) {
	var body map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_2",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-20241022",
			"stop_reason": "end_turn",
			"content": [{"type": "text", "text": "Recorded chest pain and aspirin."}],
			"usage": {"input_tokens": 80, "output_tokens": 9}
		}`))
	})

	c1 := entities.ToolCall{ID: "toolu_1", Name: "extract_fhir_condition", Arguments: `{"condition":"chest pain"}`}
	c2 := entities.ToolCall{ID: "toolu_2", Name: "extract_fhir_medication_statement", Arguments: `{"medication_statement":"aspirin"}`}
	c3 := entities.ToolCall{ID: "toolu_3", Name: "extract_fhir_condition", Arguments: `{"condition":"dyspnoea"}`}
	resp, err := client.Complete(context.Background(), &entities.ChatRequest{
		Messages: []entities.Message{
			entities.SystemMessage("You extract resources."),
			entities.UserMessage("Chest pain and dyspnoea, on aspirin."),
			{Role: entities.RoleAssistant, ToolCalls: []entities.ToolCall{c1, c2, c3}},
			entities.ToolResultMessage(c1, "Condition was added"),
			entities.ToolResultMessage(c2, "Medication statement was added"),
			entities.ToolResultMessage(c3, "Condition was added"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Recorded chest pain and aspirin.", resp.Message.Content)

	tools := body["tools"].([]interface{})
	require.Len(t, tools, 2)
	first := tools[0].(map[string]interface{})
	assert.Equal(t, "extract_fhir_condition", first["name"])
	assert.Equal(t, "object", first["input_schema"].(map[string]interface{})["type"])
	assert.Equal(t, "extract_fhir_medication_statement", tools[1].(map[string]interface{})["name"])
	assert.Equal(t, "none", body["tool_choice"].(map[string]interface{})["type"])
	assert.Len(t, body["messages"], 3)
}

func TestComplete_NoToolsWithoutToolCalls(t *testing.T) {
	var body map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_3","type":"message","role":"assistant","model":"m","stop_reason":"end_turn","content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":1,"output_tokens":1}}`))
	})

	_, err := client.Complete(context.Background(), &entities.ChatRequest{Messages: []entities.Message{entities.UserMessage("x")}})
	require.NoError(t, err)
	assert.NotContains(t, body, "tools")
	assert.NotContains(t, body, "tool_choice")
}

func TestToMessageParams_InvalidArguments(t *testing.T) {
	_, _, err := toMessageParams([]entities.Message{
		{Role: entities.RoleAssistant, ToolCalls: []entities.ToolCall{{ID: "x", Name: "extract_fhir_condition", Arguments: "{"}}},
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestComplete_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})

	_, err := client.Complete(context.Background(), &entities.ChatRequest{Messages: []entities.Message{entities.UserMessage("x")}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}

func TestComplete_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	})

	_, err := client.Complete(context.Background(), &entities.ChatRequest{Messages: []entities.Message{entities.UserMessage("x")}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}
