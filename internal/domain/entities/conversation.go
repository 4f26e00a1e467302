package entities

// Role tags a message in a conversation transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolChoice controls whether the model may call tools.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceNone ToolChoice = "none"
)

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Arguments is the raw JSON argument object as produced by the model.
	Arguments string `json:"arguments"`
}

// Message is one role-tagged entry of a transcript.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// SystemMessage creates a system prompt message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ToolResultMessage creates the reply to a tool call.
func ToolResultMessage(call ToolCall, content string) Message {
	return Message{Role: RoleTool, Content: content, Name: call.Name, ToolCallID: call.ID}
}

// HasToolCalls reports whether the message requests any tool invocation.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// ChatRequest is one exchange sent to a chat model.
type ChatRequest struct {
	Model    string           `json:"model,omitempty"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDescriptor `json:"tools,omitempty"`
	// ToolChoice is only meaningful when Tools is non-empty.
	ToolChoice ToolChoice `json:"tool_choice,omitempty"`
}

// ChatResponse is the model's reply to a ChatRequest.
type ChatResponse struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Model        string  `json:"model,omitempty"`
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
}
