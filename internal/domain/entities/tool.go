package entities

// ToolDescriptor describes a callable function in the shape chat models expect.
type ToolDescriptor struct {
	Type     string             `json:"type" yaml:"type"`
	Function FunctionDescriptor `json:"function" yaml:"function"`
}

// FunctionDescriptor names a function and its JSON schema parameters.
type FunctionDescriptor struct {
	Name        string                 `json:"name" yaml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Name is a shortcut for Function.Name.
func (t ToolDescriptor) Name() string {
	return t.Function.Name
}

// ToolResult is the outcome of a single dispatched tool call.
type ToolResult struct {
	CallID   string       `json:"call_id"`
	Tool     string       `json:"tool"`
	Status   string       `json:"status"`
	Error    string       `json:"error,omitempty"`
	Record   string       `json:"record_id,omitempty"`
	Issues   []FieldIssue `json:"issues,omitempty"`
	Duration string       `json:"duration,omitempty"`
}

// Content is the text sent back to the model for this call.
func (r ToolResult) Content() string {
	if r.Error != "" {
		return "error: " + r.Error
	}
	return r.Status
}
