package entities

import "time"

// ExtractionResult is the outcome of one note extraction.
type ExtractionResult struct {
	ID string `json:"id"`
	// Message is the model's final natural-language reply.
	Message     string            `json:"message"`
	ToolResults []ToolResult      `json:"tool_results,omitempty"`
	Resources   []*ResourceRecord `json:"resources,omitempty"`
	Transcript  []Message         `json:"transcript,omitempty"`
	// ExportIssues lists sinks that failed to receive the new resources.
	ExportIssues []string      `json:"export_issues,omitempty"`
	Duration     time.Duration `json:"duration"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ExchangeCount is the number of model exchanges the extraction needed.
func (r *ExtractionResult) ExchangeCount() int {
	if len(r.ToolResults) > 0 {
		return 2
	}
	return 1
}
