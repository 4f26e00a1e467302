package evaluation

import (
	"time"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

// GoldenNote is a labeled clinical note with the codes a correct extraction produces.
type GoldenNote struct {
	ID   string `json:"id"`
	Note string `json:"note"`
	// Expected maps a resource type to the SNOMED codes that should be extracted for it.
	Expected   map[entities.ResourceKind][]string `json:"expected"`
	Difficulty string                             `json:"difficulty"` // easy, medium, hard
}

// Labels flattens the expected codes into "Kind/code" labels.
func (g GoldenNote) Labels() []string {
	var out []string
	for _, kind := range entities.ResourceKinds {
		for _, code := range g.Expected[kind] {
			out = append(out, label(kind, code))
		}
	}
	return out
}

func label(kind entities.ResourceKind, code string) string {
	return string(kind) + "/" + code
}

// EvalResult holds the evaluation outcome for a single note.
type EvalResult struct {
	NoteID     string        `json:"note_id"`
	Precision  float64       `json:"precision"`
	Recall     float64       `json:"recall"`
	F1         float64       `json:"f1"`
	Missing    []string      `json:"missing,omitempty"`
	Unexpected []string      `json:"unexpected,omitempty"`
	Latency    time.Duration `json:"latency"`
	Error      string        `json:"error,omitempty"`
}

// EvalSummary holds aggregate metrics across all golden notes. Failed notes score zero.
type EvalSummary struct {
	TotalNotes   int                                     `json:"total_notes"`
	Failed       int                                     `json:"failed"`
	AvgPrecision float64                                 `json:"avg_precision"`
	AvgRecall    float64                                 `json:"avg_recall"`
	AvgF1        float64                                 `json:"avg_f1"`
	AvgLatency   time.Duration                           `json:"avg_latency"`
	ByKind       map[entities.ResourceKind]*KindSummary `json:"by_kind"`
	Results      []EvalResult                            `json:"results"`
}

// KindSummary holds metrics for one resource type, over notes that expect or produced it.
type KindSummary struct {
	Count        int     `json:"count"`
	AvgPrecision float64 `json:"avg_precision"`
	AvgRecall    float64 `json:"avg_recall"`
}
