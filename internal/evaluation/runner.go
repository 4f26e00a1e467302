package evaluation

import (
	"context"
	"time"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
)

// Extractor runs one note through the extraction pipeline.
type Extractor interface {
	Extract(ctx context.Context, note string) (*entities.ExtractionResult, error)
}

// Runner runs evaluation across a set of golden notes.
type Runner struct {
	extractor Extractor
}

func NewRunner(extractor Extractor) *Runner {
	return &Runner{extractor: extractor}
}

// Run extracts every note in order. A failed extraction is recorded and scored zero;
// only context cancellation stops the run early.
func (r *Runner) Run(ctx context.Context, notes []GoldenNote) (*EvalSummary, error) {
	logger := observability.LoggerFromContext(ctx)
	summary := &EvalSummary{
		TotalNotes: len(notes),
		ByKind:     make(map[entities.ResourceKind]*KindSummary),
	}

	for _, gn := range notes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		result, err := r.extractor.Extract(ctx, gn.Note)
		duration := time.Since(start)

		if err != nil {
			logger.Warn().Err(err).Str("note_id", gn.ID).Msg("extraction failed during evaluation")
			summary.Failed++
			summary.AvgLatency += duration
			summary.Results = append(summary.Results, EvalResult{NoteID: gn.ID, Latency: duration, Error: err.Error()})
			continue
		}

		extracted := extractedLabels(result)
		relevant := gn.Labels()
		precision := Precision(relevant, extracted)
		recall := Recall(relevant, extracted)

		res := EvalResult{
			NoteID:     gn.ID,
			Precision:  precision,
			Recall:     recall,
			F1:         F1(precision, recall),
			Missing:    Difference(relevant, extracted),
			Unexpected: Difference(extracted, relevant),
			Latency:    duration,
		}
		r.updateSummary(summary, res)
		r.updateKinds(summary, gn, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func extractedLabels(result *entities.ExtractionResult) []string {
	out := make([]string, 0, len(result.Resources))
	for _, rec := range result.Resources {
		out = append(out, label(rec.Kind, rec.Code()))
	}
	return out
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgPrecision += res.Precision
	s.AvgRecall += res.Recall
	s.AvgF1 += res.F1
	s.AvgLatency += res.Latency
	s.Results = append(s.Results, res)
}

func (r *Runner) updateKinds(s *EvalSummary, gn GoldenNote, result *entities.ExtractionResult) {
	for _, kind := range entities.ResourceKinds {
		relevant := gn.Expected[kind]
		var extracted []string
		for _, rec := range result.Resources {
			if rec.Kind == kind {
				extracted = append(extracted, rec.Code())
			}
		}
		if len(relevant) == 0 && len(extracted) == 0 {
			continue
		}

		ks, ok := s.ByKind[kind]
		if !ok {
			ks = &KindSummary{}
			s.ByKind[kind] = ks
		}
		ks.Count++
		ks.AvgPrecision += Precision(relevant, extracted)
		ks.AvgRecall += Recall(relevant, extracted)
	}
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalNotes > 0 {
		n := float64(s.TotalNotes)
		s.AvgPrecision /= n
		s.AvgRecall /= n
		s.AvgF1 /= n
		s.AvgLatency /= time.Duration(s.TotalNotes)
	}

	for _, ks := range s.ByKind {
		if ks.Count > 0 {
			n := float64(ks.Count)
			ks.AvgPrecision /= n
			ks.AvgRecall /= n
		}
	}
}
