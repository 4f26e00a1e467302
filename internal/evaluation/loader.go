package evaluation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

// LoadGoldenNotes reads and parses a golden note set from a JSON file.
func LoadGoldenNotes(path string) ([]GoldenNote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden notes file: %w", err)
	}

	var notes []GoldenNote
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("failed to parse golden notes: %w", err)
	}

	return notes, nil
}

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

// ValidateGoldenNotes checks that all golden notes have required fields and valid values.
func ValidateGoldenNotes(notes []GoldenNote) error {
	seen := make(map[string]struct{}, len(notes))

	for i, n := range notes {
		if n.ID == "" {
			return fmt.Errorf("note at index %d: missing id", i)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("note at index %d: duplicate id %q", i, n.ID)
		}
		seen[n.ID] = struct{}{}

		if n.Note == "" {
			return fmt.Errorf("note %q: missing note text", n.ID)
		}
		for kind, codes := range n.Expected {
			if _, err := entities.ParseResourceKind(string(kind)); err != nil {
				return fmt.Errorf("note %q: %w", n.ID, err)
			}
			for _, code := range codes {
				if code == "" {
					return fmt.Errorf("note %q: empty %s code", n.ID, kind)
				}
			}
		}
		if !validDifficulties[n.Difficulty] {
			return fmt.Errorf("note %q: invalid difficulty %q (must be easy/medium/hard)", n.ID, n.Difficulty)
		}
	}

	return nil
}
