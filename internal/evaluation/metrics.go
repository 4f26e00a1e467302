package evaluation

// Recall is the fraction of relevant labels that were extracted. A note that expects
// nothing has perfect recall.
func Recall(relevant, extracted []string) float64 {
	rel := toSet(relevant)
	if len(rel) == 0 {
		return 1.0
	}
	found := 0
	for r := range toSet(extracted) {
		if _, ok := rel[r]; ok {
			found++
		}
	}
	return float64(found) / float64(len(rel))
}

// Precision is the fraction of extracted labels that were relevant. Extracting nothing
// is only correct when nothing was expected.
func Precision(relevant, extracted []string) float64 {
	ext := toSet(extracted)
	if len(ext) == 0 {
		if len(toSet(relevant)) == 0 {
			return 1.0
		}
		return 0.0
	}
	rel := toSet(relevant)
	hits := 0
	for e := range ext {
		if _, ok := rel[e]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(ext))
}

// F1 is the harmonic mean of precision and recall.
func F1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0.0
	}
	return 2 * precision * recall / (precision + recall)
}

// Difference returns the labels of a that are not in b, in order of first appearance.
func Difference(a, b []string) []string {
	exclude := toSet(b)
	seen := make(map[string]struct{}, len(a))
	var out []string
	for _, v := range a {
		if _, ok := exclude[v]; ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
