package extractor

// Scored is anything carrying a model confidence.
type Scored interface {
	Score() float64
}

// FilterByConfidence keeps items whose confidence is at least threshold, in
// their original order. The result is never nil.
func FilterByConfidence[T Scored](items []T, threshold float64) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.Score() >= threshold {
			out = append(out, it)
		}
	}
	return out
}
