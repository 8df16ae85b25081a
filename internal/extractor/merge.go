package extractor

import "strings"

// Merge combines extractions from consecutive chunks of one conversation.
// Duplicates are keyed case-insensitively (artifacts by title, concepts by
// name, connections by endpoints and relationship); the highest-confidence
// copy wins and the position of the first occurrence is kept.
func Merge(parts ...*Extraction) *Extraction {
	out := EmptyExtraction()
	for _, p := range parts {
		if p == nil {
			continue
		}
		out.Artifacts = append(out.Artifacts, p.Artifacts...)
		out.Concepts = append(out.Concepts, p.Concepts...)
		out.UserStatedConnections = append(out.UserStatedConnections, p.UserStatedConnections...)
		out.SuggestedConnections = append(out.SuggestedConnections, p.SuggestedConnections...)
	}

	out.Artifacts = dedupe(out.Artifacts, func(a ExtractedArtifact) string { return foldKey(a.Title) })
	out.Concepts = dedupe(out.Concepts, func(c Concept) string { return foldKey(c.Name) })
	out.UserStatedConnections = dedupe(out.UserStatedConnections, connectionKey)
	out.SuggestedConnections = dedupe(out.SuggestedConnections, connectionKey)
	return out
}

func dedupe[T Scored](items []T, key func(T) string) []T {
	out := make([]T, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		k := key(it)
		if i, ok := index[k]; ok {
			if it.Score() > out[i].Score() {
				out[i] = it
			}
			continue
		}
		index[k] = len(out)
		out = append(out, it)
	}
	return out
}

func connectionKey(c Connection) string {
	return foldKey(c.From) + "\x00" + foldKey(c.To) + "\x00" + foldKey(c.Relationship)
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
