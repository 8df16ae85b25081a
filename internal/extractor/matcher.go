package extractor

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// minMatchedArtifacts is the fewest stored artifacts a pattern must link.
	minMatchedArtifacts = 2
	// minContainmentRunes is the shortest title allowed to match by substring.
	// Shorter titles ("It", "Up") only match exactly.
	minContainmentRunes = 4
)

// TitlesMatch reports whether a claimed title refers to a stored title:
// case-insensitive, and either side may contain the other.
func TitlesMatch(stored, claimed string) bool {
	s := strings.ToLower(strings.TrimSpace(stored))
	c := strings.ToLower(strings.TrimSpace(claimed))
	if s == "" || c == "" {
		return false
	}
	if s == c {
		return true
	}
	shorter := s
	if utf8.RuneCountInString(c) < utf8.RuneCountInString(s) {
		shorter = c
	}
	if utf8.RuneCountInString(shorter) < minContainmentRunes {
		return false
	}
	return strings.Contains(s, c) || strings.Contains(c, s)
}

// MatchArtifacts resolves claimed titles against the user's stored artifacts.
// Each stored artifact is linked at most once; results follow claim order.
func MatchArtifacts(claimed []string, stored []StoredArtifact) ([]uuid.UUID, []string) {
	ids := make([]uuid.UUID, 0, len(claimed))
	titles := make([]string, 0, len(claimed))
	used := make(map[uuid.UUID]bool, len(claimed))

	for _, title := range claimed {
		for _, a := range stored {
			if used[a.ID] || !TitlesMatch(a.Title, title) {
				continue
			}
			used[a.ID] = true
			ids = append(ids, a.ID)
			titles = append(titles, a.Title)
			break
		}
	}
	return ids, titles
}

// PatternID derives a stable id from the pattern text and its matched titles.
// Title order does not matter. The hash is the 32-bit h = (h<<5) - h + c over
// UTF-16 code units, rendered in base 36. Not a security boundary.
func PatternID(pattern string, titles []string) string {
	lowered := make([]string, len(titles))
	for i, t := range titles {
		lowered[i] = strings.ToLower(t)
	}
	sort.Strings(lowered)

	key := strings.ToLower(pattern) + strings.Join(lowered, ",")

	var h int32
	for _, unit := range utf16.Encode([]rune(key)) {
		h = (h << 5) - h + int32(unit)
	}

	n := int64(h)
	if n < 0 {
		n = -n
	}
	return "pattern-" + strconv.FormatInt(n, 36)
}

// resolvePatterns turns model patterns into DetectedPatterns linked to stored
// artifacts. Patterns below threshold or with fewer than two matches are
// dropped, as are repeats of an id already emitted.
func resolvePatterns(raw []rawPattern, stored []StoredArtifact, threshold float64) []DetectedPattern {
	out := make([]DetectedPattern, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for _, p := range FilterByConfidence(raw, threshold) {
		text := strings.TrimSpace(p.Pattern)
		if text == "" {
			continue
		}
		ids, titles := MatchArtifacts(p.Artifacts, stored)
		if len(ids) < minMatchedArtifacts {
			continue
		}
		id := PatternID(text, titles)
		if seen[id] {
			continue
		}
		seen[id] = true

		out = append(out, DetectedPattern{
			ID:             id,
			Pattern:        text,
			Description:    strings.TrimSpace(p.Description),
			ArtifactIDs:    ids,
			ArtifactTitles: titles,
			Confidence:     p.Confidence,
			PatternType:    normalizePatternType(p.PatternType),
		})
	}
	return out
}
