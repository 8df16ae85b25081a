package extractor

import (
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/weave/internal/transcript"
)

const systemPrompt = `You are Weave's archivist. You read conversations between a person and their cultural companion and record, precisely and without embellishment, the cultural works and ideas they touch on.

You only ever answer with a single JSON object. No markdown fences, no commentary before or after.`

const entityInstructions = `Extract every cultural artifact (book, album, film, essay, artwork, podcast, article, or other work) discussed in the conversation below, plus the concepts and connections around them.

For each artifact:
- title: the work's canonical title
- type: one of book | album | film | essay | artwork | podcast | article | other
- creator: author, director, artist or host if known, otherwise omit
- year: year of release or publication if known, otherwise omit
- medium: physical or stylistic medium when it matters (e.g. "vinyl", "oil on canvas")
- context: the core idea of the work as it came up, at most 120 characters. State the idea itself, not that it was mentioned. Good: "anarchist society on a barren moon tests whether freedom survives scarcity". Bad: "the user mentioned this book".
- confidence: 0.0-1.0 how certain you are the work was genuinely discussed

For each concept: name, short description, confidence.
user_stated_connections: links between artifacts or concepts the user made explicitly (from, to, relationship, confidence).
%s
Confidence scoring:
- High (>0.85): named explicitly and discussed
- Medium (0.5-0.85): named in passing or clearly implied
- Low (<0.5): a guess; still include it

Example:
Conversation:
User: Reading The Dispossessed made me go back to Walden.
Assistant: Both ask what we owe each other when we choose to live simply.

{
  "artifacts": [
    {"title": "The Dispossessed", "type": "book", "creator": "Ursula K. Le Guin", "year": 1974, "context": "an anarchist moon colony tests whether freedom can survive scarcity", "confidence": 0.95},
    {"title": "Walden", "type": "book", "creator": "Henry David Thoreau", "year": 1854, "context": "deliberate simple living as a way to see what life actually requires", "confidence": 0.9}
  ],
  "concepts": [{"name": "voluntary simplicity", "description": "choosing less to live more deliberately", "confidence": 0.8}],
  "user_stated_connections": [{"from": "The Dispossessed", "to": "Walden", "relationship": "led the user back to", "confidence": 0.9}],
  "suggested_connections": []
}`

const suggestionsOn = `suggested_connections: non-obvious links between the artifacts or concepts that the user did not state but would likely find meaningful (from, to, relationship, confidence).
`

const suggestionsOff = `suggested_connections: always return an empty list.
`

const patternInstructions = `Below is a person's collection of saved cultural artifacts. Find patterns in their taste: recurring themes, styles, periods, creators, media, or personal threads that connect several works.

Rules:
- Every pattern must connect at least 2 artifacts from the list.
- Refer to artifacts by their exact title as listed.
- pattern: a single sentence claim about the person's taste
- description: one or two sentences of evidence
- pattern_type: one of thematic | stylistic | temporal | creator | medium | personal
- confidence: 0.0-1.0
- Prefer a few strong patterns over many weak ones. Return at most 6.

Collection:
%s

Respond with:
{
  "patterns": [
    {"pattern": "string", "description": "string", "artifacts": ["exact title", "exact title"], "pattern_type": "thematic", "confidence": 0.0}
  ]
}`

const recommendationInstructions = `Based on the conversation below, recommend cultural works the person has not mentioned but would likely value. Ground each recommendation in something they said.

For each recommendation:
- title
- creator, if known
- type: one of book | album | film | essay | artwork | podcast | article | other
- reason: one sentence tying it to the conversation
- confidence: 0.0-1.0 how well it fits

Return at most 5. Do not recommend works already discussed.

Conversation:
---
%s
---

Respond with:
{
  "recommendations": [
    {"title": "string", "creator": "string", "type": "book", "reason": "string", "confidence": 0.0}
  ]
}`

// BuildEntityPrompt is the user prompt for entity extraction.
func BuildEntityPrompt(t transcript.Transcript, includeSuggestions bool) string {
	suggestions := suggestionsOff
	if includeSuggestions {
		suggestions = suggestionsOn
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(entityInstructions, suggestions))
	sb.WriteString("\n\nConversation:\n---\n")
	sb.WriteString(transcript.Format(t))
	sb.WriteString("\n---")
	return sb.String()
}

// BuildPatternPrompt is the user prompt for pattern detection over stored artifacts.
func BuildPatternPrompt(artifacts []StoredArtifact) string {
	var sb strings.Builder
	for _, a := range artifacts {
		sb.WriteString("- ")
		sb.WriteString(a.Title)
		var meta []string
		if a.Type != "" {
			meta = append(meta, a.Type)
		}
		if a.Creator != "" {
			meta = append(meta, "by "+a.Creator)
		}
		if a.Year != nil {
			meta = append(meta, fmt.Sprintf("%d", *a.Year))
		}
		if len(meta) > 0 {
			sb.WriteString(" (" + strings.Join(meta, ", ") + ")")
		}
		sb.WriteString("\n")
	}
	return fmt.Sprintf(patternInstructions, strings.TrimRight(sb.String(), "\n"))
}

// BuildRecommendationPrompt is the user prompt for recommendations.
func BuildRecommendationPrompt(t transcript.Transcript) string {
	return fmt.Sprintf(recommendationInstructions, transcript.Format(t))
}
