package transcript

import "time"

const (
	DefaultChunkMessages = 20
	DefaultChunkGap      = 10 * time.Minute
)

// Chunk splits a long transcript into segments for separate extraction calls.
// It breaks after maxMessages turns and wherever consecutive timestamped
// turns are more than gap apart. Segments share no turns; order is kept.
func Chunk(t Transcript, maxMessages int, gap time.Duration) []Transcript {
	if len(t) == 0 {
		return nil
	}
	if maxMessages <= 0 {
		maxMessages = DefaultChunkMessages
	}

	var chunks []Transcript
	var current Transcript

	for _, m := range t {
		if len(current) > 0 && gap > 0 && !m.Timestamp.IsZero() {
			prev := current[len(current)-1]
			if !prev.Timestamp.IsZero() && m.Timestamp.Sub(prev.Timestamp) > gap {
				chunks = append(chunks, current)
				current = nil
			}
		}

		if len(current) >= maxMessages {
			chunks = append(chunks, current)
			current = nil
		}

		current = append(current, m)
	}

	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
