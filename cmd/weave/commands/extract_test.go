package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/weave/internal/extractor"
	"github.com/MikeSquared-Agency/weave/internal/llm"
	"github.com/MikeSquared-Agency/weave/internal/transcript"
)

// captureStderr runs fn with os.Stderr redirected and returns what it wrote.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = orig }()

	fn()
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestExtractChunked_WarnsOnSkippedSegment(t *testing.T) {
	var tr transcript.Transcript
	for i := 0; i < 4; i++ {
		sender := transcript.SenderUser
		if i%2 == 1 {
			sender = transcript.SenderAssistant
		}
		tr = append(tr, transcript.Message{Sender: sender, Content: fmt.Sprintf("turn %d", i)})
	}

	calls := 0
	gw := llm.GatewayFunc(func(_ context.Context, _ llm.Request) (string, error) {
		calls++
		if calls == 1 {
			return "Sorry, I can't do that.", nil
		}
		return `{"artifacts":[{"title":"Walden","type":"book","confidence":0.9}]}`, nil
	})
	ext := extractor.New(gw, extractor.Models{Entity: "e", Pattern: "p", Recommendation: "r"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var (
		result *extractor.Extraction
		err    error
	)
	stderr := captureStderr(t, func() {
		result, err = extractChunked(context.Background(), ext, tr, 2, extractor.EntityOptions{MinConfidence: 0.5})
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, "Walden", result.Artifacts[0].Title)
	assert.True(t, strings.Contains(stderr, "skipped segment 1 of 2"), "stderr was %q", stderr)
}
