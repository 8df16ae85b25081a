package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/weave/internal/extractor"
	"github.com/MikeSquared-Agency/weave/internal/printer"
	"github.com/MikeSquared-Agency/weave/internal/transcript"
)

var (
	extractRecommendations bool
	extractNoSuggestions   bool
	extractMinConfidence   float64
	extractChunk           int
)

var extractCmd = &cobra.Command{
	Use:   "extract <transcript-file>",
	Short: "Run entity extraction on a transcript file and print JSON",
	Long: `Reads a transcript (.json, .yaml or .yml), either a list of
{sender, content} messages or an object with a "messages" key, and prints the
extraction result. A .jsonl file holds one {role, content} message per line.
With --recommendations it prints recommendations instead.

--chunk N splits long transcripts into segments of at most N messages (also
breaking on long pauses) and merges the per-segment entities.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractRecommendations, "recommendations", false, "extract recommendations instead of entities")
	extractCmd.Flags().BoolVar(&extractNoSuggestions, "no-suggestions", false, "skip suggested connections")
	extractCmd.Flags().Float64Var(&extractMinConfidence, "min-confidence", -1, "minimum confidence (default from config)")
	extractCmd.Flags().IntVar(&extractChunk, "chunk", 0, "extract entities per segment of at most N messages and merge")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	t, err := transcript.Load(args[0])
	if err != nil {
		return printer.Error("Failed to read transcript", err.Error(), []string{
			"Transcripts are a list of {sender: user|assistant, content} messages",
		})
	}

	gateway, err := newGateway(cfg)
	if err != nil {
		return err
	}
	ext := newExtractor(cfg, gateway)

	var result any
	if extractRecommendations {
		minConf := cfg.RecommendationMinConfidence
		if extractMinConfidence >= 0 {
			minConf = extractMinConfidence
		}
		result, err = ext.ExtractRecommendations(cmd.Context(), t, minConf)
	} else {
		opts := extractor.EntityOptions{IncludeSuggestions: !extractNoSuggestions, MinConfidence: cfg.EntityMinConfidence}
		if extractMinConfidence >= 0 {
			opts.MinConfidence = extractMinConfidence
		}
		if extractChunk > 0 {
			result, err = extractChunked(cmd.Context(), ext, t, extractChunk, opts)
		} else {
			result, err = ext.ExtractEntities(cmd.Context(), t, opts)
		}
	}

	var malformed *extractor.MalformedOutputError
	switch {
	case errors.As(err, &malformed):
		return printer.Error("Model returned no usable JSON", malformed.Reason, []string{
			"Re-run the command; output varies between calls",
		})
	case err != nil:
		return printer.Error("Extraction failed", err.Error(), nil)
	}

	return printer.JSON(os.Stdout, result)
}

// extractChunked runs entity extraction per segment. A segment with unusable
// model output is skipped; any other error aborts.
func extractChunked(ctx context.Context, ext *extractor.Extractor, t transcript.Transcript, size int, opts extractor.EntityOptions) (*extractor.Extraction, error) {
	chunks := transcript.Chunk(t, size, transcript.DefaultChunkGap)
	parts := make([]*extractor.Extraction, 0, len(chunks))

	for i, c := range chunks {
		if err := c.Validate(); err != nil {
			continue
		}
		res, err := ext.ExtractEntities(ctx, c, opts)
		var malformed *extractor.MalformedOutputError
		if errors.As(err, &malformed) {
			printer.Warning("skipped segment %d of %d: %s\n", i+1, len(chunks), malformed.Reason)
			continue
		}
		if err != nil {
			return nil, err
		}
		slog.Info("segment extracted", "segment", i, "messages", len(c), "artifacts", len(res.Artifacts))
		parts = append(parts, res)
	}

	return extractor.Merge(parts...), nil
}
