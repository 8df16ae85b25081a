// Package printer formats CLI output for the weave command.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// subjectColors tints each event subject in `weave events`.
var subjectColors = map[string]*color.Color{
	"weave.conversation.saved": color.New(color.FgGreen),
	"weave.patterns.detected":  color.New(color.FgMagenta),
	"weave.entities.extracted": color.New(color.FgCyan),
}

// Success prints a success message in green with a checkmark prefix.
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Print(msg)
}

func Info(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Warning prints to stderr so it never mixes with JSON on stdout.
func Warning(format string, a ...any) {
	yellow.Fprintf(os.Stderr, "! %s", fmt.Sprintf(format, a...))
}

// Step prints a step in a multi-step operation.
func Step(format string, a ...any) {
	cyan.Printf("→ %s", fmt.Sprintf(format, a...))
}

// Error prints a titled error with suggestions to stderr and returns a plain
// error carrying only the title, for cobra.
func Error(title, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "%s\n", explanation)
	}

	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(os.Stderr, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(os.Stderr, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, s)
		}
	}

	return fmt.Errorf("%s", title)
}

// JSON writes v indented to w.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Event renders one received event as a single line:
// time, subject, then the compacted payload.
func Event(at time.Time, subject string, data []byte) string {
	c, ok := subjectColors[subject]
	if !ok {
		c = color.New(color.FgWhite)
	}

	payload := strings.TrimSpace(string(data))
	var v any
	if err := json.Unmarshal(data, &v); err == nil {
		if compact, err := json.Marshal(v); err == nil {
			payload = string(compact)
		}
	}

	return fmt.Sprintf("%s %s %s",
		faint.Sprint(at.Format("15:04:05.000")),
		c.Sprintf("%-26s", subject),
		payload,
	)
}
