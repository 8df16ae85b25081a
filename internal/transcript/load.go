package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a transcript file. JSON and YAML are both accepted; either a bare
// list of messages or an object with a "messages" key. A .jsonl file holds one
// message per line.
func Load(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".yaml", ".yml":
	case ".jsonl":
		return parseJSONL(data)
	default:
		return nil, fmt.Errorf("unsupported transcript format %q", ext)
	}

	// JSON is a subset of YAML, so one decoder serves both.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, ErrEmptyTranscript
	}

	var t Transcript
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&t); err != nil {
			return nil, fmt.Errorf("decode messages: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Messages Transcript `yaml:"messages"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("decode messages: %w", err)
		}
		t = wrapped.Messages
	default:
		return nil, fmt.Errorf("parse transcript: expected a list or an object")
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

type jsonlLine struct {
	Sender    string          `json:"sender"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Timestamp string          `json:"timestamp"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// parseJSONL accepts {sender|role, content, timestamp} lines. Content is a
// string or a list of typed blocks, of which only "text" blocks are kept.
// Malformed lines and lines with other roles are skipped.
func parseJSONL(data []byte) (Transcript, error) {
	var t Transcript

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var line jsonlLine
		if err := json.Unmarshal(raw, &line); err != nil {
			continue
		}

		sender := Sender(strings.ToLower(line.Sender))
		if sender == "" {
			sender = Sender(strings.ToLower(line.Role))
		}
		if sender != SenderUser && sender != SenderAssistant {
			continue
		}

		text := lineText(line.Content)
		if text == "" {
			continue
		}

		ts, _ := time.Parse(time.RFC3339Nano, line.Timestamp)
		t = append(t, Message{Sender: sender, Content: text, Timestamp: ts})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func lineText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && strings.TrimSpace(b.Text) != "" {
			parts = append(parts, strings.TrimSpace(b.Text))
		}
	}
	return strings.Join(parts, "\n")
}
