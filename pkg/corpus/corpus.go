// Package corpus reads messages to learn from JSON files and web articles.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/japaniel/blini/pkg/markov"
)

// Message is one utterance in a corpus file.
type Message struct {
	Text string      `json:"text"`
	Tags markov.Tags `json:"tags,omitempty"`
}

// LoadMessages reads a corpus file. Both an object wrapper
// {"messages": [...]} and a bare array [...] are accepted.
func LoadMessages(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var wrapper struct {
		Messages []Message `json:"messages"`
	}
	dec := json.NewDecoder(f)
	if err := dec.Decode(&wrapper); err == nil && len(wrapper.Messages) > 0 {
		return wrapper.Messages, nil
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	var msgs []Message
	dec = json.NewDecoder(f)
	if err := dec.Decode(&msgs); err != nil {
		return nil, fmt.Errorf("failed to parse corpus as object or array: %w", err)
	}
	return msgs, nil
}
