package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/japaniel/blini/pkg/markov"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMessagesWrapper(t *testing.T) {
	path := writeFile(t, `{
  "messages": [
    {"text": "hello there"},
    {"text": "猫が好き", "tags": {"channel": "jp"}}
  ]
}`)
	msgs, err := LoadMessages(path)
	require.NoError(t, err)
	require.Equal(t, []Message{
		{Text: "hello there"},
		{Text: "猫が好き", Tags: markov.Tags{"channel": "jp"}},
	}, msgs)
}

func TestLoadMessagesArray(t *testing.T) {
	path := writeFile(t, `[{"text": "one"}, {"text": "two", "tags": {"user": "x"}}]`)
	msgs, err := LoadMessages(path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "two", msgs[1].Text)
	require.Equal(t, "x", msgs[1].Tags["user"])
}

func TestLoadMessagesInvalid(t *testing.T) {
	_, err := LoadMessages(writeFile(t, `not json`))
	require.Error(t, err)

	_, err = LoadMessages(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
