package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/japaniel/blini/pkg/blini"
	"github.com/japaniel/blini/pkg/db"
	"github.com/japaniel/blini/pkg/markov"
)

type fieldsTokenizer struct{}

func (fieldsTokenizer) Tokenize(input string) []string { return strings.Fields(input) }

func TestAsyncStoreWritesLatestValue(t *testing.T) {
	conn, err := db.Open(db.DriverCGO, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	bw := NewBatchWriter(conn, 100, 0)
	store := NewAsyncStore(bw)
	require.NoError(t, store.SetItem("k", "first"))
	require.NoError(t, store.SetItem("k", "second"))
	require.NoError(t, store.SetItem("other", "x"))
	require.NoError(t, bw.Close())

	v, ok, err := db.GetItem(conn, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second", v)

	v, ok, err = db.GetItem(conn, "other")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x", v)

	require.ErrorIs(t, store.SetItem("k", "late"), ErrBatchWriterClosed)
}

func TestIngestPersistsThroughAsyncStore(t *testing.T) {
	conn, err := db.Open(db.DriverCGO, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	engine, err := blini.New(blini.WithTokenizer(fieldsTokenizer{}))
	require.NoError(t, err)

	bw := NewBatchWriter(conn, 16, 0)
	engine.PersistTo(NewAsyncStore(bw))

	ingester := NewIngester(engine)
	ingester.OnLearned = func(m Message) {
		_, err := db.LogUtterance(conn, m.Text, m.Tags)
		require.NoError(t, err)
	}
	msgs := []Message{
		{Text: "the cat sat"},
		{Text: "the dog ran", Tags: markov.Tags{"channel": "pets"}},
		{Text: "   "},
	}
	count, err := ingester.Ingest(context.Background(), msgs)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.NoError(t, bw.Close())

	chain, _, err := blini.Restore(db.KV{DB: conn})
	require.NoError(t, err)
	require.Equal(t, engine.Chain().Keys(), chain.Keys())
	require.Equal(t, engine.Chain().Size(), chain.Size())

	logged, err := db.ListUtterances(conn)
	require.NoError(t, err)
	require.Len(t, logged, 2)
	require.Equal(t, "the cat sat", logged[0].Text)
	require.Equal(t, map[string]string{"channel": "pets"}, logged[1].Tags)
}
