package ingest

import (
	"context"
	"database/sql"

	"github.com/japaniel/blini/pkg/db"
)

// AsyncStore is a fire-and-forget key/value store: SetItem only enqueues the
// write on a BatchWriter, which commits it in the background. Repeated writes
// to one key that land in the same batch collapse to the latest value.
type AsyncStore struct {
	bw *BatchWriter
}

// NewAsyncStore returns a store writing through bw. bw must have a database.
func NewAsyncStore(bw *BatchWriter) *AsyncStore {
	return &AsyncStore{bw: bw}
}

// SetItem enqueues the write. The only error it reports is a closed writer;
// commit failures surface through the BatchWriter's OnError and Close.
func (s *AsyncStore) SetItem(key, value string) error {
	return s.bw.SubmitKeyed(key, func(ctx context.Context, tx *sql.Tx) error {
		return db.SetItem(tx, key, value)
	})
}
