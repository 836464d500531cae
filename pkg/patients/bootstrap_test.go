package patients

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureTable(t *testing.T) {
	ctx := context.Background()

	t.Run("creates table with header", func(t *testing.T) {
		doc := newMemDoc("doc1").withTable("Sheet1")
		require.NoError(t, NewStore(doc).EnsureTable(ctx))

		assert.Equal(t, []string{DefaultTable}, doc.AddCalls)
		assert.Equal(t, [][]string{PatientSchema.Header()}, doc.rows(DefaultTable))
	})

	t.Run("idempotent", func(t *testing.T) {
		doc := newMemDoc("doc1")
		store := NewStore(doc)
		require.NoError(t, store.EnsureTable(ctx))
		require.NoError(t, store.EnsureTable(ctx))

		assert.Len(t, doc.AddCalls, 1)
		assert.Len(t, doc.WriteCalls, 1)
		assert.Len(t, doc.rows(DefaultTable), 1)
	})

	t.Run("existing table with matching header", func(t *testing.T) {
		doc := newMemDoc("doc1").withTable(DefaultTable, PatientSchema.Header(), Encode(Record{PatientID: "P1"}))
		require.NoError(t, NewStore(doc).EnsureTable(ctx))
		assert.Empty(t, doc.AddCalls)
		assert.Empty(t, doc.WriteCalls)
	})

	t.Run("existing table with wrong header is rejected", func(t *testing.T) {
		doc := newMemDoc("doc1").withTable(DefaultTable, []string{"Patient Id", "Name"})
		err := NewStore(doc).EnsureTable(ctx)

		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, DefaultTable, schemaErr.Table)
		assert.Empty(t, doc.WriteCalls)
		assert.Equal(t, [][]string{{"Patient Id", "Name"}}, doc.rows(DefaultTable))
	})

	t.Run("empty existing table gets header", func(t *testing.T) {
		doc := newMemDoc("doc1").withTable(DefaultTable)
		require.NoError(t, NewStore(doc).EnsureTable(ctx))
		assert.Empty(t, doc.AddCalls)
		assert.Equal(t, [][]string{PatientSchema.Header()}, doc.rows(DefaultTable))
	})

	t.Run("data without header is rejected", func(t *testing.T) {
		doc := newMemDoc("doc1").withTable(DefaultTable, nil, []string{"P1", "Alice"})
		err := NewStore(doc).EnsureTable(ctx)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
		assert.Empty(t, doc.WriteCalls)
	})

	t.Run("custom table name", func(t *testing.T) {
		doc := newMemDoc("doc1")
		store := NewStore(doc, WithTable("Visits"))
		require.NoError(t, store.EnsureTable(ctx))
		assert.Equal(t, []string{"Visits"}, doc.AddCalls)
		assert.Equal(t, "Visits", store.Table())
	})

	t.Run("upstream failure", func(t *testing.T) {
		doc := newMemDoc("doc1")
		doc.FailOn["TableNames"] = errors.New("permission denied")
		err := NewStore(doc).EnsureTable(ctx)

		var upErr *UpstreamError
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, "list tables", upErr.Op)
		assert.EqualError(t, errors.Unwrap(err), "permission denied")
	})

	t.Run("add table failure", func(t *testing.T) {
		doc := newMemDoc("doc1")
		doc.FailOn["AddTable"] = errors.New("quota exceeded")
		var upErr *UpstreamError
		assert.ErrorAs(t, NewStore(doc).EnsureTable(ctx), &upErr)
	})
}

// slowListDoc widens the gap between listing tables and creating one.
type slowListDoc struct {
	*memDoc
}

func (d slowListDoc) TableNames(ctx context.Context) ([]string, error) {
	names, err := d.memDoc.TableNames(ctx)
	time.Sleep(5 * time.Millisecond)
	return names, err
}

func TestEnsureTableConcurrentFirstWriters(t *testing.T) {
	ctx := context.Background()
	doc := newMemDoc("doc1")
	locks := NewTableLocks()

	const writers = 4
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store := NewStore(slowListDoc{doc}, WithLocks(locks))
			if !assert.NoError(t, store.EnsureTable(ctx)) {
				return
			}
			_, err := store.Upsert(ctx, Record{PatientID: fmt.Sprintf("P%d", i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{DefaultTable}, doc.AddCalls)
	rows := doc.rows(DefaultTable)
	require.Len(t, rows, writers+1)
	assert.Equal(t, PatientSchema.Header(), rows[0])
	assert.Equal(t, 0, locks.Len())
}

func TestEnsureTableHonoursCancelledLock(t *testing.T) {
	doc := newMemDoc("doc1")
	locks := NewTableLocks()
	store := NewStore(doc, WithLocks(locks))

	unlock, err := locks.Lock(context.Background(), "doc1\x00"+DefaultTable)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.EnsureTable(ctx), context.Canceled)
	assert.Empty(t, doc.AddCalls)
}
