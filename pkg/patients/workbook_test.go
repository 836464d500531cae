package patients

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patientsheets/pkg/sheets"
)

func TestStoreOnWorkbook(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "clinic.xlsx")
	wb, err := sheets.OpenWorkbook("clinic", path)
	require.NoError(t, err)
	defer wb.Close()

	store := NewStore(wb, WithLocks(NewTableLocks()))
	require.NoError(t, store.EnsureTable(ctx))
	require.NoError(t, store.EnsureTable(ctx))

	p1 := fullRecord("P1")
	res, err := store.Upsert(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, UpsertResult{Created: true, Row: 2}, res)

	_, err = store.Upsert(ctx, Record{PatientID: "P2", PatientName: "Bob"})
	require.NoError(t, err)

	got, err := store.GetByKey(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, p1, got)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Record{p1, {PatientID: "P2", PatientName: "Bob"}}, all)

	require.NoError(t, store.Delete(ctx, "P1"))
	row, err := store.FindRow(ctx, "P2")
	require.NoError(t, err)
	assert.Equal(t, 2, row)

	// Reopen from disk.
	reopened, err := sheets.OpenWorkbook("clinic", path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err = NewStore(reopened).GetByKey(ctx, "P2")
	require.NoError(t, err)
	assert.Equal(t, Record{PatientID: "P2", PatientName: "Bob"}, got)
}
