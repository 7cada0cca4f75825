package audit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	r.Record("DF1JSL-1", "greetings", "AB", "ok", 1)
	r.Record("DF1JSL-1", "lorem", "AC", "ok", 11)

	entries, err := r.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "AC", entries[0].MsgNo, "expected newest-first ordering")
	require.Equal(t, "AB", entries[1].MsgNo)
	require.Equal(t, 11, entries[0].Segments)
}

func TestRecentRespectsLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < 5; i++ {
		r.Record("DF1JSL-1", "ping", "AA", "ok", 1)
	}
	entries, err := r.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestReopenPreservesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	r1, err := Open(path, nil)
	require.NoError(t, err)
	r1.Record("DF1JSL-1", "version", "AA", "ok", 1)
	r1.Close()

	r2, err := Open(path, nil)
	require.NoError(t, err)
	defer r2.Close()
	entries, err := r2.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
