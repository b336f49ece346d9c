package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerBlobRoundTrip(t *testing.T) {
	blob, err := OpenBadgerBlob(BadgerBlobConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	defer blob.Close()

	_, err = blob.Get(LogsKey)
	assert.ErrorIs(t, err, ErrBlobNotFound)

	require.NoError(t, blob.Put(LogsKey, []byte(`[]`)))
	value, err := blob.Get(LogsKey)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), value)

	require.NoError(t, blob.Delete(LogsKey))
	_, err = blob.Get(LogsKey)
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestOpenBadgerBlobRequiresDirectory(t *testing.T) {
	_, err := OpenBadgerBlob(BadgerBlobConfig{Dir: "  "})
	assert.Error(t, err)
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	locks := newKeyedMutex()
	unlock := locks.Lock("2026-03-10")
	assert.Len(t, locks.locks, 1)
	unlock()
	assert.Empty(t, locks.locks)
}
