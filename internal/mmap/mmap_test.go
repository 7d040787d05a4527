package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.bsi")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpen_ReadAt(t *testing.T) {
	content := []byte("header--payload")
	m, err := Open(writeFile(t, content))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())

	buf := make([]byte, 7)
	n, err := m.ReadAt(buf, 8)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "payload", string(buf))

	n, err = m.ReadAt(make([]byte, 4), 100)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)

	long := make([]byte, 20)
	n, err = m.ReadAt(long, 8)
	assert.Equal(t, 7, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = m.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_EmptyFile(t *testing.T) {
	m, err := Open(writeFile(t, nil))
	require.NoError(t, err)

	assert.Zero(t, m.Size())
	assert.Empty(t, m.Bytes())
	assert.NoError(t, m.Advise(AccessRandom))

	r, err := m.Tail(0)
	require.NoError(t, err)
	assert.Zero(t, r.Size())
	assert.NoError(t, m.Close())
}

func TestRegion(t *testing.T) {
	m, err := Open(writeFile(t, make([]byte, 4096)))
	require.NoError(t, err)

	require.NoError(t, m.Advise(AccessSequential))

	r, err := m.Region(100, 200)
	require.NoError(t, err)
	assert.Len(t, r.Bytes(), 200)
	assert.NoError(t, r.Advise(AccessRandom), "unaligned hints are ignored")

	tail, err := m.Tail(32)
	require.NoError(t, err)
	assert.Equal(t, 4096-32, tail.Size())

	_, err = m.Region(-1, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = m.Region(4000, 200)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "close is idempotent")

	assert.Nil(t, r.Bytes())
	assert.ErrorIs(t, r.Advise(AccessDefault), ErrClosed)
	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)
	_, err = m.Region(0, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}
