package sqlite3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobReadWrite(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)
	mustExec(t, d, "INSERT INTO t VALUES(?)", []BindValue{make([]byte, 8)})

	b, err := d.OpenBlob("main", "t", "a", d.LastInsertRowId(), true)
	require.NoError(t, err)
	assert.Equal(t, 8, b.Len())

	n, err := b.WriteAt([]byte("abcd"), 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	buf := make([]byte, 4)
	n, err = b.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcd", string(buf))

	require.NoError(t, b.Close())
}

func TestBlobOperationsAfterCloseFail(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)
	mustExec(t, d, "INSERT INTO t VALUES(?)", []BindValue{make([]byte, 4)})

	b, err := d.OpenBlob("main", "t", "a", d.LastInsertRowId(), true)
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close()) // idempotent

	_, err = b.ReadAt(make([]byte, 1), 0)
	_, ok := err.(*BlobClosed)
	assert.True(t, ok, "err = %v (%T)", err, err)
}

func TestBlobWriteOutOfRangeFails(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)
	mustExec(t, d, "INSERT INTO t VALUES(?)", []BindValue{make([]byte, 4)})

	b, err := d.OpenBlob("main", "t", "a", d.LastInsertRowId(), true)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.WriteAt([]byte("too long"), 0)
	assert.Error(t, err)
}

func TestDatabaseCloseForceClosesOpenBlobs(t *testing.T) {
	d, err := Open(":memory:", Options{})
	require.NoError(t, err)
	mustExec(t, d, "CREATE TABLE t(a)", nil)
	mustExec(t, d, "INSERT INTO t VALUES(?)", []BindValue{make([]byte, 4)})

	b, err := d.OpenBlob("main", "t", "a", d.LastInsertRowId(), true)
	require.NoError(t, err)

	require.NoError(t, d.Close())
	assert.True(t, b.closed)
}
