package sqlite3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseOpenCloseLifecycle(t *testing.T) {
	d, err := Open(":memory:", Options{})
	require.NoError(t, err)
	assert.True(t, d.Open())

	require.NoError(t, d.Close())
	assert.False(t, d.Open())

	// Close is idempotent.
	assert.NoError(t, d.Close())
}

func TestDatabaseOperationsAfterCloseFail(t *testing.T) {
	d, err := Open(":memory:", Options{})
	require.NoError(t, err)
	require.NoError(t, d.Close())

	_, err = d.Prepare("SELECT 1")
	assert.Equal(t, ErrBadConn, err)
}

func TestDatabaseChangesAndLastInsertRowId(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)
	mustExec(t, d, "INSERT INTO t VALUES(1), (2), (3)", nil)

	assert.Equal(t, 3, d.TotalChanges())
	assert.Equal(t, int64(3), d.LastInsertRowId())

	s, err := d.Prepare("UPDATE t SET a = a + 1 WHERE a > 1")
	require.NoError(t, err)
	defer s.Finalize()
	changes, err := s.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, changes)
	assert.Equal(t, 2, d.Changes())
}

func TestDatabaseAutocommitAndInTransaction(t *testing.T) {
	d := open(t)
	assert.True(t, d.Autocommit())
	assert.False(t, d.InTransaction())

	tx, err := d.Begin(TxOptions{})
	require.NoError(t, err)
	assert.False(t, d.Autocommit())
	assert.True(t, d.InTransaction())

	require.NoError(t, tx.Commit())
	assert.True(t, d.Autocommit())
}

func TestDatabaseCloseFinalizesLiveStatements(t *testing.T) {
	d, err := Open(":memory:", Options{})
	require.NoError(t, err)

	s, err := d.Prepare("SELECT 1")
	require.NoError(t, err)

	require.NoError(t, d.Close())
	assert.True(t, s.finalized)
}

func TestOptionsOpenFlagsPrecedence(t *testing.T) {
	ro := Options{Readonly: true}
	assert.Equal(t, int(OPEN_READONLY)|int(OPEN_URI), int(ro.openFlags()))

	noCreate := Options{Create: boolPtr(false)}
	assert.Equal(t, int(OPEN_READWRITE)|int(OPEN_URI), int(noCreate.openFlags()))

	withFlags := Options{Flags: 0xABCD, Readonly: true}
	assert.Equal(t, 0xABCD, int(withFlags.openFlags()))
}
