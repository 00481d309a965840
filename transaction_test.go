package sqlite3

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionCommit(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)

	tx, err := d.Begin(TxOptions{})
	require.NoError(t, err)
	mustExec(t, d, "INSERT INTO t VALUES(1)", nil)
	require.NoError(t, tx.Commit())
	assert.False(t, tx.Active())

	s, err := d.Prepare("SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	defer s.Finalize()
	row, _, err := s.Value(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, row[0])
}

func TestTransactionRollback(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)

	tx, err := d.Begin(TxOptions{})
	require.NoError(t, err)
	mustExec(t, d, "INSERT INTO t VALUES(1)", nil)
	require.NoError(t, tx.Rollback())

	s, err := d.Prepare("SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	defer s.Finalize()
	row, _, err := s.Value(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, row[0])
}

func TestTransactionCommitAfterInactiveFails(t *testing.T) {
	d := open(t)
	tx, err := d.Begin(TxOptions{})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	err = tx.Commit()
	_, ok := err.(*SqliteTransactionError)
	assert.True(t, ok, "err = %v (%T)", err, err)
}

func TestDatabaseBeginTwiceFails(t *testing.T) {
	d := open(t)
	_, err := d.Begin(TxOptions{})
	require.NoError(t, err)

	_, err = d.Begin(TxOptions{})
	_, ok := err.(*SqliteTransactionError)
	assert.True(t, ok, "err = %v (%T)", err, err)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)

	boom := errors.New("boom")
	err := d.WithTransaction(TxOptions{}, func(tx *Transaction) error {
		mustExec(t, d, "INSERT INTO t VALUES(1)", nil)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, d.Autocommit())

	s, err := d.Prepare("SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	defer s.Finalize()
	row, _, err := s.Value(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, row[0])
}

func TestSavepointReleaseAndRollback(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)

	sp, err := d.Savepoint("sp1")
	require.NoError(t, err)
	mustExec(t, d, "INSERT INTO t VALUES(1)", nil)
	require.NoError(t, sp.Rollback())
	require.NoError(t, sp.Release())

	s, err := d.Prepare("SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	defer s.Finalize()
	row, _, err := s.Value(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, row[0])
}

func TestSavepointRejectsInvalidName(t *testing.T) {
	d := open(t)
	_, err := d.Savepoint("not a valid name!")
	assert.Error(t, err)
}

func TestTransactionQuerySurface(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)

	tx, err := d.Begin(TxOptions{})
	require.NoError(t, err)

	changes, err := tx.Execute("INSERT INTO t VALUES(?)", []BindValue{1})
	require.NoError(t, err)
	assert.Equal(t, 1, changes)

	row, ok, err := tx.QueryOne("SELECT a FROM t", nil)
	require.NoError(t, err)
	require.True(t, ok)
	v, _ := row.Get("a")
	assert.EqualValues(t, 1, v)

	rows, err := tx.QueryArray("SELECT a FROM t", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, rows[0][0])

	require.NoError(t, tx.Commit())
}

func TestTransactionRejectsQueriesOnceInactive(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)

	tx, err := d.Begin(TxOptions{})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	_, err = tx.Prepare("SELECT 1")
	_, ok := err.(*SqliteTransactionError)
	assert.True(t, ok, "Prepare err = %v (%T)", err, err)

	_, err = tx.Execute("INSERT INTO t VALUES(1)", nil)
	_, ok = err.(*SqliteTransactionError)
	assert.True(t, ok, "Execute err = %v (%T)", err, err)

	_, _, err = tx.QueryOne("SELECT a FROM t", nil)
	_, ok = err.(*SqliteTransactionError)
	assert.True(t, ok, "QueryOne err = %v (%T)", err, err)
}

func TestClientTransactionQueriesFailAfterScopeEnds(t *testing.T) {
	d := open(t)
	c := NewClient(d)
	_, err := c.Execute("CREATE TABLE t(a)", nil)
	require.NoError(t, err)

	var leaked *Client
	err = c.Transaction(func(tx *Client) error {
		_, err := tx.Execute("INSERT INTO t VALUES(1)", nil)
		leaked = tx
		return err
	})
	require.NoError(t, err)

	_, err = leaked.Execute("INSERT INTO t VALUES(2)", nil)
	_, ok := err.(*SqliteTransactionError)
	assert.True(t, ok, "err = %v (%T)", err, err)

	rows, err := c.Query("SELECT * FROM t", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
