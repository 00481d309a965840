package sqlite3

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientExecuteAndQuery(t *testing.T) {
	d := open(t)
	c := NewClient(d)

	_, err := c.Execute("CREATE TABLE t(a, b)", nil)
	require.NoError(t, err)
	changes, err := c.Execute("INSERT INTO t VALUES(?, ?)", []BindValue{1, "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, changes)

	rows, err := c.Query("SELECT * FROM t", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	v, ok := rows[0].Get("a")
	assert.True(t, ok)
	assert.EqualValues(t, 1, v)
}

func TestClientQueryOneAndQueryOneArray(t *testing.T) {
	d := open(t)
	c := NewClient(d)
	_, err := c.Execute("CREATE TABLE t(a)", nil)
	require.NoError(t, err)

	_, ok, err := c.QueryOne("SELECT a FROM t", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Execute("INSERT INTO t VALUES(9)", nil)
	require.NoError(t, err)

	row, ok, err := c.QueryOneArray("SELECT a FROM t", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 9, row[0])
}

func TestClientTransactionRollsBackOnError(t *testing.T) {
	d := open(t)
	c := NewClient(d)
	_, err := c.Execute("CREATE TABLE t(a)", nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = c.Transaction(func(tx *Client) error {
		_, err := tx.Execute("INSERT INTO t VALUES(1)", nil)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rows, err := c.Query("SELECT * FROM t", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 0)
}

func TestTemplateJoinsFragmentsWithPlaceholders(t *testing.T) {
	sql, args := Template([]string{"SELECT * FROM t WHERE a = ", " AND b = ", ""}, []BindValue{1, "x"})
	assert.Equal(t, "SELECT * FROM t WHERE a = ? AND b = ?", sql)
	assert.Equal(t, []BindValue{1, "x"}, args)
}
