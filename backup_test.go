package sqlite3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupCopiesAllData(t *testing.T) {
	src := open(t)
	mustExec(t, src, "CREATE TABLE t(a)", nil)
	mustExec(t, src, "INSERT INTO t VALUES(1), (2), (3)", nil)

	dst := open(t)
	b, err := src.Backup(dst, "", "")
	require.NoError(t, err)

	for {
		done, err := b.Step(1)
		require.NoError(t, err)
		if done {
			break
		}
	}
	require.NoError(t, b.Finish())

	s, err := dst.Prepare("SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	defer s.Finalize()
	row, _, err := s.Value(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, row[0])
}

func TestBackupFinishIsIdempotent(t *testing.T) {
	src, dst := open(t), open(t)
	b, err := src.Backup(dst, "", "")
	require.NoError(t, err)
	require.NoError(t, b.Finish())
	assert.NoError(t, b.Finish())
}
