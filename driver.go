package sqlite3

import (
	"database/sql"
	"database/sql/driver"
	"io"
)

// registerDriver registers the database/sql driver under name, called once
// from ffi.go's init (grounded on Speikomania-gosqlite's driver.go).
func registerDriver(name string) {
	sql.Register(name, &sqlDriver{})
}

type sqlDriver struct{}

func (sqlDriver) Open(dsn string) (driver.Conn, error) {
	d, err := Open(dsn, Options{})
	if err != nil {
		return nil, err
	}
	return &sqlConn{d: d}, nil
}

// sqlConn adapts a Database to database/sql/driver.Conn.
type sqlConn struct{ d *Database }

func (c *sqlConn) Prepare(query string) (driver.Stmt, error) {
	s, err := c.d.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &sqlStmt{s: s}, nil
}

func (c *sqlConn) Close() error { return c.d.Close() }

func (c *sqlConn) Begin() (driver.Tx, error) {
	tx, err := c.d.Begin(TxOptions{})
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

type sqlTx struct{ tx *Transaction }

func (t *sqlTx) Commit() error   { return t.tx.Commit() }
func (t *sqlTx) Rollback() error { return t.tx.Rollback() }

// sqlStmt adapts a Statement to database/sql/driver.Stmt.
type sqlStmt struct{ s *Statement }

func (s *sqlStmt) Close() error { return s.s.Finalize() }

func (s *sqlStmt) NumInput() int { return s.s.NumParams() }

func (s *sqlStmt) Exec(args []driver.Value) (driver.Result, error) {
	changes, err := s.s.Run(valuesToPositional(args))
	if err != nil {
		return nil, err
	}
	return &sqlResult{lastID: s.s.db.LastInsertRowId(), changes: int64(changes)}, nil
}

func (s *sqlStmt) Query(args []driver.Value) (driver.Rows, error) {
	it, err := s.s.ValueMany(valuesToPositional(args))
	if err != nil {
		return nil, err
	}
	return &sqlRows{stmt: s.s, it: it}, nil
}

func valuesToPositional(args []driver.Value) []BindValue {
	out := make([]BindValue, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

type sqlResult struct {
	lastID  int64
	changes int64
}

func (r *sqlResult) LastInsertId() (int64, error) { return r.lastID, nil }
func (r *sqlResult) RowsAffected() (int64, error) { return r.changes, nil }

// sqlRows adapts a RowIter to database/sql/driver.Rows.
type sqlRows struct {
	stmt *Statement
	it   *RowIter
}

func (r *sqlRows) Columns() []string { return r.stmt.Columns() }

func (r *sqlRows) Close() error { return r.it.Close() }

func (r *sqlRows) Next(dest []driver.Value) error {
	row, ok, err := r.it.Next()
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	for i, v := range row {
		dest[i] = driver.Value(v)
	}
	return nil
}

var (
	_ driver.Conn = (*sqlConn)(nil)
	_ driver.Stmt = (*sqlStmt)(nil)
	_ driver.Rows = (*sqlRows)(nil)
	_ driver.Tx   = (*sqlTx)(nil)
)
