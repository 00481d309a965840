package sqlite3

import (
	"fmt"
	"regexp"
)

// IsolationLevel selects the BEGIN mode used by Database.Begin (spec.md
// §4.6).
type IsolationLevel int

const (
	// Deferred (the default) does not acquire any lock until the
	// transaction's first read or write.
	Deferred IsolationLevel = iota
	// Immediate acquires a write lock immediately, failing fast if another
	// connection already holds one.
	Immediate
	// Exclusive acquires an exclusive lock immediately, preventing other
	// connections from reading or writing for the duration.
	Exclusive
)

func (l IsolationLevel) String() string {
	switch l {
	case Immediate:
		return "IMMEDIATE"
	case Exclusive:
		return "EXCLUSIVE"
	default:
		return "DEFERRED"
	}
}

// TxOptions configures Database.Begin.
type TxOptions struct {
	Isolation IsolationLevel
}

// Transaction is a scoped unit of work on a Database: Active until Commit or
// Rollback succeeds, at which point it becomes Committed or RolledBack and
// every further query or Commit fails with SqliteTransactionError, while a
// further Rollback is a no-op (spec.md §3, §4.6).
// A Commit or Rollback that itself fails leaves the Transaction inactive
// rather than retriable, so the caller cannot mistake a failed finalization
// for one still open (spec.md §9 "inactivation on failure").
type Transaction struct {
	d      *Database
	active bool
}

// Begin starts a transaction on the connection (spec.md §4.6). Only one
// top-level transaction may be active on a Database at a time; nested scopes
// use Savepoint instead.
func (d *Database) Begin(opts TxOptions) (*Transaction, error) {
	if !d.open {
		return nil, ErrBadConn
	}
	if d.InTransaction() {
		return nil, &SqliteTransactionError{newSqliteError(errMISUSE,
			"sqlite3: a transaction is already active on this connection")}
	}
	if err := d.runSQL("BEGIN " + opts.Isolation.String()); err != nil {
		return nil, err
	}
	return &Transaction{d: d, active: true}, nil
}

func (t *Transaction) checkActive() error {
	if !t.active {
		return &SqliteTransactionError{newSqliteError(errMISUSE,
			"sqlite3: transaction is not active")}
	}
	return nil
}

// Commit commits the transaction. On failure the Transaction is left
// inactive (neither retriable nor implicitly rolled back by this package);
// the caller should inspect the connection state via Database.Autocommit.
func (t *Transaction) Commit() error {
	if err := t.checkActive(); err != nil {
		return err
	}
	t.active = false
	return t.d.runSQL("COMMIT")
}

// Rollback rolls the transaction back. It is idempotent once the
// Transaction has already become inactive.
func (t *Transaction) Rollback() error {
	if !t.active {
		return nil
	}
	t.active = false
	return t.d.runSQL("ROLLBACK")
}

// Active reports whether Commit/Rollback has not yet been called (and
// neither previously failed in a way that left the Transaction inactive).
func (t *Transaction) Active() bool { return t.active }

// Prepare compiles sql against the Transaction's connection, satisfying
// Queryable (spec.md §2: "Transaction — itself a queriable sharing the same
// connection"). It fails with *SqliteTransactionError once the Transaction
// is no longer active, instead of silently falling back to the bare
// connection (spec.md §3 invariant: a Transaction whose inTransaction is
// false must reject all further queries with a transaction-inactive error).
func (t *Transaction) Prepare(sql string, opts ...StmtOptions) (*Statement, error) {
	if err := t.checkActive(); err != nil {
		return nil, err
	}
	return t.d.Prepare(sql, opts...)
}

// Execute runs sql to completion on the Transaction's connection and
// returns the number of rows changed.
func (t *Transaction) Execute(sql string, params Params) (int, error) {
	return execute(t, sql, params)
}

// Query returns every result row in object shape.
func (t *Transaction) Query(sql string, params Params) ([]ObjectRow, error) {
	return query(t, sql, params)
}

// QueryOne returns the first result row in object shape.
func (t *Transaction) QueryOne(sql string, params Params) (ObjectRow, bool, error) {
	return queryOne(t, sql, params)
}

// QueryArray is Query in positional (array) row shape.
func (t *Transaction) QueryArray(sql string, params Params) ([]Row, error) {
	return queryArray(t, sql, params)
}

// QueryOneArray is QueryOne in positional (array) row shape.
func (t *Transaction) QueryOneArray(sql string, params Params) (Row, bool, error) {
	return queryOneArray(t, sql, params)
}

// WithTransaction runs fn inside a Begin/Commit scope, rolling back if fn
// returns an error or panics, and re-panicking after the rollback completes
// (spec.md §4.6 convenience wrapper).
func (d *Database) WithTransaction(opts TxOptions, fn func(*Transaction) error) (err error) {
	tx, err := d.Begin(opts)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// savepointName matches a valid, unquoted SQLite identifier. Unlike the
// teacher package's fixed default ("sqlite3" padded with a tab to avoid
// collisions), every savepoint here requires an explicit, validated name:
// a generated default that depends on internal padding is exactly the kind
// of footgun flagged against the original design.
var savepointName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Savepoint is a named, nestable checkpoint within a Transaction (spec.md
// §4.6).
type Savepoint struct {
	d      *Database
	name   string
	active bool
}

// Savepoint establishes a named savepoint. name must be a valid identifier;
// there is no implicit default (spec.md §9 Open Question: the original's
// tab-padded default name is rejected outright rather than carried forward).
func (d *Database) Savepoint(name string) (*Savepoint, error) {
	if !d.open {
		return nil, ErrBadConn
	}
	if !savepointName.MatchString(name) {
		return nil, pkgErr(errMISUSE, "sqlite3: invalid savepoint name %q", name)
	}
	if err := d.runSQL("SAVEPOINT " + name); err != nil {
		return nil, err
	}
	return &Savepoint{d: d, name: name, active: true}, nil
}

// Release releases the savepoint, folding its changes into the enclosing
// transaction.
func (s *Savepoint) Release() error {
	if !s.active {
		return &SqliteTransactionError{newSqliteError(errMISUSE,
			"sqlite3: savepoint is not active")}
	}
	s.active = false
	return s.d.runSQL("RELEASE " + s.name)
}

// Rollback rolls the database back to the state at the savepoint without
// releasing it; the savepoint remains active and may be rolled back to
// again or subsequently released.
func (s *Savepoint) Rollback() error {
	if !s.active {
		return &SqliteTransactionError{newSqliteError(errMISUSE,
			"sqlite3: savepoint is not active")}
	}
	return s.d.runSQL("ROLLBACK TO " + s.name)
}

// runSQL prepares, runs to completion, and finalizes a parameterless
// control statement (BEGIN/COMMIT/ROLLBACK/SAVEPOINT/RELEASE).
func (d *Database) runSQL(sql string) error {
	s, err := d.Prepare(sql)
	if err != nil {
		return err
	}
	defer s.Finalize()
	_, err = s.Run(nil)
	return err
}
