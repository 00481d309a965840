package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

import "fmt"

// Errno is a native SQLite primary or extended result code.
// [http://www.sqlite.org/c3ref/c_abort.html]
type Errno int

func (e Errno) Error() string {
	return fmt.Sprintf("sqlite3: %s (%d)", C.GoString(C.sqlite3_errstr(C.int(e))), int(e))
}

// Primary result codes that get their own typed error per spec.md §6.
const (
	errOK         = Errno(C.SQLITE_OK)
	errBUSY       = Errno(C.SQLITE_BUSY)
	errLOCKED     = Errno(C.SQLITE_LOCKED)
	errCONSTRAINT = Errno(C.SQLITE_CONSTRAINT)
	errMISUSE     = Errno(C.SQLITE_MISUSE)
	errIOERR      = Errno(C.SQLITE_IOERR)
	errCANTOPEN   = Errno(14) // SQLITE_CANTOPEN
	errERROR      = Errno(C.SQLITE_ERROR)
)

// SqliteError is the root of the driver's typed error hierarchy. Code is the
// SQLite extended result code (errors synthesized by this package carry a
// primary code such as SQLITE_MISUSE or SQLITE_ERROR); Message is the native
// errmsg text, if one was available when the error was constructed.
type SqliteError struct {
	Code    Errno
	Message string
}

func (e *SqliteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sqlite3: %s (code %d)", e.Message, int(e.Code))
	}
	return e.Code.Error()
}

func (e *SqliteError) Unwrap() error { return e.Code }

// SqliteTransactionError reports transaction misuse: a query or Commit
// attempted against a Transaction that is no longer active, Begin while a
// transaction is already active, or Release/Rollback of a Savepoint that is
// no longer active (spec.md §3, §6). Rollback of an inactive Transaction is
// a no-op and does not raise it.
type SqliteTransactionError struct{ *SqliteError }

// Busy reports SQLITE_BUSY: the database file is locked by another
// connection and the configured busy timeout (if any) expired.
type Busy struct{ *SqliteError }

// Locked reports SQLITE_LOCKED: a table in the database is locked by another
// statement on the same connection.
type Locked struct{ *SqliteError }

// Constraint reports SQLITE_CONSTRAINT: a NOT NULL, UNIQUE, CHECK or
// FOREIGN KEY constraint failed.
type Constraint struct{ *SqliteError }

// Misuse reports SQLITE_MISUSE: the library was called in a way that
// violates its contract (e.g. using a finalized statement).
type Misuse struct{ *SqliteError }

// IoError reports SQLITE_IOERR and its extended variants.
type IoError struct{ *SqliteError }

// NotFound reports SQLITE_CANTOPEN raised for Open(..., create=false) against
// a nonexistent file (spec.md §6, scenario 2).
type NotFound struct{ *SqliteError }

// IntegerOutOfRange reports a bound int64 argument outside the safe-integer
// range when the statement was not prepared with the int64 option
// (spec.md §4.2).
type IntegerOutOfRange struct{ *SqliteError }

// StatementBusy reports an operation (Bind, Run, Get, Value, All, Values, or
// a second GetMany/ValueMany) on a Statement whose lazy row sequence has not
// yet been drained, closed or reset (spec.md §5).
type StatementBusy struct{ *SqliteError }

// BlobClosed reports a read, write, or reopen against an already-closed
// Blob handle (spec.md §4.4).
type BlobClosed struct{ *SqliteError }

// DuplicateParameter reports two NamedArgs keys that resolve to the same
// bind slot of a prepared statement (spec.md §4.2).
type DuplicateParameter struct{ *SqliteError }

// TooManyParameters reports more bound values than a statement declares
// placeholders for (spec.md §4.3).
type TooManyParameters struct{ *SqliteError }

// UnsupportedBind reports a parameter value outside the closed BindValue set
// (spec.md §4.2).
type UnsupportedBind struct{ *SqliteError }

func newSqliteError(code Errno, msg string) *SqliteError {
	return &SqliteError{Code: code, Message: msg}
}

// pkgErr builds a package-synthesized error (no corresponding native call)
// carrying the given result code.
func pkgErr(code Errno, format string, a ...interface{}) error {
	return newSqliteError(code, sprintf(format, a...))
}

func sprintf(format string, a ...interface{}) string {
	if len(a) == 0 {
		return format
	}
	return fmt.Sprintf(format, a...)
}

// libErr wraps a non-OK native result code into the appropriate typed error,
// reading errmsg from db if one is available. This is the single unwrap point
// spec.md §7 requires all native calls to funnel through.
func libErr(rc Errno, db *C.sqlite3) error {
	if rc == errOK {
		return nil
	}
	msg := ""
	code := rc
	if db != nil {
		code = Errno(C.sqlite3_extended_errcode(db))
		if m := C.sqlite3_errmsg(db); m != nil {
			msg = C.GoString(m)
		}
	}
	base := newSqliteError(code, msg)
	switch primary(code) {
	case errBUSY:
		return &Busy{base}
	case errLOCKED:
		return &Locked{base}
	case errCONSTRAINT:
		return &Constraint{base}
	case errMISUSE:
		return &Misuse{base}
	case errIOERR:
		return &IoError{base}
	case errCANTOPEN:
		return &NotFound{base}
	default:
		return base
	}
}

// primary masks an extended result code down to its primary result code.
func primary(code Errno) Errno { return Errno(int(code) & 0xff) }

// ErrBadConn is returned by Database methods called after Close. Statements
// are finalized by Close, so their methods return ErrBadStmt instead.
var ErrBadConn = pkgErr(errMISUSE, "sqlite3: database is closed")

// ErrBadStmt is returned by Statement methods called after Finalize.
var ErrBadStmt = pkgErr(errMISUSE, "sqlite3: statement is finalized")
