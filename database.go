package sqlite3

/*
#include <sqlite3.h>
#include <stdlib.h>
*/
import "C"

import (
	"net/url"
	"strings"
	"time"
	"unsafe"

	"github.com/go-pkgz/lgr"
	multierror "github.com/hashicorp/go-multierror"
)

// Options is the exhaustive, all-optional configuration surface for Open
// (spec.md §6).
type Options struct {
	// Readonly adds SQLITE_OPEN_READONLY.
	Readonly bool
	// Create adds SQLITE_OPEN_CREATE unless Readonly. Defaults to true when
	// nil.
	Create *bool
	// Memory adds SQLITE_OPEN_MEMORY.
	Memory bool
	// Flags, if non-zero, is used verbatim as the native open flags and
	// bypasses Readonly/Create/Memory entirely.
	Flags int
	// Int64 enables big-integer column handling (spec.md §4.2, §9).
	Int64 bool
	// UnsafeConcurrency allows optimizations (e.g. relaxed synchronous
	// settings) that are unsafe with concurrent writers against the same
	// file. It is advisory: callers may inspect it to decide PRAGMA setup.
	UnsafeConcurrency bool
	// EnableLoadExtension permits calling Database.LoadExtension.
	EnableLoadExtension bool
	// BusyTimeout installs SQLite's built-in busy handler at connect time
	// (spec.md §5).
	BusyTimeout time.Duration
	// Logger receives best-effort diagnostics (event listener panics,
	// Close cleanup failures). A nil Logger discards everything.
	Logger lgr.L
	// Codec installs a page-encryption codec, exercised only when linked
	// against a codec-enabled SQLite build (spec.md §5).
	Codec CodecFunc
}

func boolPtr(b bool) *bool { return &b }

func (o Options) createDefault() bool {
	if o.Create == nil {
		return true
	}
	return *o.Create
}

func (o Options) logger() lgr.L {
	if o.Logger == nil {
		return lgr.NoOp
	}
	return o.Logger
}

// openFlags assembles the native sqlite3_open_v2 flags from Options
// (spec.md §4.5): an explicit Flags bypasses all other processing.
func (o Options) openFlags() C.int {
	if o.Flags != 0 {
		return C.int(o.Flags)
	}
	var flags C.int
	if o.Memory {
		flags |= OPEN_MEMORY
	}
	if o.Readonly {
		flags |= OPEN_READONLY
	} else {
		flags |= OPEN_READWRITE
		if o.createDefault() {
			flags |= OPEN_CREATE
		}
	}
	return flags | OPEN_URI
}

// resolvePath converts a file:// URL to a local filesystem path; ":memory:"
// and plain paths pass through unchanged (spec.md §4.5, §6).
func resolvePath(name string) string {
	if name == ":memory:" || name == "" {
		return name
	}
	if strings.HasPrefix(name, "file://") {
		if u, err := url.Parse(name); err == nil {
			return u.Path
		}
	}
	return name
}

// Database owns a native SQLite connection handle and every Statement, Blob,
// and callback trampoline derived from it (spec.md §3 Ownership). It is not
// safe for concurrent use from multiple goroutines (spec.md §5).
type Database struct {
	opts Options
	path string
	db   *C.sqlite3
	open bool

	stmts   map[*Statement]struct{}
	blobs   map[*Blob]struct{}
	backups map[*Backup]struct{}
	udfs    []func() // release callbacks for registered UDFs/aggregates

	busy     BusyFunc
	commit   CommitFunc
	rollback RollbackFunc
	update   UpdateFunc
	hookCtx  unsafe.Pointer

	bus *EventBus
}

// NewDatabase constructs a Database bound to path without opening it. Call
// Connect to allocate the native handle (spec.md §3 Connection state).
func NewDatabase(path string, opts Options) *Database {
	return &Database{
		opts:    opts,
		path:    path,
		stmts:   make(map[*Statement]struct{}),
		blobs:   make(map[*Blob]struct{}),
		backups: make(map[*Backup]struct{}),
		bus:     newEventBus(),
	}
}

// Open constructs a Database and immediately Connects it, mirroring the
// teacher package's single-call Open.
func Open(path string, opts Options) (*Database, error) {
	d := NewDatabase(path, opts)
	if err := d.Connect(); err != nil {
		return nil, err
	}
	return d, nil
}

// Events returns the Database's event bus (spec.md §4.7).
func (d *Database) Events() *EventBus { return d.bus }

// Connect allocates the native handle and transitions Closed -> Open,
// emitting a connect event (spec.md §3, §4.5).
func (d *Database) Connect() error {
	if initerr != nil {
		return initerr
	}
	if d.open {
		return nil
	}
	name := resolvePath(d.path) + "\x00"
	var db *C.sqlite3
	rc := C.sqlite3_open_v2(cStr(name), &db, d.opts.openFlags(), nil)
	if rc != OK {
		err := libErr(Errno(rc), db)
		if db != nil {
			C.sqlite3_close(db)
		}
		return err
	}
	C.sqlite3_extended_result_codes(db, 1)
	d.db = db
	d.open = true
	registerCodecOwner(d)
	d.bus.OnError(func(err error) { d.opts.logger().Logf("WARN sqlite3: event listener error: %v", err) })
	if d.opts.BusyTimeout > 0 {
		C.sqlite3_busy_timeout(db, C.int(d.opts.BusyTimeout/time.Millisecond))
	}
	d.bus.emit(ConnectionConnectEvent{Connectable: d})
	return nil
}

// Close finalizes every live Statement, releases every registered callback,
// and closes the database handle, attempting every step even if an earlier
// one failed; the first captured error is returned after all cleanup
// completes (spec.md §4.5, §7). Close on an already-closed Database is a
// no-op.
func (d *Database) Close() error {
	if !d.open {
		return nil
	}
	var errs *multierror.Error

	for s := range d.stmts {
		if err := s.Finalize(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for b := range d.blobs {
		if err := b.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for bk := range d.backups {
		if err := bk.Finish(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for _, release := range d.udfs {
		release()
	}
	d.udfs = nil
	d.releaseHooks()
	unregisterCodecOwner(d)

	db := d.db
	d.db = nil
	d.open = false
	if rc := C.sqlite3_close(db); rc != OK {
		errs = multierror.Append(errs, libErr(Errno(rc), db))
	}

	d.bus.emit(ConnectionCloseEvent{Connectable: d})

	if errs != nil {
		d.opts.logger().Logf("ERROR sqlite3: close cleanup encountered %d error(s): %s",
			len(errs.Errors), errs.Error())
		return errs.Errors[0]
	}
	return nil
}

// Open reports whether the connection handle is currently allocated.
func (d *Database) Open() bool { return d.open }

func (d *Database) track(s *Statement)   { d.stmts[s] = struct{}{} }
func (d *Database) untrack(s *Statement) { delete(d.stmts, s) }

// Prepare compiles sql against this connection (spec.md §4.3).
func (d *Database) Prepare(sql string, opts ...StmtOptions) (*Statement, error) {
	if !d.open {
		return nil, ErrBadConn
	}
	var o StmtOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if !o.Int64 && d.opts.Int64 {
		o.Int64 = true
	}
	s, err := newStatement(d, sql, o)
	if err != nil {
		return nil, err
	}
	d.track(s)
	return s, nil
}

// Changes returns the number of rows changed, inserted, or deleted by the
// most recent statement (spec.md §3 invariant 3, §4.5).
func (d *Database) Changes() int {
	if !d.open {
		return 0
	}
	return int(C.sqlite3_changes(d.db))
}

// TotalChanges returns the cumulative row-modification count for the
// lifetime of the connection, including trigger/foreign-key side effects.
func (d *Database) TotalChanges() int {
	if !d.open {
		return 0
	}
	return int(C.sqlite3_total_changes(d.db))
}

// LastInsertRowId returns the ROWID of the most recent successful INSERT.
func (d *Database) LastInsertRowId() int64 {
	if !d.open {
		return 0
	}
	return int64(C.sqlite3_last_insert_rowid(d.db))
}

// Autocommit reports whether the connection is outside an explicit
// transaction.
func (d *Database) Autocommit() bool {
	if !d.open {
		return false
	}
	return C.sqlite3_get_autocommit(d.db) != 0
}

// InTransaction reports whether the connection is open and inside an
// explicit transaction (spec.md §4.5: open ∧ ¬autocommit).
func (d *Database) InTransaction() bool {
	return d.open && !d.Autocommit()
}

// Interrupt causes any pending database operation on this connection to
// abort at its earliest opportunity.
func (d *Database) Interrupt() {
	if d.open {
		C.sqlite3_interrupt(d.db)
	}
}

// Path returns the full file path of an attached database, or "" for
// temporary/in-memory databases.
func (d *Database) Path(schema string) string {
	if !d.open {
		return ""
	}
	if schema == "" {
		schema = "main"
	}
	schema += "\x00"
	if p := C.sqlite3_db_filename(d.db, cStr(schema)); p != nil {
		return C.GoString(p)
	}
	return ""
}

// Status returns the current and peak values of a connection performance
// counter identified by one of the DBSTATUS_* constants.
func (d *Database) Status(op int, reset bool) (cur, peak int, err error) {
	if !d.open {
		return 0, 0, ErrBadConn
	}
	var cCur, cPeak C.int
	if rc := C.sqlite3_db_status(d.db, C.int(op), &cCur, &cPeak, cBool(reset)); rc != OK {
		return 0, 0, pkgErr(errMISUSE, "sqlite3: invalid status op (%d)", op)
	}
	return int(cCur), int(cPeak), nil
}

// Limit changes a per-connection resource limit identified by one of the
// LIMIT_* constants, returning its previous value.
func (d *Database) Limit(id, value int) int {
	if !d.open {
		return 0
	}
	return int(C.sqlite3_limit(d.db, C.int(id), C.int(value)))
}

// LoadExtension loads a shared library extension. It requires
// Options.EnableLoadExtension (spec.md §4.5).
func (d *Database) LoadExtension(file string, entry string) error {
	if !d.open {
		return ErrBadConn
	}
	if !d.opts.EnableLoadExtension {
		return pkgErr(errMISUSE, "sqlite3: LoadExtension requires Options.EnableLoadExtension")
	}
	C.sqlite3_enable_load_extension(d.db, 1)
	defer C.sqlite3_enable_load_extension(d.db, 0)

	cfile := file + "\x00"
	var centry *C.char
	if entry != "" {
		centry = cStr(entry + "\x00")
	}
	var errmsg *C.char
	rc := C.sqlite3_load_extension(d.db, cStr(cfile), centry, &errmsg)
	if rc != OK {
		msg := ""
		if errmsg != nil {
			msg = C.GoString(errmsg)
			C.sqlite3_free(unsafe.Pointer(errmsg))
		}
		return newSqliteError(Errno(rc), msg)
	}
	return nil
}

// BusyFunc is invoked when SQLite cannot acquire a lock. Returning true
// retries the lock acquisition.
type BusyFunc func(attempt int) bool

// CommitFunc is invoked before a transaction commits. Returning true rolls
// the transaction back instead.
type CommitFunc func() bool

// RollbackFunc is invoked when a transaction is rolled back.
type RollbackFunc func()

// UpdateFunc is invoked when a row is inserted, updated, or deleted.
type UpdateFunc func(op int, db, table string, rowid int64)

// OnBusy registers a busy callback, returning the previous one, if any. It
// is mutually exclusive with Options.BusyTimeout; setting one clears the
// effect of the other (spec.md §9 design notes on the teacher's callbacks).
func (d *Database) OnBusy(f BusyFunc) (prev BusyFunc) {
	if !d.open {
		return nil
	}
	prev, d.busy = d.busy, f
	setBusyHandler(d, f != nil)
	return prev
}

// OnCommit registers a commit hook, returning the previous one, if any.
func (d *Database) OnCommit(f CommitFunc) (prev CommitFunc) {
	if !d.open {
		return nil
	}
	prev, d.commit = d.commit, f
	setCommitHook(d, f != nil)
	return prev
}

// OnRollback registers a rollback hook, returning the previous one, if any.
func (d *Database) OnRollback(f RollbackFunc) (prev RollbackFunc) {
	if !d.open {
		return nil
	}
	prev, d.rollback = d.rollback, f
	setRollbackHook(d, f != nil)
	return prev
}

// OnUpdate registers an update hook, returning the previous one, if any.
func (d *Database) OnUpdate(f UpdateFunc) (prev UpdateFunc) {
	if !d.open {
		return nil
	}
	prev, d.update = d.update, f
	setUpdateHook(d, f != nil)
	return prev
}
