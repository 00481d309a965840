package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

// NamedArgs binds statement parameters by name (":name", "@name", "$name").
// Keys not used by the target statement are silently ignored, matching the
// teacher package's NamedArgs semantics.
type NamedArgs map[string]BindValue

// Params is either nil (reuse the statement's current bindings), a
// positional []BindValue, or a NamedArgs map (spec.md §4.3).
type Params interface{}

// Row is a positional (array-shaped) result row (spec.md §3).
type Row []BindValue

// ObjectRow is a name-keyed (object-shaped) result row. Columns preserves
// declaration order, including duplicate names; Get resolves a duplicate
// name to its last occurrence, per spec.md §3's documented quirk.
type ObjectRow struct {
	cols []string
	vals map[string]BindValue
}

// Columns returns the statement's column names in declaration order.
func (r ObjectRow) Columns() []string { return r.cols }

// Get returns the value bound to the named column and whether it exists.
func (r ObjectRow) Get(name string) (BindValue, bool) {
	v, ok := r.vals[name]
	return v, ok
}

// Map returns the row as a plain map. Mutating it does not affect the row.
func (r ObjectRow) Map() map[string]BindValue {
	out := make(map[string]BindValue, len(r.vals))
	for k, v := range r.vals {
		out[k] = v
	}
	return out
}

// StmtOptions configures a prepared statement (spec.md §4.3).
type StmtOptions struct {
	// Int64 preserves integers outside the safe-integer range as exact
	// int64 values on both bind and extraction, instead of the default
	// lossy float64 widening (spec.md §4.2, §9).
	Int64 bool
	// ReadOnly asserts the statement makes no direct database changes; it
	// is advisory only and is not enforced against the compiled statement.
	ReadOnly bool
}

// Statement is a compiled SQL program bound to a Database. It owns its
// compiled handle; the Database holds a tracking (non-owning) reference so it
// can finalize every live Statement when it closes (spec.md §3 invariant 1).
type Statement struct {
	db   *Database
	stmt *C.sqlite3_stmt
	sql  string
	opts StmtOptions

	nCols    int
	colNames []string

	busy      bool // an undrained GetMany/ValueMany iterator owns this statement
	finalized bool
}

func newStatement(d *Database, sql string, opts StmtOptions) (*Statement, error) {
	var cstmt *C.sqlite3_stmt
	csql := sql + "\x00"
	if rc := C.sqlite3_prepare_v2(d.db, cStr(csql), -1, &cstmt, nil); rc != OK {
		return nil, libErr(Errno(rc), d.db)
	}
	if cstmt == nil {
		return nil, pkgErr(errERROR, "sqlite3: %q contains no executable statement", sql)
	}
	s := &Statement{db: d, stmt: cstmt, sql: sql, opts: opts}
	s.nCols = int(C.sqlite3_column_count(cstmt))
	return s, nil
}

// String returns the SQL text used to create the statement.
func (s *Statement) String() string { return s.sql }

// NumParams returns the number of bound parameter slots.
func (s *Statement) NumParams() int {
	if s.stmt == nil {
		return 0
	}
	return int(C.sqlite3_bind_parameter_count(s.stmt))
}

// NumColumns returns the number of result columns.
func (s *Statement) NumColumns() int { return s.nCols }

// ReadOnly reports whether the statement makes no direct changes to the
// database file.
func (s *Statement) ReadOnly() bool {
	return s.stmt == nil || C.sqlite3_stmt_readonly(s.stmt) != 0
}

// Columns returns the declared result column names, in order.
func (s *Statement) Columns() []string {
	if s.colNames == nil && s.nCols > 0 {
		names := make([]string, s.nCols)
		for i := range names {
			if p := C.sqlite3_column_name(s.stmt, C.int(i)); p != nil {
				names[i] = C.GoString(p)
			}
		}
		s.colNames = names
	}
	return s.colNames
}

// checkState verifies the statement can accept a new top-level operation
// (spec.md §3 "Operations after Finalized are errors"; §5 StatementBusy).
func (s *Statement) checkState() error {
	if s.finalized {
		return ErrBadStmt
	}
	if s.busy {
		return &StatementBusy{newSqliteError(errMISUSE,
			"sqlite3: statement has an undrained row sequence; drain or Reset it first")}
	}
	return nil
}

// Bind sets parameter slots without stepping, returning the statement for
// chaining (spec.md §4.3).
func (s *Statement) Bind(params Params) (*Statement, error) {
	if err := s.checkState(); err != nil {
		return s, err
	}
	return s, s.bindParams(params)
}

func (s *Statement) bindParams(params Params) error {
	switch p := params.(type) {
	case nil:
		return nil // reuse existing bindings
	case NamedArgs:
		return s.bindNamed(p)
	case []BindValue:
		return s.bindPositional(p)
	default:
		return pkgErr(errMISUSE, "sqlite3: unsupported params type %T", params)
	}
}

func (s *Statement) bindPositional(vals []BindValue) error {
	nVars := s.NumParams()
	if len(vals) > nVars {
		return &TooManyParameters{newSqliteError(errERROR,
			sprintf("statement accepts %d parameter(s), %d given", nVars, len(vals)))}
	}
	for i := 0; i < nVars; i++ {
		var v BindValue
		if i < len(vals) {
			v = vals[i]
		}
		if err := bindValue(s.stmt, C.int(i+1), v, s.opts.Int64); err != nil {
			return err
		}
	}
	return nil
}

func (s *Statement) bindNamed(args NamedArgs) error {
	seen := make(map[int]string, len(args))
	for name, v := range args {
		idx, err := paramIndex(s.stmt, name)
		if err != nil {
			continue // name unused by this statement; ignored
		}
		if prev, ok := seen[idx]; ok {
			return &DuplicateParameter{newSqliteError(errERROR,
				sprintf("parameters %q and %q resolve to the same slot", prev, name))}
		}
		seen[idx] = name
		if err := bindValue(s.stmt, C.int(idx), v, s.opts.Int64); err != nil {
			return err
		}
	}
	return nil
}

// step advances the cursor by one row.
func (s *Statement) step() (hasRow bool, err error) {
	rc := C.sqlite3_step(s.stmt)
	switch rc {
	case ROW:
		return true, nil
	case DONE:
		return false, nil
	default:
		return false, libErr(Errno(rc), s.db.db)
	}
}

func (s *Statement) objectRow() ObjectRow {
	cols := s.Columns()
	vals := make(map[string]BindValue, len(cols))
	for i, name := range cols {
		vals[name] = columnValue(s.stmt, C.int(i), s.opts.Int64)
	}
	return ObjectRow{cols: cols, vals: vals}
}

func (s *Statement) arrayRow() Row {
	out := make(Row, s.nCols)
	for i := range out {
		out[i] = columnValue(s.stmt, C.int(i), s.opts.Int64)
	}
	return out
}

// Run binds params, steps the statement to completion, and returns the
// connection's changes count (spec.md §4.3).
func (s *Statement) Run(params Params) (int, error) {
	if err := s.checkState(); err != nil {
		return 0, err
	}
	if err := s.bindParams(params); err != nil {
		return 0, err
	}
	for {
		has, err := s.step()
		if err != nil {
			s.Reset()
			return 0, err
		}
		if !has {
			break
		}
	}
	changes := s.db.Changes()
	s.Reset()
	return changes, nil
}

// Get binds params, steps once, and returns the first row in object shape.
// ok is false if the query produced no rows. The statement is reset
// implicitly (spec.md §4.3).
func (s *Statement) Get(params Params) (row ObjectRow, ok bool, err error) {
	if err = s.checkState(); err != nil {
		return
	}
	if err = s.bindParams(params); err != nil {
		return
	}
	ok, err = s.step()
	if err != nil {
		s.Reset()
		return ObjectRow{}, false, err
	}
	if ok {
		row = s.objectRow()
	}
	s.Reset()
	return
}

// Value is Get, but the row is returned in positional (array) shape.
func (s *Statement) Value(params Params) (row Row, ok bool, err error) {
	if err = s.checkState(); err != nil {
		return
	}
	if err = s.bindParams(params); err != nil {
		return
	}
	ok, err = s.step()
	if err != nil {
		s.Reset()
		return nil, false, err
	}
	if ok {
		row = s.arrayRow()
	}
	s.Reset()
	return
}

// All binds params, collects every row in object shape, and resets.
func (s *Statement) All(params Params) ([]ObjectRow, error) {
	if err := s.checkState(); err != nil {
		return nil, err
	}
	if err := s.bindParams(params); err != nil {
		return nil, err
	}
	var rows []ObjectRow
	for {
		has, err := s.step()
		if err != nil {
			s.Reset()
			return nil, err
		}
		if !has {
			break
		}
		rows = append(rows, s.objectRow())
	}
	s.Reset()
	return rows, nil
}

// Values is All, but rows are returned in positional (array) shape.
func (s *Statement) Values(params Params) ([]Row, error) {
	if err := s.checkState(); err != nil {
		return nil, err
	}
	if err := s.bindParams(params); err != nil {
		return nil, err
	}
	var rows []Row
	for {
		has, err := s.step()
		if err != nil {
			s.Reset()
			return nil, err
		}
		if !has {
			break
		}
		rows = append(rows, s.arrayRow())
	}
	s.Reset()
	return rows, nil
}

// ObjectRowIter is a finite, non-restartable pull iterator over object-shaped
// rows. It exclusively borrows its parent Statement until Next exhausts it or
// Close/Reset is called (spec.md §5, §9).
type ObjectRowIter struct {
	stmt *Statement
	done bool
}

// Next advances to and returns the next row. ok is false once the sequence is
// exhausted, at which point the parent statement is released automatically.
func (it *ObjectRowIter) Next() (row ObjectRow, ok bool, err error) {
	if it.done {
		return ObjectRow{}, false, nil
	}
	ok, err = it.stmt.step()
	if err != nil || !ok {
		it.release()
		return ObjectRow{}, false, err
	}
	return it.stmt.objectRow(), true, nil
}

// Close abandons the sequence early, resetting and releasing the statement.
func (it *ObjectRowIter) Close() error {
	if it.done {
		return nil
	}
	it.stmt.Reset()
	it.release()
	return nil
}

func (it *ObjectRowIter) release() {
	it.done = true
	it.stmt.busy = false
}

// RowIter is ObjectRowIter's positional-shape counterpart.
type RowIter struct {
	stmt *Statement
	done bool
}

// Next advances to and returns the next row in positional shape.
func (it *RowIter) Next() (row Row, ok bool, err error) {
	if it.done {
		return nil, false, nil
	}
	ok, err = it.stmt.step()
	if err != nil || !ok {
		it.release()
		return nil, false, err
	}
	return it.stmt.arrayRow(), true, nil
}

// Close abandons the sequence early, resetting and releasing the statement.
func (it *RowIter) Close() error {
	if it.done {
		return nil
	}
	it.stmt.Reset()
	it.release()
	return nil
}

func (it *RowIter) release() {
	it.done = true
	it.stmt.busy = false
}

// GetMany produces a lazy, non-restartable sequence of object-shaped rows
// that exclusively borrows the statement (spec.md §4.3, §5).
func (s *Statement) GetMany(params Params) (*ObjectRowIter, error) {
	if err := s.checkState(); err != nil {
		return nil, err
	}
	if err := s.bindParams(params); err != nil {
		return nil, err
	}
	s.busy = true
	return &ObjectRowIter{stmt: s}, nil
}

// ValueMany is GetMany, but rows are yielded in positional (array) shape.
func (s *Statement) ValueMany(params Params) (*RowIter, error) {
	if err := s.checkState(); err != nil {
		return nil, err
	}
	if err := s.bindParams(params); err != nil {
		return nil, err
	}
	s.busy = true
	return &RowIter{stmt: s}, nil
}

// Reset returns the statement to its initial state, clearing the step cursor
// and releasing any outstanding row-sequence borrow. Parameter bindings are
// kept, so a later call with nil params reuses them.
func (s *Statement) Reset() {
	if s.finalized {
		return
	}
	C.sqlite3_reset(s.stmt)
	s.busy = false
}

// Finalize releases the compiled statement handle. It is idempotent; every
// subsequent operation on s returns ErrBadStmt (spec.md §3).
func (s *Statement) Finalize() error {
	if s.finalized {
		return nil
	}
	s.finalized = true
	s.busy = false
	if s.db != nil {
		s.db.untrack(s)
	}
	stmt := s.stmt
	s.stmt = nil
	if stmt == nil {
		return nil
	}
	if rc := C.sqlite3_finalize(stmt); rc != OK {
		return libErr(Errno(rc), s.db.db)
	}
	return nil
}
