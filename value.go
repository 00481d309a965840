package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

import (
	"strings"
	"unsafe"
)

// BindValue is the closed set of host values accepted as statement
// parameters and produced as column cells (spec.md §3). Nil means SQL NULL.
// As a parameter, a non-nil BindValue may be a bool, int, int32, int64,
// float32, float64, string or []byte; a non-nil column cell is always an
// int64, float64, string or []byte.
type BindValue = interface{}

// safeIntMin/safeIntMax bound the range of int64 values that round-trip
// through float64 without loss (spec.md §4.2, §4.5, §9 "safe-integer
// policy"). Outside this range, binding requires the int64 statement option.
const (
	safeIntMin = -(int64(1) << 53)
	safeIntMax = int64(1) << 53
)

func inSafeIntRange(v int64) bool { return v >= safeIntMin && v <= safeIntMax }

// bindValue binds a single BindValue to parameter index i (1-based) of stmt.
// allowWideInt permits int64 values outside the safe-integer range (the
// statement's int64 option, spec.md §4.2).
func bindValue(stmt *C.sqlite3_stmt, i C.int, v BindValue, allowWideInt bool) error {
	var rc C.int
	switch v := v.(type) {
	case nil:
		rc = C.sqlite3_bind_null(stmt, i)
	case bool:
		n := 0
		if v {
			n = 1
		}
		rc = C.sqlite3_bind_int(stmt, i, C.int(n))
	case int:
		return bindValue(stmt, i, int64(v), allowWideInt)
	case int32:
		return bindValue(stmt, i, int64(v), allowWideInt)
	case int64:
		if !allowWideInt && !inSafeIntRange(v) {
			return &IntegerOutOfRange{newSqliteError(errERROR,
				"integer argument out of the safe range; prepare with the int64 option")}
		}
		rc = C.sqlite3_bind_int64(stmt, i, C.sqlite3_int64(v))
	case float32:
		return bindValue(stmt, i, float64(v), allowWideInt)
	case float64:
		rc = C.sqlite3_bind_double(stmt, i, C.double(v))
	case string:
		rc = C.bind_text_trans(stmt, i, cStr(v), C.int(len(v)))
	case []byte:
		rc = C.bind_blob_trans(stmt, i, cBytes(v), C.int(len(v)))
	default:
		return &UnsupportedBind{newSqliteError(errERROR,
			sprintf("unsupported bind value type %T", v))}
	}
	if rc != OK {
		return libErr(Errno(rc), C.sqlite3_db_handle(stmt))
	}
	return nil
}

// columnValue extracts column i (0-based) of the current row of stmt as a
// BindValue, following spec.md §4.2's extraction rules. wideInt selects
// between lossy float64 widening and exact int64 preservation for integers
// outside the safe range (neither loses precision for values inside it).
func columnValue(stmt *C.sqlite3_stmt, i C.int, wideInt bool) BindValue {
	switch byte(C.sqlite3_column_type(stmt, i)) {
	case INTEGER:
		n := int64(C.sqlite3_column_int64(stmt, i))
		if !wideInt && !inSafeIntRange(n) {
			return float64(n)
		}
		return n
	case FLOAT:
		return float64(C.sqlite3_column_double(stmt, i))
	case TEXT:
		p := (*C.char)(unsafe.Pointer(C.sqlite3_column_text(stmt, i)))
		n := C.sqlite3_column_bytes(stmt, i)
		return strings.Clone(goStrN(p, n))
	case BLOB:
		p := C.sqlite3_column_blob(stmt, i)
		n := C.sqlite3_column_bytes(stmt, i)
		b := goBytes(p, n)
		out := make([]byte, len(b))
		copy(out, b)
		return out
	default: // NULL
		return nil
	}
}

// paramIndex resolves a named placeholder (":name", "@name", "$name") or a
// positional "?NNN" form to its 1-based bind index, returning an error if the
// statement has no parameter of that name. Duplicate detection is done by
// the caller, Statement.bindNamed (spec.md §4.2).
func paramIndex(stmt *C.sqlite3_stmt, name string) (int, error) {
	cname := name + "\x00"
	idx := int(C.sqlite3_bind_parameter_index(stmt, cStr(cname)))
	if idx == 0 {
		return 0, pkgErr(errERROR, "no such parameter: %s", name)
	}
	return idx, nil
}
