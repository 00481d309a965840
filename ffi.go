//
// Adapted from the Go-SQLite Authors' cgo binding (February 2013).
//

package sqlite3

/*
#cgo pkg-config: sqlite3
#include <sqlite3.h>
#include <stdlib.h>

// cgo doesn't handle '...' arguments for sqlite3_config.
static int init_config(int op) {
	return sqlite3_config(op);
}
static int init_config_uri(int onoff) {
	return sqlite3_config(SQLITE_CONFIG_URI, onoff);
}
static void init_temp_dir(const char *path) {
	sqlite3_temp_directory = sqlite3_mprintf("%s", path);
}

// cgo doesn't handle pointer constants for sqlite3_bind_{text,blob}.
static int bind_text_trans(sqlite3_stmt *s, int i, const char *p, int n) {
	return sqlite3_bind_text(s, i, p, n, SQLITE_TRANSIENT);
}
static int bind_blob_trans(sqlite3_stmt *s, int i, const void *p, int n) {
	if (n > 0) {
		return sqlite3_bind_blob(s, i, p, n, SQLITE_TRANSIENT);
	}
	return sqlite3_bind_zeroblob(s, i, 0);
}
*/
import "C"

import (
	"os"
	"unsafe"
)

// initerr records a fatal library initialization failure. It disables package
// operation (Open always fails) without panicking the rest of the program.
var initerr error

// threadsafe mirrors SQLITE_THREADSAFE, upgraded to multi-thread mode below.
var threadsafe = int(C.sqlite3_threadsafe())

func init() {
	if threadsafe != 0 && threadsafe != 2 {
		if rc := C.init_config(C.SQLITE_CONFIG_MULTITHREAD); rc != OK {
			initerr = libErr(Errno(rc), nil)
			return
		}
		threadsafe = 2
	}

	C.init_config_uri(1)

	tmp := os.TempDir() + "\x00"
	C.init_temp_dir(cStr(tmp))

	if rc := C.sqlite3_initialize(); rc != OK {
		initerr = libErr(Errno(rc), nil)
		return
	}

	registerDriver("sqlite3")
}

// SingleThread reports whether the underlying SQLite library was compiled
// with -DSQLITE_THREADSAFE=0, in which case no package object is safe for use
// from more than one goroutine, ever.
func SingleThread() bool { return threadsafe == 0 }

// Version returns the SQLite library version string (e.g. "3.42.0").
func Version() string { return C.GoString(C.sqlite3_libversion()) }

// VersionNum returns the SQLite library version number (e.g. 3042000).
func VersionNum() int { return int(C.sqlite3_libversion_number()) }

// Open flag constants, assembled by Options into the native sqlite3_open_v2
// flags argument (spec.md §4.5, §6).
const (
	OPEN_READONLY = C.SQLITE_OPEN_READONLY
	OPEN_READWRITE = C.SQLITE_OPEN_READWRITE
	OPEN_CREATE    = C.SQLITE_OPEN_CREATE
	OPEN_MEMORY    = C.SQLITE_OPEN_MEMORY
	OPEN_URI       = C.SQLITE_OPEN_URI
)

// Column/value storage class codes (spec.md §4.1).
const (
	INTEGER = byte(C.SQLITE_INTEGER)
	FLOAT   = byte(C.SQLITE_FLOAT)
	TEXT    = byte(C.SQLITE_TEXT)
	BLOB    = byte(C.SQLITE_BLOB)
	NULL    = byte(C.SQLITE_NULL)
)

// Primary result codes used directly by this package (the rest are wrapped
// into Errno/typed errors by libErr).
const (
	OK      = C.SQLITE_OK
	ROW     = C.SQLITE_ROW
	DONE    = C.SQLITE_DONE
	ABORT_ROLLBACK = C.SQLITE_ABORT_ROLLBACK
)

// Function/aggregate registration flags (spec.md §4.5).
const (
	FUNC_DETERMINISTIC = 0x000800
	FUNC_DIRECTONLY    = 0x080000
	FUNC_SUBTYPE       = 0x100000
	FUNC_INNOCUOUS     = 0x200000
)

// Status/limit op codes re-exported for Database.Status/Database.Limit callers.
const (
	DBSTATUS_LOOKASIDE_USED = C.SQLITE_DBSTATUS_LOOKASIDE_USED
	DBSTATUS_CACHE_USED     = C.SQLITE_DBSTATUS_CACHE_USED
	LIMIT_LENGTH            = C.SQLITE_LIMIT_LENGTH
	LIMIT_VARIABLE_NUMBER   = C.SQLITE_LIMIT_VARIABLE_NUMBER
)

func cBool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// cStr returns a pointer to the first byte of a null-terminated Go string
// without copying. The caller must keep s alive and not mutate it.
func cStr(s string) *C.char {
	return (*C.char)(unsafe.Pointer(unsafe.StringData(s)))
}

// cBytes returns a pointer to the first byte of b, or nil for an empty slice.
func cBytes(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

// goStrN builds a Go string that aliases n bytes of SQLite-owned memory
// starting at p. Valid only until the next call into the owning Stmt.
func goStrN(p *C.char, n C.int) string {
	if n <= 0 {
		return ""
	}
	return unsafe.String((*byte)(unsafe.Pointer(p)), int(n))
}

// goBytes builds a []byte that aliases n bytes of SQLite-owned memory
// starting at p. Valid only until the next call into the owning Stmt.
func goBytes(p unsafe.Pointer, n C.int) []byte {
	if n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), int(n))
}
