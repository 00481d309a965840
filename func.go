package sqlite3

/*
#include <sqlite3.h>
#include <stdlib.h>

void go_scalar_apply(sqlite3_context*, int, sqlite3_value**);
void go_aggregate_step(sqlite3_context*, int, sqlite3_value**);
void go_aggregate_final(sqlite3_context*);
void go_func_destroy(void*);

static int create_scalar_function(sqlite3 *db, const char *name, int nArg, int flags, void *data) {
	return sqlite3_create_function_v2(db, name, nArg, flags, data,
		go_scalar_apply, 0, 0, go_func_destroy);
}

static int create_aggregate_function(sqlite3 *db, const char *name, int nArg, int flags, void *data) {
	return sqlite3_create_function_v2(db, name, nArg, flags, data,
		0, go_aggregate_step, go_aggregate_final, go_func_destroy);
}

// aggregate_slot returns the per-group accumulator slot sized to hold one
// pointer-sized token. SQLite zeroes it on first use for a group and keeps
// it alive until go_aggregate_final runs, at which point it is reclaimed
// automatically along with the rest of the aggregate context.
static void *aggregate_slot(sqlite3_context *c) {
	return sqlite3_aggregate_context(c, sizeof(void*));
}

static void result_text_trans(sqlite3_context *c, const char *p, int n) {
	sqlite3_result_text(c, p, n, SQLITE_TRANSIENT);
}
static void result_blob_trans(sqlite3_context *c, const void *p, int n) {
	sqlite3_result_blob(c, p, n, SQLITE_TRANSIENT);
}
*/
import "C"

import (
	"strings"
	"unsafe"

	"github.com/mattn/go-pointer"
)

// Value wraps a single native sqlite3_value argument passed to a registered
// function (spec.md §4.5 supplemental UDF support, grounded on the
// extension-authoring pattern of riyaz-ali-sqlite's value.go).
type Value struct{ ptr *C.sqlite3_value }

// IsNull reports whether the argument is SQL NULL.
func (v Value) IsNull() bool { return byte(C.sqlite3_value_type(v.ptr)) == NULL }

// Int64 returns the argument coerced to an integer.
func (v Value) Int64() int64 { return int64(C.sqlite3_value_int64(v.ptr)) }

// Float returns the argument coerced to a float.
func (v Value) Float() float64 { return float64(C.sqlite3_value_double(v.ptr)) }

// Text returns the argument coerced to text, copied into a fresh string.
func (v Value) Text() string {
	p := (*C.char)(unsafe.Pointer(C.sqlite3_value_text(v.ptr)))
	n := C.sqlite3_value_bytes(v.ptr)
	return strings.Clone(goStrN(p, n))
}

// Blob returns the argument coerced to a blob, copied into a fresh slice.
func (v Value) Blob() []byte {
	p := C.sqlite3_value_blob(v.ptr)
	n := C.sqlite3_value_bytes(v.ptr)
	b := goBytes(p, n)
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// BindValue converts the argument to the package's closed BindValue set
// following columnValue's typing rules, except that an INTEGER argument is
// always returned as int64, however large (no float64 widening).
func (v Value) BindValue() BindValue {
	switch byte(C.sqlite3_value_type(v.ptr)) {
	case INTEGER:
		return v.Int64()
	case FLOAT:
		return v.Float()
	case TEXT:
		return v.Text()
	case BLOB:
		return v.Blob()
	default:
		return nil
	}
}

// Context is the native result/error sink for a scalar function invocation
// (grounded on riyaz-ali-sqlite's context.go).
type Context struct{ ptr *C.sqlite3_context }

// Result sets the function's return value from a BindValue.
func (c Context) Result(v BindValue) {
	switch v := v.(type) {
	case nil:
		C.sqlite3_result_null(c.ptr)
	case bool:
		n := 0
		if v {
			n = 1
		}
		C.sqlite3_result_int(c.ptr, C.int(n))
	case int:
		C.sqlite3_result_int64(c.ptr, C.sqlite3_int64(v))
	case int64:
		C.sqlite3_result_int64(c.ptr, C.sqlite3_int64(v))
	case float64:
		C.sqlite3_result_double(c.ptr, C.double(v))
	case string:
		C.result_text_trans(c.ptr, cStr(v), C.int(len(v)))
	case []byte:
		C.result_blob_trans(c.ptr, cBytes(v), C.int(len(v)))
	default:
		c.ResultError(sprintf("unsupported scalar function result type %T", v))
	}
}

// ResultError reports msg as the function's failure, aborting the statement.
func (c Context) ResultError(msg string) {
	cmsg := msg + "\x00"
	C.sqlite3_result_error(c.ptr, cStr(cmsg), C.int(len(msg)))
}

// ScalarFunc is a user-defined SQL scalar function (spec.md §4.5 supplement).
// It must not retain args beyond the call.
type ScalarFunc func(ctx Context, args []Value)

type scalarRegistration struct {
	fn ScalarFunc
}

//export go_scalar_apply
func go_scalar_apply(ctx *C.sqlite3_context, nArg C.int, argv **C.sqlite3_value) {
	data := C.sqlite3_user_data(ctx)
	reg := pointer.Restore(data).(*scalarRegistration)

	n := int(nArg)
	args := make([]Value, n)
	if n > 0 {
		slice := unsafe.Slice(argv, n)
		for i, p := range slice {
			args[i] = Value{ptr: p}
		}
	}
	reg.fn(Context{ptr: ctx}, args)
}

//export go_func_destroy
func go_func_destroy(data unsafe.Pointer) {
	pointer.Unref(data)
}

// CreateFunction registers a scalar SQL function under name, accepting nArg
// arguments (-1 for variadic). flags is a bitwise combination of the
// FUNC_* constants. The registration is released automatically on
// Database.Close (spec.md §3 invariant 1, generalized to UDFs).
func (d *Database) CreateFunction(name string, nArg int, flags int, fn ScalarFunc) error {
	if !d.open {
		return ErrBadConn
	}
	cname := name + "\x00"
	reg := &scalarRegistration{fn: fn}
	token := pointer.Save(reg)

	rc := C.create_scalar_function(d.db, cStr(cname), C.int(nArg), C.int(flags), token)
	if rc != OK {
		pointer.Unref(token)
		return libErr(Errno(rc), d.db)
	}
	// go_func_destroy releases token automatically, either when the function
	// is replaced/dropped or when sqlite3_close tears down the connection;
	// d.udfs must not also release it.
	return nil
}

// AggregateFunc describes a user-defined SQL aggregate function (spec.md
// §4.5 aggregate(name, options), §8 Scenario 6). Start produces each
// group's initial accumulator; Step folds one row's arguments into the
// running accumulator and returns the updated value; Final turns the
// finished accumulator into the function's result. When a group has zero
// rows, Final is applied to a fresh Start value, since sqlite3 still invokes
// the final callback exactly once per invocation in that case.
type AggregateFunc struct {
	Start func() BindValue
	Step  func(acc BindValue, args []Value) BindValue
	Final func(acc BindValue) BindValue
}

type aggregateRegistration struct {
	fn AggregateFunc
}

// aggregateSlot recovers the per-group accumulator slot as a pointer to the
// pointer.Save token stored there, or nil if sqlite3 could not allocate the
// aggregate context (out of memory).
func aggregateSlot(ctx *C.sqlite3_context) *unsafe.Pointer {
	p := C.aggregate_slot(ctx)
	if p == nil {
		return nil
	}
	return (*unsafe.Pointer)(p)
}

//export go_aggregate_step
func go_aggregate_step(ctx *C.sqlite3_context, nArg C.int, argv **C.sqlite3_value) {
	data := C.sqlite3_user_data(ctx)
	reg := pointer.Restore(data).(*aggregateRegistration)

	slot := aggregateSlot(ctx)
	if slot == nil {
		return
	}

	var acc BindValue
	if *slot == nil {
		acc = reg.fn.Start()
	} else {
		acc = pointer.Restore(*slot)
		pointer.Unref(*slot)
	}

	n := int(nArg)
	args := make([]Value, n)
	if n > 0 {
		s := unsafe.Slice(argv, n)
		for i, p := range s {
			args[i] = Value{ptr: p}
		}
	}
	*slot = pointer.Save(reg.fn.Step(acc, args))
}

//export go_aggregate_final
func go_aggregate_final(ctx *C.sqlite3_context) {
	data := C.sqlite3_user_data(ctx)
	reg := pointer.Restore(data).(*aggregateRegistration)

	var acc BindValue
	if slot := aggregateSlot(ctx); slot != nil && *slot != nil {
		acc = pointer.Restore(*slot)
		pointer.Unref(*slot)
	} else {
		acc = reg.fn.Start()
	}
	Context{ptr: ctx}.Result(reg.fn.Final(acc))
}

// CreateAggregateFunction registers an aggregate SQL function under name,
// accepting nArg arguments (-1 for variadic). flags is a bitwise
// combination of the FUNC_* constants. The registration is released
// automatically on Database.Close, mirroring CreateFunction.
func (d *Database) CreateAggregateFunction(name string, nArg int, flags int, fn AggregateFunc) error {
	if !d.open {
		return ErrBadConn
	}
	cname := name + "\x00"
	reg := &aggregateRegistration{fn: fn}
	token := pointer.Save(reg)

	rc := C.create_aggregate_function(d.db, cStr(cname), C.int(nArg), C.int(flags), token)
	if rc != OK {
		pointer.Unref(token)
		return libErr(Errno(rc), d.db)
	}
	return nil
}
