package sqlite3

/*
#include <sqlite3.h>
#include <stdlib.h>

int go_busy_handler(void*, int);
int go_commit_hook(void*);
void go_rollback_hook(void*);
void go_update_hook(void*, int, const char*, const char*, sqlite3_int64);

#define SET_CALLBACK(name, db, conn, enable) \
	if (enable) {                            \
		sqlite3_##name(db, go_##name, conn); \
	} else {                                 \
		sqlite3_##name(db, 0, 0);            \
	}

static void set_busy_handler(sqlite3 *db, void *conn, int enable) {
	SET_CALLBACK(busy_handler, db, conn, enable)
}
static void set_commit_hook(sqlite3 *db, void *conn, int enable) {
	SET_CALLBACK(commit_hook, db, conn, enable)
}
static void set_rollback_hook(sqlite3 *db, void *conn, int enable) {
	SET_CALLBACK(rollback_hook, db, conn, enable)
}
static void set_update_hook(sqlite3 *db, void *conn, int enable) {
	SET_CALLBACK(update_hook, db, conn, enable)
}
*/
import "C"

import (
	"unsafe"

	"github.com/mattn/go-pointer"
)

// go_busy_handler is SQLite's busy callback trampoline. ctx is a
// pointer.Save handle for the owning *Database (spec.md §4.5 BusyFunc).
//
//export go_busy_handler
func go_busy_handler(ctx unsafe.Pointer, attempt C.int) C.int {
	d := pointer.Restore(ctx).(*Database)
	if d.busy != nil && d.busy(int(attempt)) {
		return 1
	}
	return 0
}

// go_commit_hook is SQLite's commit-hook trampoline; a non-zero return
// forces a rollback instead of the commit (spec.md §4.5 CommitFunc).
//
//export go_commit_hook
func go_commit_hook(ctx unsafe.Pointer) C.int {
	d := pointer.Restore(ctx).(*Database)
	if d.commit != nil && d.commit() {
		return 1
	}
	return 0
}

// go_rollback_hook is SQLite's rollback-hook trampoline (spec.md §4.5
// RollbackFunc).
//
//export go_rollback_hook
func go_rollback_hook(ctx unsafe.Pointer) {
	d := pointer.Restore(ctx).(*Database)
	if d.rollback != nil {
		d.rollback()
	}
}

// go_update_hook is SQLite's update-hook trampoline (spec.md §4.5
// UpdateFunc).
//
//export go_update_hook
func go_update_hook(ctx unsafe.Pointer, op C.int, dbName, table *C.char, rowid C.sqlite3_int64) {
	d := pointer.Restore(ctx).(*Database)
	if d.update != nil {
		d.update(int(op), C.GoString(dbName), C.GoString(table), int64(rowid))
	}
}

func (d *Database) hookToken() unsafe.Pointer {
	if d.hookCtx == nil {
		d.hookCtx = pointer.Save(d)
	}
	return d.hookCtx
}

func setBusyHandler(d *Database, enable bool) {
	C.set_busy_handler(d.db, d.hookToken(), cBool(enable))
}

func setCommitHook(d *Database, enable bool) {
	C.set_commit_hook(d.db, d.hookToken(), cBool(enable))
}

func setRollbackHook(d *Database, enable bool) {
	C.set_rollback_hook(d.db, d.hookToken(), cBool(enable))
}

func setUpdateHook(d *Database, enable bool) {
	C.set_update_hook(d.db, d.hookToken(), cBool(enable))
}

func (d *Database) releaseHooks() {
	if d.hookCtx != nil {
		pointer.Unref(d.hookCtx)
		d.hookCtx = nil
	}
}
