package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

// Backup drives an online backup from a source Database to a destination
// Database, copying pages incrementally across calls to Step (spec.md §4.5,
// C5 "backup(dest, ...)"). Its lifetime is bounded by the source Database:
// Database.Close force-finishes every outstanding Backup.
type Backup struct {
	src, dst *Database
	backup   *C.sqlite3_backup
	done     bool
}

// Backup begins an online backup of this Database into dst, copying the
// named schema (default "main" on both sides when schema/dstSchema are
// empty).
func (d *Database) Backup(dst *Database, schema, dstSchema string) (*Backup, error) {
	if !d.open || !dst.open {
		return nil, ErrBadConn
	}
	if schema == "" {
		schema = "main"
	}
	if dstSchema == "" {
		dstSchema = "main"
	}
	cschema, cdstSchema := schema+"\x00", dstSchema+"\x00"

	cbackup := C.sqlite3_backup_init(dst.db, cStr(cdstSchema), d.db, cStr(cschema))
	if cbackup == nil {
		return nil, libErr(Errno(C.sqlite3_extended_errcode(dst.db)), dst.db)
	}
	b := &Backup{src: d, dst: dst, backup: cbackup}
	d.backups[b] = struct{}{}
	return b, nil
}

// Step copies up to nPages pages (or all remaining pages, if nPages <= 0).
// done reports whether the backup has completed. A SQLITE_BUSY or
// SQLITE_LOCKED result from SQLite is not returned as an error: Step reports
// done=false with a nil error, so a caller's loop simply calls Step again.
func (b *Backup) Step(nPages int) (done bool, err error) {
	if b.done {
		return true, nil
	}
	if nPages <= 0 {
		nPages = -1
	}
	rc := C.sqlite3_backup_step(b.backup, C.int(nPages))
	switch rc {
	case DONE:
		return true, nil
	case OK, C.SQLITE_BUSY, C.SQLITE_LOCKED:
		return false, nil
	default:
		return false, libErr(Errno(rc), b.dst.db)
	}
}

// Remaining returns the number of pages still to be copied, valid only after
// at least one Step.
func (b *Backup) Remaining() int { return int(C.sqlite3_backup_remaining(b.backup)) }

// PageCount returns the total page count of the source database, valid only
// after at least one Step.
func (b *Backup) PageCount() int { return int(C.sqlite3_backup_pagecount(b.backup)) }

// Finish releases the backup handle, stepping no further. It is idempotent.
func (b *Backup) Finish() error {
	if b.done {
		return nil
	}
	b.done = true
	delete(b.src.backups, b)
	backup := b.backup
	b.backup = nil
	if backup == nil {
		return nil
	}
	if rc := C.sqlite3_backup_finish(backup); rc != OK {
		return libErr(Errno(rc), b.dst.db)
	}
	return nil
}
