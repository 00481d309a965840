package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

// Blob is an incremental I/O handle onto a single (rowid, column) cell,
// opened via Database.OpenBlob. Its lifetime is strictly bounded by the
// owning Database: Database.Close force-closes every Blob still open
// (spec.md §4.4).
type Blob struct {
	db     *Database
	blob   *C.sqlite3_blob
	sz     int
	closed bool
}

// OpenBlob opens column (database schema, table, column, rowid) for
// incremental I/O (spec.md §4.4). writable requests read-write access.
func (d *Database) OpenBlob(schema, table, column string, rowid int64, writable bool) (*Blob, error) {
	if !d.open {
		return nil, ErrBadConn
	}
	if schema == "" {
		schema = "main"
	}
	cschema, ctable, ccolumn := schema+"\x00", table+"\x00", column+"\x00"

	var cblob *C.sqlite3_blob
	rc := C.sqlite3_blob_open(d.db, cStr(cschema), cStr(ctable), cStr(ccolumn),
		C.sqlite3_int64(rowid), cBool(writable), &cblob)
	if rc != OK {
		return nil, libErr(Errno(rc), d.db)
	}
	b := &Blob{db: d, blob: cblob, sz: int(C.sqlite3_blob_bytes(cblob))}
	d.blobs[b] = struct{}{}
	return b, nil
}

// Len returns the size in bytes of the open blob cell. It does not change
// across Reopen unless the underlying cell's size changed.
func (b *Blob) Len() int { return b.sz }

func (b *Blob) checkOpen() error {
	if b.closed {
		return &BlobClosed{newSqliteError(errMISUSE, "sqlite3: blob handle is closed")}
	}
	return nil
}

// ReadAt reads len(p) bytes starting at byte offset off, failing if the
// requested range extends past Len (spec.md §4.4).
func (b *Blob) ReadAt(p []byte, off int64) (int, error) {
	if err := b.checkOpen(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || int(off)+len(p) > b.sz {
		return 0, pkgErr(errERROR, "sqlite3: blob read out of range")
	}
	rc := C.sqlite3_blob_read(b.blob, cBytes(p), C.int(len(p)), C.int(off))
	if rc != OK {
		return 0, libErr(Errno(rc), b.db.db)
	}
	return len(p), nil
}

// WriteAt writes p starting at byte offset off. It cannot change the size of
// the blob: writing past Len fails (spec.md §4.4).
func (b *Blob) WriteAt(p []byte, off int64) (int, error) {
	if err := b.checkOpen(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || int(off)+len(p) > b.sz {
		return 0, pkgErr(errERROR, "sqlite3: blob write out of range")
	}
	rc := C.sqlite3_blob_write(b.blob, cBytes(p), C.int(len(p)), C.int(off))
	if rc != OK {
		return 0, libErr(Errno(rc), b.db.db)
	}
	return len(p), nil
}

// Reopen points the handle at a different row of the same (schema, table,
// column) without reallocating the native handle, refreshing Len.
func (b *Blob) Reopen(rowid int64) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if rc := C.sqlite3_blob_reopen(b.blob, C.sqlite3_int64(rowid)); rc != OK {
		return libErr(Errno(rc), b.db.db)
	}
	b.sz = int(C.sqlite3_blob_bytes(b.blob))
	return nil
}

// Close releases the native blob handle. It is idempotent; every subsequent
// operation on b returns BlobClosed (spec.md §4.4).
func (b *Blob) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	delete(b.db.blobs, b)
	blob := b.blob
	b.blob = nil
	if blob == nil {
		return nil
	}
	if rc := C.sqlite3_blob_close(blob); rc != OK {
		return libErr(Errno(rc), b.db.db)
	}
	return nil
}
