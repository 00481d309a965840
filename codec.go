// Adapted from the Go-SQLite Authors' page codec extension (February 2013).

package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

import (
	"sync"
	"unsafe"
)

// CodecFunc is a callback invoked by a codec-enabled SQLite build when a key
// is specified for an attached database (spec.md §5 page-codec extension
// point). It returns the Codec implementation used to encode/decode that
// database's pages, or nil to leave the attachment unencoded.
//
// This hook is only ever invoked when the linked libsqlite3 was itself
// compiled with -DSQLITE_HAS_CODEC (e.g. SQLCipher or SEE); a stock SQLite
// build never calls it, in which case Options.Codec has no observable
// effect.
type CodecFunc func(file, name string, pageSize, reserve int, key []byte) Codec

// Codec encodes/decodes database and journal pages as they are written to
// and read from disk.
//
// The op value passed to Encode and Decode identifies the operation being
// performed. It is undocumented upstream and is believed to be a bitmask of:
//
//	1 = journal, not set for WAL, always set when decoding
//	2 = disk I/O, always set
//	4 = encode
//
// So op is 3 when decoding, 6 when encoding for the database file or WAL,
// and 7 when encoding for the journal.
type Codec interface {
	// Reserve returns the number of bytes reserved for the codec at the end
	// of each page. -1 leaves the current reservation, supplied to
	// CodecFunc, unchanged.
	Reserve() int

	// Resize is called when the codec is first attached and on every
	// subsequent page size change.
	Resize(pageSize, reserve int)

	// Encode returns an encoded copy of page, or nil on error. The input may
	// be returned unmodified if no copy is required. Bytes 16-23 of page 1
	// must not be altered.
	Encode(page []byte, pageNum uint32, op int) []byte

	// Decode decodes page in place, returning false on error (reported to
	// SQLite as NOMEM).
	Decode(page []byte, pageNum uint32, op int) bool

	// Key returns the key used to initialize the codec.
	Key() []byte

	// FastRekey reports whether the codec can change the database key by
	// rewriting only the first page.
	FastRekey() bool

	// Free releases codec resources when the pager is destroyed or the
	// attachment fails.
	Free()
}

var (
	dbRegistryMu sync.Mutex
	dbRegistry   = make(map[unsafe.Pointer]*Database)
)

func registerCodecOwner(d *Database) {
	if d.opts.Codec == nil {
		return
	}
	dbRegistryMu.Lock()
	dbRegistry[unsafe.Pointer(d.db)] = d
	dbRegistryMu.Unlock()
}

func unregisterCodecOwner(d *Database) {
	dbRegistryMu.Lock()
	delete(dbRegistry, unsafe.Pointer(d.db))
	dbRegistryMu.Unlock()
}

func codecOwner(db unsafe.Pointer) *Database {
	dbRegistryMu.Lock()
	defer dbRegistryMu.Unlock()
	return dbRegistry[db]
}

// pageCodec wraps a Codec with the page size needed to convert the C page
// pointer into a byte slice, and keeps it reachable from Go so the garbage
// collector does not reclaim it while SQLite still holds the opaque pointer.
type pageCodec struct {
	Codec
	pageSize C.int
}

var (
	pageCodecsMu sync.Mutex
	pageCodecs   = make(map[*pageCodec]struct{})
)

//export go_codec_init
func go_codec_init(db unsafe.Pointer, zFilename, zName *C.char,
	nBuf, nRes C.int, pKey unsafe.Pointer, nKey C.int, nNewRes *C.int,
) unsafe.Pointer {
	d := codecOwner(db)
	if d == nil || d.opts.Codec == nil {
		return nil
	}
	file := C.GoString(zFilename)
	name := C.GoString(zName)
	key := C.GoBytes(pKey, nKey)
	ci := d.opts.Codec(file, name, int(nBuf), int(nRes), key)
	if ci == nil {
		return nil
	}
	pc := &pageCodec{ci, nBuf}
	pageCodecsMu.Lock()
	pageCodecs[pc] = struct{}{}
	pageCodecsMu.Unlock()
	*nNewRes = C.int(ci.Reserve())
	return unsafe.Pointer(pc)
}

//export go_codec_exec
func go_codec_exec(pCodec, pData unsafe.Pointer, pgno uint32, op C.int) unsafe.Pointer {
	pc := (*pageCodec)(pCodec)
	page := goBytes(pData, pc.pageSize)
	if op&4 != 0 {
		return cBytes(pc.Encode(page, pgno, int(op)))
	}
	if pc.Decode(page, pgno, int(op)) {
		return pData
	}
	return nil
}

//export go_codec_resize
func go_codec_resize(pCodec unsafe.Pointer, nBuf, nRes C.int) {
	pc := (*pageCodec)(pCodec)
	pc.pageSize = nBuf
	pc.Resize(int(nBuf), int(nRes))
}

//export go_codec_get_key
func go_codec_get_key(pCodec unsafe.Pointer, pKey *unsafe.Pointer, nKey *C.int) {
	if key := (*pageCodec)(pCodec).Key(); len(key) > 0 {
		*pKey = cBytes(key)
		*nKey = C.int(len(key))
	}
}

//export go_codec_free
func go_codec_free(pCodec unsafe.Pointer) {
	pc := (*pageCodec)(pCodec)
	pageCodecsMu.Lock()
	delete(pageCodecs, pc)
	pageCodecsMu.Unlock()
	pc.Free()
	pc.Codec = nil
}
