/*
Package sqlite3 provides a cgo interface to SQLite version 3 databases,
built directly against libsqlite3 rather than an embedded amalgamation.

Database connections are created with Open or NewDatabase+Connect. A
"sqlite3" database/sql driver is also registered during package init for
applications that need the database/sql interface; the direct Database/
Statement API exposes SQLite-specific features such as incremental blob I/O,
online backups, and user-defined functions, and avoids the database/sql
connection-pooling overhead.

Installation

The package uses cgo to call SQLite library functions and requires
pkg-config to locate libsqlite3 and its headers at build time. Your system
must have gcc and a development package for SQLite (e.g. libsqlite3-dev)
installed to build this package.

The package calls sqlite3_errstr, which first appeared in SQLite 3.7.15
(released 2012-12-12); older shared libraries do not work with it. The
package does no run-time version checks.

Concurrency

A single Database and all objects derived from it (Statement, Blob, Backup)
may not be used concurrently from multiple goroutines without external
locking. All methods in this package, with the exception of
Database.Interrupt, assume single-threaded operation against a given
Database. Depending on how SQLite was compiled, it should be safe to use
separate Database connections concurrently, even against the same file. For
example:

	// ERROR (without any extra synchronization)
	d, _ := sqlite3.Open("./sqlite.db", sqlite3.Options{})
	go use(d)
	go use(d)

	// OK
	d1, _ := sqlite3.Open("./sqlite.db", sqlite3.Options{})
	d2, _ := sqlite3.Open("./sqlite.db", sqlite3.Options{})
	go use(d1)
	go use(d2)

If the SQLite library was compiled with -DSQLITE_THREADSAFE=0, then all
mutex code was omitted and this package is unsafe for concurrent access even
to separate Database connections. Use SingleThread to determine if this is
the case. By default, SQLite is compiled with SQLITE_THREADSAFE=1, which
enables serialized threading mode; this package switches it to 2
(multi-thread) during initialization for slightly better performance. See
http://www.sqlite.org/threadsafe.html for additional information.

Parameters and Rows

NamedArgs and the positional []BindValue slice are the two accepted Params
shapes for Statement.Bind and the query helpers. Rows come back in either
object shape (ObjectRow, name-keyed) or array shape (Row, positional),
matching the method called:

	d, _ := sqlite3.Open(":memory:", sqlite3.Options{})
	stmt, _ := d.Prepare("CREATE TABLE x(a, b, c)")
	stmt.Run(nil)

	ins, _ := d.Prepare("INSERT INTO x VALUES(@a, @b, @c)")
	ins.Run(sqlite3.NamedArgs{"@a": 1, "@b": "demo"}) // @c is NULL

	sel, _ := d.Prepare("SELECT * FROM x")
	rows, _ := sel.All(nil)
	for _, row := range rows {
		fmt.Println(row.Map())
	}

Data Types

See http://www.sqlite.org/datatype3.html for documentation of the SQLite
version 3 dynamic type system. BindValue is the closed set of host values
this package accepts as statement parameters and produces as column cells:
nil (SQL NULL), bool and the numeric kinds (bound/read as SQLite INTEGER or
FLOAT), string (TEXT), and []byte (BLOB). INTEGER cells come back as int64;
integers outside the float64-exact range (±2^53) are instead widened to
float64 on extraction unless the statement was prepared with the Int64
option, which keeps them as exact int64 values.

Database Names

Methods that require a database name as an argument (e.g. Database.Path,
Database.Backup) expect the symbolic name by which the database is known to
the connection, not a path to a file. Valid database names are "main",
"temp", or a name specified after the AS keyword in an ATTACH statement.

Callbacks

SQLite allows installing callback functions that run for various internal
events (e.g. busy handler and commit/rollback/update hooks). This package
defines the function types for these callbacks, installed per Database via
OnBusy/OnCommit/OnRollback/OnUpdate. There are three important things to
remember when using them:

1. The callbacks run while SQLite is in the middle of a C function
(Go -> C -> Go); the Go runtime may have spawned additional threads for
running other goroutines in the meantime.

2. The callbacks are not reentrant: they must not do anything that would
modify the Database that invoked the callback, including running or
preparing any other SQL statement on it.

3. Only one callback of each type can be installed per connection.
Database.OnBusy and Options.BusyTimeout are mutually exclusive; setting one
effectively supersedes the other's effect on the connection, since the
native busy handler they install is a single slot.
*/
package sqlite3
