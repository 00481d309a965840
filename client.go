package sqlite3

import "strings"

// Queryable is satisfied by both Database and Transaction-scoped executors,
// letting Client helpers run identically against a bare connection or inside
// a transaction (spec.md §4.8 Client Façade).
type Queryable interface {
	Prepare(sql string, opts ...StmtOptions) (*Statement, error)
}

// Client composes a Database with its Transaction and event-bus surfaces
// behind a single set of query helpers (spec.md §4.8). The zero value is not
// usable; construct with NewClient. A Client produced by Transaction carries
// the Transaction it is scoped to, so its query helpers run against that
// transaction (and reject further use once it is no longer active) instead
// of the bare connection.
type Client struct {
	*Database
	tx *Transaction
}

// NewClient wraps an already-connected Database.
func NewClient(d *Database) *Client { return &Client{Database: d} }

// queryable returns the Transaction the Client is scoped to, or the bare
// Database if it isn't scoped to one.
func (c *Client) queryable() Queryable {
	if c.tx != nil {
		return c.tx
	}
	return c.Database
}

// Execute runs sql to completion and returns the number of rows changed
// (spec.md §4.8 execute).
func (c *Client) Execute(sql string, params Params) (int, error) {
	return execute(c.queryable(), sql, params)
}

// Query returns every result row in object shape (spec.md §4.8 query).
func (c *Client) Query(sql string, params Params) ([]ObjectRow, error) {
	return query(c.queryable(), sql, params)
}

// QueryOne returns the first result row in object shape.
func (c *Client) QueryOne(sql string, params Params) (ObjectRow, bool, error) {
	return queryOne(c.queryable(), sql, params)
}

// QueryMany returns a lazy, non-restartable object-row sequence.
func (c *Client) QueryMany(sql string, params Params) (*ObjectRowIter, error) {
	return queryMany(c.queryable(), sql, params)
}

// QueryArray is Query in positional (array) row shape.
func (c *Client) QueryArray(sql string, params Params) ([]Row, error) {
	return queryArray(c.queryable(), sql, params)
}

// QueryOneArray is QueryOne in positional (array) row shape.
func (c *Client) QueryOneArray(sql string, params Params) (Row, bool, error) {
	return queryOneArray(c.queryable(), sql, params)
}

// QueryManyArray is QueryMany in positional (array) row shape.
func (c *Client) QueryManyArray(sql string, params Params) (*RowIter, error) {
	return queryManyArray(c.queryable(), sql, params)
}

// Transaction wraps fn in a Begin/Commit/Rollback scope and runs every
// helper call against a Client scoped to that transaction (spec.md §4.8,
// §4.6), so calls fn makes after the transaction concludes (for example, a
// leaked reference used outside fn) fail with *SqliteTransactionError
// instead of silently running against the bare connection.
func (c *Client) Transaction(fn func(*Client) error) error {
	return c.WithTransaction(TxOptions{}, func(tx *Transaction) error {
		return fn(&Client{Database: c.Database, tx: tx})
	})
}

func execute(q Queryable, sql string, params Params) (int, error) {
	s, err := q.Prepare(sql)
	if err != nil {
		return 0, err
	}
	defer s.Finalize()
	return s.Run(params)
}

func query(q Queryable, sql string, params Params) ([]ObjectRow, error) {
	s, err := q.Prepare(sql)
	if err != nil {
		return nil, err
	}
	defer s.Finalize()
	return s.All(params)
}

func queryOne(q Queryable, sql string, params Params) (ObjectRow, bool, error) {
	s, err := q.Prepare(sql)
	if err != nil {
		return ObjectRow{}, false, err
	}
	defer s.Finalize()
	return s.Get(params)
}

func queryMany(q Queryable, sql string, params Params) (*ObjectRowIter, error) {
	s, err := q.Prepare(sql)
	if err != nil {
		return nil, err
	}
	return s.GetMany(params)
}

func queryArray(q Queryable, sql string, params Params) ([]Row, error) {
	s, err := q.Prepare(sql)
	if err != nil {
		return nil, err
	}
	defer s.Finalize()
	return s.Values(params)
}

func queryOneArray(q Queryable, sql string, params Params) (Row, bool, error) {
	s, err := q.Prepare(sql)
	if err != nil {
		return nil, false, err
	}
	defer s.Finalize()
	return s.Value(params)
}

func queryManyArray(q Queryable, sql string, params Params) (*RowIter, error) {
	s, err := q.Prepare(sql)
	if err != nil {
		return nil, err
	}
	return s.ValueMany(params)
}

// Template joins literal fragments with "?" placeholders and returns SQL
// text paired with its positional arguments, the boundary contract a
// tagged-template call site is expected to produce (spec.md §4.8, out of
// scope for this package: the sugar that builds fragments/args is left to
// callers or code generation).
func Template(fragments []string, args []BindValue) (string, []BindValue) {
	if len(fragments) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString(fragments[0])
	for _, f := range fragments[1:] {
		b.WriteString("?")
		b.WriteString(f)
	}
	return b.String(), args
}
