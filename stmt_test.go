package sqlite3

import "testing"

func TestStatementNamedArgsUnusedIgnored(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a, b)", nil)

	s, err := d.Prepare("INSERT INTO t VALUES(@a, @b)")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Finalize()
	_, err = s.Run(NamedArgs{"@a": 1, "@b": 2, "@unused": 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestStatementTooManyParameters(t *testing.T) {
	d := open(t)
	s, err := d.Prepare("SELECT ?")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Finalize()

	_, _, err = s.Value([]BindValue{1, 2})
	if _, ok := err.(*TooManyParameters); !ok {
		t.Errorf("err = %v (%T), want *TooManyParameters", err, err)
	}
}

func TestStatementValueMany(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)
	mustExec(t, d, "INSERT INTO t VALUES(1), (2), (3)", nil)

	s, err := d.Prepare("SELECT a FROM t ORDER BY a")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Finalize()

	it, err := s.ValueMany(nil)
	if err != nil {
		t.Fatal(err)
	}
	var got []int64
	for {
		row, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got = append(got, row[0].(int64))
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("got %v", got)
	}
}

func TestStatementBusyWhileIterating(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)
	mustExec(t, d, "INSERT INTO t VALUES(1), (2)", nil)

	s, err := d.Prepare("SELECT a FROM t")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Finalize()

	if _, err := s.GetMany(nil); err != nil {
		t.Fatal(err)
	}
	_, _, err = s.Get(nil)
	if _, ok := err.(*StatementBusy); !ok {
		t.Errorf("err = %v (%T), want *StatementBusy", err, err)
	}
}

func TestStatementFinalizeIsIdempotentAndBlocksReuse(t *testing.T) {
	d := open(t)
	s, err := d.Prepare("SELECT 1")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	if err := s.Finalize(); err != nil {
		t.Errorf("second Finalize: %v, want nil", err)
	}
	if _, _, err := s.Get(nil); err != ErrBadStmt {
		t.Errorf("Get after Finalize = %v, want ErrBadStmt", err)
	}
}

func TestStatementNamedArgsSharedSlotSucceeds(t *testing.T) {
	d := open(t)
	// ":a" used twice in the SQL text resolves to a single bind slot; a
	// NamedArgs map only ever supplies one value per key, so this is not a
	// DuplicateParameter case (spec.md §4.2) and must simply bind once.
	s, err := d.Prepare("SELECT :a, :a")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Finalize()

	row, ok, err := s.Value(NamedArgs{"a": "x", ":a": 7})
	if err != nil {
		t.Fatal(err)
	}
	if !ok || row[0].(int64) != 7 || row[1].(int64) != 7 {
		t.Errorf("row = %v, ok = %v", row, ok)
	}
}
