package sqlite3

import "testing"

func TestSafeIntRange(t *testing.T) {
	cases := []struct {
		v  int64
		ok bool
	}{
		{0, true},
		{safeIntMax, true},
		{safeIntMin, true},
		{safeIntMax + 1, false},
		{safeIntMin - 1, false},
	}
	for _, c := range cases {
		if got := inSafeIntRange(c.v); got != c.ok {
			t.Errorf("inSafeIntRange(%d) = %v, want %v", c.v, got, c.ok)
		}
	}
}

func TestBindAndColumnRoundTrip(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a, b, c, e)", nil)

	s, err := d.Prepare("INSERT INTO t VALUES(?, ?, ?, ?)")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Finalize()
	if _, err := s.Run([]BindValue{42, 3.5, "hi", []byte("blob")}); err != nil {
		t.Fatal(err)
	}

	sel, err := d.Prepare("SELECT a, b, c, e FROM t")
	if err != nil {
		t.Fatal(err)
	}
	defer sel.Finalize()
	row, ok, err := sel.Value(nil)
	if err != nil || !ok {
		t.Fatalf("Value: row=%v ok=%v err=%v", row, ok, err)
	}
	if row[0].(int64) != 42 {
		t.Errorf("a = %v, want 42", row[0])
	}
	if row[1].(float64) != 3.5 {
		t.Errorf("b = %v, want 3.5", row[1])
	}
	if row[2].(string) != "hi" {
		t.Errorf("c = %v, want hi", row[2])
	}
	if string(row[3].([]byte)) != "blob" {
		t.Errorf("e = %v, want blob", row[3])
	}
}

func TestBindNullAndBool(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a, b)", nil)
	mustExec(t, d, "INSERT INTO t VALUES(?, ?)", []BindValue{nil, true})

	row, ok, err := mustQueryOneArray(t, d, "SELECT a, b FROM t")
	if err != nil || !ok {
		t.Fatalf("row=%v ok=%v err=%v", row, ok, err)
	}
	if row[0] != nil {
		t.Errorf("a = %v, want nil", row[0])
	}
	if row[1].(int64) != 1 {
		t.Errorf("b = %v, want 1", row[1])
	}
}

func TestUnsupportedBindType(t *testing.T) {
	d := open(t)
	mustExec(t, d, "CREATE TABLE t(a)", nil)
	s, err := d.Prepare("INSERT INTO t VALUES(?)")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Finalize()

	_, err = s.Run([]BindValue{struct{}{}})
	if _, ok := err.(*UnsupportedBind); !ok {
		t.Errorf("err = %v (%T), want *UnsupportedBind", err, err)
	}
}

func mustQueryOneArray(t *testing.T, d *Database, sql string) (Row, bool, error) {
	t.Helper()
	s, err := d.Prepare(sql)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Finalize()
	return s.Value(nil)
}
