package sqlite3

import "testing"

// open is the shared "fresh in-memory database" helper used across the
// package's plain-testing-style tests, grounded on the teacher package's
// open/close test helpers.
func open(t *testing.T) *Database {
	t.Helper()
	d, err := Open(":memory:", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return d
}

func mustExec(t *testing.T, d *Database, sql string, params Params) {
	t.Helper()
	s, err := d.Prepare(sql)
	if err != nil {
		t.Fatalf("Prepare(%q): %v", sql, err)
	}
	defer s.Finalize()
	if _, err := s.Run(params); err != nil {
		t.Fatalf("Run(%q): %v", sql, err)
	}
}
