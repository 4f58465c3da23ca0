package recorder

import (
	"path/filepath"
	"testing"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	err = r.RecordRun(&RunRecord{
		Status:        "changed",
		BlockNumber:   12345,
		TotalBurned:   "50",
		BurnCount:     3,
		ChangedFields: "total_burned_xen,burn_count",
		DurationMS:    420,
	})
	if err != nil {
		t.Fatalf("record run: %v", err)
	}

	err = r.RecordRegression(&RegressionRecord{
		Counter:     "total_burned_xen",
		Previous:    "100",
		Current:     "90",
		BlockNumber: 12346,
	})
	if err != nil {
		t.Fatalf("record regression: %v", err)
	}

	var runs, regressions int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
	if err := r.db.QueryRow("SELECT COUNT(*) FROM regressions").Scan(&regressions); err != nil {
		t.Fatal(err)
	}
	if regressions != 1 {
		t.Errorf("regressions = %d, want 1", regressions)
	}
}

func TestNoopRecorder(t *testing.T) {
	n := NewNoopRecorder()
	if err := n.RecordRun(&RunRecord{Status: "unchanged"}); err != nil {
		t.Fatal(err)
	}
	if err := n.Close(); err != nil {
		t.Fatal(err)
	}
}
