package persister

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"BurnSentinel/internal/model"
)

func sampleSnapshot() *model.StatsSnapshot {
	supply := decimal.NewFromInt(1000)
	return &model.StatsSnapshot{
		CurrentAMP:       3000,
		DaysSinceLaunch:  120,
		AmpDecayDaysLeft: 245,
		TotalBurnedXEN:   decimal.NewFromInt(100),
		TotalMintedXBURN: decimal.NewFromInt(40),
		BurnCount:        3,
		LiquidityPair:    "0x2222222222222222222222222222222222222222",
		TokenSupply:      &supply,
		Sources: map[string]string{
			model.CounterTotalBurnedXEN: model.SourceChain,
			model.CounterTokenSupply:    model.SourceExplorer,
		},
		BlockNumber: 500,
		FetchedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLoadLast_NotFound(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "stats.json"))
	snap, found, err := p.LoadLast()
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if found || snap != nil {
		t.Fatal("expected not found for first-ever run")
	}
}

func TestLoadLast_CorruptFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := New(path)
	if _, _, err := p.LoadLast(); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestPersistAndReload(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "stats.json"))
	want := sampleSnapshot()
	if err := p.Persist(want); err != nil {
		t.Fatalf("persist: %v", err)
	}

	got, found, err := p.LoadLast()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("expected persisted state")
	}
	if diff := model.DiffCounters(got, want); len(diff) != 0 {
		t.Fatalf("reloaded snapshot differs: %v", diff)
	}
	if got.BlockNumber != want.BlockNumber {
		t.Errorf("block = %d, want %d", got.BlockNumber, want.BlockNumber)
	}
}

func TestPersist_CreatesParentDir(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "data", "stats.json"))
	if err := p.Persist(sampleSnapshot()); err != nil {
		t.Fatalf("persist: %v", err)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	p := New("")
	snap := sampleSnapshot()
	res := p.Reconcile(snap, sampleSnapshot())
	if res.Kind != Unchanged {
		t.Fatalf("reconcile(S, S) = %s, want unchanged", res.Kind)
	}
}

func TestReconcile_FirstRunIsChanged(t *testing.T) {
	p := New("")
	res := p.Reconcile(sampleSnapshot(), nil)
	if res.Kind != Changed {
		t.Fatalf("first run = %s, want changed", res.Kind)
	}
	if len(res.ChangedFields) != len(model.AllCounters) {
		t.Errorf("first run changed fields = %v, want all counters", res.ChangedFields)
	}
}

func TestReconcile_Changed(t *testing.T) {
	p := New("")
	last := sampleSnapshot()
	curr := sampleSnapshot()
	curr.TotalBurnedXEN = decimal.NewFromInt(150)
	res := p.Reconcile(curr, last)
	if res.Kind != Changed {
		t.Fatalf("kind = %s, want changed", res.Kind)
	}
	if len(res.ChangedFields) != 1 || res.ChangedFields[0] != model.CounterTotalBurnedXEN {
		t.Errorf("changed fields = %v", res.ChangedFields)
	}
}

func TestReconcile_RegressionWinsOverChanged(t *testing.T) {
	p := New("")
	last := sampleSnapshot()
	curr := sampleSnapshot()
	curr.TotalBurnedXEN = decimal.NewFromInt(90)
	curr.CurrentAMP = 2900
	res := p.Reconcile(curr, last)
	if res.Kind != Regressed {
		t.Fatalf("kind = %s, want regressed", res.Kind)
	}
	if len(res.RegressedFields) != 1 || res.RegressedFields[0] != model.CounterTotalBurnedXEN {
		t.Errorf("regressed fields = %v", res.RegressedFields)
	}
}

func TestReconcile_NewAsOfMarkerAloneIsUnchanged(t *testing.T) {
	p := New("")
	last := sampleSnapshot()
	curr := sampleSnapshot()
	curr.BlockNumber = 501
	curr.FetchedAt = curr.FetchedAt.Add(time.Hour)
	res := p.Reconcile(curr, last)
	if res.Kind != Unchanged {
		t.Fatalf("newer as-of marker alone = %s, want unchanged", res.Kind)
	}
}

func TestPersist_OverwriteKeepsFileParseable(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "stats.json"))
	if err := p.Persist(sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	next := sampleSnapshot()
	next.TotalBurnedXEN = decimal.NewFromInt(150)
	next.BlockNumber = 510
	if err := p.Persist(next); err != nil {
		t.Fatal(err)
	}
	got, found, err := p.LoadLast()
	if err != nil || !found {
		t.Fatalf("load after overwrite: found=%v err=%v", found, err)
	}
	if !got.TotalBurnedXEN.Equal(decimal.NewFromInt(150)) {
		t.Errorf("total burned = %s, want 150", got.TotalBurnedXEN)
	}
}

// A crash between temp-write and rename leaves a stray temp file; the
// committed state must stay intact and parseable, and the next persist
// must still succeed.
func TestPersist_StrayTempFileHarmless(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")
	p := New(path)
	if err := p.Persist(sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Simulated crash leftover: a partial write that never got renamed.
	stray := filepath.Join(dir, "stats.json.tmp-123")
	if err := os.WriteFile(stray, []byte(`{"current_amp": 1`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, found, err := p.LoadLast()
	if err != nil || !found {
		t.Fatalf("load with stray temp present: found=%v err=%v", found, err)
	}
	if diff := model.DiffCounters(got, sampleSnapshot()); len(diff) != 0 {
		t.Fatalf("state changed by stray temp file: %v", diff)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("committed file bytes changed")
	}

	next := sampleSnapshot()
	next.BurnCount = 4
	if err := p.Persist(next); err != nil {
		t.Fatalf("persist after crash leftover: %v", err)
	}
}
