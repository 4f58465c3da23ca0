// Package persister owns the durable state file: it loads the last
// committed snapshot, decides whether a fresh snapshot is a real
// change, and performs the atomic write.
package persister

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"BurnSentinel/internal/model"
)

// ResultKind classifies the outcome of Reconcile.
type ResultKind int

const (
	// Unchanged means every counter equals the last persisted value.
	Unchanged ResultKind = iota
	// Changed means at least one counter differs and no monotonic
	// counter decreased.
	Changed
	// Regressed means a monotonic counter decreased. The persister
	// never writes a regressed snapshot; callers surface it.
	Regressed
)

func (k ResultKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	case Regressed:
		return "regressed"
	}
	return "unknown"
}

// Result reports what Reconcile decided.
type Result struct {
	Kind            ResultKind
	ChangedFields   []string
	RegressedFields []string
}

// Persister compares and writes snapshots at a fixed path.
type Persister struct {
	Path string
}

func New(path string) *Persister {
	return &Persister{Path: path}
}

// LoadLast reads the existing persisted snapshot. A missing file is the
// first-ever run: (nil, false, nil). A present but unparseable file is
// an error, since the persisted state must always be valid.
func (p *Persister) LoadLast() (*model.StatsSnapshot, bool, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read state: %w", err)
	}
	var snap model.StatsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("parse state %s: %w", p.Path, err)
	}
	return &snap, true, nil
}

// Reconcile compares current against last under field-by-field counter
// equality. The as-of marker (block number, fetch time) is excluded:
// when the counters are otherwise identical the newer marker is not a
// material change. A nil last (first run) is all-new and yields
// Changed. Regression of a monotonic counter wins over Changed.
func (p *Persister) Reconcile(current, last *model.StatsSnapshot) Result {
	if last == nil {
		return Result{Kind: Changed, ChangedFields: append([]string(nil), model.AllCounters...)}
	}
	regressed := model.Regressions(current, last)
	if len(regressed) > 0 {
		return Result{Kind: Regressed, RegressedFields: regressed}
	}
	changed := model.DiffCounters(current, last)
	if len(changed) == 0 {
		return Result{Kind: Unchanged}
	}
	return Result{Kind: Changed, ChangedFields: changed}
}

// Persist replaces the state file with the snapshot. The write goes to
// a temp file in the same directory which is fsynced and renamed over
// the target, so a crash mid-write leaves the previous state intact
// and a racing writer cannot produce a torn file.
func (p *Persister) Persist(snap *model.StatsSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp state: %w", err)
	}
	if err := os.Rename(tmpName, p.Path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
