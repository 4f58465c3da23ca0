package recorder

// RunRecord captures the outcome of one pipeline run.
type RunRecord struct {
	Status        string // "changed", "unchanged", "regressed", "collect_failed", "persist_failed"
	BlockNumber   uint64
	TotalBurned   string
	BurnCount     uint64
	ChangedFields string // comma-separated counter names, empty when none
	Error         string
	DurationMS    int64
}

// RegressionRecord captures one monotonic counter that decreased.
type RegressionRecord struct {
	Counter     string
	Previous    string
	Current     string
	BlockNumber uint64
}

// Recorder journals pipeline outcomes for later inspection.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	RecordRegression(rec *RegressionRecord) error
	Close() error
}
