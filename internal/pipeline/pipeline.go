// Package pipeline executes one fetch-compute-compare-persist run.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"BurnSentinel/internal/collector"
	"BurnSentinel/internal/model"
	"BurnSentinel/internal/persister"
	"BurnSentinel/internal/recorder"
)

// Status is the terminal state of one run.
type Status string

const (
	StatusChanged       Status = "changed"
	StatusUnchanged     Status = "unchanged"
	StatusRegressed     Status = "regressed"
	StatusCollectFailed Status = "collect_failed"
	StatusPersistFailed Status = "persist_failed"
)

// ExitCode translates a status into the process exit-code contract:
// 0 changed, 3 unchanged, 4 regressed, 1 collection failure, 2 persist
// (or state read) failure.
func (s Status) ExitCode() int {
	switch s {
	case StatusChanged:
		return 0
	case StatusUnchanged:
		return 3
	case StatusRegressed:
		return 4
	case StatusPersistFailed:
		return 2
	default:
		return 1
	}
}

// RunReport describes the outcome of one pipeline run.
type RunReport struct {
	Status          Status
	Snapshot        *model.StatsSnapshot
	ChangedFields   []string
	RegressedFields []string
	Err             error
	Duration        time.Duration
}

// Runner wires the collector and persister into a single run. A
// monotonic regression is never persisted: the prior state stays
// authoritative and the outcome is surfaced distinctly.
type Runner struct {
	Collector *collector.Collector
	Persister *persister.Persister
	Recorder  recorder.Recorder

	log *logrus.Entry
}

// NewRunner creates a Runner.
func NewRunner(col *collector.Collector, p *persister.Persister, rec recorder.Recorder) *Runner {
	return &Runner{
		Collector: col,
		Persister: p,
		Recorder:  rec,
		log:       logrus.WithField("component", "pipeline"),
	}
}

// Run executes collect -> loadLast -> reconcile -> persist under ctx.
// Any failure leaves the persisted state untouched.
func (r *Runner) Run(ctx context.Context) *RunReport {
	start := time.Now()
	report := &RunReport{}
	defer func() {
		report.Duration = time.Since(start)
		r.record(report)
	}()

	snap, err := r.Collector.Collect(ctx)
	if err != nil {
		report.Status = StatusCollectFailed
		report.Err = err
		r.log.WithError(err).Error("collection failed, prior state untouched")
		return report
	}
	report.Snapshot = snap

	last, found, err := r.Persister.LoadLast()
	if err != nil {
		report.Status = StatusPersistFailed
		report.Err = err
		r.log.WithError(err).Error("loading prior state failed")
		return report
	}
	if !found {
		r.log.Info("no prior state, treating everything as new")
	}

	result := r.Persister.Reconcile(snap, last)
	switch result.Kind {
	case persister.Unchanged:
		report.Status = StatusUnchanged
		r.log.WithField("block", snap.BlockNumber).Info("no change, skipping write")
		return report

	case persister.Regressed:
		report.Status = StatusRegressed
		report.RegressedFields = result.RegressedFields
		report.Err = fmt.Errorf("monotonic regression in [%s]", strings.Join(result.RegressedFields, ", "))
		r.log.WithField("counters", result.RegressedFields).
			Warn("monotonic counter decreased, refusing to persist")
		r.recordRegressions(snap, last, result.RegressedFields)
		return report
	}

	if err := r.Persister.Persist(snap); err != nil {
		report.Status = StatusPersistFailed
		report.Err = err
		r.log.WithError(err).Error("persist failed, prior state untouched")
		return report
	}

	report.Status = StatusChanged
	report.ChangedFields = result.ChangedFields
	r.log.WithFields(logrus.Fields{
		"block":   snap.BlockNumber,
		"changed": result.ChangedFields,
	}).Info("snapshot persisted")
	return report
}

func (r *Runner) record(report *RunReport) {
	rec := &recorder.RunRecord{
		Status:        string(report.Status),
		ChangedFields: strings.Join(report.ChangedFields, ","),
		DurationMS:    report.Duration.Milliseconds(),
	}
	if report.Err != nil {
		rec.Error = report.Err.Error()
	}
	if report.Snapshot != nil {
		rec.BlockNumber = report.Snapshot.BlockNumber
		rec.TotalBurned = report.Snapshot.TotalBurnedXEN.String()
		rec.BurnCount = report.Snapshot.BurnCount
	}
	if err := r.Recorder.RecordRun(rec); err != nil {
		r.log.WithError(err).Warn("recording run outcome failed")
	}
}

func (r *Runner) recordRegressions(current, last *model.StatsSnapshot, counters []string) {
	for _, counter := range counters {
		prev, curr := counterValues(last, current, counter)
		rec := &recorder.RegressionRecord{
			Counter:     counter,
			Previous:    prev,
			Current:     curr,
			BlockNumber: current.BlockNumber,
		}
		if err := r.Recorder.RecordRegression(rec); err != nil {
			r.log.WithError(err).Warn("recording regression failed")
		}
	}
}

func counterValues(last, current *model.StatsSnapshot, counter string) (prev, curr string) {
	switch counter {
	case model.CounterDaysSinceLaunch:
		return fmt.Sprint(last.DaysSinceLaunch), fmt.Sprint(current.DaysSinceLaunch)
	case model.CounterTotalBurnedXEN:
		return last.TotalBurnedXEN.String(), current.TotalBurnedXEN.String()
	case model.CounterTotalMintedXBURN:
		return last.TotalMintedXBURN.String(), current.TotalMintedXBURN.String()
	case model.CounterBurnCount:
		return fmt.Sprint(last.BurnCount), fmt.Sprint(current.BurnCount)
	}
	return "", ""
}
