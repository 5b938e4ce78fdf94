package workout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/workoutlog/internal/telemetry/metrics"
	"github.com/2beens/workoutlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=pipeline_mocks_test.go -package=workout_test

// Snapshot is everything one run reads from and writes back to its store.
type Snapshot struct {
	Entries      []RawEntry
	Log          []LogRecord
	Catalog      []Exercise
	NewExercises []ExerciseDefinition
	// PendingMark is set by the store on Load and marks the last pending entry
	// included in Entries. On Save, entries queued after the mark are kept.
	PendingMark int64
	// LogMark is the highest log id held by the store on Load. On Save, the
	// records above it are new and must not collide with stored ones.
	LogMark int
}

// Store loads and persists the pending entries, the log and the catalog.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

// RunLocker serializes runs across processes. Lock returns ErrRunInProgress
// when someone else holds the lock.
type RunLocker interface {
	Lock(ctx context.Context) (unlock func(ctx context.Context) error, err error)
}

// State is the stage a run has reached.
type State int

const (
	StateIdle State = iota
	StateParsed
	StateAppended
	StateCatalogMerged
	StateAggregated
	StateBufferCleared
	StatePersisted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsed:
		return "parsed"
	case StateAppended:
		return "appended"
	case StateCatalogMerged:
		return "catalog_merged"
	case StateAggregated:
		return "aggregated"
	case StateBufferCleared:
		return "buffer_cleared"
	case StatePersisted:
		return "persisted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RunResult summarizes a run.
type RunResult struct {
	State              State `json:"-"`
	EntriesConsumed    int   `json:"entriesConsumed"`
	SetsAppended       int   `json:"setsAppended"`
	FirstLogID         int   `json:"firstLogId,omitempty"`
	LastLogID          int   `json:"lastLogId,omitempty"`
	ExercisesAdded     []int `json:"exercisesAdded"`
	ExercisesUpdated   []int `json:"exercisesUpdated"`
	SkippedExerciseIDs []int `json:"skippedExerciseIds"`
}

// Apply runs the in-memory part of a run on snap: expand the pending entries,
// append them to the log, merge the new exercises feed, re-aggregate the
// catalog and clear the pending entries. snap itself is never modified, so on
// error the caller still holds the untouched input.
func Apply(snap *Snapshot) (*Snapshot, *RunResult, error) {
	res := &RunResult{State: StateIdle}

	sets, err := ExpandBatch(snap.Entries)
	if err != nil {
		return nil, nil, err
	}
	res.State = StateParsed
	res.EntriesConsumed = len(snap.Entries)

	nextLog := AppendLog(snap.Log, sets)
	res.State = StateAppended
	res.SetsAppended = len(sets)
	if len(sets) > 0 {
		res.FirstLogID = nextLog[len(snap.Log)].LogID
		res.LastLogID = nextLog[len(nextLog)-1].LogID
	}

	catalog := snap.Catalog
	if len(snap.NewExercises) > 0 {
		catalog, res.ExercisesAdded = MergeCatalog(catalog, snap.NewExercises)
	}
	res.State = StateCatalogMerged

	catalog, aggRes := Aggregate(nextLog, catalog)
	res.State = StateAggregated
	res.ExercisesUpdated = aggRes.Updated
	res.SkippedExerciseIDs = aggRes.Skipped

	next := &Snapshot{
		Entries:      []RawEntry{},
		Log:          nextLog,
		Catalog:      catalog,
		NewExercises: snap.NewExercises,
		PendingMark:  snap.PendingMark,
		LogMark:      snap.LogMark,
	}
	res.State = StateBufferCleared

	return next, res, nil
}

type Config struct {
	Store   Store
	Locker  RunLocker        // optional
	Metrics *metrics.Manager // optional
}

type Pipeline struct {
	store   Store
	locker  RunLocker
	metrics *metrics.Manager
}

func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Store == nil {
		return nil, errors.New("pipeline store not set")
	}
	return &Pipeline{
		store:   cfg.Store,
		locker:  cfg.Locker,
		metrics: cfg.Metrics,
	}, nil
}

// Run performs one full log update: load, apply and save. Nothing is saved
// when any step before Save fails.
func (p *Pipeline) Run(ctx context.Context) (_ *RunResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "pipeline.workout.run")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	started := time.Now()
	defer func() {
		p.observeRun(started, err)
	}()

	if p.locker != nil {
		unlock, lockErr := p.locker.Lock(ctx)
		if lockErr != nil {
			return nil, fmt.Errorf("lock run: %w", lockErr)
		}
		defer func() {
			if unlockErr := unlock(ctx); unlockErr != nil {
				log.Warnf("workout run: release lock: %s", unlockErr)
			}
		}()
	}

	snap, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	log.Debugf(
		"workout run: loaded %d pending entries, %d log records, %d catalog exercises, %d new exercises",
		len(snap.Entries), len(snap.Log), len(snap.Catalog), len(snap.NewExercises),
	)

	next, res, err := Apply(snap)
	if err != nil {
		return nil, err
	}

	if len(res.SkippedExerciseIDs) > 0 {
		log.Warnf("workout run: exercises %v are in the log but not in the catalog, skipped", res.SkippedExerciseIDs)
	}

	if err := p.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	res.State = StatePersisted

	span.SetAttributes(
		attribute.Int("entries", res.EntriesConsumed),
		attribute.Int("sets", res.SetsAppended),
		attribute.Int("exercises.added", len(res.ExercisesAdded)),
	)
	log.Infof(
		"workout run done: %d entries -> %d sets (log ids %d..%d), %d new exercises [trace: %s]",
		res.EntriesConsumed, res.SetsAppended, res.FirstLogID, res.LastLogID, len(res.ExercisesAdded),
		tracing.TraceID(ctx),
	)

	if p.metrics != nil {
		p.metrics.CounterLoggedSets.Add(float64(res.SetsAppended))
		p.metrics.CounterNewExercises.Add(float64(len(res.ExercisesAdded)))
		if res.LastLogID > 0 {
			p.metrics.GaugeLastRunID.Set(float64(res.LastLogID))
		}
	}

	return res, nil
}

func (p *Pipeline) observeRun(started time.Time, err error) {
	if p.metrics == nil {
		return
	}
	p.metrics.HistogramRunDuration.Observe(time.Since(started).Seconds())
	p.metrics.CounterRuns.WithLabelValues(RunOutcome(err)).Inc()
}

// RunOutcome maps a run error to its metrics outcome label.
func RunOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrInvalidEntry):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrRunInProgress):
		return metrics.OutcomeLocked
	case errors.Is(err, ErrLogChanged):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeStoreError
	}
}
