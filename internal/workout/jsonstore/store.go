// Package jsonstore keeps the pending entries, the workout log, the exercise
// catalog and the new exercises feed in plain JSON files.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/2beens/workoutlog/internal/telemetry/tracing"
	"github.com/2beens/workoutlog/internal/workout"
	"github.com/2beens/workoutlog/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

type Paths struct {
	Entries      string
	Log          string
	Catalog      string
	NewExercises string // optional
}

type Store struct {
	paths Paths
	// guards the entries and feed files between writers in this process
	mu sync.Mutex
}

func New(paths Paths) (*Store, error) {
	if paths.Entries == "" || paths.Log == "" || paths.Catalog == "" {
		return nil, errors.New("entries, log and catalog paths must be set")
	}
	return &Store{
		paths: paths,
	}, nil
}

// Load reads all files. A file that does not exist yet is read as empty.
func (s *Store) Load(ctx context.Context) (_ *workout.Snapshot, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "store.json.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &workout.Snapshot{}
	if err := readJSON(s.paths.Entries, &snap.Entries); err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	snap.PendingMark = int64(len(snap.Entries))
	if err := readJSON(s.paths.Log, &snap.Log); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	snap.LogMark = workout.NextLogID(snap.Log) - 1
	if err := readJSON(s.paths.Catalog, &snap.Catalog); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if s.paths.NewExercises != "" {
		if err := readJSON(s.paths.NewExercises, &snap.NewExercises); err != nil {
			return nil, fmt.Errorf("read new exercises: %w", err)
		}
	}

	span.SetAttributes(
		attribute.Int("entries", len(snap.Entries)),
		attribute.Int("log", len(snap.Log)),
		attribute.Int("catalog", len(snap.Catalog)),
	)

	return snap, nil
}

// Save writes the log and the catalog, and only when both made it to disk
// rewrites the pending entries file. The new exercises feed is left as is.
func (s *Store) Save(ctx context.Context, snap *workout.Snapshot) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "store.json.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	// another process may have saved a run since this snapshot was loaded
	var currentLog []workout.LogRecord
	if err := readJSON(s.paths.Log, &currentLog); err != nil {
		return fmt.Errorf("reread log: %w", err)
	}
	if stored := workout.NextLogID(currentLog) - 1; stored > snap.LogMark {
		return fmt.Errorf("%w: max stored id %d, loaded up to %d", workout.ErrLogChanged, stored, snap.LogMark)
	}

	err = multierr.Combine(
		wrapErr("write log", writeJSON(s.paths.Log, snap.Log)),
		wrapErr("write catalog", writeJSON(s.paths.Catalog, snap.Catalog)),
	)
	if err != nil {
		return err
	}

	var current []workout.RawEntry
	if err := readJSON(s.paths.Entries, &current); err != nil {
		return fmt.Errorf("reread entries: %w", err)
	}

	entries := make([]workout.RawEntry, 0, len(snap.Entries))
	entries = append(entries, snap.Entries...)
	if mark := int(snap.PendingMark); mark < len(current) {
		queued := current[mark:]
		log.Debugf("json store: keeping %d entries queued during the run", len(queued))
		entries = append(entries, queued...)
	}
	if err := writeJSON(s.paths.Entries, entries); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}

	return nil
}

// AddEntry appends an entry to the pending entries file.
func (s *Store) AddEntry(ctx context.Context, entry workout.RawEntry) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "store.json.add-entry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []workout.RawEntry
	if err := readJSON(s.paths.Entries, &entries); err != nil {
		return fmt.Errorf("read entries: %w", err)
	}
	if err := writeJSON(s.paths.Entries, append(entries, entry)); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	return nil
}

// AddExerciseDefinition appends a definition to the new exercises feed file.
func (s *Store) AddExerciseDefinition(ctx context.Context, def workout.ExerciseDefinition) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "store.json.add-exercise-definition")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if s.paths.NewExercises == "" {
		return errors.New("new exercises path not set")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var feed []workout.ExerciseDefinition
	if err := readJSON(s.paths.NewExercises, &feed); err != nil {
		return fmt.Errorf("read new exercises: %w", err)
	}
	if err := writeJSON(s.paths.NewExercises, append(feed, def)); err != nil {
		return fmt.Errorf("write new exercises: %w", err)
	}
	return nil
}

func readJSON(path string, dst interface{}) error {
	exists, err := pkg.PathExists(path, false)
	if err != nil {
		return err
	}
	if !exists {
		log.Debugf("json store: [%s] does not exist, reading as empty", path)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return nil
}

// writeJSON goes through a temp file in the same dir and a rename, so a
// crash never leaves a half written file behind.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func wrapErr(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
