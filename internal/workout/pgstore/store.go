// Package pgstore keeps the workout data in postgres: pending entries in
// workout_entry, the log in workout_log, the catalog in exercise and the new
// exercises feed in exercise_feed.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/2beens/workoutlog/internal/telemetry/tracing"
	"github.com/2beens/workoutlog/internal/workout"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed schema.sql
var schemaSQL string

// postgres unique_violation
const uniqueViolation = "23505"

var logColumns = []string{
	"log_id", "exercise_id", "exercise_name", "date", "sets", "reps", "weight",
	"rest_time", "effectiveness", "failure", "notes",
}

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{
		db: db,
	}
}

// EnsureSchema creates the tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.pg.ensure-schema")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (_ *workout.Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.pg.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	snap := &workout.Snapshot{}
	if snap.Entries, snap.PendingMark, err = s.listEntries(ctx); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if snap.Log, err = s.listLog(ctx); err != nil {
		return nil, fmt.Errorf("list log: %w", err)
	}
	if len(snap.Log) > 0 {
		snap.LogMark = snap.Log[len(snap.Log)-1].LogID
	}
	if snap.Catalog, err = s.listCatalog(ctx); err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if snap.NewExercises, err = s.listFeed(ctx); err != nil {
		return nil, fmt.Errorf("list exercise feed: %w", err)
	}

	span.SetAttributes(
		attribute.Int("entries", len(snap.Entries)),
		attribute.Int("log", len(snap.Log)),
		attribute.Int("catalog", len(snap.Catalog)),
	)

	return snap, nil
}

// Save appends the log records above snap.LogMark, writes new catalog rows
// and the derived columns of existing ones, and replaces the pending entries up
// to snap.PendingMark, all in one transaction. It fails with
// workout.ErrLogChanged when another writer appended to the log after Load.
func (s *Store) Save(ctx context.Context, snap *workout.Snapshot) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.pg.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	appended, err := appendLog(ctx, tx, snap.LogMark, snap.Log)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	span.SetAttributes(attribute.Int64("log.appended", appended))

	if err := upsertCatalog(ctx, tx, snap.Catalog); err != nil {
		return fmt.Errorf("upsert catalog: %w", err)
	}

	if err := replaceEntries(ctx, tx, snap.PendingMark, snap.Entries); err != nil {
		return fmt.Errorf("replace entries: %w", err)
	}

	log.Debugf("pg store: appended %d log records, wrote %d catalog rows", appended, len(snap.Catalog))
	return nil
}

func appendLog(ctx context.Context, tx pgx.Tx, mark int, records []workout.LogRecord) (int64, error) {
	var maxStored int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(log_id), 0) FROM workout_log`).Scan(&maxStored); err != nil {
		return 0, fmt.Errorf("max log id: %w", err)
	}
	if maxStored > mark {
		return 0, fmt.Errorf("%w: max stored id %d, loaded up to %d", workout.ErrLogChanged, maxStored, mark)
	}

	var rows [][]interface{}
	for _, rec := range records {
		if rec.LogID <= mark {
			continue
		}
		rows = append(rows, []interface{}{
			rec.LogID, rec.ExerciseID, rec.ExerciseName, rec.Date, rec.Sets, rec.Reps, rec.Weight,
			rec.RestTime, rec.Effectiveness, rec.Failure, rec.Notes,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"workout_log"}, logColumns, pgx.CopyFromRows(rows))
	if err != nil {
		// a writer committed the same ids after the max check above
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%w: %s", workout.ErrLogChanged, pgErr.Message)
		}
		return 0, err
	}
	return n, nil
}

func upsertCatalog(ctx context.Context, tx pgx.Tx, catalog []workout.Exercise) error {
	if len(catalog) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, ex := range catalog {
		secondary := ex.SecondaryMuscles
		if secondary == nil {
			secondary = []string{}
		}
		// descriptive columns are only written on insert
		batch.Queue(`
			INSERT INTO exercise
				(exercise_id, name, primary_muscle, secondary_muscles, equipment, type, effectiveness, max_weight, max_reps)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (exercise_id) DO UPDATE SET
				effectiveness = EXCLUDED.effectiveness,
				max_weight = EXCLUDED.max_weight,
				max_reps = EXCLUDED.max_reps;`,
			ex.ExerciseID, ex.Name, ex.PrimaryMuscle, secondary, ex.Equipment, ex.Type,
			ex.Effectiveness, ex.MaxWeight, ex.MaxReps,
		)
	}

	return tx.SendBatch(ctx, batch).Close()
}

func replaceEntries(ctx context.Context, tx pgx.Tx, mark int64, entries []workout.RawEntry) error {
	// entries queued after the snapshot was loaded have a higher id
	if _, err := tx.Exec(ctx, `DELETE FROM workout_entry WHERE id <= $1`, mark); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := tx.Exec(ctx, `
			INSERT INTO workout_entry
				(date, day, exercise_id, exercise_name, sets, reps, weight, rest_time, effectiveness, failure, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
			e.Date, e.Day, e.ExerciseID, e.ExerciseName, e.Sets, string(e.Reps), string(e.Weight),
			e.RestTime, e.Effectiveness, e.Failure, e.Notes,
		); err != nil {
			return err
		}
	}
	return nil
}

// AddEntry queues a pending entry for the next run.
func (s *Store) AddEntry(ctx context.Context, e workout.RawEntry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.pg.add-entry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = s.db.Exec(ctx, `
		INSERT INTO workout_entry
			(date, day, exercise_id, exercise_name, sets, reps, weight, rest_time, effectiveness, failure, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
		e.Date, e.Day, e.ExerciseID, e.ExerciseName, e.Sets, string(e.Reps), string(e.Weight),
		e.RestTime, e.Effectiveness, e.Failure, e.Notes,
	)
	return err
}

// AddExerciseDefinition adds a definition to the new exercises feed.
func (s *Store) AddExerciseDefinition(ctx context.Context, def workout.ExerciseDefinition) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.pg.add-exercise-definition")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	secondary := def.SecondaryMuscles
	if secondary == nil {
		secondary = []string{}
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO exercise_feed
			(exercise_id, name, primary_muscle, secondary_muscles, equipment, type)
			VALUES ($1, $2, $3, $4, $5, $6);`,
		def.ExerciseID, def.Name, def.PrimaryMuscle, secondary, def.Equipment, def.Type,
	)
	return err
}

func (s *Store) listEntries(ctx context.Context) (_ []workout.RawEntry, maxID int64, err error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			id, date, day, exercise_id, exercise_name, sets, reps, weight, rest_time, effectiveness, failure, notes
		FROM workout_entry
		ORDER BY id;`,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []workout.RawEntry
	for rows.Next() {
		var e workout.RawEntry
		var id int64
		var reps, weight string
		if err := rows.Scan(
			&id, &e.Date, &e.Day, &e.ExerciseID, &e.ExerciseName, &e.Sets, &reps, &weight,
			&e.RestTime, &e.Effectiveness, &e.Failure, &e.Notes,
		); err != nil {
			return nil, 0, fmt.Errorf("rows scan: %w", err)
		}
		e.Reps = workout.RawSpec(reps)
		e.Weight = workout.RawSpec(weight)
		entries = append(entries, e)
		maxID = id
	}

	return entries, maxID, rows.Err()
}

func (s *Store) listLog(ctx context.Context) ([]workout.LogRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			log_id, exercise_id, exercise_name, date, sets, reps, weight, rest_time, effectiveness, failure, notes
		FROM workout_log
		ORDER BY log_id;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []workout.LogRecord
	for rows.Next() {
		var rec workout.LogRecord
		if err := rows.Scan(
			&rec.LogID, &rec.ExerciseID, &rec.ExerciseName, &rec.Date, &rec.Sets, &rec.Reps, &rec.Weight,
			&rec.RestTime, &rec.Effectiveness, &rec.Failure, &rec.Notes,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (s *Store) listCatalog(ctx context.Context) ([]workout.Exercise, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			exercise_id, name, primary_muscle, secondary_muscles, equipment, type, effectiveness, max_weight, max_reps
		FROM exercise
		ORDER BY exercise_id;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var catalog []workout.Exercise
	for rows.Next() {
		var ex workout.Exercise
		if err := rows.Scan(
			&ex.ExerciseID, &ex.Name, &ex.PrimaryMuscle, &ex.SecondaryMuscles, &ex.Equipment, &ex.Type,
			&ex.Effectiveness, &ex.MaxWeight, &ex.MaxReps,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		catalog = append(catalog, ex)
	}

	return catalog, rows.Err()
}

func (s *Store) listFeed(ctx context.Context) ([]workout.ExerciseDefinition, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			exercise_id, name, primary_muscle, secondary_muscles, equipment, type
		FROM exercise_feed
		ORDER BY id;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feed []workout.ExerciseDefinition
	for rows.Next() {
		var def workout.ExerciseDefinition
		if err := rows.Scan(
			&def.ExerciseID, &def.Name, &def.PrimaryMuscle, &def.SecondaryMuscles, &def.Equipment, &def.Type,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		feed = append(feed, def)
	}

	return feed, rows.Err()
}
