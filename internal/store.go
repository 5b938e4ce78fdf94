package internal

import (
	"context"
	"fmt"

	"github.com/2beens/workoutlog/internal/config"
	"github.com/2beens/workoutlog/internal/db"
	"github.com/2beens/workoutlog/internal/workout"
	"github.com/2beens/workoutlog/internal/workout/jsonstore"
	"github.com/2beens/workoutlog/internal/workout/pgstore"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// WorkoutStore is a workout.Store that can also queue entries between runs.
type WorkoutStore interface {
	workout.Store
	AddEntry(ctx context.Context, entry workout.RawEntry) error
	AddExerciseDefinition(ctx context.Context, def workout.ExerciseDefinition) error
}

// NewStore creates the store selected in the config. For postgres the
// returned pool is owned by the caller, for json it is nil.
func NewStore(
	ctx context.Context,
	cfg *config.Config,
	postgresPassword string,
	tracingEnabled bool,
) (WorkoutStore, *pgxpool.Pool, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     postgresPassword,
			TracingEnabled: tracingEnabled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("new db pool: %w", err)
		}

		store := pgstore.New(dbPool)
		if err := store.EnsureSchema(ctx); err != nil {
			dbPool.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		log.Debugf("using postgres store [%s:%s/%s]", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)
		return store, dbPool, nil
	case config.StorageJSON:
		store, err := jsonstore.New(jsonstore.Paths{
			Entries:      cfg.EntriesPath,
			Log:          cfg.LogPath,
			Catalog:      cfg.CatalogPath,
			NewExercises: cfg.NewExercisesPath,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("new json store: %w", err)
		}
		log.Debugf("using json store [log: %s, catalog: %s]", cfg.LogPath, cfg.CatalogPath)
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage: %s", cfg.Storage)
	}
}
