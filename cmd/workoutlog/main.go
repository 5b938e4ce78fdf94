package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/workoutlog/internal"
	"github.com/2beens/workoutlog/internal/config"
	"github.com/2beens/workoutlog/internal/logging"
	"github.com/2beens/workoutlog/internal/workout"
	"github.com/2beens/workoutlog/pkg"

	log "github.com/sirupsen/logrus"
)

// one-shot workout log update: folds the pending entries into the log and
// refreshes the catalog aggregates

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	hashSecret := flag.String("hash-secret", "", "print the bcrypt hash of the given run secret and exit")
	flag.Parse()

	if *hashSecret != "" {
		hash, err := pkg.HashPassword(*hashSecret)
		if err != nil {
			fmt.Printf("Error: %s\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}

	flushLogs := logging.Setup(logging.LoggerSetupParams{
		Component:     logging.ComponentCLI,
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
		Environment:   cfg.Environment,
		SentryEnabled: cfg.SentryEnabled,
		SentryDSN:     os.Getenv("SENTRY_DSN"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Errorf("workout run failed: %s", err)
		fmt.Printf("Error: %s\n", err)
		cancel()
		flushLogs()
		os.Exit(1)
	}

	flushLogs()
	fmt.Println("Workout log and database successfully updated!")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, dbPool, err := internal.NewStore(ctx, cfg, os.Getenv("WORKOUTLOG_POSTGRES_PASS"), false)
	if err != nil {
		return err
	}
	if dbPool != nil {
		defer dbPool.Close()
	}

	// same lock as the server, so a cli run never overlaps a run over http
	rdb, locker := internal.NewRunLocker(cfg, os.Getenv("WORKOUTLOG_REDIS_PASS"))
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Errorf("close redis client: %s", err)
			}
		}()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis is configured for the run lock, but not reachable: %w", err)
		}
	} else {
		log.Warnln("redis not configured, the run is not locked")
	}

	pipeline, err := workout.NewPipeline(workout.Config{
		Store:  store,
		Locker: locker,
	})
	if err != nil {
		return err
	}

	res, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	log.Debugf("run result: %+v", res)
	return nil
}
