package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/workoutlog/internal/telemetry/tracing"
	"github.com/2beens/workoutlog/pkg"

	"github.com/coocood/freecache"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workout_test

const (
	RunSecretHeader = "X-Workout-Secret"

	catalogCacheKey = "catalog"
	// runs done outside this server (the cli) do not clear the cache, so
	// cached catalog reads are kept short
	DefaultCatalogCacheExpire = 30 * time.Second
)

type runner interface {
	Run(ctx context.Context) (*RunResult, error)
}

type snapshotLoader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

type entryQueue interface {
	AddEntry(ctx context.Context, entry RawEntry) error
	AddExerciseDefinition(ctx context.Context, def ExerciseDefinition) error
}

type RunResponse struct {
	*RunResult
	State string `json:"state"`
}

type ExercisesResponse struct {
	Exercises []Exercise `json:"exercises"`
	Total     int        `json:"total"`
}

type Handler struct {
	runner        runner
	loader        snapshotLoader
	queue         entryQueue // optional
	cache         *freecache.Cache
	cacheExpire   int // seconds
	runSecretHash string
}

type NewHandlerParams struct {
	Runner        runner
	Loader        snapshotLoader
	Queue         entryQueue
	CacheSize     int           // bytes
	CacheExpire   time.Duration // DefaultCatalogCacheExpire when not set
	RunSecretHash string
}

func NewHandler(params NewHandlerParams) *Handler {
	cacheSize := params.CacheSize
	if cacheSize <= 0 {
		megabyte := 1024 * 1024
		cacheSize = 10 * megabyte
	}
	cacheExpire := params.CacheExpire
	if cacheExpire <= 0 {
		cacheExpire = DefaultCatalogCacheExpire
	}
	return &Handler{
		runner:        params.Runner,
		loader:        params.Loader,
		queue:         params.Queue,
		cache:         freecache.NewCache(cacheSize),
		cacheExpire:   max(1, int(cacheExpire.Seconds())),
		runSecretHash: params.RunSecretHash,
	}
}

// SetupRoutes registers the workout routes on the given router. runMiddleware
// wraps the run route only, outermost first.
func (handler *Handler) SetupRoutes(r *mux.Router, runMiddleware ...func(http.Handler) http.Handler) {
	var run http.Handler = http.HandlerFunc(handler.HandleRun)
	for i := len(runMiddleware) - 1; i >= 0; i-- {
		run = runMiddleware[i](run)
	}

	r.Handle("/run", run).Methods("POST", "OPTIONS").Name("run")
	r.HandleFunc("/entries", handler.HandleAddEntry).Methods("POST", "OPTIONS").Name("add-entry")
	r.HandleFunc("/exercises", handler.HandleListExercises).Methods("GET").Name("list-exercises")
	r.HandleFunc("/exercises", handler.HandleAddExerciseDefinition).Methods("POST", "OPTIONS").Name("add-exercise")
	r.HandleFunc("/exercises/{id}", handler.HandleGetExercise).Methods("GET").Name("get-exercise")
}

func (handler *Handler) authorized(r *http.Request) bool {
	secret := r.Header.Get(RunSecretHeader)
	if secret == "" {
		return false
	}
	return pkg.CheckPasswordHash(secret, handler.runSecretHash)
}

func (handler *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.run")
	defer span.End()

	if !handler.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	res, err := handler.runner.Run(ctx)
	if err != nil {
		span.RecordError(err)
		var validationErr *ValidationError
		var parseErr *ParseError
		switch {
		case errors.Is(err, ErrRunInProgress):
			log.Debugf("workout run rejected: %s", err)
			http.Error(w, "workout run already in progress", http.StatusConflict)
		case errors.Is(err, ErrLogChanged):
			log.Warnf("workout run rejected: %s", err)
			http.Error(w, "workout log changed during the run, retry", http.StatusConflict)
		case errors.As(err, &validationErr), errors.As(err, &parseErr):
			log.Warnf("workout run rejected, invalid entry: %s", err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			log.Errorf("workout run failed: %s", err)
			http.Error(w, "workout run failed", http.StatusInternalServerError)
		}
		return
	}

	handler.cache.Clear()

	respJson, err := json.Marshal(RunResponse{
		RunResult: res,
		State:     res.State.String(),
	})
	if err != nil {
		log.Errorf("failed to marshal run result: %s", err)
		http.Error(w, "failed to marshal run result", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(respJson))
}

func (handler *Handler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.add-entry")
	defer span.End()

	if !handler.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if handler.queue == nil {
		http.Error(w, "entry queue not available", http.StatusNotImplemented)
		return
	}
	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var entry RawEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Tracef("add entry, unmarshal json: %s", err)
		http.Error(w, "add entry failed", http.StatusBadRequest)
		return
	}

	// reject now what the next run would fail on
	if _, err := ExpandEntry(0, entry); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := handler.queue.AddEntry(ctx, entry); err != nil {
		log.Errorf("failed to queue entry [%s]: %s", entry, err)
		http.Error(w, "error, failed to queue entry", http.StatusInternalServerError)
		return
	}

	log.Debugf("workout entry queued: %s", entry)
	pkg.WriteResponse(w, pkg.ContentType.Text, "queued", http.StatusCreated)
}

func (handler *Handler) HandleAddExerciseDefinition(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.add-exercise")
	defer span.End()

	if !handler.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if handler.queue == nil {
		http.Error(w, "entry queue not available", http.StatusNotImplemented)
		return
	}
	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var def ExerciseDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		log.Tracef("add exercise definition, unmarshal json: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}
	if def.ExerciseID <= 0 || def.Name == "" {
		http.Error(w, "error, exercise id or name empty", http.StatusBadRequest)
		return
	}

	if err := handler.queue.AddExerciseDefinition(ctx, def); err != nil {
		log.Errorf("failed to add exercise definition %d: %s", def.ExerciseID, err)
		http.Error(w, "error, failed to add exercise", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponse(w, pkg.ContentType.Text, "queued", http.StatusCreated)
}

func (handler *Handler) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.list-exercises")
	defer span.End()

	if cached, err := handler.cache.Get([]byte(catalogCacheKey)); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	catalog, err := handler.loadCatalog(ctx)
	if err != nil {
		log.Errorf("failed to load catalog: %s", err)
		http.Error(w, "failed to get exercises", http.StatusInternalServerError)
		return
	}
	if catalog == nil {
		catalog = []Exercise{}
	}

	respJson, err := json.Marshal(ExercisesResponse{
		Exercises: catalog,
		Total:     len(catalog),
	})
	if err != nil {
		log.Errorf("failed to marshal exercises: %s", err)
		http.Error(w, "failed to marshal exercises", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set([]byte(catalogCacheKey), respJson, handler.cacheExpire); err != nil {
		log.Errorf("failed to cache catalog: %s", err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleGetExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.get-exercise")
	defer span.End()

	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	cacheKey := fmt.Sprintf("exercise||%d", id)
	if cached, err := handler.cache.Get([]byte(cacheKey)); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	catalog, err := handler.loadCatalog(ctx)
	if err != nil {
		log.Errorf("failed to load catalog: %s", err)
		http.Error(w, "failed to get exercise", http.StatusInternalServerError)
		return
	}

	exercise, ok := FindExercise(catalog, id)
	if !ok {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}

	exJson, err := json.Marshal(exercise)
	if err != nil {
		log.Errorf("failed to marshal exercise: %s", err)
		http.Error(w, "failed to marshal exercise", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set([]byte(cacheKey), exJson, handler.cacheExpire); err != nil {
		log.Errorf("failed to cache exercise %d: %s", id, err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, exJson)
}

func (handler *Handler) loadCatalog(ctx context.Context) ([]Exercise, error) {
	snap, err := handler.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Catalog, nil
}
