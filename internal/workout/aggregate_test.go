package workout_test

import (
	"encoding/json"
	"testing"

	"github.com/2beens/workoutlog/internal/workout"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_SingleExercise(t *testing.T) {
	sets, err := workout.ExpandEntry(0, squatEntry(4, "10", "225"))
	require.NoError(t, err)
	logRecords := workout.AppendLog(nil, sets)

	catalog, res := workout.Aggregate(logRecords, testCatalog())
	assert.Equal(t, []int{101}, res.Updated)
	assert.Empty(t, res.Skipped)

	squat, ok := workout.FindExercise(catalog, 101)
	require.True(t, ok)
	require.NotNil(t, squat.Effectiveness)
	assert.Equal(t, 5.0, *squat.Effectiveness)
	assert.Equal(t, float64(225), *squat.MaxWeight)
	assert.Equal(t, float64(10), *squat.MaxReps)
}

func TestAggregate_TwoSessions(t *testing.T) {
	first, err := workout.ExpandBatch([]workout.RawEntry{
		squatEntry(4, "10", "225"),
		{Date: "2025-02-19", ExerciseID: 103, ExerciseName: "Bench Press", Sets: 3, Reps: "8", Weight: "185", Effectiveness: 4},
	})
	require.NoError(t, err)
	logRecords := workout.AppendLog(nil, first)

	second, err := workout.ExpandBatch([]workout.RawEntry{
		{Date: "2025-03-18", ExerciseID: 101, ExerciseName: "Squat", Sets: 3, Reps: "5", Weight: "250", Effectiveness: 3},
		{Date: "2025-03-19", ExerciseID: 102, ExerciseName: "Deadlift", Sets: 5, Reps: "10", Weight: "200", Effectiveness: 4},
	})
	require.NoError(t, err)
	logRecords = workout.AppendLog(logRecords, second)
	require.Len(t, logRecords, 15)

	catalog, res := workout.Aggregate(logRecords, testCatalog())
	assert.ElementsMatch(t, []int{101, 102, 103}, res.Updated)

	squat, _ := workout.FindExercise(catalog, 101)
	// 4 sets rated 5 and 3 sets rated 3, one term per set
	assert.InDelta(t, 29.0/7.0, *squat.Effectiveness, 1e-9)
	assert.Equal(t, float64(250), *squat.MaxWeight)
	assert.Equal(t, float64(5), *squat.MaxReps)

	deadlift, _ := workout.FindExercise(catalog, 102)
	assert.Equal(t, float64(200), *deadlift.MaxWeight)
	assert.Equal(t, float64(10), *deadlift.MaxReps)

	bench, _ := workout.FindExercise(catalog, 103)
	assert.Equal(t, float64(185), *bench.MaxWeight)
	assert.Equal(t, float64(8), *bench.MaxReps)
}

func TestAggregate_FirstMaxWeightWins(t *testing.T) {
	logRecords := []workout.LogRecord{
		{LogID: 1, ExerciseID: 101, Weight: 200, Reps: 8, Effectiveness: 3},
		{LogID: 2, ExerciseID: 101, Weight: 225, Reps: 6, Effectiveness: 4},
		{LogID: 3, ExerciseID: 101, Weight: 225, Reps: 9, Effectiveness: 5},
	}
	catalog, _ := workout.Aggregate(logRecords, testCatalog())
	squat, _ := workout.FindExercise(catalog, 101)
	assert.Equal(t, float64(225), *squat.MaxWeight)
	assert.Equal(t, float64(6), *squat.MaxReps)
	assert.Equal(t, 4.0, *squat.Effectiveness)
}

func TestAggregate_UnaffectedExercisesKeepValues(t *testing.T) {
	logRecords := []workout.LogRecord{
		{LogID: 1, ExerciseID: 101, Weight: 100, Reps: 5, Effectiveness: 2},
	}
	catalog, _ := workout.Aggregate(logRecords, testCatalog())

	deadlift, _ := workout.FindExercise(catalog, 102)
	assert.Equal(t, 4.0, *deadlift.Effectiveness)
	assert.Equal(t, float64(200), *deadlift.MaxWeight)
	assert.Equal(t, float64(10), *deadlift.MaxReps)

	bench, _ := workout.FindExercise(catalog, 103)
	assert.Nil(t, bench.Effectiveness)
	assert.Nil(t, bench.MaxWeight)
	assert.Nil(t, bench.MaxReps)
}

func TestAggregate_SkipsExercisesMissingFromCatalog(t *testing.T) {
	logRecords := []workout.LogRecord{
		{LogID: 1, ExerciseID: 555, Weight: 50, Reps: 12, Effectiveness: 3},
		{LogID: 2, ExerciseID: 101, Weight: 100, Reps: 5, Effectiveness: 2},
		{LogID: 3, ExerciseID: 555, Weight: 55, Reps: 10, Effectiveness: 3},
	}
	catalog, res := workout.Aggregate(logRecords, testCatalog())
	assert.Equal(t, []int{555}, res.Skipped)
	assert.Equal(t, []int{101}, res.Updated)
	assert.Len(t, catalog, 3)
}

func TestAggregate_Idempotent(t *testing.T) {
	faker := gofakeit.New(42)

	var logRecords []workout.LogRecord
	for i := 1; i <= 200; i++ {
		logRecords = append(logRecords, workout.LogRecord{
			LogID:         i,
			ExerciseID:    faker.IntRange(101, 104),
			Date:          faker.Date().Format("2006-01-02"),
			Sets:          1,
			Reps:          float64(faker.IntRange(1, 15)),
			Weight:        float64(faker.IntRange(20, 300)),
			Effectiveness: float64(faker.IntRange(1, 5)),
			Notes:         faker.Sentence(4),
		})
	}

	once, _ := workout.Aggregate(logRecords, testCatalog())
	twice, _ := workout.Aggregate(logRecords, once)

	onceJson, err := json.Marshal(once)
	require.NoError(t, err)
	twiceJson, err := json.Marshal(twice)
	require.NoError(t, err)
	assert.Equal(t, string(onceJson), string(twiceJson))
}
