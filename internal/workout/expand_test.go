package workout_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/2beens/workoutlog/internal/workout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squatEntry(sets int, reps, weight workout.RawSpec) workout.RawEntry {
	return workout.RawEntry{
		Date:          "2025-02-18",
		Day:           "Tuesday",
		ExerciseID:    101,
		ExerciseName:  "Squat",
		Sets:          sets,
		Reps:          reps,
		Weight:        weight,
		RestTime:      90,
		Effectiveness: 5,
		Failure:       true,
		Notes:         "Felt strong",
	}
}

func TestParseSetSpec(t *testing.T) {
	spec, err := workout.ParseSetSpec("225")
	require.NoError(t, err)
	assert.Equal(t, workout.SpecScalar, spec.Kind())
	assert.Equal(t, 1, spec.Len())

	spec, err = workout.ParseSetSpec(" 10, 8 ,6 ")
	require.NoError(t, err)
	assert.Equal(t, workout.SpecList, spec.Kind())
	assert.Equal(t, "10,8,6", spec.String())

	spec, err = workout.ParseSetSpec("[62.5,60]")
	require.NoError(t, err)
	assert.Equal(t, workout.SpecList, spec.Kind())
	assert.Equal(t, "62.5,60", spec.String())

	for _, bad := range []string{"", "ten", "10,,8", "10;8", "NaN", "8,Inf"} {
		_, err := workout.ParseSetSpec(bad)
		var parseErr *workout.ParseError
		assert.True(t, errors.As(err, &parseErr), "expected parse error for %q", bad)
	}
}

func TestSetSpec_Expand(t *testing.T) {
	values, ok := workout.Scalar(225).Expand(4)
	require.True(t, ok)
	assert.Equal(t, []float64{225, 225, 225, 225}, values)

	values, ok = workout.List(10, 8, 6).Expand(3)
	require.True(t, ok)
	assert.Equal(t, []float64{10, 8, 6}, values)

	_, ok = workout.List(10, 8).Expand(3)
	assert.False(t, ok)

	_, ok = workout.SetSpec{}.Expand(1)
	assert.False(t, ok)
}

func TestExpandEntry_ScalarReplication(t *testing.T) {
	sets, err := workout.ExpandEntry(0, squatEntry(4, "10", "225"))
	require.NoError(t, err)
	require.Len(t, sets, 4)
	for i, s := range sets {
		assert.Equal(t, i+1, s.Number)
		assert.Equal(t, float64(225), s.Weight)
		assert.Equal(t, float64(10), s.Reps)
	}
}

func TestExpandEntry_ListExpansion(t *testing.T) {
	sets, err := workout.ExpandEntry(0, squatEntry(3, "10,8,6", "100"))
	require.NoError(t, err)
	require.Len(t, sets, 3)
	assert.Equal(t, float64(10), sets[0].Reps)
	assert.Equal(t, float64(8), sets[1].Reps)
	assert.Equal(t, float64(6), sets[2].Reps)
	for _, s := range sets {
		assert.Equal(t, float64(100), s.Weight)
	}
}

func TestExpandEntry_Mismatch(t *testing.T) {
	_, err := workout.ExpandEntry(2, squatEntry(3, "10,8", "225"))
	require.Error(t, err)

	var validationErr *workout.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, 2, validationErr.Index)
	assert.Equal(t, 101, validationErr.ExerciseID)
	assert.Equal(t, "reps", validationErr.Field)
	assert.Equal(t, 3, validationErr.Sets)
	assert.Equal(t, 2, validationErr.Values)
	assert.ErrorIs(t, err, workout.ErrInvalidEntry)
	assert.Contains(t, err.Error(), "3 sets declared, but 2 reps values given")
}

func TestExpandEntry_InvalidSets(t *testing.T) {
	_, err := workout.ExpandEntry(0, squatEntry(0, "10", "225"))
	var validationErr *workout.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "sets", validationErr.Field)
	assert.Contains(t, err.Error(), "sets must be between 1 and 1000, got")
}

func TestExpandEntry_TooManySets(t *testing.T) {
	for _, sets := range []int{workout.MaxSets + 1, 1 << 50} {
		_, err := workout.ExpandEntry(3, squatEntry(sets, "10", "100"))
		var validationErr *workout.ValidationError
		require.True(t, errors.As(err, &validationErr), sets)
		assert.Equal(t, 3, validationErr.Index)
		assert.Equal(t, sets, validationErr.Sets)
		assert.ErrorIs(t, err, workout.ErrInvalidEntry)
	}

	sets, err := workout.ExpandEntry(0, squatEntry(workout.MaxSets, "10", "100"))
	require.NoError(t, err)
	assert.Len(t, sets, workout.MaxSets)

	_, ok := workout.Scalar(10).Expand(1 << 50)
	assert.False(t, ok)
}

func TestExpandEntry_ParseError(t *testing.T) {
	_, err := workout.ExpandEntry(1, squatEntry(2, "10,8", "225,heavy"))
	var parseErr *workout.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 1, parseErr.Index)
	assert.Equal(t, "weight", parseErr.Field)
	assert.Equal(t, "heavy", parseErr.Token)
	assert.ErrorIs(t, err, workout.ErrInvalidEntry)
}

func TestExpandBatch_AbortsOnFirstBadEntry(t *testing.T) {
	sets, err := workout.ExpandBatch([]workout.RawEntry{
		squatEntry(4, "10", "225"),
		squatEntry(3, "10,8", "225"),
	})
	require.Error(t, err)
	assert.Nil(t, sets)
}

func TestRawSpec_UnmarshalJSON(t *testing.T) {
	var entry workout.RawEntry
	require.NoError(t, json.Unmarshal([]byte(`{"sets": 3, "reps": [10, "8", 6], "weight": 62.5}`), &entry))
	assert.Equal(t, workout.RawSpec("10,8,6"), entry.Reps)
	assert.Equal(t, workout.RawSpec("62.5"), entry.Weight)

	var other workout.RawEntry
	require.NoError(t, json.Unmarshal([]byte(`{"reps": "12,10", "weight": null}`), &other))
	assert.Equal(t, workout.RawSpec("12,10"), other.Reps)
	assert.Equal(t, workout.RawSpec(""), other.Weight)
}

func TestRawSpec_UnmarshalJSON_RejectsNestedValues(t *testing.T) {
	for _, payload := range []string{
		`{"sets": 3, "reps": [[10, 8], 6]}`,
		`{"sets": 3, "weight": ["10,8", 6]}`,
		`{"sets": 2, "reps": [{"v": 10}, 8]}`,
		`{"sets": 2, "reps": [true, 8]}`,
	} {
		var entry workout.RawEntry
		assert.Error(t, json.Unmarshal([]byte(payload), &entry), payload)
	}
}
