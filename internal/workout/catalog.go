package workout

// ExerciseDefinition holds the descriptive columns of an exercise. They are
// written once, when the exercise first shows up in the new exercises feed.
type ExerciseDefinition struct {
	ExerciseID       int      `json:"exerciseId"`
	Name             string   `json:"name"`
	PrimaryMuscle    string   `json:"primaryMuscle"`
	SecondaryMuscles []string `json:"secondaryMuscles"`
	Equipment        string   `json:"equipment"`
	Type             string   `json:"type"`
}

// Exercise is a catalog row. The derived columns stay nil until the exercise
// has at least one set in the log.
type Exercise struct {
	ExerciseDefinition

	Effectiveness *float64 `json:"effectiveness"`
	MaxWeight     *float64 `json:"maxWeight"`
	MaxReps       *float64 `json:"maxReps"`
}

// MergeCatalog appends every feed definition whose exercise ID is not yet in the
// catalog, in feed order. Rows already in the catalog are never overwritten.
// Returns the new catalog and the IDs that were inserted.
func MergeCatalog(catalog []Exercise, feed []ExerciseDefinition) ([]Exercise, []int) {
	out := make([]Exercise, 0, len(catalog)+len(feed))
	out = append(out, catalog...)

	known := make(map[int]struct{}, len(catalog))
	for _, ex := range catalog {
		known[ex.ExerciseID] = struct{}{}
	}

	var inserted []int
	for _, def := range feed {
		if _, ok := known[def.ExerciseID]; ok {
			continue
		}
		known[def.ExerciseID] = struct{}{}
		out = append(out, Exercise{ExerciseDefinition: def})
		inserted = append(inserted, def.ExerciseID)
	}

	return out, inserted
}

// FindExercise returns the catalog row with the given exercise ID.
func FindExercise(catalog []Exercise, exerciseID int) (Exercise, bool) {
	for _, ex := range catalog {
		if ex.ExerciseID == exerciseID {
			return ex, true
		}
	}
	return Exercise{}, false
}
