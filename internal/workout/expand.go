package workout

import "errors"

// Set is a single completed set expanded from a RawEntry.
type Set struct {
	Entry  RawEntry
	Number int // 1-based position within the entry
	Reps   float64
	Weight float64
}

// ExpandEntry turns one pending entry into exactly entry.Sets single-set values.
// index is the position of the entry in its batch and only ends up in errors.
func ExpandEntry(index int, entry RawEntry) ([]Set, error) {
	if entry.Sets < 1 || entry.Sets > MaxSets {
		return nil, &ValidationError{
			Index:      index,
			ExerciseID: entry.ExerciseID,
			Date:       entry.Date,
			Field:      "sets",
			Sets:       entry.Sets,
			Values:     -1,
		}
	}

	reps, err := expandField(index, entry, "reps", entry.Reps)
	if err != nil {
		return nil, err
	}
	weights, err := expandField(index, entry, "weight", entry.Weight)
	if err != nil {
		return nil, err
	}

	sets := make([]Set, entry.Sets)
	for i := range sets {
		sets[i] = Set{
			Entry:  entry,
			Number: i + 1,
			Reps:   reps[i],
			Weight: weights[i],
		}
	}
	return sets, nil
}

func expandField(index int, entry RawEntry, field string, raw RawSpec) ([]float64, error) {
	spec, err := ParseSetSpec(string(raw))
	if err != nil {
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			return nil, err
		}
		parseErr.Index = index
		parseErr.ExerciseID = entry.ExerciseID
		parseErr.Field = field
		return nil, parseErr
	}

	values, ok := spec.Expand(entry.Sets)
	if !ok {
		return nil, &ValidationError{
			Index:      index,
			ExerciseID: entry.ExerciseID,
			Date:       entry.Date,
			Field:      field,
			Sets:       entry.Sets,
			Values:     spec.Len(),
		}
	}
	return values, nil
}

// ExpandBatch expands all pending entries in order. The first malformed entry
// fails the whole batch and no sets are returned.
func ExpandBatch(entries []RawEntry) ([]Set, error) {
	var sets []Set
	for i, entry := range entries {
		entrySets, err := ExpandEntry(i, entry)
		if err != nil {
			return nil, err
		}
		sets = append(sets, entrySets...)
	}
	return sets, nil
}
