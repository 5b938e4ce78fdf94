package workout

// exerciseTally accumulates the derived columns of one exercise in a single
// pass over the log.
type exerciseTally struct {
	effectivenessSum float64
	count            int
	maxWeight        float64
	maxReps          float64
}

func (t *exerciseTally) add(rec LogRecord) {
	// strict > keeps the first record on weight ties
	if t.count == 0 || rec.Weight > t.maxWeight {
		t.maxWeight = rec.Weight
		t.maxReps = rec.Reps
	}
	t.effectivenessSum += rec.Effectiveness
	t.count++
}

func (t *exerciseTally) meanEffectiveness() float64 {
	return t.effectivenessSum / float64(t.count)
}

// AggregateResult lists what an aggregation pass touched.
type AggregateResult struct {
	// Updated are the catalog exercises whose derived columns were recomputed.
	Updated []int
	// Skipped are exercise IDs found in the log but missing from the catalog.
	Skipped []int
}

// Aggregate recomputes effectiveness, max weight and max reps of every catalog
// exercise from the whole log. Exercises without sets keep their previous
// values. It is a full recompute, so running it twice gives the same catalog.
func Aggregate(log []LogRecord, catalog []Exercise) ([]Exercise, AggregateResult) {
	tallies := make(map[int]*exerciseTally)
	var order []int
	for _, rec := range log {
		tally, ok := tallies[rec.ExerciseID]
		if !ok {
			tally = &exerciseTally{}
			tallies[rec.ExerciseID] = tally
			order = append(order, rec.ExerciseID)
		}
		tally.add(rec)
	}

	var result AggregateResult
	out := make([]Exercise, len(catalog))
	inCatalog := make(map[int]struct{}, len(catalog))
	for i, ex := range catalog {
		inCatalog[ex.ExerciseID] = struct{}{}
		tally, ok := tallies[ex.ExerciseID]
		if !ok {
			out[i] = ex
			continue
		}

		effectiveness := tally.meanEffectiveness()
		maxWeight := tally.maxWeight
		maxReps := tally.maxReps
		ex.Effectiveness = &effectiveness
		ex.MaxWeight = &maxWeight
		ex.MaxReps = &maxReps
		out[i] = ex
		result.Updated = append(result.Updated, ex.ExerciseID)
	}

	for _, exerciseID := range order {
		if _, ok := inCatalog[exerciseID]; !ok {
			result.Skipped = append(result.Skipped, exerciseID)
		}
	}

	return out, result
}
