package workout

// LogRecord is one set in the append-only workout log.
type LogRecord struct {
	LogID         int     `json:"logId"`
	ExerciseID    int     `json:"exerciseId"`
	ExerciseName  string  `json:"exerciseName"`
	Date          string  `json:"date"`
	Sets          int     `json:"sets"`
	Reps          float64 `json:"reps"`
	Weight        float64 `json:"weight"`
	RestTime      int     `json:"restTime"`
	Effectiveness float64 `json:"effectiveness"`
	Failure       bool    `json:"failure"`
	Notes         string  `json:"notes"`
}

// NextLogID is 1 for an empty log, otherwise the highest log ID plus one.
func NextLogID(existing []LogRecord) int {
	maxID := 0
	for _, rec := range existing {
		if rec.LogID > maxID {
			maxID = rec.LogID
		}
	}
	return maxID + 1
}

// AppendLog gives every set a new consecutive log ID and appends it after
// the existing history. The existing slice is not modified.
func AppendLog(existing []LogRecord, sets []Set) []LogRecord {
	out := make([]LogRecord, 0, len(existing)+len(sets))
	out = append(out, existing...)

	nextID := NextLogID(existing)
	for _, set := range sets {
		out = append(out, LogRecord{
			LogID:         nextID,
			ExerciseID:    set.Entry.ExerciseID,
			ExerciseName:  set.Entry.ExerciseName,
			Date:          set.Entry.Date,
			Sets:          1,
			Reps:          set.Reps,
			Weight:        set.Weight,
			RestTime:      set.Entry.RestTime,
			Effectiveness: set.Entry.Effectiveness,
			Failure:       set.Entry.Failure,
			Notes:         set.Entry.Notes,
		})
		nextID++
	}

	return out
}
