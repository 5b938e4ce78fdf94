package workout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawEntry is one pending row of the entry sheet: a single exercise done on
// a given day, possibly spanning several sets.
type RawEntry struct {
	Date          string  `json:"date"`
	Day           string  `json:"day"`
	ExerciseID    int     `json:"exerciseId"`
	ExerciseName  string  `json:"exerciseName"`
	Sets          int     `json:"sets"`
	Reps          RawSpec `json:"reps"`
	Weight        RawSpec `json:"weight"`
	RestTime      int     `json:"restTime"` // seconds
	Effectiveness float64 `json:"effectiveness"`
	Failure       bool    `json:"failure"`
	Notes         string  `json:"notes"`
}

// RawSpec is the reps or weight column exactly as it was typed in: one number
// ("225") or a comma separated list with one number per set ("10,8,6").
// It accepts JSON numbers, strings and arrays.
type RawSpec string

func (s *RawSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = RawSpec(str)
	case data[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		tokens := make([]string, 0, len(items))
		for _, item := range items {
			token, err := listItem(item)
			if err != nil {
				return err
			}
			tokens = append(tokens, token)
		}
		*s = RawSpec(strings.Join(tokens, ","))
	default:
		*s = RawSpec(data)
	}
	return nil
}

// listItem reads one element of a JSON array spec: a number or a string
// holding a single number.
func listItem(item json.RawMessage) (string, error) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 {
		return "", errors.New("empty list item")
	}
	switch item[0] {
	case '"':
		var str string
		if err := json.Unmarshal(item, &str); err != nil {
			return "", err
		}
		if strings.Contains(str, ",") {
			return "", fmt.Errorf("list item %q holds more than one value", str)
		}
		return str, nil
	case '[', '{':
		return "", fmt.Errorf("list item %s is not a single value", item)
	default:
		var num json.Number
		if err := json.Unmarshal(item, &num); err != nil {
			return "", fmt.Errorf("list item %s is not a number", item)
		}
		return num.String(), nil
	}
}

// SpecKind tells which variant a SetSpec holds.
type SpecKind int

const (
	SpecScalar SpecKind = iota + 1
	SpecList
)

func (k SpecKind) String() string {
	switch k {
	case SpecScalar:
		return "scalar"
	case SpecList:
		return "list"
	default:
		return "unknown"
	}
}

// SetSpec is either Scalar(v), applied to every set, or List(v1..vn),
// one value per set in order. Use ParseSetSpec, Scalar or List to build one.
type SetSpec struct {
	kind   SpecKind
	values []float64
}

func Scalar(v float64) SetSpec {
	return SetSpec{kind: SpecScalar, values: []float64{v}}
}

func List(values ...float64) SetSpec {
	vs := make([]float64, len(values))
	copy(vs, values)
	return SetSpec{kind: SpecList, values: vs}
}

func (s SetSpec) Kind() SpecKind {
	return s.kind
}

// Len is 1 for a scalar and the number of values for a list.
func (s SetSpec) Len() int {
	return len(s.values)
}

// Expand returns the per-set values of the spec for the given sets count.
// The second return value is false when a list does not have exactly sets values,
// or when sets is outside 1..MaxSets.
func (s SetSpec) Expand(sets int) ([]float64, bool) {
	if sets < 1 || sets > MaxSets {
		return nil, false
	}
	switch s.kind {
	case SpecScalar:
		out := make([]float64, sets)
		for i := range out {
			out[i] = s.values[0]
		}
		return out, true
	case SpecList:
		if len(s.values) != sets {
			return nil, false
		}
		out := make([]float64, sets)
		copy(out, s.values)
		return out, true
	default:
		return nil, false
	}
}

func (s SetSpec) String() string {
	tokens := make([]string, len(s.values))
	for i, v := range s.values {
		tokens[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(tokens, ",")
}

// ParseSetSpec reads a raw reps/weight column. A single token is a Scalar,
// several comma separated tokens make a List. Surrounding brackets are ignored,
// so both "10,8,6" and "[10, 8, 6]" are accepted.
func ParseSetSpec(raw string) (SetSpec, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	tokens := strings.Split(raw, ",")
	values := make([]float64, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		v, err := strconv.ParseFloat(token, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return SetSpec{}, &ParseError{Index: -1, Token: token}
		}
		values = append(values, v)
	}

	if len(values) == 1 {
		return Scalar(values[0]), nil
	}
	return SetSpec{kind: SpecList, values: values}, nil
}

func (e RawEntry) String() string {
	return fmt.Sprintf("%s %s (%d) %dx reps[%s] weight[%s]", e.Date, e.ExerciseName, e.ExerciseID, e.Sets, e.Reps, e.Weight)
}
