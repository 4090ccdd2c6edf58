package dal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// DateLayout is the snapshot timestamp layout; it carries no zone
const DateLayout = "2006-01-02T15:04:05"

// Entry is one decoded activity record
type Entry struct {
	DT        time.Time
	DurationS int64
	Activity  string
}

// Decoder turns accepted rows into entries.
// Location is the zone the naive Date values are read in; nil means time.Local
type Decoder struct {
	Location *time.Location
}

// Decode converts row into an Entry or returns a *DecodeError naming the column
func (d Decoder) Decode(row RawRow) (Entry, error) {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}

	ds, err := dateString(row)
	if err != nil {
		return Entry{}, err
	}
	dt, err := time.ParseInLocation(DateLayout, ds, loc)
	if err != nil {
		return Entry{}, &DecodeError{Column: ColDate, Row: row, Cause: err}
	}

	rawDur, ok := row.Get(ColDuration)
	if !ok {
		return Entry{}, missing(ColDuration, row)
	}
	dur, err := seconds(rawDur)
	if err != nil {
		return Entry{}, &DecodeError{Column: ColDuration, Row: row, Cause: err}
	}

	rawAct, ok := row.Get(ColActivity)
	if !ok {
		return Entry{}, missing(ColActivity, row)
	}
	act, ok := rawAct.(string)
	if !ok {
		return Entry{}, &DecodeError{Column: ColActivity, Row: row, Cause: fmt.Errorf("want string, got %T", rawAct)}
	}

	return Entry{DT: dt, DurationS: dur, Activity: act}, nil
}

var errMissing = errors.New("missing column")

// dateString returns the raw Date string or a *DecodeError when it is absent or not a string
func dateString(row RawRow) (string, error) {
	v, ok := row.Get(ColDate)
	if !ok {
		return "", missing(ColDate, row)
	}
	s, ok := v.(string)
	if !ok {
		return "", &DecodeError{Column: ColDate, Row: row, Cause: fmt.Errorf("want string, got %T", v)}
	}
	return s, nil
}

func missing(col string, row RawRow) error {
	return &DecodeError{Column: col, Row: row, Cause: errMissing}
}

// seconds accepts integral non-negative numbers in the shapes a decoded row can hold
func seconds(v any) (int64, error) {
	var n int64
	switch x := v.(type) {
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("want integer seconds, got %q", x.String())
		}
		n = i
	case int:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("want integer seconds, got %v", x)
		}
		n = int64(x)
	default:
		return 0, fmt.Errorf("want integer seconds, got %T", v)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative duration %d", n)
	}
	return n, nil
}
