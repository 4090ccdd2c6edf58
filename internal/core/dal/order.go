package dal

import "time"

// OrderValidator keeps the Date of the last accepted row across source boundaries.
//
// Dates are compared as naive wall clock values parsed with DateLayout; no time
// zone gets involved
type OrderValidator struct {
	last   RawRow
	lastDT time.Time
	has    bool
}

// Check never mutates state. It returns a *DecodeError when row has no Date that
// parses with DateLayout, and an *OrderError when row is dated strictly before the
// last accepted row
func (v *OrderValidator) Check(row RawRow) error {
	dt, err := naiveDate(row)
	if err != nil {
		return err
	}
	if v.has && dt.Before(v.lastDT) {
		return &OrderError{Row: row, Prev: v.prev()}
	}
	return nil
}

// Accept advances the watermark to row; call only after Check passed
func (v *OrderValidator) Accept(row RawRow) {
	dt, err := naiveDate(row)
	if err != nil {
		return
	}
	v.last = row
	v.lastDT = dt
	v.has = true
}

// Last returns the last accepted row
func (v *OrderValidator) Last() (RawRow, bool) { return v.last, v.has }

func (v *OrderValidator) prev() *RawRow {
	if !v.has {
		return nil
	}
	p := v.last
	return &p
}

// naiveDate parses the Date column as a zone-less value for comparisons
func naiveDate(row RawRow) (time.Time, error) {
	s, err := dateString(row)
	if err != nil {
		return time.Time{}, err
	}
	dt, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &DecodeError{Column: ColDate, Row: row, Cause: err}
	}
	return dt, nil
}
