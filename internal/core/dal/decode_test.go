package dal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecode_WorkedExample(t *testing.T) {
	row := NewRawRow(headers, row("2020-01-01T10:00:00", 120, "coding"))
	e, err := Decoder{Location: time.UTC}.Decode(row)
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC), e.DT)
	require.Equal(t, int64(120), e.DurationS)
	require.Equal(t, "coding", e.Activity)
}

func TestDecode_UsesLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	row := NewRawRow(headers, row("2020-07-01T12:00:00", 1, "vim"))
	e, err := Decoder{Location: berlin}.Decode(row)
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, 7, 1, 10, 0, 0, 0, time.UTC), e.DT.UTC())
}

func TestDecode_NilLocationIsLocal(t *testing.T) {
	row := NewRawRow(headers, row("2020-01-01T10:00:00", 1, "vim"))
	e, err := Decoder{}.Decode(row)
	require.NoError(t, err)
	require.Equal(t, time.Local, e.DT.Location())
}

func TestDecode_Faults(t *testing.T) {
	cases := []struct {
		name    string
		headers []string
		values  []any
		column  string
	}{
		{"bad date layout", headers, row("2020/01/01 10:00", 1, "vim"), ColDate},
		{"date not a string", headers, []any{json.Number("1577872800"), json.Number("1"), json.Number("1"), "vim", "x", json.Number("0")}, ColDate},
		{"fractional duration", headers, []any{"2020-01-01T10:00:00", json.Number("1.5"), json.Number("1"), "vim", "x", json.Number("0")}, ColDuration},
		{"negative duration", headers, row("2020-01-01T10:00:00", -1, "vim"), ColDuration},
		{"duration as string", headers, []any{"2020-01-01T10:00:00", "60", json.Number("1"), "vim", "x", json.Number("0")}, ColDuration},
		{"activity not a string", headers, []any{"2020-01-01T10:00:00", json.Number("60"), json.Number("1"), json.Number("7"), "x", json.Number("0")}, ColActivity},
		{"missing activity column", headers[:3], row("2020-01-01T10:00:00", 60, "vim"), ColActivity},
		{"short row", headers, []any{"2020-01-01T10:00:00"}, ColDuration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decoder{Location: time.UTC}.Decode(NewRawRow(tc.headers, tc.values))
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			require.Equal(t, tc.column, de.Column)
			require.Contains(t, err.Error(), tc.column)
		})
	}
}

func TestSeconds_AcceptedShapes(t *testing.T) {
	for _, v := range []any{json.Number("42"), 42, int64(42), float64(42)} {
		n, err := seconds(v)
		require.NoError(t, err, "%T", v)
		require.Equal(t, int64(42), n)
	}
	_, err := seconds(42.5)
	require.Error(t, err)
}

func TestRawRow_GetStopsAtShorterSide(t *testing.T) {
	r := NewRawRow([]string{"Date", "Activity"}, []any{"2020-01-01T10:00:00"})
	_, ok := r.Get(ColActivity)
	require.False(t, ok)
	require.Equal(t, map[string]any{"Date": "2020-01-01T10:00:00"}, r.Map())

	r = NewRawRow([]string{"Date"}, []any{"2020-01-01T10:00:00", "extra"})
	require.Equal(t, `{"Date": 2020-01-01T10:00:00}`, r.String())
}

func TestIdentityOf_NumberLiteralsMatter(t *testing.T) {
	a := IdentityOf([]any{"x", json.Number("1")})
	b := IdentityOf([]any{"x", json.Number("1.0")})
	c := IdentityOf([]any{"x", json.Number("1")})
	require.NotEqual(t, a, b)
	require.Equal(t, a, c)
	require.NotEqual(t, IdentityOf([]any{"1"}), IdentityOf([]any{json.Number("1")}))
}

func TestOrderValidator_EqualDatesAllowed(t *testing.T) {
	var v OrderValidator
	r1 := NewRawRow(headers, row("2020-01-01T10:00:00", 1, "a"))
	r2 := NewRawRow(headers, row("2020-01-01T10:00:00", 2, "b"))
	require.NoError(t, v.Check(r1))
	v.Accept(r1)
	require.NoError(t, v.Check(r2))
	v.Accept(r2)

	last, ok := v.Last()
	require.True(t, ok)
	require.Equal(t, r2, last)

	early := NewRawRow(headers, row("2020-01-01T09:59:59", 2, "b"))
	err := v.Check(early)
	var oe *OrderError
	require.ErrorAs(t, err, &oe)
	require.Contains(t, err.Error(), "to be later than")

	// Check alone never moves the watermark
	last, _ = v.Last()
	require.Equal(t, r2, last)
}

func TestOrderValidator_UndatedRowIsDecodeFault(t *testing.T) {
	var v OrderValidator
	ok1 := NewRawRow(headers, row("2020-01-01T10:00:00", 1, "a"))
	require.NoError(t, v.Check(ok1))
	v.Accept(ok1)

	for _, r := range []RawRow{
		NewRawRow([]string{"Activity"}, []any{"a"}),
		NewRawRow(headers, []any{json.Number("1"), json.Number("1"), json.Number("1"), "a", "c", json.Number("0")}),
		NewRawRow(headers, row("zzzz", 1, "a")),
	} {
		err := v.Check(r)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, ColDate, de.Column)

		v.Accept(r)
		last, _ := v.Last()
		require.Equal(t, ok1, last)
	}
}

func TestResult_FailNeverOK(t *testing.T) {
	r := Fail[Entry](KindOK, ErrAlreadyConsumed, Source{})
	require.True(t, r.IsFatal())
	_, ok := r.Value()
	require.False(t, ok)
	require.Equal(t, "fatal", r.Kind().String())
}
