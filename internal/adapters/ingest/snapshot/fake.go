package snapshot

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"timejar/internal/core/dal"
)

// Headers is the column order RescueTime uses for interval exports
var Headers = []string{dal.ColDate, dal.ColDuration, "Number of People", dal.ColActivity, "Category", "Productivity"}

const fakeNotes = "data is an array of arrays (rows), column names for rows in row_headers"

// FakeStart is the first timestamp Fake considers
var FakeStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Fake returns a deterministic snapshot of n rows for seed.
// Timestamps start at FakeStart and only move forward; hours 01 to 08 are skipped
// as sleep, so rows are ordered and pairwise distinct
func Fake(n int, seed uint64) dal.Document {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rows := make([][]any, 0, max(n, 0))

	cur := FakeStart
	for i := 1; len(rows) < n; i++ {
		if h := cur.Hour(); h >= 1 && h <= 8 {
			cur = cur.Add(2 * time.Hour)
			continue
		}
		dur := 10 + r.IntN(491)
		if r.IntN(2) == 0 {
			rows = append(rows, []any{
				cur.Format(dal.DateLayout),
				num(dur),
				num(1),
				fmt.Sprintf("Activity %d", i%10),
				fmt.Sprintf("Category %d", i%3),
				num(i % 2),
			})
		}
		cur = cur.Add(time.Duration(dur) * time.Second)
	}

	return dal.Document{
		Notes:      fakeNotes,
		RowHeaders: append([]string(nil), Headers...),
		Rows:       rows,
	}
}

// Slice returns the rows of doc in [from, to) as a new document sharing headers,
// which is how overlapping fixtures are cut from one Fake run
func Slice(doc dal.Document, from, to int) dal.Document {
	from = max(0, min(from, len(doc.Rows)))
	to = max(from, min(to, len(doc.Rows)))
	return dal.Document{
		Notes:      doc.Notes,
		RowHeaders: doc.RowHeaders,
		Rows:       append([][]any(nil), doc.Rows[from:to]...),
	}
}

func num(n int) json.Number { return json.Number(strconv.Itoa(n)) }
