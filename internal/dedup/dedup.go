// Package dedup keeps the most recent row per business key.
package dedup

import (
	"time"

	"github.com/Afonso-Front-End/torre-de-controle/internal/columns"
	"github.com/Afonso-Front-End/torre-de-controle/internal/timeparse"
)

// Latest reduces data rows to one row per trimmed key, keeping the row
// whose time column parses to the latest instant. Rows with an unparsable
// time lose to any parsable one. On ties the first row seen wins. Groups
// are emitted in the order their key first appears.
func Latest(rows [][]string, keyIdx, timeIdx int) [][]string {
	type group struct {
		row    []string
		latest time.Time
	}
	order := make([]string, 0, len(rows))
	groups := make(map[string]*group, len(rows))

	for _, row := range rows {
		key := columns.Cell(row, keyIdx)
		ts := timeparse.ParseInstant(columns.Cell(row, timeIdx))
		g, ok := groups[key]
		if !ok {
			order = append(order, key)
			groups[key] = &group{row: row, latest: ts}
			continue
		}
		if ts.After(g.latest) {
			g.row = row
			g.latest = ts
		}
	}

	out := make([][]string, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key].row)
	}
	return out
}

// Rows applies Latest to a sheet whose first row is the header and returns
// the header followed by the surviving rows.
func Rows(sheet [][]string, keyIdx, timeIdx int) [][]string {
	if len(sheet) == 0 {
		return sheet
	}
	out := make([][]string, 0, len(sheet))
	out = append(out, sheet[0])
	return append(out, Latest(sheet[1:], keyIdx, timeIdx)...)
}
