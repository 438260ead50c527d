// Package sheet reads the first worksheet of an xlsx upload into rows of
// sanitized strings.
package sheet

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
)

type cellKind int

const (
	kindPlain cellKind = iota
	kindDate
	kindTime
)

// Read parses xlsx bytes. The first row is the header. Rows are padded to
// the widest row so that every position lines up with the header.
func Read(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.InvalidFormat(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.EmptyWorkbook()
	}
	name := sheets[0]

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperr.InvalidFormat(err)
	}

	styles := newStyleCache(f)
	width := 0
	for _, r := range raw {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 {
		return nil, apperr.EmptyWorkbook()
	}

	rows := make([][]string, len(raw))
	for i, r := range raw {
		out := make([]string, width)
		for j, v := range r {
			out[j] = Sanitize(styles.value(name, i, j, v))
		}
		rows[i] = out
	}
	return rows, nil
}

type styleCache struct {
	f     *excelize.File
	kinds map[int]cellKind
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, kinds: make(map[int]cellKind)}
}

// value converts numeric cells formatted as dates or times into their time
// representation; everything else is returned as read.
func (c *styleCache) value(sheetName string, row, col int, raw string) interface{} {
	if raw == "" {
		return nil
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return raw
	}
	styleID, err := c.f.GetCellStyle(sheetName, cell)
	if err != nil || styleID == 0 {
		return raw
	}
	switch c.kind(styleID) {
	case kindTime:
		if serial < 1 {
			return timeOfDay(serial)
		}
		fallthrough
	case kindDate:
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return raw
		}
		return t
	default:
		return raw
	}
}

func (c *styleCache) kind(styleID int) cellKind {
	if k, ok := c.kinds[styleID]; ok {
		return k
	}
	k := kindPlain
	if style, err := c.f.GetStyle(styleID); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			k = classifyFormat(*style.CustomNumFmt)
		} else {
			k = classifyBuiltin(style.NumFmt)
		}
	}
	c.kinds[styleID] = k
	return k
}

func classifyBuiltin(id int) cellKind {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return kindDate
	case id >= 18 && id <= 21, id >= 45 && id <= 47:
		return kindTime
	default:
		return kindPlain
	}
}

// classifyFormat inspects a custom number format for date and time tokens,
// ignoring quoted literals and bracketed sections.
func classifyFormat(format string) cellKind {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	f := b.String()
	hasDate := strings.ContainsAny(f, "dy") || strings.Contains(f, "mmm")
	hasTime := strings.ContainsAny(f, "hs")
	switch {
	case hasDate:
		return kindDate
	case hasTime:
		return kindTime
	default:
		return kindPlain
	}
}

func timeOfDay(serial float64) TimeOfDay {
	secs := int(serial*86400 + 0.5)
	if secs >= 86400 {
		secs = 86399
	}
	return TimeOfDay{Hour: secs / 3600, Minute: secs % 3600 / 60, Second: secs % 60}
}
