// Package columns locates named columns in spreadsheet header rows.
//
// Matching is done on normalized text: trimmed, lowercased, without
// diacritics and with internal whitespace collapsed, so "Número de pedido
// JMS" and "numero  de pedido jms" resolve to the same column.
package columns

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
)

// NotFound is returned by the lookup helpers when no column matches.
const NotFound = -1

// Normalize folds s for header and value comparisons.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(folded), " ")
}

// Find returns the index of the first header cell whose normalized text
// contains any of the normalized needles.
func Find(header []string, needles ...string) int {
	normalized := make([]string, 0, len(needles))
	for _, n := range needles {
		if n = Normalize(n); n != "" {
			normalized = append(normalized, n)
		}
	}
	for i, cell := range header {
		h := Normalize(cell)
		if h == "" {
			continue
		}
		for _, n := range normalized {
			if strings.Contains(h, n) {
				return i
			}
		}
	}
	return NotFound
}

// FindExact returns the index of the first header cell equal to name after
// normalization.
func FindExact(header []string, name string) int {
	target := Normalize(name)
	for i, cell := range header {
		if Normalize(cell) == target {
			return i
		}
	}
	return NotFound
}

// FindExactOrContains tries an exact match first and falls back to a
// substring match.
func FindExactOrContains(header []string, name string) int {
	if idx := FindExact(header, name); idx != NotFound {
		return idx
	}
	return Find(header, name)
}

// Require is Find for mandatory columns. label is the column name shown to
// the user when nothing matches.
func Require(header []string, label string, needles ...string) (int, error) {
	if len(needles) == 0 {
		needles = []string{label}
	}
	idx := Find(header, needles...)
	if idx == NotFound {
		return NotFound, apperr.MissingColumn(label)
	}
	return idx, nil
}

// Cell returns row[idx] trimmed, or "" when idx is out of range.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
