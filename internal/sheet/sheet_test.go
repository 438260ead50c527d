package sheet

import (
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"  JMS123 \t", "JMS123"},
		{12.5, "12.5"},
		{float64(42), "42"},
		{7, "7"},
		{true, "true"},
		{time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), "2026-01-02 03:04:05"},
		{TimeOfDay{Hour: 9, Minute: 5}, "09:05:00"},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Errorf("Sanitize(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeTruncatesByCharacters(t *testing.T) {
	long := strings.Repeat("ã", 50010)
	got := Sanitize(long)
	if n := len([]rune(got)); n != 50000 {
		t.Fatalf("expected 50000 characters, got %d", n)
	}
}

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Número de pedido JMS", "Tempo de digitalização", "Obs"}); err != nil {
		t.Fatalf("set header: %v", err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]interface{}{"JMS1", 46024.4375, "  ok  "}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if err := f.SetCellValue("Sheet1", "A3", "JMS2"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := f.SetCellValue("Sheet1", "B3", 0.5); err != nil {
		t.Fatalf("set cell: %v", err)
	}

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		t.Fatalf("date style: %v", err)
	}
	timeStyle, err := f.NewStyle(&excelize.Style{NumFmt: 20})
	if err != nil {
		t.Fatalf("time style: %v", err)
	}
	if err := f.SetCellStyle("Sheet1", "B2", "B2", dateStyle); err != nil {
		t.Fatalf("apply style: %v", err)
	}
	if err := f.SetCellStyle("Sheet1", "B3", "B3", timeStyle); err != nil {
		t.Fatalf("apply style: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestReadConvertsDatesAndPadsRows(t *testing.T) {
	rows, err := Read(buildWorkbook(t))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	want := [][]string{
		{"Número de pedido JMS", "Tempo de digitalização", "Obs"},
		{"JMS1", "2026-01-02 10:30:00", "ok"},
		{"JMS2", "12:00:00", ""},
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Fatalf("row %d = %q, want %q", i, rows[i], want[i])
		}
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read([]byte("not a zip"))
	if !apperr.IsKind(err, apperr.KindInvalidFormat) {
		t.Fatalf("expected invalid format, got %v", err)
	}
}

func TestReadEmptyWorkbook(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = Read(buf.Bytes())
	if !apperr.IsKind(err, apperr.KindInvalidFormat) {
		t.Fatalf("expected empty workbook error, got %v", err)
	}
}

func TestClassifyFormat(t *testing.T) {
	cases := map[string]cellKind{
		"dd/mm/yyyy hh:mm": kindDate,
		"[h]:mm:ss":        kindTime,
		"hh:mm":            kindTime,
		`0.00" dias"`:      kindPlain,
		"#,##0":            kindPlain,
	}
	for format, want := range cases {
		if got := classifyFormat(format); got != want {
			t.Errorf("classifyFormat(%q) = %v, want %v", format, got, want)
		}
	}
}
