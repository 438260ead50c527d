// Package rejects writes spreadsheet rows that an import deliberately left
// out to daily CSV files, one per collection.
package rejects

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	logger "github.com/omniful/go_commons/log"
)

// Record is one rejected row.
type Record struct {
	RowNumber  int
	Collection string
	UserID     string
	Reason     string
	Values     []string
	Timestamp  time.Time
}

var csvHeader = []string{"row_number", "timestamp", "user_id", "reason", "values"}

// Logger appends records to rejects_<collection>_<date>.csv in its output
// directory. A nil *Logger discards everything.
// Only the files of the most recent day stay open.
type Logger struct {
	outputDir string
	mu        sync.Mutex
	day       string
	files     map[string]*os.File
}

func NewLogger(outputDir string) (*Logger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Logger{
		outputDir: outputDir,
		files:     make(map[string]*os.File),
	}, nil
}

// FileName returns the file a record of collection lands in on day.
func FileName(collection string, day time.Time) string {
	return fmt.Sprintf("rejects_%s_%s.csv", sanitize(collection), day.Format("2006-01-02"))
}

func (l *Logger) Log(ctx context.Context, records ...Record) error {
	if l == nil || len(records) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, rec := range records {
		if rec.Timestamp.IsZero() {
			rec.Timestamp = time.Now().UTC()
		}
		if err := l.write(rec); err != nil {
			return err
		}
	}
	return nil
}

func (l *Logger) write(rec Record) error {
	l.rollover(rec.Timestamp.Format("2006-01-02"))
	name := FileName(rec.Collection, rec.Timestamp)
	file, err := l.open(name)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	row := []string{
		strconv.Itoa(rec.RowNumber),
		rec.Timestamp.Format(time.RFC3339),
		rec.UserID,
		rec.Reason,
		strings.Join(rec.Values, " | "),
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	writer.Flush()
	return writer.Error()
}

// rollover closes the handles of the previous day once records of a new
// day arrive.
func (l *Logger) rollover(day string) {
	if day == l.day {
		return
	}
	l.closeAll()
	l.day = day
}

func (l *Logger) closeAll() {
	for name, file := range l.files {
		if err := file.Close(); err != nil {
			logger.Error(fmt.Sprintf("Error closing file %s: %v", name, err))
		}
	}
	l.files = make(map[string]*os.File)
}

// OpenFiles reports how many rejects files are currently open.
func (l *Logger) OpenFiles() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.files)
}

// open returns the cached handle for name, writing the header when the
// file is new or empty.
func (l *Logger) open(name string) (*os.File, error) {
	if file, ok := l.files[name]; ok {
		return file, nil
	}
	path := filepath.Join(l.outputDir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open/create rejects file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.Size() == 0 {
		writer := csv.NewWriter(file)
		if err := writer.Write(csvHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
		writer.Flush()
	}
	l.files[name] = file
	return file, nil
}

// Close closes all open files.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closeAll()
	l.day = ""
	return nil
}

func sanitize(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "unknown"
	}
	return name
}
