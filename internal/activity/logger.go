// Package activity keeps a daily JSONL trail of processed files.
package activity

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

type Method string

const (
	MethodFilename        Method = "filename"
	MethodContentAnalysis Method = "content_analysis"
)

type Entry struct {
	Timestamp        time.Time `json:"ts"`
	RunID            string    `json:"run_id"`
	Path             string    `json:"path"`
	Method           Method    `json:"method"`
	Code             string    `json:"code,omitempty"`
	Title            string    `json:"title,omitempty"`
	Actors           []string  `json:"actors,omitempty"`
	Publisher        string    `json:"publisher,omitempty"`
	StandardizedName string    `json:"standardized_name,omitempty"`
	VideoID          int64     `json:"video_id,omitempty"`
	DryRun           bool      `json:"dry_run,omitempty"`
	Success          bool      `json:"success"`
	DurationMs       int64     `json:"duration_ms"`
	Error            string    `json:"error,omitempty"`
}

type Logger struct {
	mu          sync.Mutex
	logDir      string
	currentFile *os.File
	currentDate string
	now         func() time.Time
}

// NewLogger writes under <appDir>/activity.
func NewLogger(appDir string) (*Logger, error) {
	logDir := filepath.Join(appDir, "activity")

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	return &Logger{
		logDir: logDir,
		now:    time.Now,
	}, nil
}

func (l *Logger) Log(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry.Timestamp = now

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if today := now.Format(dayLayout); l.currentFile == nil || l.currentDate != today {
		if err := l.openDay(today); err != nil {
			return err
		}
	}

	_, err = l.currentFile.Write(append(line, '\n'))
	return err
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentFile != nil {
		err := l.currentFile.Close()
		l.currentFile = nil
		return err
	}
	return nil
}

// PruneOld removes day files dated before now minus retentionDays and
// reports how many went.
func (l *Logger) PruneOld(retentionDays int) (int, error) {
	cutoff := l.now().AddDate(0, 0, -retentionDays)

	names, err := l.dayFiles()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range names {
		day, ok := parseDayFile(name)
		if !ok || !day.Before(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(l.logDir, name)) == nil {
			removed++
		}
	}
	return removed, nil
}

// openDay switches the append target to the file for date.
func (l *Logger) openDay(date string) error {
	if l.currentFile != nil {
		l.currentFile.Close()
		l.currentFile = nil
	}

	f, err := os.OpenFile(filepath.Join(l.logDir, dayFileName(date)), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	l.currentFile = f
	l.currentDate = date
	return nil
}

func (l *Logger) GetLogDir() string {
	return l.logDir
}

const (
	filePrefix = "activity-"
	fileSuffix = ".jsonl"
	dayLayout  = "2006-01-02"
)

func dayFileName(date string) string {
	return filePrefix + date + fileSuffix
}

func parseDayFile(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	day, err := time.Parse(dayLayout, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	return day, err == nil
}

// dayFiles lists day file names, newest first.
func (l *Logger) dayFiles() ([]string, error) {
	dirEntries, err := os.ReadDir(l.logDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range dirEntries {
		if _, ok := parseDayFile(e.Name()); ok && !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// GetRecentEntries returns the most recent activity entries, up to limit.
// Entries are returned in reverse chronological order (newest first).
func (l *Logger) GetRecentEntries(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := l.dayFiles()
	if err != nil {
		return nil, err
	}

	var results []Entry
	for _, name := range files {
		fileEntries, err := readEntries(filepath.Join(l.logDir, name))
		if err != nil {
			continue
		}

		for i := len(fileEntries) - 1; i >= 0; i-- {
			results = append(results, fileEntries[i])
			if len(results) >= limit {
				return results, nil
			}
		}
	}

	return results, nil
}

// maxLineBytes bounds one JSONL line.
const maxLineBytes = 1 << 20

// readEntries decodes one day file, skipping lines that are not entries.
func readEntries(filePath string) ([]Entry, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeEntries(f)
}

func decodeEntries(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var entries []Entry
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if json.Unmarshal(line, &e) != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}
