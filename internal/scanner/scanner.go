// Package scanner finds video files under a directory and feeds them to
// the processor through a bounded worker pool.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/Nomadcxx/vidmeta/internal/processor"
)

// FileProcessor handles one file.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (*processor.Result, error)
}

// FileError records a per-file failure.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// ScanResult contains statistics from a scan operation
type ScanResult struct {
	FilesFound     int                 `json:"files_found"`
	FilesProcessed int                 `json:"files_processed"`
	FilesFailed    int                 `json:"files_failed"`
	AITriggered    int                 `json:"ai_triggered"`
	Duration       time.Duration       `json:"duration"`
	Results        []*processor.Result `json:"results"`
	Errors         []FileError         `json:"errors,omitempty"`
}

// ScanProgress reports progress during scanning
type ScanProgress struct {
	FilesDone   int
	FilesTotal  int
	CurrentPath string
}

// ProgressCallback is called after each file
type ProgressCallback func(ScanProgress)

// Options configures a Scanner
type Options struct {
	Extensions []string
	Recursive  bool
	Workers    int
	OnProgress ProgressCallback
	Logger     *logging.Logger
}

// Scanner walks directories for video files
type Scanner struct {
	proc       FileProcessor
	extensions map[string]bool
	recursive  bool
	workers    int
	onProgress ProgressCallback
	logger     *logging.Logger
}

// New creates a scanner. Workers below one means one.
func New(proc FileProcessor, opts Options) *Scanner {
	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Scanner{
		proc:       proc,
		extensions: exts,
		recursive:  opts.Recursive,
		workers:    workers,
		onProgress: opts.OnProgress,
		logger:     logger,
	}
}

// IsVideoFile reports whether path has a configured video extension and is
// not hidden.
func (s *Scanner) IsVideoFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return s.extensions[strings.ToLower(filepath.Ext(base))]
}

// ListFiles returns the video files under root in lexical order. A file
// root is returned as-is when it has a video extension.
func (s *Scanner) ListFiles(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		if s.IsVideoFile(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.logger.Warn("scanner", "Skipping unreadable path", logging.F("path", path), logging.F("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !s.recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && s.IsVideoFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Scan processes every video file under root. Per-file failures are
// recorded in the result; only listing failures and cancellation are
// returned as errors.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	start := time.Now()

	files, err := s.ListFiles(ctx, root)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		FilesFound: len(files),
		Results:    make([]*processor.Result, len(files)),
	}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.proc.ProcessFile(gctx, path)

			mu.Lock()
			defer mu.Unlock()
			done++
			if res != nil {
				result.Results[i] = res
				if res.AnalysisTrigger {
					result.AITriggered++
				}
			}
			if err != nil {
				result.FilesFailed++
				result.Errors = append(result.Errors, FileError{Path: path, Err: err.Error()})
				s.logger.Warn("scanner", "Failed to process file", logging.F("path", path), logging.F("error", err.Error()))
			} else {
				result.FilesProcessed++
			}
			if s.onProgress != nil {
				s.onProgress(ScanProgress{FilesDone: done, FilesTotal: len(files), CurrentPath: path})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	compact := result.Results[:0]
	for _, r := range result.Results {
		if r != nil {
			compact = append(compact, r)
		}
	}
	result.Results = compact
	sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].Path < result.Errors[j].Path })

	result.Duration = time.Since(start)
	s.logger.Info("scanner", "Scan complete",
		logging.F("root", root),
		logging.F("found", result.FilesFound),
		logging.F("processed", result.FilesProcessed),
		logging.F("failed", result.FilesFailed),
		logging.F("duration", result.Duration.String()))
	return result, nil
}
