package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/archbase/archbase-cli/pkg/component"
	"github.com/archbase/archbase-cli/pkg/parser"
	"github.com/archbase/archbase-cli/pkg/util"
)

const (
	DefaultDebounce       = time.Second
	DefaultStateCacheSize = 4096
)

// RealtimeOptions configures a RealtimeScanner.
type RealtimeOptions struct {
	ProjectPath string
	Include     []string
	Exclude     []string

	// Debounce is the quiet period per file before it is re-analyzed.
	Debounce time.Duration

	// CacheSize bounds the number of remembered content hashes.
	CacheSize int

	// OnAnalysis receives the outcome of each re-analyzed or removed file.
	// It runs on the watcher goroutine and must not block for long.
	OnAnalysis func(FileAnalysis)

	Logger *slog.Logger
}

// WatchStats are RealtimeScanner counters.
type WatchStats struct {
	Analyzed  int64 `json:"analyzed"`
	Unchanged int64 `json:"unchanged"`
	Removed   int64 `json:"removed"`
	Failed    int64 `json:"failed"`
	Pending   int   `json:"pending"`
	Running   bool  `json:"running"`
}

// RealtimeScanner keeps a ProjectScanResult current while files change.
//
//	rs, err := NewRealtimeScanner(scanner, RealtimeOptions{ProjectPath: dir})
//	if err := rs.Start(ctx); err != nil { ... }
//	defer rs.Stop()
type RealtimeScanner struct {
	scanner *ProjectScanner
	opts    RealtimeOptions
	root    string
	logger  *slog.Logger

	watcher *fsnotify.Watcher
	hashes  *lru.Cache[string, uint64]

	mu     sync.RWMutex
	result *ProjectScanResult

	// processMu serializes re-analysis so results apply in event order.
	processMu sync.Mutex

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	lifecycleMu sync.Mutex
	stopChan    chan struct{}
	started     bool
	stopped     bool

	analyzed, unchanged, removed, failed atomic.Int64
}

// NewRealtimeScanner creates a RealtimeScanner that analyzes files with
// scanner. Nothing is watched until Start.
func NewRealtimeScanner(scanner *ProjectScanner, opts RealtimeOptions) (*RealtimeScanner, error) {
	root, err := filepath.Abs(opts.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	if len(opts.Include) == 0 {
		opts.Include = DefaultInclude
	}
	if len(opts.Exclude) == 0 {
		opts.Exclude = DefaultExclude
	}
	if err := validatePatterns(opts.Include, opts.Exclude); err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultStateCacheSize
	}

	hashes, err := lru.New[string, uint64](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create state cache: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	return &RealtimeScanner{
		scanner:        scanner,
		opts:           opts,
		root:           root,
		logger:         util.OrDefault(opts.Logger),
		watcher:        watcher,
		hashes:         hashes,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start runs the initial scan, then watches the project tree in the
// background until Stop is called or ctx is done.
func (rs *RealtimeScanner) Start(ctx context.Context) error {
	rs.lifecycleMu.Lock()
	if rs.stopped {
		rs.lifecycleMu.Unlock()
		return errors.New("realtime scanner already stopped")
	}
	if rs.started {
		rs.lifecycleMu.Unlock()
		return errors.New("realtime scanner already started")
	}
	rs.started = true
	rs.lifecycleMu.Unlock()

	result, err := rs.scanner.Scan(ctx, ScanOptions{
		ProjectPath: rs.root,
		Include:     rs.opts.Include,
		Exclude:     rs.opts.Exclude,
	})
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	rs.mu.Lock()
	rs.result = result
	rs.mu.Unlock()

	if err := rs.watchTree(rs.root); err != nil {
		return err
	}
	rs.logger.Info("realtime scanner started", "root", rs.root,
		"files", result.Statistics.FilesScanned,
		"components", result.Statistics.ArchbaseComponents)

	go rs.eventLoop(ctx)
	return nil
}

// watchTree adds dir and every non-excluded directory below it.
func (rs *RealtimeScanner) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != rs.root && rs.excluded(path, true) {
			return filepath.SkipDir
		}
		if err := rs.watcher.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			rs.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (rs *RealtimeScanner) excluded(path string, isDir bool) bool {
	rel := relSlash(rs.root, path)
	if matchAny(rs.opts.Exclude, rel) {
		return true
	}
	return isDir && matchAny(rs.opts.Exclude, rel+"/")
}

// watched reports whether path is a source file the scanner tracks.
func (rs *RealtimeScanner) watched(path string) bool {
	if !parser.IsSupportedFile(path) || rs.excluded(path, false) {
		return false
	}
	return matchAny(rs.opts.Include, relSlash(rs.root, path))
}

// Stop stops watching and cancels pending re-analysis. Idempotent.
func (rs *RealtimeScanner) Stop() error {
	rs.lifecycleMu.Lock()
	defer rs.lifecycleMu.Unlock()

	if rs.stopped {
		return nil
	}
	rs.stopped = true
	close(rs.stopChan)

	rs.debounceMu.Lock()
	for _, timer := range rs.debounceTimers {
		timer.Stop()
	}
	rs.debounceTimers = make(map[string]*time.Timer)
	rs.debounceMu.Unlock()

	err := rs.watcher.Close()
	rs.logger.Info("realtime scanner stopped")
	return err
}

func (rs *RealtimeScanner) isStopped() bool {
	rs.lifecycleMu.Lock()
	defer rs.lifecycleMu.Unlock()
	return rs.stopped
}

func (rs *RealtimeScanner) eventLoop(ctx context.Context) {
	for {
		select {
		case <-rs.stopChan:
			return
		case <-ctx.Done():
			rs.Stop()
			return
		case event, ok := <-rs.watcher.Events:
			if !ok {
				return
			}
			rs.handleEvent(event)
		case err, ok := <-rs.watcher.Errors:
			if !ok {
				return
			}
			rs.logger.Error("file watcher error", "error", err)
		}
	}
}

func (rs *RealtimeScanner) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !rs.excluded(path, true) {
				if err := rs.watchTree(path); err != nil {
					rs.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}
	if !rs.watched(path) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		rs.logger.Debug("file event", "op", event.Op.String(), "file", path)
		rs.debounce(path)
	}
}

// debounce schedules path for processing once it has been quiet for the
// debounce period. Whether the file was changed or removed is decided when
// the timer fires.
func (rs *RealtimeScanner) debounce(path string) {
	rs.debounceMu.Lock()
	defer rs.debounceMu.Unlock()

	if timer, ok := rs.debounceTimers[path]; ok {
		timer.Stop()
	}
	rs.debounceTimers[path] = time.AfterFunc(rs.opts.Debounce, func() {
		rs.debounceMu.Lock()
		delete(rs.debounceTimers, path)
		rs.debounceMu.Unlock()

		if rs.isStopped() {
			return
		}
		analysis, err := rs.process(path)
		if err != nil {
			rs.logger.Warn("failed to analyze changed file", "file", relSlash(rs.root, path), "error", err)
			return
		}
		if analysis != nil && rs.opts.OnAnalysis != nil {
			rs.opts.OnAnalysis(*analysis)
		}
	})
}

// process brings the result up to date with path. It returns nil when
// nothing observable changed.
func (rs *RealtimeScanner) process(path string) (*FileAnalysis, error) {
	rs.processMu.Lock()
	defer rs.processMu.Unlock()

	rs.scanner.Invalidate(path)
	content, err := rs.scanner.cache.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return rs.removeFile(path), nil
	}
	if err != nil {
		rs.failed.Add(1)
		return nil, err
	}

	rel := relSlash(rs.root, path)
	sum := xxhash.Sum64(content)
	if prev, ok := rs.hashes.Get(rel); ok && prev == sum {
		rs.unchanged.Add(1)
		return nil, nil
	}

	usages, err := rs.scanner.analyzeContent(rs.root, path, content)
	if err != nil {
		rs.failed.Add(1)
		rs.mu.Lock()
		if rs.result != nil {
			rs.result.Errors = setFileError(rs.result.Errors, ScanError{File: rel, Error: err.Error()})
			rs.result.rebuild(uniqueFiles(rs.result.Components))
		}
		rs.mu.Unlock()
		return nil, err
	}
	rs.hashes.Add(rel, sum)
	rs.analyzed.Add(1)

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.result == nil {
		rs.result = &ProjectScanResult{Errors: []ScanError{}, Dependencies: analyzeDependencies(rs.root, rs.logger)}
	}
	previous := filterFile(rs.result.Components, rel)
	rs.result.Errors = clearFileError(rs.result.Errors, rel)
	if len(usages) == 0 && len(previous) == 0 {
		rs.result.rebuild(uniqueFiles(rs.result.Components))
		return nil, nil
	}

	analysis := compareUsages(rel, previous, usages)
	rs.result.Components = append(withoutFile(rs.result.Components, rel), usages...)
	rs.result.rebuild(uniqueFiles(rs.result.Components))
	return &analysis, nil
}

func (rs *RealtimeScanner) removeFile(path string) *FileAnalysis {
	rel := relSlash(rs.root, path)
	rs.hashes.Remove(rel)

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.result == nil {
		return nil
	}
	rs.result.Errors = clearFileError(rs.result.Errors, rel)
	previous := filterFile(rs.result.Components, rel)
	if len(previous) == 0 {
		return nil
	}

	rs.removed.Add(1)
	rs.result.Components = withoutFile(rs.result.Components, rel)
	rs.result.rebuild(uniqueFiles(rs.result.Components))
	rs.logger.Info("file removed", "file", rel, "components", len(previous))

	return &FileAnalysis{
		File:        rel,
		Components:  []ComponentUsage{},
		FixedIssues: issueCount(previous),
		Suggestions: []string{},
		Patterns:    []string{},
		Removed:     true,
	}
}

func compareUsages(file string, previous, current []ComponentUsage) FileAnalysis {
	before, after := issueCount(previous), issueCount(current)

	patterns := []string{}
	seen := make(map[string]bool)
	for _, u := range current {
		for _, p := range u.Patterns {
			if !seen[p] {
				seen[p] = true
				patterns = append(patterns, p)
			}
		}
	}

	return FileAnalysis{
		File:        file,
		Components:  current,
		NewIssues:   max(0, after-before),
		FixedIssues: max(0, before-after),
		Suggestions: suggestions(current),
		Patterns:    patterns,
	}
}

// suggestions gives live advice for the usages in one file.
func suggestions(usages []ComponentUsage) []string {
	out := []string{}

	if n := countVersion(usages, component.VersionV1); n > 0 {
		out = append(out, fmt.Sprintf("Consider migrating %d component(s) to DataSource V2", n))
	}
	for _, u := range usages {
		if hasIssueType(u.Issues, IssueError) {
			out = append(out, "Fix missing required props for better reliability")
			break
		}
	}
	if countFormsWithoutValidation(usages) > 0 {
		out = append(out, "Add validation feedback to forms")
	}

	counts := make(map[string]int)
	var order []string
	for _, u := range usages {
		if counts[u.Name] == 0 {
			order = append(order, u.Name)
		}
		counts[u.Name]++
	}
	for _, name := range order {
		if counts[name] > repeatedUsageThreshold {
			out = append(out, fmt.Sprintf("Consider extracting %s into a reusable component", name))
		}
	}
	return out
}

func hasIssueType(issues []ComponentIssue, t IssueType) bool {
	for _, i := range issues {
		if i.Type == t {
			return true
		}
	}
	return false
}

func issueCount(usages []ComponentUsage) int {
	n := 0
	for _, u := range usages {
		n += len(u.Issues)
	}
	return n
}

func filterFile(usages []ComponentUsage, file string) []ComponentUsage {
	out := []ComponentUsage{}
	for _, u := range usages {
		if u.File == file {
			out = append(out, u)
		}
	}
	return out
}

func withoutFile(usages []ComponentUsage, file string) []ComponentUsage {
	out := make([]ComponentUsage, 0, len(usages))
	for _, u := range usages {
		if u.File != file {
			out = append(out, u)
		}
	}
	return out
}

func setFileError(errs []ScanError, e ScanError) []ScanError {
	return append(clearFileError(errs, e.File), e)
}

func clearFileError(errs []ScanError, file string) []ScanError {
	out := make([]ScanError, 0, len(errs))
	for _, e := range errs {
		if e.File != file {
			out = append(out, e)
		}
	}
	return out
}

// Stats returns the current scan statistics, or nil before the initial
// scan completes.
func (rs *RealtimeScanner) Stats() *Statistics {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.result == nil {
		return nil
	}
	s := rs.result.Statistics
	return &s
}

// WatchStats returns watcher counters.
func (rs *RealtimeScanner) WatchStats() WatchStats {
	rs.debounceMu.Lock()
	pending := len(rs.debounceTimers)
	rs.debounceMu.Unlock()

	rs.lifecycleMu.Lock()
	running := rs.started && !rs.stopped
	rs.lifecycleMu.Unlock()

	return WatchStats{
		Analyzed:  rs.analyzed.Load(),
		Unchanged: rs.unchanged.Load(),
		Removed:   rs.removed.Load(),
		Failed:    rs.failed.Load(),
		Pending:   pending,
		Running:   running,
	}
}

// FileComponents returns the usages currently recorded for path, which may
// be absolute or relative to the project root.
func (rs *RealtimeScanner) FileComponents(path string) []ComponentUsage {
	if filepath.IsAbs(path) {
		path = relSlash(rs.root, path)
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.result == nil {
		return []ComponentUsage{}
	}
	return filterFile(rs.result.Components, filepath.ToSlash(path))
}

// Snapshot returns a copy of the current result, or nil before the initial
// scan completes.
func (rs *RealtimeScanner) Snapshot() *ProjectScanResult {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.result == nil {
		return nil
	}
	cp := *rs.result
	cp.Components = append(make([]ComponentUsage, 0, len(rs.result.Components)), rs.result.Components...)
	cp.Errors = append(make([]ScanError, 0, len(rs.result.Errors)), rs.result.Errors...)
	cp.Usage = MergeUsage(nil, cp.Components)
	return &cp
}

// ExportState writes the current result to path as indented JSON.
func (rs *RealtimeScanner) ExportState(path string) error {
	snap := rs.Snapshot()
	if snap == nil {
		return errors.New("no scan result yet")
	}
	return util.WriteJSONFile(path, snap)
}
