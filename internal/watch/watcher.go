// Package watch keeps a document per watched file and turns on-disk changes
// into incremental token updates.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/relex/internal/config"
	"github.com/standardbeagle/relex/internal/debug"
	"github.com/standardbeagle/relex/internal/document"
	"github.com/standardbeagle/relex/internal/errors"
	"github.com/standardbeagle/relex/internal/lexer"
	"github.com/standardbeagle/relex/internal/randomtest"
	"github.com/standardbeagle/relex/internal/security"
	"github.com/standardbeagle/relex/pkg/pathutil"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventRemove:
		return "remove"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Update describes how one file's tokens changed
type Update struct {
	Path   string // relative to the watch root, forward slashes
	Event  EventType
	Edits  []*lexer.EditResult
	Tokens int
	Length int
}

// Stats contains statistics about file watching operations
type Stats struct {
	Files           int
	EventsProcessed int64
	ErrorCount      int64
	LastEventTime   time.Time
	IsActive        bool
}

// Watcher monitors a directory tree and keeps one document per matching file
type Watcher struct {
	watcher   *fsnotify.Watcher
	cfg       config.Watch
	root      string
	lang      lexer.Language
	debouncer *debouncer
	validator *security.FileValidator
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	mu   sync.Mutex
	docs map[string]*document.Document

	onUpdate func(Update)
	onError  func(path string, err error)

	eventsProcessed int64
	errorCount      int64
	lastEventTime   time.Time
	statsMu         sync.RWMutex
}

// New creates a watcher for root. Nothing is watched until Start.
func New(root string, cfg config.Watch, lang lexer.Language) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewFileError("resolve", root, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		watcher:   fsw,
		cfg:       cfg,
		root:      absRoot,
		lang:      lang,
		validator: security.NewFileValidator(cfg.MaxFileKB),
		ctx:       ctx,
		cancel:    cancel,
		docs:      make(map[string]*document.Document),
	}
	w.debouncer = newDebouncer(time.Duration(cfg.DebounceMs)*time.Millisecond, w.process)
	return w, nil
}

// SetCallbacks sets the callbacks for handling updates and failures. They
// are called from one debounced flush at a time, never concurrently.
func (w *Watcher) SetCallbacks(onUpdate func(Update), onError func(path string, err error)) {
	w.onUpdate = onUpdate
	w.onError = onError
}

// Start loads every matching file and begins watching the tree
func (w *Watcher) Start() error {
	debug.LogWatch("Starting file watcher for directory: %s\n", w.root)

	if err := w.addWatches(); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", w.root, err)
	}

	w.wg.Add(1)
	go w.processEvents()

	debug.LogWatch("File watcher started with %d files\n", len(w.Paths()))
	return nil
}

// Stop stops watching and waits for pending work to finish
func (w *Watcher) Stop() error {
	w.cancel()
	w.debouncer.stop()

	err := w.watcher.Close()
	w.wg.Wait()
	debug.LogWatch("File watcher stopped\n")
	return err
}

// Document returns the document tracking rel, or nil
func (w *Watcher) Document(rel string) *document.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.docs[rel]
}

// Paths returns the tracked files, sorted
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.docs))
	for p := range w.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Matches reports whether a root-relative, slash separated path is watched
func (w *Watcher) Matches(rel string) bool {
	if w.excluded(rel) {
		return false
	}
	for _, pattern := range w.cfg.Include {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Watcher) excluded(rel string) bool {
	for _, pattern := range w.cfg.Exclude {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// addWatches recursively adds directory watches and loads matching files
func (w *Watcher) addWatches() error {
	visitedDirs := make(map[string]bool)

	return filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, ok := pathutil.GlobPath(path, w.root)
		if !ok {
			return nil
		}

		if !info.IsDir() {
			if w.Matches(rel) {
				if err := w.validator.Validate(path); err != nil {
					debug.LogWatch("skipping %s: %v\n", rel, err)
					return nil
				}
				if _, err := w.sync(path, rel, EventCreate); err != nil {
					w.report(rel, err)
				}
			}
			return nil
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visitedDirs[realPath] {
			return filepath.SkipDir
		}
		visitedDirs[realPath] = true

		if rel != "." && w.excluded(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to add watch for %s: %v", path, err)
		}
		return nil
	})
}

// processEvents processes file system events from fsnotify
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := pathutil.GlobPath(event.Name, w.root)
	if !ok {
		return
	}
	debug.LogWatch("received %v for %s\n", event.Op, rel)

	info, err := os.Stat(event.Name)
	if err != nil {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			if w.Document(rel) != nil {
				w.debouncer.add(rel, EventRemove)
			}
		}
		return
	}

	if info.IsDir() {
		if event.Has(fsnotify.Create) && !w.excluded(rel) {
			if err := w.watcher.Add(event.Name); err != nil {
				log.Printf("Warning: failed to add watch for new directory %s: %v", event.Name, err)
			}
		}
		return
	}
	if !w.Matches(rel) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		w.debouncer.add(rel, EventCreate)
	case event.Has(fsnotify.Write):
		w.debouncer.add(rel, EventWrite)
	}
}

// process applies one debounced batch
func (w *Watcher) process(events map[string]EventType) {
	paths := make([]string, 0, len(events))
	for p := range events {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, rel := range paths {
		update, err := w.sync(filepath.Join(w.root, filepath.FromSlash(rel)), rel, events[rel])
		w.incrementStats(err != nil)
		if err != nil {
			w.report(rel, err)
			continue
		}
		if w.onUpdate != nil {
			w.onUpdate(update)
		}
	}
}

// sync brings the document for rel in line with the file on disk
func (w *Watcher) sync(path, rel string, event EventType) (Update, error) {
	update := Update{Path: rel, Event: event}

	if event == EventRemove {
		w.mu.Lock()
		delete(w.docs, rel)
		w.mu.Unlock()
		return update, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		update.Event = EventRemove
		w.mu.Lock()
		delete(w.docs, rel)
		w.mu.Unlock()
		return update, nil
	}
	if err != nil {
		return update, errors.NewFileError("read", path, err)
	}
	if err := w.validator.ValidateContent(data); err != nil {
		// The file no longer holds text; stop tracking it.
		w.mu.Lock()
		delete(w.docs, rel)
		w.mu.Unlock()
		return update, err
	}

	doc := w.Document(rel)
	if doc == nil {
		doc, err = document.New(string(data), w.lang)
		if err != nil {
			return update, err
		}
		w.mu.Lock()
		w.docs[rel] = doc
		w.mu.Unlock()
	} else {
		update.Edits, err = doc.Replace(string(data))
		if err != nil {
			if rebuildErr := doc.Rebuild(); rebuildErr != nil {
				return update, errors.NewMultiError([]error{err, rebuildErr})
			}
			return update, err
		}
	}

	if w.cfg.Verify {
		if err := randomtest.Verify(doc); err != nil {
			return update, err
		}
	}

	stats := doc.Stats()
	update.Tokens = stats.Tokens
	update.Length = stats.Length
	debug.LogWatch("%s %s: %d edits, %d tokens\n", update.Event, rel, len(update.Edits), update.Tokens)
	return update, nil
}

func (w *Watcher) report(rel string, err error) {
	log.Printf("Error updating %s: %v", rel, err)
	if w.onError != nil {
		w.onError(rel, err)
	}
}

func (w *Watcher) incrementStats(failed bool) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()

	w.eventsProcessed++
	if failed {
		w.errorCount++
	}
	w.lastEventTime = time.Now()
}

// Stats returns current watch statistics
func (w *Watcher) Stats() Stats {
	files := len(w.Paths())

	w.statsMu.RLock()
	defer w.statsMu.RUnlock()

	return Stats{
		Files:           files,
		EventsProcessed: w.eventsProcessed,
		ErrorCount:      w.errorCount,
		LastEventTime:   w.lastEventTime,
		IsActive:        w.ctx.Err() == nil,
	}
}
