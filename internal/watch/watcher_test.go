package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/relex/internal/config"
	"github.com/standardbeagle/relex/internal/languages"
	"github.com/standardbeagle/relex/internal/security"
)

// recorder collects watcher callbacks
type recorder struct {
	mu      sync.Mutex
	updates []Update
	errs    []error
}

func (r *recorder) update(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) fail(_ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) events(path string) []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventType
	for _, u := range r.updates {
		if u.Path == path {
			out = append(out, u.Event)
		}
	}
	return out
}

func testConfig() config.Watch {
	return config.Watch{
		DebounceMs: 20,
		Include:    []string{"**/*.txt"},
		Exclude:    []string{"build/**"},
		Verify:     true,
		MaxFileKB:  1,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func startWatcher(t *testing.T, root string) (*Watcher, *recorder) {
	t.Helper()
	w, err := New(root, testConfig(), languages.Demo())
	require.NoError(t, err)
	rec := &recorder{}
	w.SetCallbacks(rec.update, rec.fail)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	return w, rec
}

func TestMatches(t *testing.T) {
	w, err := New(t.TempDir(), testConfig(), languages.Demo())
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.Matches("a.txt"))
	assert.True(t, w.Matches("src/deep/b.txt"))
	assert.False(t, w.Matches("a.log"))
	assert.False(t, w.Matches("build/out.txt"))
}

func TestStartLoadsMatchingFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x + y")
	writeFile(t, filepath.Join(root, "b.log"), "ignored")
	writeFile(t, filepath.Join(root, "sub", "c.txt"), "while z")
	writeFile(t, filepath.Join(root, "build", "d.txt"), "excluded")

	w, _ := startWatcher(t, root)

	assert.Equal(t, []string{"a.txt", "sub/c.txt"}, w.Paths())
	doc := w.Document("sub/c.txt")
	require.NotNil(t, doc)
	assert.Equal(t, "while z", doc.String())
	assert.Equal(t, 3, doc.Stats().Tokens)
	assert.Equal(t, 2, w.Stats().Files)
	assert.True(t, w.Stats().IsActive)
}

func TestWriteUpdatesDocumentIncrementally(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	writeFile(t, path, "alpha + beta")

	w, rec := startWatcher(t, root)
	doc := w.Document("a.txt")
	require.NotNil(t, doc)

	writeFile(t, path, "alpha + beta2")

	require.Eventually(t, func() bool {
		return doc.String() == "alpha + beta2"
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(rec.events("a.txt")) > 0
	}, 5*time.Second, 10*time.Millisecond)

	assert.Contains(t, rec.events("a.txt"), EventWrite)
	assert.Empty(t, rec.errs)
	assert.Same(t, doc, w.Document("a.txt"))
	assert.Positive(t, w.Stats().EventsProcessed)
}

func TestCreateAndRemove(t *testing.T) {
	root := t.TempDir()
	w, rec := startWatcher(t, root)
	require.Empty(t, w.Paths())

	path := filepath.Join(root, "new.txt")
	writeFile(t, path, "x")
	require.Eventually(t, func() bool {
		return w.Document("new.txt") != nil
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		return w.Document("new.txt") == nil
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		events := rec.events("new.txt")
		return len(events) > 0 && events[len(events)-1] == EventRemove
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSkipsFilesThatAreNotText(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x + y")
	writeFile(t, filepath.Join(root, "blob.txt"), "\x00\x01\x02binary")
	writeFile(t, filepath.Join(root, "big.txt"), strings.Repeat("a", 2048))

	w, rec := startWatcher(t, root)

	assert.Equal(t, []string{"a.txt"}, w.Paths())
	assert.Empty(t, rec.errs, "skipped files are not errors at startup")
}

func TestWriteOfBinaryDropsDocument(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	writeFile(t, path, "alpha")

	w, rec := startWatcher(t, root)
	require.NotNil(t, w.Document("a.txt"))

	writeFile(t, path, "\x00\x00\x00")

	require.Eventually(t, func() bool {
		return w.Document("a.txt") == nil
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.errs) > 0
	}, 5*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.ErrorIs(t, rec.errs[0], security.ErrRejected)
}

func TestStopIsClean(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, testConfig(), languages.Demo())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	assert.False(t, w.Stats().IsActive)
}
