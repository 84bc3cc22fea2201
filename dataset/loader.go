package dataset

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/spektr-org/vitasicura/schema"
)

// ============================================================================
// LOADER — Resolves, reads, validates and memoizes datasets
// ============================================================================
// One Loader owns one cache. The cache lives as long as the Loader does and
// is dropped by Clear; there is no package-level state. Tables are handed
// out by pointer and never mutated, so sharing them across requests is safe.
// ============================================================================

// DefaultDir is where the scoring pipeline drops its outputs.
const DefaultDir = "data/analytics"

// Loader reads datasets from a base directory.
type Loader struct {
	baseDir string
	fsys    fs.FS
	now     func() time.Time
	log     *slog.Logger

	mu    sync.Mutex
	cache map[string]*Table
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS reads files from fsys instead of the base directory on disk.
// The base directory is still used to report resolved paths.
func WithFS(fsys fs.FS) Option {
	return func(l *Loader) { l.fsys = fsys }
}

// WithClock stamps Table.LoadedAt using now.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// WithLogger sets the logger used for load events.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// NewLoader creates a Loader over baseDir (DefaultDir when empty).
func NewLoader(baseDir string, opts ...Option) *Loader {
	if baseDir == "" {
		baseDir = DefaultDir
	}
	l := &Loader{
		baseDir: baseDir,
		now:     time.Now,
		log:     slog.Default(),
		cache:   make(map[string]*Table),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.fsys == nil {
		l.fsys = os.DirFS(baseDir)
	}
	return l
}

// Path returns the resolved file path for a dataset name.
func (l *Loader) Path(name string) string {
	return filepath.Join(l.baseDir, name)
}

// Load returns the validated table for name, reading it on first use only.
func (l *Loader) Load(name string) (*Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.cache[name]; ok {
		return t, nil
	}
	if _, ok := schema.Lookup(name); !ok {
		return nil, &UnknownDatasetError{Name: name}
	}

	path := l.Path(name)
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, eris.Wrapf(err, "reading %s", path)
	}

	t, err := Parse(name, data)
	if err != nil {
		l.log.Error("dataset rejected", "dataset", name, "path", path, "error", err)
		return nil, err
	}
	t.LoadedAt = l.now()

	l.cache[name] = t
	l.log.Info("dataset loaded",
		"dataset", name,
		"rows", t.Len(),
		"columns", len(t.Columns),
		"encoding", t.Encoding,
		"checksum", t.Checksum,
	)
	return t, nil
}

// LoadAll loads every registered dataset in registry order.
// It stops at the first failure.
func (l *Loader) LoadAll() (map[string]*Table, error) {
	out := make(map[string]*Table, len(schema.Names()))
	for _, name := range schema.Names() {
		t, err := l.Load(name)
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}

// Cached reports whether name is already memoized.
func (l *Loader) Cached(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cache[name]
	return ok
}

// Clear drops every memoized table. The next Load re-reads from disk.
func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*Table)
}
