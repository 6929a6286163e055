// Package prefs persists the small amount of local UI state the journal
// keeps between runs: selection, periods, notes.
package prefs

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradejournal/internal/fsutil"
)

// Keys.
const (
	SelectedAccountKey = "tj.selectedAccountId"
	PeriodKey          = "tj.period"
	NotesKey           = "tj.notes"
)

// ViewPeriodKey is the period key of one view, e.g. tj.dashboard.period.
func ViewPeriodKey(view string) string {
	if view == "" {
		return PeriodKey
	}
	return "tj." + view + ".period"
}

// Prefs is a string key/value store.
type Prefs interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Memory keeps preferences for the life of the process.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

var _ Prefs = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{m: map[string]string{}}
}

func (p *Memory) Get(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.m[key]
	return v, ok
}

func (p *Memory) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[key] = value
	return nil
}

// File is a YAML map on disk, rewritten on every Set.
type File struct {
	path string
	log  zerolog.Logger

	mu sync.RWMutex
	m  map[string]string
}

var _ Prefs = (*File)(nil)

// OpenFile loads path. A missing file starts empty; an unreadable or
// corrupt one is logged and also starts empty.
func OpenFile(path string, log zerolog.Logger) *File {
	f := &File{path: path, log: log, m: map[string]string{}}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		log.Warn().Err(err).Str("path", path).Msg("prefs unreadable, using defaults")
	default:
		var m map[string]string
		if err := yaml.Unmarshal(b, &m); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("prefs corrupt, using defaults")
		} else if m != nil {
			f.m = m
		}
	}
	return f
}

func (f *File) Path() string { return f.path }

func (f *File) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.m[key]
	return v, ok
}

// Set stores value and rewrites the file. On a write error the in-memory
// value is kept.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[key] = value

	b, err := yaml.Marshal(f.m)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(f.path, b)
}

