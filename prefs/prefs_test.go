package prefs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	p := NewMemory()
	_, ok := p.Get(NotesKey)
	assert.False(t, ok)

	require.NoError(t, p.Set(NotesKey, "hi"))
	v, ok := p.Get(NotesKey)
	assert.True(t, ok)
	assert.Equal(t, "hi", v)
}

func TestFile_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	p := OpenFile(path, zerolog.Nop())
	require.NoError(t, p.Set(SelectedAccountKey, "acct-1"))
	require.NoError(t, p.Set(ViewPeriodKey("dashboard"), "1M"))

	again := OpenFile(path, zerolog.Nop())
	v, ok := again.Get(SelectedAccountKey)
	require.True(t, ok)
	assert.Equal(t, "acct-1", v)
	v, _ = again.Get("tj.dashboard.period")
	assert.Equal(t, "1M", v)
	assert.Equal(t, path, again.Path())
}

func TestFile_CorruptStartsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{ not yaml"), 0o644))

	var logs bytes.Buffer
	p := OpenFile(path, zerolog.New(&logs))
	_, ok := p.Get(NotesKey)
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "prefs corrupt")

	require.NoError(t, p.Set(NotesKey, "fresh"))
	v, _ := OpenFile(path, zerolog.Nop()).Get(NotesKey)
	assert.Equal(t, "fresh", v)
}

func TestViewPeriodKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PeriodKey, ViewPeriodKey(""))
	assert.Equal(t, "tj.analytics.period", ViewPeriodKey("analytics"))
}
