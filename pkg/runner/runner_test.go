package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerkit/findl/pkg/registry"
	"github.com/ledgerkit/findl/pkg/runstate"
	"github.com/ledgerkit/findl/pkg/scraper"
)

func newTask(name string, fn scraper.Func, outDir string) *registry.Task {
	return &registry.Task{Name: name, Module: "test", OutputDir: outDir, Scraper: fn}
}

func TestRunSuccess(t *testing.T) {
	logDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	store := runstate.NewStore(logDir)
	r := New(store)

	task := newTask("vanguard", func(ctx context.Context, env scraper.Env) error {
		env.Logger.Info("fetched 3 statements")
		return nil
	}, outDir)

	res := r.Run(context.Background(), task)
	require.NoError(t, res.Err)
	assert.True(t, res.Succeeded())
	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.EndedAt.Before(res.StartedAt))

	// The output dir was created for the scraper.
	info, err := os.Stat(outDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// The scraper's output landed in this run's log.
	b, err := os.ReadFile(store.LogPath("vanguard"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "fetched 3 statements")

	// Success marker recorded with this run's id.
	rec, err := store.LastRun("vanguard")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, res.RunID, rec.RunID)
	assert.False(t, rec.CompletedAt.Before(rec.StartedAt))
}

func TestRunFailureLeavesMarkerUntouched(t *testing.T) {
	store := runstate.NewStore(t.TempDir())
	r := New(store)

	task := newTask("chase", func(ctx context.Context, env scraper.Env) error {
		env.Logger.Warn("login page changed")
		return errors.New("could not find password field")
	}, t.TempDir())

	res := r.Run(context.Background(), task)
	require.Error(t, res.Err)
	assert.False(t, res.Succeeded())

	// No marker for a failed run.
	rec, err := store.LastRun("chase")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// The failure is diagnosed from the log.
	b, err := os.ReadFile(store.LogPath("chase"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "login page changed")
	assert.Contains(t, string(b), "could not find password field")
}

func TestRunFailurePreservesPreviousMarker(t *testing.T) {
	store := runstate.NewStore(t.TempDir())
	r := New(store)

	ok := newTask("pge", func(ctx context.Context, env scraper.Env) error { return nil }, t.TempDir())
	first := r.Run(context.Background(), ok)
	require.NoError(t, first.Err)

	bad := newTask("pge", func(ctx context.Context, env scraper.Env) error {
		return errors.New("site maintenance")
	}, t.TempDir())
	second := r.Run(context.Background(), bad)
	require.Error(t, second.Err)

	rec, err := store.LastRun("pge")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, first.RunID, rec.RunID)
}

func TestRunContainsPanic(t *testing.T) {
	store := runstate.NewStore(t.TempDir())
	r := New(store)

	task := newTask("mint", func(ctx context.Context, env scraper.Env) error {
		panic("selector went away")
	}, t.TempDir())

	res := r.Run(context.Background(), task)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "scraper panicked")

	b, err := os.ReadFile(store.LogPath("mint"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "selector went away")

	rec, err := store.LastRun("mint")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRunLogDirFailureIsFatalForTaskOnly(t *testing.T) {
	// A file where the log dir should be makes EnsureDir fail.
	base := t.TempDir()
	notADir := filepath.Join(base, "logs")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0644))

	r := New(runstate.NewStore(notADir))
	ran := false
	task := newTask("amazon", func(ctx context.Context, env scraper.Env) error {
		ran = true
		return nil
	}, t.TempDir())

	res := r.Run(context.Background(), task)
	require.Error(t, res.Err)
	assert.False(t, ran, "scraper must not run without a log sink")
}

func TestNewTaskLoggerOrdersLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "task.txt")
	f, err := os.Create(path)
	require.NoError(t, err)

	logger := newTaskLogger(f)
	for _, line := range []string{"one", "two", "three"} {
		logger.Info(line, zap.String("k", "v"))
	}
	require.NoError(t, logger.Sync())
	require.NoError(t, f.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	one, two, three := strings.Index(out, "one"), strings.Index(out, "two"), strings.Index(out, "three")
	require.NotEqual(t, -1, one)
	require.NotEqual(t, -1, two)
	require.NotEqual(t, -1, three)
	assert.Less(t, one, two)
	assert.Less(t, two, three)
}
