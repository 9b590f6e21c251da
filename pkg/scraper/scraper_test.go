package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	t.Run("unknown module", func(t *testing.T) {
		_, err := Build("no-such-module", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown scraper module")
	})

	t.Run("builtin modules registered", func(t *testing.T) {
		mods := Modules()
		assert.Contains(t, mods, "httpfile")
		assert.Contains(t, mods, "exec")
	})

	t.Run("builder error is wrapped with module name", func(t *testing.T) {
		_, err := Build("exec", map[string]any{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "module exec")
	})
}

func TestDecodeParamsRejectsUnknownKeys(t *testing.T) {
	var spec execSpec
	err := decodeParams(map[string]any{
		"command": []string{"true"},
		"comand":  []string{"oops"},
	}, &spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid params")
}

func TestFunc(t *testing.T) {
	called := false
	s := Func(func(ctx context.Context, env Env) error {
		called = true
		return nil
	})
	require.NoError(t, s.Run(context.Background(), Env{}))
	assert.True(t, called)
}
