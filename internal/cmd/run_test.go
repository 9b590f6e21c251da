package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRunTarget(t *testing.T) {
	t.Cleanup(func() {
		runSpecJSON = ""
		runRecord = false
	})

	t.Run("inline spec", func(t *testing.T) {
		runSpecJSON = `{"module":"httpfile","output_directory":"/tmp/out","params":{"urls":["https://example.com/export.csv"]}}`
		runRecord = false

		task, err := resolveRunTarget(nil)
		require.NoError(t, err)
		assert.Equal(t, "adhoc", task.Name)
		assert.Equal(t, "httpfile", task.Module)
		assert.Equal(t, "/tmp/out", task.OutputDir)
	})

	t.Run("inline spec with name is rejected", func(t *testing.T) {
		runSpecJSON = `{"module":"httpfile"}`

		_, err := resolveRunTarget([]string{"vanguard"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be combined")
	})

	t.Run("record requires a registered name", func(t *testing.T) {
		runSpecJSON = `{"module":"httpfile"}`
		runRecord = true

		_, err := resolveRunTarget(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--record")
		runRecord = false
	})

	t.Run("invalid spec JSON", func(t *testing.T) {
		runSpecJSON = `{"module":`

		_, err := resolveRunTarget(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --spec JSON")
	})

	t.Run("no name and no spec", func(t *testing.T) {
		runSpecJSON = ""

		_, err := resolveRunTarget(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name one configuration or pass --spec")
	})
}
