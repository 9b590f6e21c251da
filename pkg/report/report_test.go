package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "0 minutes"},
		{5 * time.Minute, "5 minutes"},
		{23 * time.Hour, "1380 minutes"},
		{24 * time.Hour, "1 days"},
		{72*time.Hour + 5*time.Minute, "3 days"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAge(tt.age), "age %s", tt.age)
	}
}

func TestTextReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf)

	r.TaskStarted("vanguard")
	r.TaskFinished("vanguard", nil, 3*time.Second)
	r.TaskFinished("chase", errors.New("login failed"), 12*time.Second)
	r.TaskSkipped("amazon", 3*time.Hour)
	r.Summary(1, 1, 1)
	require.NoError(t, r.Close())

	out := buf.String()
	assert.Contains(t, out, "vanguard: starting\n")
	assert.Contains(t, out, "vanguard: SUCCESS in 3 seconds\n")
	assert.Contains(t, out, "chase: FAILED in 12 seconds\n")
	assert.Contains(t, out, "amazon: SKIPPING (updated 180 minutes ago)\n")
	assert.Contains(t, out, "1 succeeded, 1 failed, 1 skipped\n")
}

func TestJSONLReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONLReporter(&buf)

	r.TaskStarted("vanguard")
	r.TaskFinished("vanguard", errors.New("boom"), 1500*time.Millisecond)
	r.Summary(0, 1, 0)
	require.NoError(t, r.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var start, finish, summary Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &start))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &finish))
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &summary))

	assert.Equal(t, TypeStart, start.Type)
	assert.Equal(t, "vanguard", start.Name)
	assert.False(t, start.Timestamp.IsZero())

	assert.Equal(t, TypeFinish, finish.Type)
	require.NotNil(t, finish.Success)
	assert.False(t, *finish.Success)
	assert.Equal(t, "boom", finish.Error)
	assert.Equal(t, int64(1500), finish.ElapsedMS)

	assert.Equal(t, TypeSummary, summary.Type)
	assert.Equal(t, 1, summary.Failed)
}
