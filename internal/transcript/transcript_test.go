package transcript

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendIncrementsLen(t *testing.T) {
	l := New()
	l.Append(Caller, "hello")
	l.Append(Assistant, "hi there")
	assert.Equal(t, 2, l.Len())
}

func TestFlushWritesExpectedFormat(t *testing.T) {
	l := New()
	stamp := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return stamp }

	l.Append(Caller, "hello")
	l.Append(Assistant, "hi there")

	dir := t.TempDir()
	path := filepath.Join(dir, "call.txt")
	require.NoError(t, l.Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "[2026-03-05 09:30:00] caller: hello\n[2026-03-05 09:30:00] assistant: hi there\n"
	assert.Equal(t, want, string(data))
}

func TestFlushOnEmptyLogWritesEmptyFile(t *testing.T) {
	l := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	require.NoError(t, l.Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
