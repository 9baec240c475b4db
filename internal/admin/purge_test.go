package admin

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"workdiary/internal/models"
	"workdiary/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestPurgeImages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ProjectID_p1", "TaskID_t1", "2024-03-01", "a.png"))
	writeFile(t, filepath.Join(root, "ProjectID_p1", "TaskID_t1", "2024-03-02", "b.png"))
	writeFile(t, filepath.Join(root, "ProjectID_p2", "TaskID_t9", "2024-03-01", "c.jpg"))
	writeFile(t, filepath.Join(root, "stray.txt"))

	n, err := PurgeImages(root, &testutil.MockLogger{})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPurgeImages_MissingRoot(t *testing.T) {
	n, err := PurgeImages(filepath.Join(t.TempDir(), "nope"), &testutil.MockLogger{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurgeEntries(t *testing.T) {
	st := &testutil.MockStore{Entries: []models.WorkDiaryEntry{{ID: 1}, {ID: 2, DeletedFlag: 1}}}

	require.NoError(t, PurgeEntries(context.Background(), st, &testutil.MockLogger{}))
	assert.Equal(t, 1, st.Truncated)
	assert.Empty(t, st.Entries)
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	err := Confirm(strings.NewReader("PURGE\n"), &out, []string{"all images"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "all images")
	assert.Contains(t, out.String(), `Type "PURGE" to confirm`)
}

func TestConfirm_Mismatch(t *testing.T) {
	err := Confirm(strings.NewReader("purge\n"), &bytes.Buffer{}, nil)
	assert.True(t, errors.Is(err, ErrAborted))
}

func TestConfirm_NoInput(t *testing.T) {
	err := Confirm(strings.NewReader(""), &bytes.Buffer{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input")
}
