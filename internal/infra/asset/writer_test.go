package asset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSWriter_Save(t *testing.T) {
	dir := t.TempDir()
	w := NewFSWriter(dir, "http://cdn.local/")

	url, err := w.Save(context.Background(), "Photo.PNG", []byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://cdn.local/assets/items/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	name := filepath.Base(url)
	data, err := os.ReadFile(filepath.Join(dir, "items", name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestFSWriter_Save_NoBaseURL(t *testing.T) {
	w := NewFSWriter(t.TempDir(), "")
	url, err := w.Save(context.Background(), "a.jpg", []byte("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/assets/items/"))
}

func TestFSWriter_Save_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFSWriter(t.TempDir(), "").Save(ctx, "a.jpg", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
