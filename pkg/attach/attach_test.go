package attach

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinSplitRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(file, []byte("png"), 0o644))

	joined := Join("Screenshot taken.", file)
	text, path := Split(joined)

	assert.Equal(t, "Screenshot taken.", text)
	assert.Equal(t, file, path)
}

func TestSplitNoMarker(t *testing.T) {
	text, path := Split("just a reply")
	assert.Equal(t, "just a reply", text)
	assert.Empty(t, path)
}

func TestSplitMissingFile(t *testing.T) {
	text, path := Split(Join("Screenshot taken.", "/nonexistent/shot.png"))
	assert.Equal(t, "Screenshot taken.", text)
	assert.Empty(t, path, "a vanished file must not be attached")
}

func TestSplitNonePath(t *testing.T) {
	text, path := Split(Join("Nothing captured.", "None"))
	assert.Equal(t, "Nothing captured.", text)
	assert.Empty(t, path)
}

func TestSplitEmptyPath(t *testing.T) {
	_, path := Split(Join("text", ""))
	assert.Empty(t, path)
}
