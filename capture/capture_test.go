package capture

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvwidgets/util/datapath"
)

func sampleVideo(t *testing.T) string {
	path := datapath.Get("hello.mp4")
	if !datapath.Exists("hello.mp4") {
		t.Skipf("sample video not found at %s", path)
	}
	return path
}

func TestOpenEmptyURL(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestFileSourceReadsToEnd(t *testing.T) {
	src, err := OpenFile(sampleVideo(t))
	require.NoError(t, err)
	defer src.Close()

	assert.Greater(t, src.FrameRate(), 0.0)
	assert.Greater(t, src.Duration(), int64(0))

	var last int64 = -1
	frames := 0
	for {
		f, err := src.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.False(t, f.IsNull())
		assert.GreaterOrEqual(t, f.StartTime, last)
		last = f.StartTime
		frames++
	}
	assert.Greater(t, frames, 0)

	require.NoError(t, src.Seek(0))
	f, err := src.Read()
	require.NoError(t, err)
	assert.False(t, f.IsNull())
}

func TestFirstFrame(t *testing.T) {
	a, err := FirstFrame(sampleVideo(t))
	require.NoError(t, err)
	assert.Equal(t, 4, a.Channels)
	assert.NoError(t, a.Validate())
}

func TestFileSourceClosed(t *testing.T) {
	src, err := OpenFile(sampleVideo(t))
	require.NoError(t, err)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	_, err = src.Read()
	assert.Error(t, err)
}
