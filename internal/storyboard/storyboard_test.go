package storyboard

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveStepDownscales(t *testing.T) {
	dir := t.TempDir()
	b := New(Options{Dir: dir, MaxWidth: 100})

	path, err := b.SaveStep("flow_1", "min", 2, testPNG(t, 400, 200, color.White))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flow_1", "min-02.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestSaveStepRejectsGarbage(t *testing.T) {
	b := New(Options{Dir: t.TempDir()})
	_, err := b.SaveStep("flow_1", "min", 1, []byte("not a png"))
	require.Error(t, err)
}

func TestFinishWritesGIF(t *testing.T) {
	dir := t.TempDir()
	b := New(Options{Dir: dir, MaxWidth: 80, GIF: true})

	colors := []color.Color{color.White, color.Black, color.RGBA{R: 200, A: 255}}
	for i, c := range colors {
		_, err := b.SaveStep("flow_1", "max", i+1, testPNG(t, 80, 40, c))
		require.NoError(t, err)
	}

	path, err := b.Finish("flow_1", "max")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flow_1", "max.gif"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, 3)
	assert.Equal(t, 300, g.Delay[2])

	again, err := b.Finish("flow_1", "max")
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestFinishWithoutGIF(t *testing.T) {
	b := New(Options{Dir: t.TempDir()})
	_, err := b.SaveStep("flow_1", "min", 1, testPNG(t, 10, 10, color.White))
	require.NoError(t, err)
	path, err := b.Finish("flow_1", "min")
	require.NoError(t, err)
	assert.Empty(t, path)
}
