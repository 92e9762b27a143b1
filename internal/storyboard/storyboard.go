// Package storyboard saves step screenshots and stitches each flow
// variation into an animated GIF.
package storyboard

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/nfnt/resize"
)

// Options configures a Board
type Options struct {
	Dir       string
	MaxWidth  uint
	GIF       bool
	StepDelay int // hundredths of a second each step is shown
}

// Board collects the screenshots of every variation it is given
type Board struct {
	opts   Options
	mu     sync.Mutex
	frames map[string][]image.Image
}

// New creates a Board writing under opts.Dir
func New(opts Options) *Board {
	if opts.MaxWidth == 0 {
		opts.MaxWidth = 800
	}
	if opts.StepDelay == 0 {
		opts.StepDelay = 150
	}
	return &Board{opts: opts, frames: map[string][]image.Image{}}
}

// SaveStep downscales a PNG screenshot and writes it as
// <dir>/<flowID>/<variation>-<step>.png, returning the path
func (b *Board) SaveStep(flowID, variation string, step int, shot []byte) (string, error) {
	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return "", fmt.Errorf("decode screenshot: %w", err)
	}
	if uint(img.Bounds().Dx()) > b.opts.MaxWidth {
		img = resize.Resize(b.opts.MaxWidth, 0, img, resize.Lanczos3)
	}

	dir := filepath.Join(b.opts.Dir, flowID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%02d.png", variation, step))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encode screenshot: %w", err)
	}

	if b.opts.GIF {
		b.mu.Lock()
		key := flowID + "/" + variation
		b.frames[key] = append(b.frames[key], img)
		b.mu.Unlock()
	}
	return path, nil
}

// Finish writes <dir>/<flowID>/<variation>.gif from the saved steps and
// forgets them. It returns "" when GIFs are off or nothing was saved.
func (b *Board) Finish(flowID, variation string) (string, error) {
	if !b.opts.GIF {
		return "", nil
	}
	key := flowID + "/" + variation
	b.mu.Lock()
	frames := b.frames[key]
	delete(b.frames, key)
	b.mu.Unlock()
	if len(frames) == 0 {
		return "", nil
	}

	path := filepath.Join(b.opts.Dir, flowID, variation+".gif")
	if _, err := Generate(frames, path, b.opts.MaxWidth, b.opts.StepDelay); err != nil {
		return "", err
	}
	return path, nil
}

// Generate creates a GIF from frames, each shown for delay hundredths of a
// second, and returns the file size
func Generate(frames []image.Image, outputPath string, maxWidth uint, delay int) (int64, error) {
	if len(frames) == 0 {
		return 0, nil
	}

	bounds := frames[0].Bounds()
	outputWidth := maxWidth
	if outputWidth == 0 || outputWidth > uint(bounds.Dx()) {
		outputWidth = uint(bounds.Dx())
	}
	aspectRatio := float64(bounds.Dy()) / float64(bounds.Dx())
	outputHeight := uint(float64(outputWidth) * aspectRatio)

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
	}

	palette := generatePalette(frames[0])
	for i, frame := range frames {
		resized := resize.Resize(outputWidth, outputHeight, frame, resize.Lanczos3)
		paletted := image.NewPaletted(resized.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, resized.Bounds(), resized, image.Point{})
		g.Image[i] = paletted
		g.Delay[i] = delay
	}
	// Hold the last step a little longer before looping
	g.Delay[len(frames)-1] = delay * 2

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := gif.EncodeAll(f, g); err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// generatePalette builds a 256-color palette from the most frequent
// colors of a sampled image
func generatePalette(img image.Image) color.Palette {
	bounds := img.Bounds()
	colorMap := make(map[color.RGBA]int)

	step := 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			c := color.RGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: uint8(a >> 8),
			}
			colorMap[c]++
		}
	}

	type colorCount struct {
		c     color.RGBA
		count int
	}
	colors := make([]colorCount, 0, len(colorMap))
	for c, count := range colorMap {
		colors = append(colors, colorCount{c, count})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].count != colors[j].count {
			return colors[i].count > colors[j].count
		}
		return colorKey(colors[i].c) < colorKey(colors[j].c)
	})

	palette := make(color.Palette, 0, 256)
	palette = append(palette, color.RGBA{0, 0, 0, 0})
	for i := 0; i < len(colors) && len(palette) < 256; i++ {
		palette = append(palette, colors[i].c)
	}
	for len(palette) < 256 {
		gray := uint8(len(palette))
		palette = append(palette, color.RGBA{gray, gray, gray, 255})
	}
	return palette
}

func colorKey(c color.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}
