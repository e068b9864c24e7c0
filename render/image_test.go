package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoshinonyaruko/snake-web/structs"
)

type spriteMap map[string]image.Image

func (m spriteMap) Get(name string) (image.Image, bool) {
	img, ok := m[name]
	return img, ok
}

func solid(size int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func decodeFrame(t *testing.T, r *Image) image.Image {
	t.Helper()
	data, ok := r.Frame()
	if !ok {
		t.Fatal("no frame rendered")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return img
}

func rgb(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

var testSnap = structs.Snapshot{
	TileCount: 5,
	Snake:     []structs.Position{{X: 3, Y: 4}, {X: 2, Y: 4}},
	Food:      structs.Position{X: 1, Y: 3},
	Score:     2,
	State:     structs.Running,
}

func TestImageDrawsSnakeAndFood(t *testing.T) {
	r := NewImage(10, nil, "")
	if _, ok := r.Frame(); ok {
		t.Fatal("Frame available before any render")
	}
	if err := r.Render(testSnap); err != nil {
		t.Fatalf("Render: %v", err)
	}
	img := decodeFrame(t, r)

	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Fatalf("frame is %dx%d, want 50x50", b.Dx(), b.Dy())
	}
	if red, green, _ := rgb(img, 14, 34); red < 200 || green > 50 {
		t.Errorf("food pixel = (%d,%d), want red", red, green)
	}
	for _, p := range [][2]int{{34, 44}, {24, 44}} {
		if red, green, _ := rgb(img, p[0], p[1]); green < 200 || red > 50 {
			t.Errorf("snake pixel %v = (%d,%d), want green", p, red, green)
		}
	}
	if red, green, blue := rgb(img, 44, 24); red < 200 || green < 200 || blue < 200 {
		t.Errorf("empty cell = (%d,%d,%d), want white", red, green, blue)
	}
}

func TestImageUsesSprites(t *testing.T) {
	blue := color.RGBA{0, 0, 255, 255}
	r := NewImage(10, spriteMap{"food.png": solid(10, blue)}, "")
	if err := r.Render(testSnap); err != nil {
		t.Fatal(err)
	}
	img := decodeFrame(t, r)
	if red, green, b := rgb(img, 14, 34); b < 200 || red > 50 || green > 50 {
		t.Errorf("food pixel = (%d,%d,%d), want the blue sprite", red, green, b)
	}
	// no head sprite: falls back to a green tile
	if red, green, _ := rgb(img, 34, 44); green < 200 || red > 50 {
		t.Errorf("head pixel = (%d,%d), want green", red, green)
	}
}

func TestImageWritesOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "output", "snake.png")
	r := NewImage(10, nil, out)
	over := testSnap
	over.State = structs.GameOver
	if err := r.Render(over); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	frame, _ := r.Frame()
	if !bytes.Equal(data, frame) {
		t.Error("saved file differs from the in-memory frame")
	}
}
