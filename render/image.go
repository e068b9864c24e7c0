package render

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
	"github.com/hoshinonyaruko/snake-web/structs"
)

// Sprites looks up a pre-scaled tile image by file name.
type Sprites interface {
	Get(name string) (image.Image, bool)
}

const (
	headSprite = "head.png"
	bodySprite = "body.png"
	foodSprite = "food.png"

	tileFill = 0.9 // 方块占格子的比例，留出缝隙
)

// Image 把快照画成 PNG，保存最近一帧供 HTTP 读取
type Image struct {
	blockSize  int
	sprites    Sprites
	outputPath string

	backgrounds sync.Map // 网格背景缓存，key 为 "tileCount_blockSize"

	mu    sync.RWMutex
	frame []byte
}

// NewImage creates a PNG renderer. sprites may be nil; outputPath may be
// empty to keep frames in memory only.
func NewImage(blockSize int, sprites Sprites, outputPath string) *Image {
	return &Image{
		blockSize:  blockSize,
		sprites:    sprites,
		outputPath: outputPath,
	}
}

func (r *Image) Render(snap structs.Snapshot) error {
	size := snap.TileCount * r.blockSize
	dc := gg.NewContext(size, size)
	dc.DrawImage(r.background(snap.TileCount), 0, 0)

	r.drawTile(dc, snap.Food, foodSprite, 1, 0, 0)
	for i, seg := range snap.Snake {
		name := bodySprite
		if i == 0 {
			name = headSprite
		}
		r.drawTile(dc, seg, name, 0, 1, 0)
	}

	dc.SetRGB(0.2, 0.2, 0.2)
	dc.DrawString(fmt.Sprintf("Score: %d", snap.Score), 4, 12)

	if snap.State == structs.GameOver {
		dc.SetRGBA(0, 0, 0, 0.5)
		dc.DrawRectangle(0, 0, float64(size), float64(size))
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(fmt.Sprintf("Game Over! Your score: %d", snap.Score), float64(size)/2, float64(size)/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return err
	}
	r.mu.Lock()
	r.frame = buf.Bytes()
	r.mu.Unlock()

	if r.outputPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.outputPath), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(r.outputPath, buf.Bytes(), 0644)
}

// Frame returns the last rendered PNG.
func (r *Image) Frame() ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frame, r.frame != nil
}

func (r *Image) drawTile(dc *gg.Context, p structs.Position, sprite string, red, green, blue float64) {
	x, y := p.X*r.blockSize, p.Y*r.blockSize
	if r.sprites != nil {
		if img, ok := r.sprites.Get(sprite); ok {
			dc.DrawImage(img, x, y)
			return
		}
	}
	side := float64(r.blockSize) * tileFill
	dc.SetRGB(red, green, blue)
	dc.DrawRectangle(float64(x), float64(y), side, side)
	dc.Fill()
}

func (r *Image) background(tileCount int) image.Image {
	key := fmt.Sprintf("%d_%d", tileCount, r.blockSize)
	if cached, ok := r.backgrounds.Load(key); ok {
		return cached.(image.Image)
	}

	size := tileCount * r.blockSize
	dc := gg.NewContext(size, size)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0.9, 0.9, 0.9)
	for v := 0; v <= size; v += r.blockSize {
		dc.DrawLine(float64(v), 0, float64(v), float64(size))
		dc.Stroke()
		dc.DrawLine(0, float64(v), float64(size), float64(v))
		dc.Stroke()
	}
	img := dc.Image()
	r.backgrounds.Store(key, img)
	return img
}
