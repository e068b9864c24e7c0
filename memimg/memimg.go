// 贴图缓存：启动时载入目录里的图片，并监听目录热更新到内存
package memimg

import (
	"context"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
)

// Cache holds sprites scaled to one block size, keyed by file name.
type Cache struct {
	blockSize int

	mu     sync.RWMutex
	images map[string]image.Image
}

func New(blockSize int) *Cache {
	return &Cache{
		blockSize: blockSize,
		images:    make(map[string]image.Image),
	}
}

// Load 载入目录下所有图片，无法解码的文件会被跳过
func (c *Cache) Load(directory string) error {
	return filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isImage(path) {
			return nil
		}
		if err := c.loadFile(path); err != nil {
			log.Printf("skip sprite %s: %v", path, err)
		}
		return nil
	})
}

// Watch reloads sprites that are written, created or removed in directory
// until ctx is cancelled. The directory is being watched when Watch returns.
func (c *Cache) Watch(ctx context.Context, directory string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(directory); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				c.handle(event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("sprite watcher error: %v", err)
			}
		}
	}()
	return nil
}

func (c *Cache) handle(event fsnotify.Event) {
	if !isImage(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		// 文件可能还没写完，解码失败就等下一次 Write
		if err := c.loadFile(event.Name); err == nil {
			log.Printf("sprite %s reloaded", filepath.Base(event.Name))
		}
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		c.mu.Lock()
		delete(c.images, filepath.Base(event.Name))
		c.mu.Unlock()
	}
}

func (c *Cache) loadFile(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		return err
	}
	scaled := imaging.Resize(img, c.blockSize, c.blockSize, imaging.Lanczos)
	c.mu.Lock()
	c.images[filepath.Base(path)] = scaled
	c.mu.Unlock()
	return nil
}

// Get returns the scaled sprite for a file name such as "head.png".
func (c *Cache) Get(name string) (image.Image, bool) {
	c.mu.RLock()
	img, ok := c.images[name]
	c.mu.RUnlock()
	return img, ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

func isImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
