package art

import (
	"context"
	"crypto/md5"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Cache renders card images once and keeps the ANSI art on disk.
type Cache struct {
	Dir       string
	Width     int
	Height    int
	TrueColor bool
	Client    *http.Client
}

// NewCache returns a cache under dir with the default art size.
func NewCache(dir string, trueColor bool) *Cache {
	return &Cache{
		Dir:       dir,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		TrueColor: trueColor,
		Client:    http.DefaultClient,
	}
}

// Path returns the cache file for an image source.
func (c *Cache) Path(src string) string {
	key := fmt.Sprintf("%s|%dx%d|%t", src, c.Width, c.Height, c.TrueColor)
	return filepath.Join(c.Dir, fmt.Sprintf("%x.ansi", md5.Sum([]byte(key))))
}

// Load returns the ANSI art for src, a local path or an http(s) URL,
// rendering and caching it on first use.
func (c *Cache) Load(ctx context.Context, src string) (string, error) {
	if src == "" {
		return "", fmt.Errorf("card has no image")
	}
	cachePath := c.Path(src)
	if data, err := os.ReadFile(cachePath); err == nil {
		return string(data), nil
	}

	img, err := c.decode(ctx, src)
	if err != nil {
		return "", err
	}
	out := Render(img, c.Width, c.Height, c.TrueColor)

	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create ANSI cache directory: %v", err)
	}
	if err := os.WriteFile(cachePath, []byte(out), 0644); err != nil {
		return "", fmt.Errorf("failed to write ANSI art to file: %v", err)
	}
	return out, nil
}

func (c *Cache) decode(ctx context.Context, src string) (image.Image, error) {
	var r io.Reader
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		client := c.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch image: %s", resp.Status)
		}
		r = resp.Body
	} else {
		file, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %v", err)
		}
		defer file.Close()
		r = file
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	return img, nil
}
