package main

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"sort"
	"strconv"
	"strings"
)

// textureFlag collects -texture id=path values.
type textureFlag map[int]string

func (t textureFlag) String() string {
	ids := make([]int, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d=%s", id, t[id])
	}
	return strings.Join(parts, ",")
}

func (t textureFlag) Set(v string) error {
	id, path, ok := strings.Cut(v, "=")
	if !ok || path == "" {
		return fmt.Errorf("expected id=path, got %q", v)
	}
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return fmt.Errorf("texture id must be a positive integer, got %q", id)
	}
	t[n] = path
	return nil
}

// load decodes every texture image.
func (t textureFlag) load() (map[int]image.Image, error) {
	out := make(map[int]image.Image, len(t))
	for id, path := range t {
		img, err := decodeImage(path)
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", id, err)
		}
		out[id] = img
	}
	return out, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
