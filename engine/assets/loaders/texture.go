package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/lurekit/engine/resources"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// TextureExtensions lists the image formats the texture loader can decode.
var TextureExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}

type TextureLoader struct{}

func (tl *TextureLoader) Load(path string, assetType resources.ResourceType, params interface{}) (*resources.Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	// Only the header is decoded; pixel upload belongs to the renderer.
	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %s: %w", path, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("texture %s has zero size", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &resources.Resource{
		Name:     name,
		FullPath: path,
		Type:     resources.ResourceTypeTexture,
		DataSize: uint64(info.Size()),
		Data: &scene.Texture{
			Name:   name,
			Path:   path,
			Format: format,
			Width:  cfg.Width,
			Height: cfg.Height,
		},
	}, nil
}

func (tl *TextureLoader) Unload(*resources.Resource) error {
	return nil
}

// IsTexturePath reports whether path has a decodable image extension.
func IsTexturePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range TextureExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
