package scene

// Texture describes an image registered for material use. Pixel data stays
// with the renderer; the composition core only needs to know a texture exists.
type Texture struct {
	Name   string
	Path   string
	Format string
	Width  int
	Height int
}

// Aspect returns width over height, or 1 for a degenerate texture.
func (t *Texture) Aspect() float32 {
	if t == nil || t.Height == 0 {
		return 1
	}
	return float32(t.Width) / float32(t.Height)
}

// TextureSource resolves texture identifiers to registered textures.
type TextureSource interface {
	Texture(id string) (*Texture, bool)
}

// TextureMap is an in-memory TextureSource.
type TextureMap map[string]*Texture

func (m TextureMap) Texture(id string) (*Texture, bool) {
	t, ok := m[id]
	return t, ok && t != nil
}
