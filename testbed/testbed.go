// Package testbed ships a small sample lure and its accessory libraries.
// The CLI demo writes them to disk; tests load them straight from memory.
package testbed

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/lurekit/engine/assets/loaders"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

//go:embed assets/*.lure.yaml
var files embed.FS

const (
	LureFile  = "lure.lure.yaml"
	HooksFile = "hooks.lure.yaml"
	BillsFile = "bills.lure.yaml"
)

// Known geometry of the sample lure.
const (
	// LureLength is the body extent along X in model units.
	LureLength = 8.0
	// ReferenceLength is the calibration reference extent in model units.
	ReferenceLength = 2.0
	// ReferenceCm is the physical length the reference stands for.
	ReferenceCm = 4.0
)

func load(name string) (*scene.Asset, error) {
	data, err := files.ReadFile("assets/" + name)
	if err != nil {
		return nil, err
	}
	return loaders.ParseScene(name, data)
}

func mustLoad(name string) *scene.Asset {
	a, err := load(name)
	if err != nil {
		panic(fmt.Sprintf("testbed asset %s: %s", name, err))
	}
	return a
}

// NewLure returns a fresh instance of the sample crankbait.
func NewLure() *scene.Asset {
	return mustLoad(LureFile)
}

// NewHookLibrary returns the treble hook library with variants 2, 4 and 6.
func NewHookLibrary() *scene.Asset {
	return mustLoad(HooksFile)
}

// NewBillLibrary returns the diving bill library with variants short, medium and long.
func NewBillLibrary() *scene.Asset {
	return mustLoad(BillsFile)
}

// Libraries returns fresh libraries keyed by the default family names.
func Libraries() map[string]*scene.Asset {
	return map[string]*scene.Asset{
		"hooks": NewHookLibrary(),
		"bills": NewBillLibrary(),
	}
}

// WriteAssets copies the sample assets into dir, creating it if needed.
func WriteAssets(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return fs.WalkDir(files, "assets", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := files.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, filepath.Base(path)), data, 0644)
	})
}
