package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/lurekit/engine/assets/loaders"
	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/resources"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// TexturesDir is the sub-directory of the assets root holding textures.
const TexturesDir = "textures"

type AssetInfo struct {
	Path       string
	Type       resources.ResourceType
	LastLoaded time.Time
	// Resource is the cached loaded resource, nil until first load.
	Resource *resources.Resource
}

// AssetManager indexes the assets directory, loads scenes and textures on
// demand, caches them by path and evicts the cache when files change on disk.
type AssetManager struct {
	assetsDir string
	assets    map[string]*AssetInfo
	loaders   map[resources.ResourceType]Loader
	bus       *core.EventBus

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager(bus *core.EventBus) (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if bus == nil {
		bus = core.NewEventBus()
	}

	am := &AssetManager{
		assets:   make(map[string]*AssetInfo),
		loaders:  make(map[resources.ResourceType]Loader),
		bus:      bus,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(resources.ResourceTypeScene, &loaders.SceneLoader{})
	am.registerLoader(resources.ResourceTypeTexture, &loaders.TextureLoader{})

	return am, nil
}

// Initialize indexes assetsDir and starts watching it for changes.
func (am *AssetManager) Initialize(assetsDir string) error {
	abs, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.assetsDir = abs

	if err := am.addRecursive(abs); err != nil {
		return err
	}

	am.wg.Add(1)
	go am.start()
	return nil
}

// AssetsDir returns the absolute assets root.
func (am *AssetManager) AssetsDir() string {
	return am.assetsDir
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return core.ErrManagerClosed
	}
	return am.watchRecursive(name, false)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType resources.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

func (am *AssetManager) resolve(path string) string {
	if !filepath.IsAbs(path) && am.assetsDir != "" {
		path = filepath.Join(am.assetsDir, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// LoadAsset returns the scene asset at path, relative to the assets root
// unless absolute. Repeated calls return the same instance until the file
// changes on disk.
func (am *AssetManager) LoadAsset(path string) (*scene.Asset, error) {
	res, err := am.load(am.resolve(path), resources.ResourceTypeScene)
	if err != nil {
		return nil, err
	}
	asset, ok := res.Data.(*scene.Asset)
	if !ok {
		return nil, fmt.Errorf("resource %s is not a scene", res.FullPath)
	}
	return asset, nil
}

// LoadTexture resolves a texture identifier to textures/<id>.<ext>.
func (am *AssetManager) LoadTexture(id string) (*scene.Texture, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty texture id", core.ErrAssetNotFound)
	}
	for _, ext := range loaders.TextureExtensions {
		path := am.resolve(filepath.Join(TexturesDir, id+ext))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		res, err := am.load(path, resources.ResourceTypeTexture)
		if err != nil {
			return nil, err
		}
		return res.Data.(*scene.Texture), nil
	}
	return nil, fmt.Errorf("%w: texture '%s'", core.ErrAssetNotFound, id)
}

// Texture implements scene.TextureSource.
func (am *AssetManager) Texture(id string) (*scene.Texture, bool) {
	t, err := am.LoadTexture(id)
	if err != nil {
		core.LogDebug("texture '%s' unavailable: %s", id, err.Error())
		return nil, false
	}
	return t, true
}

func (am *AssetManager) load(path string, resourceType resources.ResourceType) (*resources.Resource, error) {
	am.mutex.RLock()
	closed := am.isClosed
	info, exists := am.assets[path]
	if exists && info.Resource != nil {
		res := info.Resource
		am.mutex.RUnlock()
		return res, nil
	}
	am.mutex.RUnlock()
	if closed {
		return nil, core.ErrManagerClosed
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrAssetNotFound, path)
		}
		return nil, err
	}

	loader, loaderExists := am.loaders[resourceType]
	if !loaderExists {
		return nil, fmt.Errorf("%w: no loader registered for asset type %s", core.ErrUnknownAssetType, resourceType)
	}
	res, err := loader.Load(path, resourceType, nil)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	// Another caller may have loaded it first; keep a single instance.
	if info, ok := am.assets[path]; ok && info.Resource != nil {
		return info.Resource, nil
	}
	am.assets[path] = &AssetInfo{
		Path:       path,
		Type:       resourceType,
		LastLoaded: time.Now(),
		Resource:   res,
	}
	core.LogDebug("loaded %s '%s'", resourceType, path)
	return res, nil
}

// Close stops the watcher. Further loads fail with ErrManagerClosed.
func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	for path, info := range am.assets {
		if info.Resource != nil {
			if loader, ok := am.loaders[info.Type]; ok {
				if err := loader.Unload(info.Resource); err != nil {
					core.LogWarn("failed to unload '%s': %s", path, err.Error())
				}
			}
		}
	}
	am.assets = make(map[string]*AssetInfo)
	am.mutex.Unlock()

	close(am.done)
	am.wg.Wait()
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("failed to watch '%s': %s", e.Name, err.Error())
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			// Renames look like removals of the old name.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(e.Error())

		case <-am.done:
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list.
// A file created before its directory watch is in place is picked up by the
// indexing walk rather than by an event.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.indexFile(walkPath)
		return nil
	})
}

func (am *AssetManager) indexFile(path string) {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return
	}
	path = am.resolve(path)
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if _, ok := am.assets[path]; !ok {
		am.assets[path] = &AssetInfo{Path: path, Type: assetType}
	}
}

// Handle the creation or modification of a file: evict the cached instance
// and tell listeners which instance went stale.
func (am *AssetManager) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return
	}
	path = am.resolve(path)

	am.mutex.Lock()
	info, ok := am.assets[path]
	var stale *resources.Resource
	if ok {
		stale = info.Resource
	}
	am.assets[path] = &AssetInfo{Path: path, Type: assetType}
	am.mutex.Unlock()

	if stale == nil {
		return
	}
	core.LogInfo("asset '%s' changed on disk, reloading", path)
	am.bus.Fire(core.EVENT_CODE_ASSET_RELOADED, am, core.EventContext{
		Path:    path,
		AssetID: resourceAssetID(stale),
	})
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	path = am.resolve(path)
	am.mutex.Lock()
	info, ok := am.assets[path]
	delete(am.assets, path)
	am.mutex.Unlock()

	if !ok || info.Resource == nil {
		return
	}
	core.LogWarn("asset '%s' was removed from disk", path)
	am.bus.Fire(core.EVENT_CODE_ASSET_REMOVED, am, core.EventContext{
		Path:    path,
		AssetID: resourceAssetID(info.Resource),
	})
}

func resourceAssetID(res *resources.Resource) string {
	if a, ok := res.Data.(*scene.Asset); ok {
		return a.ID
	}
	return ""
}

func determineAssetType(path string) resources.ResourceType {
	switch {
	case strings.HasSuffix(path, loaders.SceneExtension):
		return resources.ResourceTypeScene
	case loaders.IsTexturePath(path):
		return resources.ResourceTypeTexture
	default:
		return resources.ResourceTypeNone
	}
}
