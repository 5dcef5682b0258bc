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
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/resources"
	"github.com/spaghettifunk/lumen/engine/systems"
	"golang.org/x/exp/slices"
)

type AssetKind uint32

const (
	AssetNone AssetKind = iota
	AssetImage
	AssetMaterial
	AssetMesh
	AssetEnvironment
	AssetShader
)

func (k AssetKind) String() string {
	switch k {
	case AssetImage:
		return "image"
	case AssetMaterial:
		return "material"
	case AssetMesh:
		return "mesh"
	case AssetEnvironment:
		return "environment"
	case AssetShader:
		return "shader"
	}
	return "none"
}

type AssetInfo struct {
	Path       string
	Kind       AssetKind
	LastLoaded time.Time
}

/**
 * @brief A decoded asset waiting to be applied on the render thread. It is the
 * sender of EVENT_CODE_ASSET_RELOADED.
 */
type Reloaded struct {
	Path string
	Kind AssetKind
	Data interface{}
}

const resultQueueSize = 64

var ErrManagerClosed = errors.New("asset manager already closed")

/**
 * @brief Indexes the asset directory and, when watching, decodes changed
 * files on a worker pool. Decoded results reach the cache only through
 * Apply, which must be called from the render thread.
 */
type AssetManager struct {
	dir     string
	assets  map[string]AssetInfo
	loaders map[AssetKind]Loader

	mutex sync.RWMutex
	// paths being decoded, and those that changed again meanwhile
	inflight map[string]bool
	stale    map[string]bool

	jobs     *systems.JobSystem
	fsnotify *fsnotify.Watcher
	results  chan Reloaded
	done     chan struct{}
	wg       sync.WaitGroup
	isClosed bool
}

func NewAssetManager(workers int) (*AssetManager, error) {
	jobs, err := systems.NewJobSystem(workers, resultQueueSize)
	if err != nil {
		return nil, err
	}
	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  defaultLoaders(),
		inflight: make(map[string]bool),
		stale:    make(map[string]bool),
		jobs:     jobs,
		results:  make(chan Reloaded, resultQueueSize),
		done:     make(chan struct{}),
	}, nil
}

// Initialize indexes every asset under assetsDir. With watch set, changes to
// the directory tree are decoded in the background.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	am.dir = assetsDir
	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		am.fsnotify = w
	}
	if err := am.watchRecursive(assetsDir); err != nil {
		return err
	}
	if am.fsnotify != nil {
		am.wg.Add(1)
		go am.start()
	}
	core.LogInfo("indexed %d assets under '%s' (watching: %t)", am.Len(), assetsDir, watch)
	return nil
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	var err error
	if am.fsnotify != nil {
		err = am.fsnotify.Close()
	}
	am.wg.Wait()
	if jerr := am.jobs.Shutdown(); err == nil {
		err = jerr
	}
	return err
}

// KindOf tells the asset kind from the file name.
func KindOf(path string) AssetKind {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".mat.toml") {
		return AssetMaterial
	}
	switch filepath.Ext(name) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return AssetImage
	case ".mesh":
		return AssetMesh
	case ".cube":
		return AssetEnvironment
	case ".vert", ".frag", ".geom":
		return AssetShader
	}
	return AssetNone
}

func (am *AssetManager) Dir() string {
	return am.dir
}

func (am *AssetManager) Len() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

func (am *AssetManager) Info(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[cleanPath(path)]
	return info, ok
}

// Assets returns the index sorted by path.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	out := make([]AssetInfo, 0, len(am.assets))
	for _, info := range am.assets {
		out = append(out, info)
	}
	am.mutex.RUnlock()
	slices.SortFunc(out, func(a, b AssetInfo) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// Decode runs the loader of path on the calling goroutine.
func (am *AssetManager) Decode(path string) (interface{}, error) {
	kind := KindOf(path)
	loader, ok := am.loaders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no loader for '%s'", core.ErrUnsupportedFormat, path)
	}
	return loader.Load(path)
}

// Request schedules path for decoding as if it had changed on disk.
func (am *AssetManager) Request(path string) error {
	path = cleanPath(path)
	kind := KindOf(path)
	if kind == AssetNone {
		return fmt.Errorf("%w: no loader for '%s'", core.ErrUnsupportedFormat, path)
	}
	am.mutex.RLock()
	closed := am.isClosed
	am.mutex.RUnlock()
	if closed {
		return ErrManagerClosed
	}
	am.schedule(path, kind)
	return nil
}

// Idler blocks until the GPU has finished every command submitted so far.
type Idler interface {
	WaitIdle()
}

/**
 * @brief Applies every decoded result waiting in the queue and fires
 * EVENT_CODE_ASSET_RELOADED for each one that took effect. Results for
 * assets the cache does not hold are dropped; shader results are always
 * forwarded to the listeners.
 * @param gpu Waited on once before the first result, since applying one
 * destroys textures the last frame may still sample. May be nil.
 * @return the number of events fired.
 */
func (am *AssetManager) Apply(cache *resources.Cache, bus *core.EventBus, gpu Idler) int {
	n := 0
	waited := false
	for {
		select {
		case r := <-am.results:
			if !waited && gpu != nil {
				gpu.WaitIdle()
				waited = true
			}
			if !am.apply(cache, r) {
				continue
			}
			ctx := core.EventContext{}
			ctx.Data.U32[0] = uint32(r.Kind)
			bus.Fire(core.EVENT_CODE_ASSET_RELOADED, &r, ctx)
			n++
		default:
			return n
		}
	}
}

func (am *AssetManager) apply(cache *resources.Cache, r Reloaded) bool {
	var err error
	switch r.Kind {
	case AssetImage:
		tex, ok := resources.GetByPath[resources.ImageTexture](cache, r.Path)
		if !ok {
			return false
		}
		data := r.Data.(*loaders.ImageData)
		if tex.FlipY {
			data.Flip()
		}
		err = tex.Upload(data)
	case AssetMaterial:
		if _, ok := resources.GetByPath[resources.Material](cache, r.Path); !ok {
			return false
		}
		// texture paths resolve through the cache
		err = cache.Reload(r.Path)
	case AssetMesh:
		mesh, ok := resources.GetByPath[resources.Mesh](cache, r.Path)
		if !ok {
			return false
		}
		data := r.Data.(*resources.MeshData)
		// entities hold one material reference per submesh
		if len(data.SubMeshes) != len(mesh.SubMeshes) {
			err = fmt.Errorf("%w: reload has %d submeshes, the cached mesh has %d",
				core.ErrInvalidSubMesh, len(data.SubMeshes), len(mesh.SubMeshes))
			break
		}
		mesh.Vertices = data.Vertices
		mesh.Indices = data.Indices
		mesh.SubMeshes = data.SubMeshes
	case AssetEnvironment:
		env, ok := resources.GetByPath[resources.Environment](cache, r.Path)
		if !ok {
			return false
		}
		faces := r.Data.(*EnvironmentFaces)
		if err = env.Upload(faces.Images); err == nil {
			env.Faces = faces.List.Faces
		}
	case AssetShader:
	default:
		return false
	}
	if err != nil {
		core.LogError("failed to apply %s '%s': %s", r.Kind, r.Path, err)
		return false
	}

	am.mutex.Lock()
	if info, ok := am.assets[r.Path]; ok {
		info.LastLoaded = time.Now()
		am.assets[r.Path] = info
	}
	am.mutex.Unlock()
	core.LogDebug("applied %s '%s'", r.Kind, r.Path)
	return true
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s.IsDir() {
		if e.Op&fsnotify.Create != 0 {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogError("failed to watch '%s': %s", e.Name, err)
			}
		}
		return
	}
	// Handle create or modify events
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if kind := am.handleFileEvent(e.Name); kind != AssetNone {
			am.schedule(cleanPath(e.Name), kind)
		}
	}
	// a removed path cannot be stat'ed, it may have been a directory
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
		_ = am.fsnotify.Remove(e.Name)
	}
}

// schedule decodes path on a worker. A path already being decoded is decoded
// once more after the current job finishes.
func (am *AssetManager) schedule(path string, kind AssetKind) {
	am.mutex.Lock()
	if am.inflight[path] {
		am.stale[path] = true
		am.mutex.Unlock()
		return
	}
	am.inflight[path] = true
	am.mutex.Unlock()

	loader := am.loaders[kind]
	submitted := am.jobs.Submit(systems.JobTask{
		InputParams: path,
		OnStart: func(params interface{}) (interface{}, error) {
			return loader.Load(params.(string))
		},
		OnComplete: func(result interface{}) {
			am.deliver(Reloaded{Path: path, Kind: kind, Data: result})
			am.finish(path, kind)
		},
		OnFailure: func(err error) {
			am.finish(path, kind)
		},
	})
	if !submitted {
		am.finish(path, kind)
	}
}

func (am *AssetManager) deliver(r Reloaded) {
	select {
	case am.results <- r:
	case <-am.done:
	}
}

func (am *AssetManager) finish(path string, kind AssetKind) {
	am.mutex.Lock()
	delete(am.inflight, path)
	again := am.stale[path] && !am.isClosed
	delete(am.stale, path)
	am.mutex.Unlock()

	if again {
		// off the worker, Submit may block on a full queue
		go am.schedule(path, kind)
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files it finds.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			am.handleFileEvent(walkPath)
			return nil
		}
		if am.fsnotify == nil {
			return nil
		}
		return am.fsnotify.Add(walkPath)
	})
}

// handleFileEvent indexes a created or modified file.
func (am *AssetManager) handleFileEvent(path string) AssetKind {
	kind := KindOf(path)
	if kind == AssetNone {
		return kind
	}
	path = cleanPath(path)

	am.mutex.Lock()
	defer am.mutex.Unlock()
	if _, ok := am.assets[path]; !ok {
		am.assets[path] = AssetInfo{Path: path, Kind: kind}
	}
	return kind
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, cleanPath(path))
}

func cleanPath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}
