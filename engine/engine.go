package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/lumen/engine/assets"
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/spaghettifunk/lumen/engine/renderer/opengl"
	"github.com/spaghettifunk/lumen/engine/resources"
	"github.com/spaghettifunk/lumen/engine/scene"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const eventQueueSize = 256

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *config.Config
	isRunning    bool
	isSuspended  bool
	quit         atomic.Bool

	platform     *platform.Platform
	bus          *core.EventBus
	backend      renderer.Backend
	renderer     *renderer.Renderer
	cache        *resources.Cache
	scene        *scene.Scene
	assetManager *assets.AssetManager

	width    uint32
	height   uint32
	clock    *core.Clock
	metrics  *core.FrameMetrics
	lastTime float64
}

func New(g *Game) (*Engine, error) {
	cfg := g.Config
	if cfg == nil {
		cfg = config.Default()
		g.Config = cfg
	}
	core.SetLogLevel(cfg.LogLevel)

	am, err := assets.NewAssetManager(cfg.Application.DecodeWorkers)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		bus:          core.NewEventBus(eventQueueSize),
		assetManager: am,
		clock:        core.NewClock(),
		metrics:      core.NewFrameMetrics(),
		width:        cfg.Application.StartWidth,
		height:       cfg.Application.StartHeight,
		lastTime:     0,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageBooting
	app := e.config.Application

	// register some events
	e.bus.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.bus.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	e.bus.Register(core.EVENT_CODE_ASSET_RELOADED, e, e.onAssetReloaded)

	switch e.gameInstance.RendererType {
	case renderer.OpenGL:
		e.platform = platform.New(e.bus)
		if err := e.platform.Startup(app.Name, app.StartPosX, app.StartPosY, app.StartWidth, app.StartHeight, e.config.Renderer.GLDebug); err != nil {
			return err
		}
		e.width, e.height = e.platform.FramebufferSize()
		e.backend = opengl.New(e.config.Renderer.GLDebug)
	default:
		e.backend = headless.New()
	}
	if err := e.backend.Initialize(app.Name); err != nil {
		return err
	}
	core.LogInfo("%s backend initialized", e.gameInstance.RendererType)

	e.currentStage = EngineStageInitializing

	e.cache = resources.NewCache(e.backend)
	if err := e.cache.Initialize(); err != nil {
		return err
	}

	r, err := renderer.NewRenderer(e.backend, e.config.Renderer, e.width, e.height, e.shaderSources())
	if err != nil {
		return err
	}
	e.renderer = r
	e.bus.Register(core.EVENT_CODE_RESIZED, e.renderer, e.renderer.OnResize)

	e.scene = scene.NewScene(app.Name, e.cache, scene.NewStore(), e.width, e.height)
	e.bus.Register(core.EVENT_CODE_RESIZED, e.scene, e.scene.OnResize)

	if info, err := os.Stat(app.AssetDir); err == nil && info.IsDir() {
		if err := e.assetManager.Initialize(app.AssetDir, app.WatchAssets); err != nil {
			return err
		}
	} else {
		core.LogWarn("asset directory '%s' not found, hot reload is disabled", app.AssetDir)
	}

	e.gameInstance.Scene = e.scene
	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}
	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// shaderSources picks <asset dir>/shaders when it exists, so pass programs can
// be edited and reloaded. The embedded programs are used otherwise.
func (e *Engine) shaderSources() fs.FS {
	dir := filepath.Join(e.config.Application.AssetDir, "shaders")
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}
	core.LogInfo("reading pass programs from '%s'", dir)
	return os.DirFS(dir)
}

func (e *Engine) Run() error {
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()
	e.isRunning = true
	e.currentStage = EngineStageRunning

	var targetFrameSeconds float64 = 1.0 / 60.0

	for e.isRunning {
		if e.quit.Load() {
			e.isRunning = false
			break
		}
		if e.platform != nil && !e.platform.PumpMessages() {
			e.isRunning = false
			break
		}
		e.bus.Dispatch()
		if !e.isRunning {
			break
		}
		if e.isSuspended {
			continue
		}

		frameStart := e.clock.Elapsed()
		if err := e.Frame(); err != nil {
			core.LogError("render failed, shutting down: %s", err)
			e.isRunning = false
			return err
		}

		e.clock.Update()
		frameElapsed := e.clock.Elapsed() - frameStart
		e.metrics.Update(frameElapsed)

		// Without a window there is no vsync to pace the loop.
		remainingSeconds := targetFrameSeconds - frameElapsed
		if remainingSeconds > 0 && e.platform == nil {
			// If there is time left, give it back to the OS.
			time.Sleep(time.Duration(remainingSeconds * float64(time.Second)))
		}
	}
	return nil
}

/**
 * @brief Runs one frame: applies reloaded assets, updates the game and renders
 * the scene.
 */
func (e *Engine) Frame() error {
	e.clock.Update()
	currentTime := e.clock.Elapsed()
	delta := currentTime - e.lastTime
	e.lastTime = currentTime

	e.assetManager.Apply(e.cache, e.bus, e.renderer)

	if err := e.gameInstance.FnUpdate(delta); err != nil {
		core.LogError("game update failed: %s", err)
		return err
	}

	packet := &renderer.RenderPacket{DeltaTime: delta, Scene: e.scene}
	if err := e.gameInstance.FnRender(packet, delta); err != nil {
		core.LogError("game render failed: %s", err)
		return err
	}
	if err := e.renderer.DrawFrame(packet); err != nil {
		return err
	}

	if e.platform != nil {
		e.renderer.Present(e.width, e.height)
		e.platform.SwapBuffers()
	}
	return nil
}

// RequestQuit stops the frame loop before its next frame. Safe to call from
// any goroutine.
func (e *Engine) RequestQuit() {
	e.quit.Store(true)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("game shutdown failed: %s", err)
		}
	}
	if err := e.assetManager.Shutdown(); err != nil {
		core.LogError("failed to stop the asset watcher: %s", err)
	}
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			return err
		}
	}
	if e.cache != nil {
		if err := e.cache.Shutdown(); err != nil {
			return err
		}
	}
	if e.backend != nil {
		if err := e.backend.Shutdown(); err != nil {
			return err
		}
	}
	if err := e.bus.Shutdown(); err != nil {
		return err
	}
	if e.platform != nil {
		if err := e.platform.Shutdown(); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageUninitialized
	return nil
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Metrics() *core.FrameMetrics {
	return e.metrics
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	width, height := data.Data.U32[0], data.Data.U32[1]

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	// the renderer and the scene listen too
	return false
}

// onAssetReloaded marks whatever the reloaded asset feeds as dirty. Shader
// sources go straight to the renderer.
func (e *Engine) onAssetReloaded(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	switch assets.AssetKind(data.Data.U32[0]) {
	case assets.AssetImage, assets.AssetMaterial:
		// bindless handles and material records changed
		e.scene.MarkMaterialsDirty()
	case assets.AssetMesh:
		e.scene.MarkRegistryDirty()
	case assets.AssetShader:
		r, ok := sender.(*assets.Reloaded)
		if !ok {
			return false
		}
		if src, ok := r.Data.(*loaders.ShaderSources); ok {
			e.renderer.ReloadShader(src)
		}
	}
	return false
}
