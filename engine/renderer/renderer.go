package renderer

import (
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/scene"
)

type RendererType uint8

const (
	OpenGL RendererType = iota
	Headless
)

func (t RendererType) String() string {
	switch t {
	case OpenGL:
		return "opengl"
	case Headless:
		return "headless"
	}
	return "unknown"
}

/**
 * @brief What the frame loop hands to the renderer each frame.
 */
type RenderPacket struct {
	DeltaTime float64
	Scene     *scene.Scene
}

/**
 * @brief Deferred renderer front end. Owns the context, the batcher and the
 * uploaders; everything runs on the thread that owns the GPU context.
 */
type Renderer struct {
	ctx       *RendererContext
	batcher   *Batcher
	materials *MaterialUploader
	lights    *LightUploader

	lightSpace mgl32.Mat4
	frame      uint64
}

// NewRenderer builds the context on an initialized backend. Pass programs are
// read from shaders, or from the embedded sources when shaders is nil.
func NewRenderer(backend Backend, cfg config.RendererConfig, width, height uint32, shaders fs.FS) (*Renderer, error) {
	ctx, err := NewRendererContext(backend, cfg, width, height, shaders)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		ctx:        ctx,
		batcher:    NewBatcher(ctx),
		materials:  NewMaterialUploader(backend, ctx.Materials, cfg.Capacity.MaxMaterials),
		lights:     NewLightUploader(ctx),
		lightSpace: mgl32.Ident4(),
	}, nil
}

func (r *Renderer) Context() *RendererContext {
	return r.ctx
}

func (r *Renderer) Materials() *MaterialUploader {
	return r.materials
}

func (r *Renderer) Lights() *LightUploader {
	return r.lights
}

// LightSpace is the light-space matrix used by the last frame.
func (r *Renderer) LightSpace() mgl32.Mat4 {
	return r.lightSpace
}

func (r *Renderer) Stats() RendererStatistics {
	return r.ctx.Stats
}

// RenderOutput is the texture ID of the lit image.
func (r *Renderer) RenderOutput() uint32 {
	colors := r.ctx.Output.ColorAttachments()
	if len(colors) == 0 {
		return 0
	}
	return colors[0].ID
}

func (r *Renderer) DrawFrame(packet *RenderPacket) error {
	if packet.Scene == nil {
		return nil
	}
	if err := r.RenderScene(packet.Scene); err != nil {
		core.LogError("failed to render frame %d: %s", r.frame, err)
		return err
	}
	r.frame++
	return nil
}

// Presenter is implemented by backends that can show a frame in a window.
type Presenter interface {
	Present(src *metadata.Framebuffer, width, height uint32)
}

// WaitIdle blocks until the GPU is done with the last frame, after which
// resources it read can be destroyed.
func (r *Renderer) WaitIdle() {
	r.waitFence()
}

// Present copies the lit image to the window when the backend can.
func (r *Renderer) Present(width, height uint32) bool {
	p, ok := r.ctx.Backend.(Presenter)
	if !ok {
		return false
	}
	p.Present(r.ctx.Output, width, height)
	return true
}

// OnResize follows EVENT_CODE_RESIZED. Zero sizes (minimized windows) are
// ignored.
func (r *Renderer) OnResize(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	if code != core.EVENT_CODE_RESIZED {
		return false
	}
	width, height := data.Data.U32[0], data.Data.U32[1]
	if width == 0 || height == 0 {
		return false
	}
	if err := r.ctx.Resize(width, height); err != nil {
		return false
	}
	core.LogDebug("renderer resized to %dx%d", width, height)
	return false
}

func (r *Renderer) Shutdown() error {
	r.ctx.Destroy()
	return nil
}
