// Package opengl implements the GPU layer on OpenGL 4.6 core with
// ARB_bindless_texture. Every call must come from the thread owning the
// context.
package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

var _ renderer.Backend = (*OpenGLRenderer)(nil)

type OpenGLRenderer struct {
	// FrameNumber counts fences inserted, one per frame.
	FrameNumber uint64

	debug bool
	// draw indirect buffer currently bound
	indirect uint32
}

func New(debug bool) *OpenGLRenderer {
	return &OpenGLRenderer{debug: debug}
}

// Initialize loads the GL entry points of the current context and sets the
// state every pass relies on.
func (r *OpenGLRenderer) Initialize(appName string) error {
	if err := gl.Init(); err != nil {
		core.LogError("failed to initialize OpenGL: %s", err)
		return err
	}
	core.LogInfo("%s running on OpenGL %s (%s)", appName, gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))

	if !hasExtension("GL_ARB_bindless_texture") {
		err := fmt.Errorf("%w: GL_ARB_bindless_texture", core.ErrUnsupportedFormat)
		core.LogError("the driver does not expose bindless textures")
		return err
	}

	if r.debug {
		gl.Enable(gl.DEBUG_OUTPUT)
		gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
		gl.DebugMessageCallback(debugCallback, nil)
	}

	gl.Enable(gl.DEPTH_TEST)
	// the sky cube is drawn at the far plane
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	return nil
}

func (r *OpenGLRenderer) Shutdown() error {
	gl.Finish()
	core.LogInfo("OpenGL renderer shut down after %d frames", r.FrameNumber)
	return nil
}

func (r *OpenGLRenderer) SetViewport(x, y int32, width, height uint32) {
	gl.Viewport(x, y, int32(width), int32(height))
}

func (r *OpenGLRenderer) Clear(color mgl32.Vec4, flags metadata.ClearFlags) {
	var mask uint32
	if flags&metadata.ClearColor != 0 {
		gl.ClearColor(color[0], color[1], color[2], color[3])
		mask |= gl.COLOR_BUFFER_BIT
	}
	if flags&metadata.ClearDepth != 0 {
		// depth writes must be on for the clear to reach the depth buffer
		gl.DepthMask(true)
		mask |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(mask)
}

func (r *OpenGLRenderer) SetCullFace(face metadata.CullFace) {
	switch face {
	case metadata.CullNone:
		gl.Disable(gl.CULL_FACE)
	case metadata.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
}

func (r *OpenGLRenderer) SetDepthMask(write bool) {
	gl.DepthMask(write)
}

func (r *OpenGLRenderer) BindTextureUnit(unit uint32, h metadata.TextureHandle) {
	gl.BindTextureUnit(unit, h.ID)
}

func (r *OpenGLRenderer) BindCubeMapUnit(unit uint32, h metadata.TextureHandle) {
	gl.BindTextureUnit(unit, h.ID)
}

func (r *OpenGLRenderer) MultiDrawElementsIndirect(va *metadata.VertexArray, commands *metadata.Buffer, drawCount int32) {
	gl.BindVertexArray(va.ID)
	if r.indirect != commands.ID {
		gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, commands.ID)
		r.indirect = commands.ID
	}
	gl.MultiDrawElementsIndirect(gl.TRIANGLES, gl.UNSIGNED_INT, nil, drawCount, 0)
	gl.BindVertexArray(0)
}

func (r *OpenGLRenderer) DrawElements(va *metadata.VertexArray, count int32) {
	gl.BindVertexArray(va.ID)
	gl.DrawElements(gl.TRIANGLES, count, gl.UNSIGNED_INT, unsafe.Pointer(nil))
	gl.BindVertexArray(0)
}

func hasExtension(name string) bool {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := int32(0); i < n; i++ {
		if gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))) == name {
			return true
		}
	}
	return false
}
