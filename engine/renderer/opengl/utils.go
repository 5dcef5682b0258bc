package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

var internalFormats = map[metadata.InternalFormat]uint32{
	metadata.FormatR8:       gl.R8,
	metadata.FormatRG8:      gl.RG8,
	metadata.FormatRGB8:     gl.RGB8,
	metadata.FormatRGBA8:    gl.RGBA8,
	metadata.FormatR16F:     gl.R16F,
	metadata.FormatRG16F:    gl.RG16F,
	metadata.FormatRGB16F:   gl.RGB16F,
	metadata.FormatRGBA16F:  gl.RGBA16F,
	metadata.FormatR32F:     gl.R32F,
	metadata.FormatRG32F:    gl.RG32F,
	metadata.FormatRGB32F:   gl.RGB32F,
	metadata.FormatRGBA32F:  gl.RGBA32F,
	metadata.FormatDepth16:  gl.DEPTH_COMPONENT16,
	metadata.FormatDepth24:  gl.DEPTH_COMPONENT24,
	metadata.FormatDepth32F: gl.DEPTH_COMPONENT32F,
}

func internalFormat(f metadata.InternalFormat) uint32 {
	return internalFormats[f]
}

func pixelFormat(f metadata.PixelFormat) uint32 {
	switch f {
	case metadata.PixelRed:
		return gl.RED
	case metadata.PixelRG:
		return gl.RG
	case metadata.PixelRGB:
		return gl.RGB
	case metadata.PixelDepthComponent:
		return gl.DEPTH_COMPONENT
	default:
		return gl.RGBA
	}
}

func pixelType(t metadata.PixelType) uint32 {
	switch t {
	case metadata.PixelTypeUnsignedShort:
		return gl.UNSIGNED_SHORT
	case metadata.PixelTypeFloat:
		return gl.FLOAT
	default:
		return gl.UNSIGNED_BYTE
	}
}

// checkError drains the GL error queue, logging every entry.
func checkError(op string) error {
	var first uint32
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		core.LogError("%s: %s", op, errorString(code))
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return fmt.Errorf("%s: %s", op, errorString(first))
	}
	return nil
}

func errorString(code uint32) string {
	switch code {
	case gl.NO_ERROR:
		return "GL_NO_ERROR"
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("unknown GL error 0x%x", code)
	}
}

func framebufferStatusString(status uint32) string {
	switch status {
	case gl.FRAMEBUFFER_COMPLETE:
		return "GL_FRAMEBUFFER_COMPLETE"
	case gl.FRAMEBUFFER_UNDEFINED:
		return "GL_FRAMEBUFFER_UNDEFINED"
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return "GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT"
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return "GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT"
	case gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER:
		return "GL_FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER"
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return "GL_FRAMEBUFFER_UNSUPPORTED"
	default:
		return fmt.Sprintf("unknown framebuffer status 0x%x", status)
	}
}

func debugCallback(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		core.LogError("GL: %s", message)
	case gl.DEBUG_SEVERITY_MEDIUM:
		core.LogWarn("GL: %s", message)
	case gl.DEBUG_SEVERITY_LOW:
		core.LogDebug("GL: %s", message)
	}
}
