package opengl

import (
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// CreateTexture allocates immutable storage, uploads the pixels if any and
// makes the texture resident. Unsupported layouts give an invalid handle.
func (r *OpenGLRenderer) CreateTexture(desc metadata.TextureDesc) metadata.TextureHandle {
	format, ok := metadata.TextureFormatFor(desc)
	if !ok {
		core.LogError("unsupported texture format: %d channels at %d bits", desc.Channels, desc.BitsPerChannel)
		return metadata.TextureHandle{}
	}

	// sampled images get a full mip chain, render targets a single level
	levels := int32(1)
	if len(desc.Pixels) > 0 {
		levels = mipLevels(desc.Width, desc.Height)
	}

	var id uint32
	gl.CreateTextures(gl.TEXTURE_2D, 1, &id)
	gl.TextureStorage2D(id, levels, internalFormat(format.Internal), int32(desc.Width), int32(desc.Height))
	if len(desc.Pixels) > 0 {
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
		gl.TextureSubImage2D(id, 0, 0, 0, int32(desc.Width), int32(desc.Height),
			pixelFormat(format.Format), pixelType(format.Type), gl.Ptr(desc.Pixels))
		gl.GenerateTextureMipmap(id)
	}

	minFilter, magFilter := int32(gl.LINEAR), int32(gl.LINEAR)
	switch {
	case desc.DataType == metadata.TextureDataDepth:
		minFilter, magFilter = gl.NEAREST, gl.NEAREST
	case levels > 1:
		minFilter = gl.LINEAR_MIPMAP_LINEAR
	}
	gl.TextureParameteri(id, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TextureParameteri(id, gl.TEXTURE_MAG_FILTER, magFilter)
	if desc.DataType == metadata.TextureDataDepth {
		// outside the shadow map counts as lit
		border := [4]float32{1, 1, 1, 1}
		gl.TextureParameteri(id, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
		gl.TextureParameteri(id, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
		gl.TextureParameterfv(id, gl.TEXTURE_BORDER_COLOR, &border[0])
	} else {
		gl.TextureParameteri(id, gl.TEXTURE_WRAP_S, gl.REPEAT)
		gl.TextureParameteri(id, gl.TEXTURE_WRAP_T, gl.REPEAT)
	}

	if err := checkError("create texture"); err != nil {
		gl.DeleteTextures(1, &id)
		return metadata.TextureHandle{}
	}
	return makeResident(id)
}

func (r *OpenGLRenderer) DestroyTexture(h *metadata.TextureHandle) {
	releaseTexture(h)
}

// CreateCubeMap builds a cube map from six faces of identical size and format
// in +X, -X, +Y, -Y, +Z, -Z order.
func (r *OpenGLRenderer) CreateCubeMap(faces [6]metadata.TextureDesc) metadata.TextureHandle {
	format, ok := metadata.TextureFormatFor(faces[0])
	if !ok {
		core.LogError("unsupported cube map format: %d channels at %d bits", faces[0].Channels, faces[0].BitsPerChannel)
		return metadata.TextureHandle{}
	}
	width, height := int32(faces[0].Width), int32(faces[0].Height)

	var id uint32
	gl.CreateTextures(gl.TEXTURE_CUBE_MAP, 1, &id)
	gl.TextureStorage2D(id, 1, internalFormat(format.Internal), width, height)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	for i, face := range faces {
		if face.Width != faces[0].Width || face.Height != faces[0].Height {
			core.LogError("cube map face %d is %dx%d, expected %dx%d", i, face.Width, face.Height, width, height)
			gl.DeleteTextures(1, &id)
			return metadata.TextureHandle{}
		}
		if len(face.Pixels) == 0 {
			continue
		}
		gl.TextureSubImage3D(id, 0, 0, 0, int32(i), width, height, 1,
			pixelFormat(format.Format), pixelType(format.Type), gl.Ptr(face.Pixels))
	}
	gl.TextureParameteri(id, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TextureParameteri(id, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TextureParameteri(id, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(id, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(id, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)

	if err := checkError("create cube map"); err != nil {
		gl.DeleteTextures(1, &id)
		return metadata.TextureHandle{}
	}
	return makeResident(id)
}

func (r *OpenGLRenderer) DestroyCubeMap(h *metadata.TextureHandle) {
	releaseTexture(h)
}

func makeResident(id uint32) metadata.TextureHandle {
	handle := gl.GetTextureHandleARB(id)
	if handle == 0 {
		core.LogError("no bindless handle for texture %d", id)
		gl.DeleteTextures(1, &id)
		return metadata.TextureHandle{}
	}
	gl.MakeTextureHandleResidentARB(handle)
	return metadata.TextureHandle{ID: id, Bindless: handle, Valid: true}
}

func releaseTexture(h *metadata.TextureHandle) {
	if h.ID == 0 {
		return
	}
	if h.Bindless != 0 && gl.IsTextureHandleResidentARB(h.Bindless) {
		gl.MakeTextureHandleNonResidentARB(h.Bindless)
	}
	gl.DeleteTextures(1, &h.ID)
	*h = metadata.TextureHandle{}
}

func mipLevels(width, height uint32) int32 {
	levels := int32(1)
	for size := max(width, height); size > 1; size >>= 1 {
		levels++
	}
	return levels
}
