package opengl

import (
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// CreateFramebuffer creates every attachment of desc in one go. The result is
// marked incomplete when the driver rejects it.
func (r *OpenGLRenderer) CreateFramebuffer(desc metadata.FramebufferDesc) *metadata.Framebuffer {
	desc.Attachments = append([]metadata.TextureDesc(nil), desc.Attachments...)
	fb := &metadata.Framebuffer{Desc: desc}
	gl.CreateFramebuffers(1, &fb.ID)
	r.attach(fb)
	return fb
}

func (r *OpenGLRenderer) attach(fb *metadata.Framebuffer) {
	fb.Attachments = make([]metadata.TextureHandle, len(fb.Desc.Attachments))
	drawBuffers := []uint32{}
	colorIndex := uint32(0)

	for i := range fb.Desc.Attachments {
		a := &fb.Desc.Attachments[i]
		a.Width, a.Height = fb.Desc.Width, fb.Desc.Height
		a.Pixels = nil
		fb.Attachments[i] = r.CreateTexture(*a)

		if a.DataType == metadata.TextureDataDepth {
			gl.NamedFramebufferTexture(fb.ID, gl.DEPTH_ATTACHMENT, fb.Attachments[i].ID, 0)
			continue
		}
		slot := gl.COLOR_ATTACHMENT0 + colorIndex
		gl.NamedFramebufferTexture(fb.ID, slot, fb.Attachments[i].ID, 0)
		drawBuffers = append(drawBuffers, slot)
		colorIndex++
	}

	switch {
	case fb.Desc.Flags&metadata.FramebufferDepthNoColor != 0:
		gl.NamedFramebufferDrawBuffer(fb.ID, gl.NONE)
		gl.NamedFramebufferReadBuffer(fb.ID, gl.NONE)
	case fb.Desc.Flags&metadata.FramebufferAllColorAttachment != 0 && len(drawBuffers) > 0:
		gl.NamedFramebufferDrawBuffers(fb.ID, int32(len(drawBuffers)), &drawBuffers[0])
	}

	status := gl.CheckNamedFramebufferStatus(fb.ID, gl.FRAMEBUFFER)
	fb.Complete = status == gl.FRAMEBUFFER_COMPLETE
	if !fb.Complete {
		core.LogError("framebuffer %d is incomplete: %s", fb.ID, framebufferStatusString(status))
	}
}

// ResizeFramebuffer recreates every attachment at the new size, keeping the
// framebuffer object and its flags.
func (r *OpenGLRenderer) ResizeFramebuffer(fb *metadata.Framebuffer, width, height uint32) {
	for i := range fb.Attachments {
		releaseTexture(&fb.Attachments[i])
	}
	fb.Desc.Width, fb.Desc.Height = width, height
	r.attach(fb)
}

func (r *OpenGLRenderer) DestroyFramebuffer(fb *metadata.Framebuffer) {
	for i := range fb.Attachments {
		releaseTexture(&fb.Attachments[i])
	}
	gl.DeleteFramebuffers(1, &fb.ID)
	fb.ID = 0
	fb.Complete = false
}

func (r *OpenGLRenderer) BindFramebuffer(fb *metadata.Framebuffer) {
	if fb == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.ID)
}

// Present blits the first color attachment of src to the window framebuffer.
func (r *OpenGLRenderer) Present(src *metadata.Framebuffer, width, height uint32) {
	gl.BlitNamedFramebuffer(src.ID, 0,
		0, 0, int32(src.Desc.Width), int32(src.Desc.Height),
		0, 0, int32(width), int32(height),
		gl.COLOR_BUFFER_BIT, gl.LINEAR)
}
