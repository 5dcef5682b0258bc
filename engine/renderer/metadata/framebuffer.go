package metadata

type FramebufferFlags uint32

const (
	/** @brief Depth only target: draw and read buffers are disabled. */
	FramebufferDepthNoColor FramebufferFlags = 1 << 1
	/** @brief Every color attachment is enabled as a draw buffer. */
	FramebufferAllColorAttachment FramebufferFlags = 1 << 2
)

/**
 * @brief Describes a framebuffer and all of its attachments.
 */
type FramebufferDesc struct {
	Width  uint32
	Height uint32
	/** @brief Attachments in order. Color attachments get sequential indices, depth goes to the depth slot. */
	Attachments []TextureDesc
	Flags       FramebufferFlags
}

/**
 * @brief A framebuffer created by the GPU layer.
 */
type Framebuffer struct {
	ID          uint32
	Desc        FramebufferDesc
	Attachments []TextureHandle
	/** @brief False if the driver reported the framebuffer incomplete. */
	Complete bool
}

// ColorAttachments returns the handles of color attachments in attachment order.
func (fb *Framebuffer) ColorAttachments() []TextureHandle {
	out := make([]TextureHandle, 0, len(fb.Attachments))
	for i, a := range fb.Attachments {
		if fb.Desc.Attachments[i].DataType == TextureDataColor {
			out = append(out, a)
		}
	}
	return out
}

// DepthAttachment returns the depth attachment, if any.
func (fb *Framebuffer) DepthAttachment() (TextureHandle, bool) {
	for i, a := range fb.Attachments {
		if fb.Desc.Attachments[i].DataType == TextureDataDepth {
			return a, true
		}
	}
	return TextureHandle{}, false
}
