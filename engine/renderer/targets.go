package renderer

import "github.com/spaghettifunk/lumen/engine/renderer/metadata"

/** @brief Attachment order of the G-buffer. */
const (
	GBufferAlbedo = iota
	GBufferPosition
	GBufferNormal
	GBufferAO
	GBufferRoughness
	GBufferMetallic
	GBufferDepth
	GBufferAttachmentCount
)

func colorAttachment(channels uint8) metadata.TextureDesc {
	return metadata.TextureDesc{Channels: channels, BitsPerChannel: 32, DataType: metadata.TextureDataColor}
}

func depthAttachment(bits uint8) metadata.TextureDesc {
	return metadata.TextureDesc{Channels: 1, BitsPerChannel: bits, DataType: metadata.TextureDataDepth}
}

func shadowTargetDesc(size uint32) metadata.FramebufferDesc {
	return metadata.FramebufferDesc{
		Width:       size,
		Height:      size,
		Attachments: []metadata.TextureDesc{depthAttachment(32)},
		Flags:       metadata.FramebufferDepthNoColor,
	}
}

func gBufferDesc(width, height uint32) metadata.FramebufferDesc {
	attachments := make([]metadata.TextureDesc, GBufferAttachmentCount)
	attachments[GBufferAlbedo] = colorAttachment(4)
	attachments[GBufferPosition] = colorAttachment(4)
	attachments[GBufferNormal] = colorAttachment(4)
	attachments[GBufferAO] = colorAttachment(1)
	attachments[GBufferRoughness] = colorAttachment(1)
	attachments[GBufferMetallic] = colorAttachment(1)
	attachments[GBufferDepth] = depthAttachment(24)
	return metadata.FramebufferDesc{
		Width:       width,
		Height:      height,
		Attachments: attachments,
		Flags:       metadata.FramebufferAllColorAttachment,
	}
}

func outputDesc(width, height uint32) metadata.FramebufferDesc {
	return metadata.FramebufferDesc{
		Width:       width,
		Height:      height,
		Attachments: []metadata.TextureDesc{colorAttachment(4), depthAttachment(24)},
		Flags:       metadata.FramebufferAllColorAttachment,
	}
}
