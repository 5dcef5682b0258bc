package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextureFormatFor(t *testing.T) {
	cases := []struct {
		desc TextureDesc
		want TextureFormat
	}{
		{TextureDesc{Channels: 4, BitsPerChannel: 8}, TextureFormat{FormatRGBA8, PixelRGBA, PixelTypeUnsignedByte}},
		{TextureDesc{Channels: 1, BitsPerChannel: 8}, TextureFormat{FormatR8, PixelRed, PixelTypeUnsignedByte}},
		{TextureDesc{Channels: 3, BitsPerChannel: 16}, TextureFormat{FormatRGB16F, PixelRGB, PixelTypeUnsignedShort}},
		{TextureDesc{Channels: 2, BitsPerChannel: 32}, TextureFormat{FormatRG32F, PixelRG, PixelTypeFloat}},
		{TextureDesc{Channels: 4, BitsPerChannel: 32}, TextureFormat{FormatRGBA32F, PixelRGBA, PixelTypeFloat}},
		{TextureDesc{DataType: TextureDataDepth, BitsPerChannel: 24}, TextureFormat{FormatDepth24, PixelDepthComponent, PixelTypeFloat}},
		{TextureDesc{DataType: TextureDataDepth, BitsPerChannel: 16}, TextureFormat{FormatDepth16, PixelDepthComponent, PixelTypeFloat}},
		{TextureDesc{DataType: TextureDataDepth}, TextureFormat{FormatDepth32F, PixelDepthComponent, PixelTypeFloat}},
	}
	for _, c := range cases {
		got, ok := TextureFormatFor(c.desc)
		assert.True(t, ok)
		assert.Equal(t, c.want, got, "desc %+v", c.desc)
	}

	_, ok := TextureFormatFor(TextureDesc{Channels: 5, BitsPerChannel: 8})
	assert.False(t, ok)
	_, ok = TextureFormatFor(TextureDesc{Channels: 4, BitsPerChannel: 12})
	assert.False(t, ok)
}

func TestTextureDesc_ByteSize(t *testing.T) {
	assert.Equal(t, uint64(1024*1024*4), TextureDesc{Width: 1024, Height: 1024, Channels: 4, BitsPerChannel: 8}.ByteSize())
	assert.Equal(t, uint64(16*4), TextureDesc{Width: 4, Height: 4, Channels: 1, BitsPerChannel: 32}.ByteSize())
}

func TestUploadLayouts(t *testing.T) {
	assert.Equal(t, 20, SizeOf[DrawElementsIndirectCommand]())
	assert.Equal(t, 8, SizeOf[CommandData]())
	assert.Equal(t, 16, SizeOf[SubMeshDraw]())
	assert.Equal(t, 80, SizeOf[MaterialUpload]())
	assert.Equal(t, 32, SizeOf[DirectionalLightUpload]())
	assert.Equal(t, 48, SizeOf[SpotLightUpload]())
	assert.Equal(t, 32, SizeOf[PointLightUpload]())
	assert.Equal(t, 32, SizeOf[LightMeta]())
	assert.Equal(t, 256, SizeOf[CameraUpload]())
}

func TestAsBytes(t *testing.T) {
	cmds := []CommandData{{Offset: 1, SubMeshCount: 2}}
	b := AsBytes(cmds)
	assert.Len(t, b, 8)
	assert.Equal(t, byte(1), b[0])
	assert.Equal(t, byte(2), b[4])
	assert.Nil(t, AsBytes([]CommandData{}))
}

func TestFramebufferAttachments(t *testing.T) {
	fb := &Framebuffer{
		Desc: FramebufferDesc{Attachments: []TextureDesc{
			{Channels: 4, BitsPerChannel: 32},
			{DataType: TextureDataDepth, BitsPerChannel: 24},
		}},
		Attachments: []TextureHandle{{ID: 7, Valid: true}, {ID: 9, Valid: true}},
	}
	assert.Equal(t, []TextureHandle{{ID: 7, Valid: true}}, fb.ColorAttachments())
	depth, ok := fb.DepthAttachment()
	assert.True(t, ok)
	assert.Equal(t, uint32(9), depth.ID)
}
