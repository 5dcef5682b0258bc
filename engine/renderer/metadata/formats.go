package metadata

type InternalFormat int

const (
	FormatInvalid InternalFormat = iota
	FormatR8
	FormatRG8
	FormatRGB8
	FormatRGBA8
	FormatR16F
	FormatRG16F
	FormatRGB16F
	FormatRGBA16F
	FormatR32F
	FormatRG32F
	FormatRGB32F
	FormatRGBA32F
	FormatDepth16
	FormatDepth24
	FormatDepth32F
)

type PixelFormat int

const (
	PixelInvalid PixelFormat = iota
	PixelRed
	PixelRG
	PixelRGB
	PixelRGBA
	PixelDepthComponent
)

type PixelType int

const (
	PixelTypeInvalid PixelType = iota
	PixelTypeUnsignedByte
	PixelTypeUnsignedShort
	PixelTypeFloat
)

/**
 * @brief The driver-facing format triple of a texture.
 */
type TextureFormat struct {
	Internal InternalFormat
	Format   PixelFormat
	Type     PixelType
}

var colorInternalFormats = map[uint8][4]InternalFormat{
	8:  {FormatR8, FormatRG8, FormatRGB8, FormatRGBA8},
	16: {FormatR16F, FormatRG16F, FormatRGB16F, FormatRGBA16F},
	32: {FormatR32F, FormatRG32F, FormatRGB32F, FormatRGBA32F},
}

var pixelFormats = [4]PixelFormat{PixelRed, PixelRG, PixelRGB, PixelRGBA}

var channelTypes = map[uint8]PixelType{
	8:  PixelTypeUnsignedByte,
	16: PixelTypeUnsignedShort,
	32: PixelTypeFloat,
}

var depthInternalFormats = map[uint8]InternalFormat{
	16: FormatDepth16,
	24: FormatDepth24,
	32: FormatDepth32F,
}

// TextureFormatFor maps a texture description onto its format triple. Depth
// textures with an unknown bit depth fall back to 32-bit float depth. The second
// result is false for color layouts the table does not cover.
func TextureFormatFor(desc TextureDesc) (TextureFormat, bool) {
	if desc.DataType == TextureDataDepth {
		internal, ok := depthInternalFormats[desc.BitsPerChannel]
		if !ok {
			internal = FormatDepth32F
		}
		return TextureFormat{Internal: internal, Format: PixelDepthComponent, Type: PixelTypeFloat}, true
	}

	if desc.Channels < 1 || desc.Channels > 4 {
		return TextureFormat{}, false
	}
	internals, ok := colorInternalFormats[desc.BitsPerChannel]
	if !ok {
		return TextureFormat{}, false
	}
	return TextureFormat{
		Internal: internals[desc.Channels-1],
		Format:   pixelFormats[desc.Channels-1],
		Type:     channelTypes[desc.BitsPerChannel],
	}, true
}
