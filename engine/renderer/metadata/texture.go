package metadata

/**
 * @brief Whether a texture holds color or depth data.
 */
type TextureDataType int

const (
	/** @brief Color texture. */
	TextureDataColor TextureDataType = iota
	/** @brief Depth texture. */
	TextureDataDepth
)

/**
 * @brief Describes a 2D texture to be created on the GPU.
 */
type TextureDesc struct {
	/** @brief Texture width in pixels. */
	Width uint32
	/** @brief Texture height in pixels. */
	Height uint32
	/** @brief Number of channels, 1 to 4. Ignored for depth textures. */
	Channels uint8
	/** @brief Bits per channel: 8, 16 or 32 for color; 16, 24 or 32 for depth. */
	BitsPerChannel uint8
	/** @brief Color or depth. */
	DataType TextureDataType
	/** @brief Initial pixel data. May be nil for render targets. */
	Pixels []byte
}

// ByteSize is width * height * channels * bits / 8.
func (d TextureDesc) ByteSize() uint64 {
	channels := uint64(d.Channels)
	if d.DataType == TextureDataDepth {
		channels = 1
	}
	return uint64(d.Width) * uint64(d.Height) * channels * uint64(d.BitsPerChannel) / 8
}

/**
 * @brief A GPU texture. Valid textures are bindless resident for their whole lifetime.
 */
type TextureHandle struct {
	/** @brief Driver object name. Zero when invalid. */
	ID uint32
	/** @brief 64-bit bindless handle usable inside shader storage. */
	Bindless uint64
	/** @brief False when creation failed. */
	Valid bool
}
