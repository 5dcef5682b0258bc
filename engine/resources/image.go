package resources

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief A 2D texture decoded from an image file and resident on the GPU.
 */
type ImageTexture struct {
	Base

	Width          uint32
	Height         uint32
	Channels       uint8
	BitsPerChannel uint8
	/** @brief Flip rows on load so the first row is the bottom of the image. */
	FlipY  bool
	Handle metadata.TextureHandle

	pixels []byte
}

func (t *ImageTexture) Type() ResourceType { return ResourceTypeImageTexture }

func (t *ImageTexture) Load(path string) error {
	data, err := loaders.DecodeImage(path, t.FlipY)
	if err != nil {
		return err
	}
	return t.Upload(data)
}

func (t *ImageTexture) Save(path string) error {
	return loaders.WritePNG(path, t.ImageData())
}

// Upload replaces the texture content, recreating the GPU texture.
func (t *ImageTexture) Upload(data *loaders.ImageData) error {
	desc := metadata.TextureDesc{
		Width:          data.Width,
		Height:         data.Height,
		Channels:       data.Channels,
		BitsPerChannel: data.BitsPerChannel,
		DataType:       metadata.TextureDataColor,
		Pixels:         data.Pixels,
	}
	if _, ok := metadata.TextureFormatFor(desc); !ok {
		return fmt.Errorf("%w: %d channels at %d bits", core.ErrUnsupportedFormat, data.Channels, data.BitsPerChannel)
	}
	if uint64(len(data.Pixels)) != desc.ByteSize() {
		return fmt.Errorf("%w: %d bytes of pixels for a %dx%d texture", core.ErrUnsupportedFormat, len(data.Pixels), data.Width, data.Height)
	}

	t.release()
	t.Width, t.Height = data.Width, data.Height
	t.Channels, t.BitsPerChannel = data.Channels, data.BitsPerChannel
	t.pixels = data.Pixels

	if gpu := t.gpu(); gpu != nil {
		t.Handle = gpu.CreateTexture(desc)
		if !t.Handle.Valid {
			core.LogError("failed to create GPU texture for '%s'", t.name)
		}
	}
	return nil
}

// ImageData returns the pixels last uploaded.
func (t *ImageTexture) ImageData() *loaders.ImageData {
	return &loaders.ImageData{
		Width:          t.Width,
		Height:         t.Height,
		Channels:       t.Channels,
		BitsPerChannel: t.BitsPerChannel,
		Pixels:         t.pixels,
	}
}

// ByteSize is width * height * channels * bits / 8.
func (t *ImageTexture) ByteSize() uint64 {
	return uint64(t.Width) * uint64(t.Height) * uint64(t.Channels) * uint64(t.BitsPerChannel) / 8
}

func (t *ImageTexture) duplicate() (Resource, error) {
	dup := &ImageTexture{FlipY: t.FlipY}
	// upload through the source cache, the copy is not registered yet
	dup.cache = t.cache
	if err := dup.Upload(t.ImageData()); err != nil {
		return nil, err
	}
	dup.pixels = append([]byte(nil), t.pixels...)
	return dup, nil
}

func (t *ImageTexture) release() {
	if !t.Handle.Valid {
		return
	}
	if gpu := t.gpu(); gpu != nil {
		gpu.DestroyTexture(&t.Handle)
	}
	t.Handle = metadata.TextureHandle{}
}
