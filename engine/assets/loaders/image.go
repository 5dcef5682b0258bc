package loaders

import (
	"bufio"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"

	// registered decoders
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

/**
 * @brief Decoded pixels ready for upload. Rows are tightly packed, 16-bit
 * channels are stored little-endian.
 */
type ImageData struct {
	Width          uint32
	Height         uint32
	Channels       uint8
	BitsPerChannel uint8
	Pixels         []byte
}

type ImageLoader struct {
	FlipY bool
}

func (il *ImageLoader) Load(path string) (interface{}, error) {
	return DecodeImage(path, il.FlipY)
}

// DecodeImage reads a png, jpeg, bmp, tiff or webp file. Gray images keep one
// channel, everything else is expanded to RGBA. When flipY is set the first row
// of Pixels is the bottom of the image.
func DecodeImage(path string, flipY bool) (*ImageData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image '%s': %w", path, err)
	}

	data := imageData(img)
	if flipY {
		flipRows(data)
	}
	return data, nil
}

func imageData(img image.Image) *ImageData {
	b := img.Bounds()
	data := &ImageData{
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
	}

	switch src := img.(type) {
	case *image.Gray:
		data.Channels, data.BitsPerChannel = 1, 8
		data.Pixels = packRows(src.Pix, src.Stride, b.Dx(), b.Dy())
	case *image.Gray16:
		data.Channels, data.BitsPerChannel = 1, 16
		data.Pixels = swap16(packRows(src.Pix, src.Stride, b.Dx()*2, b.Dy()))
	case *image.NRGBA64:
		data.Channels, data.BitsPerChannel = 4, 16
		data.Pixels = swap16(packRows(src.Pix, src.Stride, b.Dx()*8, b.Dy()))
	case *image.RGBA64:
		data.Channels, data.BitsPerChannel = 4, 16
		data.Pixels = swap16(packRows(src.Pix, src.Stride, b.Dx()*8, b.Dy()))
	case *image.NRGBA:
		data.Channels, data.BitsPerChannel = 4, 8
		data.Pixels = packRows(src.Pix, src.Stride, b.Dx()*4, b.Dy())
	default:
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		data.Channels, data.BitsPerChannel = 4, 8
		data.Pixels = dst.Pix
	}
	return data
}

// packRows copies rowBytes out of each stride-wide row.
func packRows(pix []byte, stride, rowBytes, rows int) []byte {
	out := make([]byte, rowBytes*rows)
	for y := 0; y < rows; y++ {
		copy(out[y*rowBytes:(y+1)*rowBytes], pix[y*stride:y*stride+rowBytes])
	}
	return out
}

// image stores 16-bit samples big-endian
func swap16(pix []byte) []byte {
	for i := 0; i+1 < len(pix); i += 2 {
		pix[i], pix[i+1] = pix[i+1], pix[i]
	}
	return pix
}

// Flip reverses the row order in place.
func (data *ImageData) Flip() {
	flipRows(data)
}

func flipRows(data *ImageData) {
	rowBytes := int(data.Width) * int(data.Channels) * int(data.BitsPerChannel) / 8
	tmp := make([]byte, rowBytes)
	for top, bottom := 0, int(data.Height)-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := data.Pixels[top*rowBytes : (top+1)*rowBytes]
		b := data.Pixels[bottom*rowBytes : (bottom+1)*rowBytes]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// WritePNG stores 8-bit gray or RGBA pixel data as a png file.
func WritePNG(path string, data *ImageData) error {
	if data.BitsPerChannel != 8 || (data.Channels != 1 && data.Channels != 4) {
		return fmt.Errorf("cannot write %d channel %d-bit image as png", data.Channels, data.BitsPerChannel)
	}
	rect := image.Rect(0, 0, int(data.Width), int(data.Height))
	var img image.Image
	if data.Channels == 1 {
		img = &image.Gray{Pix: data.Pixels, Stride: int(data.Width), Rect: rect}
	} else {
		img = &image.NRGBA{Pix: data.Pixels, Stride: int(data.Width) * 4, Rect: rect}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
