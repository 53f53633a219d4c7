package screen

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// bgrxToRGBA converts a 32-bit ZPixmap (B, G, R, pad per pixel) to RGBA.
func bgrxToRGBA(data []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if need := width * height * 4; len(data) < need {
		return nil, fmt.Errorf("short pixel buffer: got %d bytes, need %d", len(data), need)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		src, dst := data[i*4:i*4+4], img.Pix[i*4:i*4+4]
		dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], 0xff
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
