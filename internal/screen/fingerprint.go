package screen

import (
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	"github.com/corona10/goimagehash"
)

// Fingerprint computes the perceptual hash of the image at path.
func Fingerprint(path string) (*goimagehash.ImageHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return goimagehash.PerceptionHash(img)
}

// Distance returns the Hamming distance between two fingerprints, or -1 if
// either is missing or they are not comparable.
func Distance(a, b *goimagehash.ImageHash) int {
	if a == nil || b == nil {
		return -1
	}
	d, err := a.Distance(b)
	if err != nil {
		return -1
	}
	return d
}
