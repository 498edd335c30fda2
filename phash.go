package postlabel

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// CanonicalSize is the side, in pixels, of the grayscale square every image
// is scaled to before hashing.
const CanonicalSize = 256

// HashImageData validates, decodes and hashes raw image bytes. EXIF
// orientation is applied so a rotated copy hashes like the upright original.
func HashImageData(data []byte, maxPixels int) (*goimagehash.ImageHash, error) {
	if err := validateImageData(data, maxPixels); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return HashImage(img, readOrientation(data))
}

// HashImage computes the 64-bit perceptual hash of img after normalizing it to
// a CanonicalSize grayscale square in the given EXIF orientation (1 = upright).
func HashImage(img image.Image, orientation int) (*goimagehash.ImageHash, error) {
	h, err := goimagehash.PerceptionHash(orient(normalizeImage(img), orientation))
	if err != nil {
		return nil, fmt.Errorf("perception hash: %w", err)
	}
	return h, nil
}

func normalizeImage(img image.Image) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, CanonicalSize, CanonicalSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// NearestDistance returns the smallest Hamming distance between h and any of
// refs. ok is false when refs is empty or no hash is comparable.
func NearestDistance(h *goimagehash.ImageHash, refs []*goimagehash.ImageHash) (dist int, ok bool) {
	if h == nil {
		return 0, false
	}
	for _, r := range refs {
		d, err := h.Distance(r)
		if err != nil {
			continue
		}
		if !ok || d < dist {
			dist, ok = d, true
		}
		if dist == 0 {
			break
		}
	}
	return dist, ok
}

// MatchesReference reports whether h is within maxDistance bits of a reference hash.
func MatchesReference(h *goimagehash.ImageHash, refs []*goimagehash.ImageHash, maxDistance int) bool {
	d, ok := NearestDistance(h, refs)
	return ok && d <= maxDistance
}
