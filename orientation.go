package postlabel

import (
	"bytes"
	"image"

	"github.com/bep/imagemeta"
)

// readOrientation returns the EXIF orientation (1-8) stored in data, or 1 when
// there is none or the metadata cannot be parsed.
func readOrientation(data []byte) int {
	if len(data) == 0 {
		return 1
	}

	orientation := 1
	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Source == imagemeta.EXIF && ti.Tag == "Orientation"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if o := tagValueInt(ti.Value); o >= 1 && o <= 8 {
				orientation = o
			}
			return nil
		},
	})
	if err != nil {
		return 1
	}
	return orientation
}

// tagValueInt extracts an integer from a tag value. EXIF SHORT values may
// arrive as any unsigned width, or as a single-element slice.
func tagValueInt(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case uint16:
		return int(val)
	case uint32:
		return int(val)
	case int64:
		return int(val)
	case uint64:
		return int(val)
	case uint8:
		return int(val)
	case []uint16:
		if len(val) > 0 {
			return int(val[0])
		}
	case []any:
		if len(val) > 0 {
			return tagValueInt(val[0])
		}
	}
	return 0
}

// orient returns a copy of the square g transformed from the given EXIF
// orientation to upright.
func orient(g *image.Gray, orientation int) *image.Gray {
	if orientation <= 1 || orientation > 8 {
		return g
	}

	n := g.Bounds().Dx()
	m := n - 1
	out := image.NewGray(image.Rect(0, 0, n, n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			var sx, sy int
			switch orientation {
			case 2: // mirrored horizontally
				sx, sy = m-x, y
			case 3: // rotated 180
				sx, sy = m-x, m-y
			case 4: // mirrored vertically
				sx, sy = x, m-y
			case 5: // transposed
				sx, sy = y, x
			case 6: // rotated 90 CW
				sx, sy = y, m-x
			case 7: // transversed
				sx, sy = m-y, m-x
			case 8: // rotated 90 CCW
				sx, sy = m-y, x
			}
			out.Pix[y*out.Stride+x] = g.Pix[sy*g.Stride+sx]
		}
	}
	return out
}
