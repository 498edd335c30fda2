package postlabel

import (
	"bytes"
	"image"
	"testing"
)

// grid3 returns a 3×3 image whose pixels are 0..8 in row-major order.
func grid3() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, 3, 3))
	for i := range g.Pix {
		g.Pix[i] = uint8(i)
	}
	return g
}

func TestOrient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		orientation int
		want        []uint8
	}{
		{orientation: 1, want: []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8}},
		{orientation: 2, want: []uint8{2, 1, 0, 5, 4, 3, 8, 7, 6}},
		{orientation: 3, want: []uint8{8, 7, 6, 5, 4, 3, 2, 1, 0}},
		{orientation: 4, want: []uint8{6, 7, 8, 3, 4, 5, 0, 1, 2}},
		{orientation: 5, want: []uint8{0, 3, 6, 1, 4, 7, 2, 5, 8}},
		{orientation: 6, want: []uint8{6, 3, 0, 7, 4, 1, 8, 5, 2}},
		{orientation: 7, want: []uint8{8, 5, 2, 7, 4, 1, 6, 3, 0}},
		{orientation: 8, want: []uint8{2, 5, 8, 1, 4, 7, 0, 3, 6}},
		{orientation: 0, want: []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8}},
		{orientation: 9, want: []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8}},
	}

	for _, tc := range tests {
		got := orient(grid3(), tc.orientation)
		if !bytes.Equal(got.Pix, tc.want) {
			t.Errorf("orient(%d) = %v, want %v", tc.orientation, got.Pix, tc.want)
		}
	}
}

func TestOrient_RotationsUndoEachOther(t *testing.T) {
	t.Parallel()

	base := makeBlockImage(5, 64)
	pairs := [][2]int{{6, 8}, {8, 6}, {3, 3}, {2, 2}, {4, 4}, {5, 5}, {7, 7}}
	for _, p := range pairs {
		got := orient(orient(base, p[0]), p[1])
		if !bytes.Equal(got.Pix, base.Pix) {
			t.Errorf("orient(orient(img, %d), %d) did not restore the image", p[0], p[1])
		}
	}
}

func TestHashImage_OrientationRestoresUpright(t *testing.T) {
	t.Parallel()

	base := makeBlockImage(11, CanonicalSize)
	upright, err := HashImage(base, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Stored rotated 90° counter-clockwise; EXIF 6 says "rotate clockwise to view".
	stored := orient(base, 8)
	h, err := HashImage(stored, 6)
	if err != nil {
		t.Fatal(err)
	}
	d, err := h.Distance(upright)
	if err != nil {
		t.Fatal(err)
	}
	if d > 2 {
		t.Errorf("distance after orientation = %d, want <= 2", d)
	}
}

func TestReadOrientation_NoEXIF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "nil", data: nil},
		{name: "png without exif", data: encodePNG(t, makeBlockImage(1, 16))},
		{name: "garbage", data: []byte("not an image at all")},
	}
	for _, tc := range tests {
		if got := readOrientation(tc.data); got != 1 {
			t.Errorf("%s: readOrientation = %d, want 1", tc.name, got)
		}
	}
}

func TestTagValueInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want int
	}{
		{in: uint16(6), want: 6},
		{in: uint32(3), want: 3},
		{in: 8, want: 8},
		{in: []uint16{5}, want: 5},
		{in: []any{uint16(2)}, want: 2},
		{in: "6", want: 0},
		{in: nil, want: 0},
	}
	for _, tc := range tests {
		if got := tagValueInt(tc.in); got != tc.want {
			t.Errorf("tagValueInt(%#v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
