package pixel

import (
	"image"
	"testing"
)

func TestRotationTransformPoint(t *testing.T) {
	bounds := image.Rect(0, 0, 10, 20)
	testCases := []struct {
		rot  Rotation
		in   image.Point
		want image.Point
	}{
		{Rotate0, image.Pt(1, 1), image.Pt(1, 1)},
		{Rotate90, image.Pt(1, 1), image.Pt(18, 1)},
		{Rotate180, image.Pt(1, 1), image.Pt(8, 18)},
		{Rotate270, image.Pt(1, 1), image.Pt(1, 8)},
		{Rotate90, image.Pt(0, 0), image.Pt(19, 0)},
		{Rotate180, image.Pt(9, 19), image.Pt(0, 0)},
		{Rotate270, image.Pt(9, 0), image.Pt(0, 0)},
	}
	for _, test := range testCases {
		t.Run(test.rot.String(), func(it *testing.T) {
			if v := test.rot.TransformPoint(test.in, bounds); !v.Eq(test.want) {
				it.Errorf("expected %s to map to %s, got %s", test.in, test.want, v)
			}
		})
	}
}

func TestRotationRoundTrip(t *testing.T) {
	bounds := image.Rect(0, 0, 10, 20)
	for _, rot := range []Rotation{Rotate0, Rotate90, Rotate180, Rotate270} {
		t.Run(rot.String(), func(it *testing.T) {
			outer := bounds
			if rot == Rotate90 || rot == Rotate270 {
				outer = image.Rect(0, 0, 20, 10)
			}
			for y := 0; y < bounds.Max.Y; y++ {
				for x := 0; x < bounds.Max.X; x++ {
					p := image.Pt(x, y)
					q := rot.TransformPoint(p, bounds)
					if v := rot.Inverse().TransformPoint(q, outer); !v.Eq(p) {
						it.Fatalf("expected %s to round trip, got %s via %s", p, v, q)
					}
				}
			}
		})
	}
}

func TestRotationTransformRect(t *testing.T) {
	bounds := image.Rect(0, 0, 10, 20)
	rect := image.Rect(1, 2, 4, 8)
	testCases := []struct {
		rot  Rotation
		want image.Rectangle
	}{
		{Rotate0, rect},
		{Rotate90, image.Rect(12, 1, 18, 4)},
		{Rotate180, image.Rect(6, 12, 9, 18)},
		{Rotate270, image.Rect(2, 6, 8, 9)},
	}
	for _, test := range testCases {
		t.Run(test.rot.String(), func(it *testing.T) {
			if v := test.rot.TransformRect(rect, bounds); v != test.want {
				it.Errorf("expected %s to map to %s, got %s", rect, test.want, v)
			}
		})
	}
}

func TestRotated(t *testing.T) {
	inner := NewMonoImage(8, 16)
	view := NewRotated(inner, Rotate90)

	if v := view.Bounds(); v != image.Rect(0, 0, 16, 8) {
		t.Errorf("expected bounds 16×8, got %s", v)
	}

	view.Set(14, 1, On)
	if v := inner.At(1, 1); v != On {
		t.Errorf("expected set through the view to land on inner (1,1), got %#+v", v)
	}
	if v := view.At(14, 1); v != On {
		t.Errorf("expected view pixel (14,1) set, got %#+v", v)
	}

	t.Run("fill", func(it *testing.T) {
		inner.Clear()
		// A full-width view row is a full-height inner column.
		view.Fill(image.Rect(0, 2, 16, 3), On)
		for y := 0; y < 16; y++ {
			if v := inner.At(2, y); v != On {
				it.Fatalf("expected inner column 2 set at row %d, got %#+v", y, v)
			}
			if v := inner.At(3, y); v != Off {
				it.Fatalf("expected inner column 3 clear at row %d, got %#+v", y, v)
			}
		}
	})
}
