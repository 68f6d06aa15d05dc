package changedetect

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func checkerboard(w, h int, shift int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if (x+shift)/8%2 == (y)/8%2 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestScoreFirstFrameSignificant(t *testing.T) {
	d := New(DefaultThreshold)
	data := encodePNG(t, checkerboard(64, 64, 0))

	result, err := d.Score(data)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !result.Significant {
		t.Error("first scored frame should be significant (no baseline yet)")
	}
}

func TestScoreIdenticalFramesNotSignificant(t *testing.T) {
	d := New(DefaultThreshold)
	data := encodePNG(t, checkerboard(64, 64, 0))

	if _, err := d.Score(data); err != nil {
		t.Fatalf("Score: %v", err)
	}
	result, err := d.Score(data)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if result.Significant {
		t.Error("identical second frame should not be significant")
	}
	if result.Score != 0 {
		t.Errorf("Score = %f, want 0 for identical frames", result.Score)
	}
}

func TestScoreDifferentFramesSignificant(t *testing.T) {
	d := New(DefaultThreshold)
	data1 := encodePNG(t, checkerboard(64, 64, 0))
	data2 := encodePNG(t, checkerboard(64, 64, 4))

	if _, err := d.Score(data1); err != nil {
		t.Fatalf("Score: %v", err)
	}
	result, err := d.Score(data2)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !result.Significant {
		t.Error("shifted checkerboard should register as significant change")
	}
}

func TestReset(t *testing.T) {
	d := New(DefaultThreshold)
	data := encodePNG(t, checkerboard(64, 64, 0))

	if _, err := d.Score(data); err != nil {
		t.Fatalf("Score: %v", err)
	}
	d.Reset()

	result, err := d.Score(data)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !result.Significant {
		t.Error("frame scored after Reset should be treated as first frame again")
	}
}

func TestSetThresholdIgnoresNonPositive(t *testing.T) {
	d := New(0.2)
	d.SetThreshold(0)
	if d.Threshold() != 0.2 {
		t.Errorf("Threshold = %f, want unchanged 0.2", d.Threshold())
	}
	d.SetThreshold(0.5)
	if d.Threshold() != 0.5 {
		t.Errorf("Threshold = %f, want 0.5", d.Threshold())
	}
}
