package ocr

import (
	"image"
	"image/color"
	"math"

	"github.com/nfnt/resize"
)

// PreprocessConfig controls the optional preprocessing steps applied before
// extraction. All steps are independently toggleable per spec §4.C.
type PreprocessConfig struct {
	Enabled           bool
	Denoise           bool
	EnhanceContrast   bool
	AdaptiveThreshold bool
	GaussianBlurSigma float64 // 0 disables
	ScaleFactor       float64 // 0 means "use DPITarget instead"
	DPITarget         int     // 0 disables DPI-based upscaling

	// MaxPixels bounds the image before any other step runs.
	MaxPixels int
	// AdaptiveThresholdMaxPixels is the ceiling above which adaptive
	// threshold falls back to a global Otsu threshold.
	AdaptiveThresholdMaxPixels int
}

// DefaultPreprocessConfig mirrors the reference engine's defaults.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		Enabled:                    true,
		Denoise:                    true,
		EnhanceContrast:            true,
		AdaptiveThreshold:          true,
		GaussianBlurSigma:          0.5,
		DPITarget:                  300,
		MaxPixels:                  4_000_000,
		AdaptiveThresholdMaxPixels: 2_000_000,
	}
}

// Preprocessor runs the resize/grayscale/blur/threshold/contrast pipeline.
type Preprocessor struct {
	cfg PreprocessConfig
}

// NewPreprocessor creates a preprocessor with the given config.
func NewPreprocessor(cfg PreprocessConfig) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

// Process applies every enabled step in order and returns a grayscale image.
func (p *Preprocessor) Process(img image.Image) *image.Gray {
	b := img.Bounds()
	if !p.cfg.Enabled {
		return toGray(img)
	}

	w, h := b.Dx(), b.Dy()
	if p.cfg.MaxPixels > 0 && w*h > p.cfg.MaxPixels {
		scale := math.Sqrt(float64(p.cfg.MaxPixels) / float64(w*h))
		img = resizeScale(img, scale)
	}

	gray := toGray(img)

	if p.cfg.ScaleFactor > 0 {
		gray = toGray(resizeScale(gray, p.cfg.ScaleFactor))
	} else if p.cfg.DPITarget > 0 {
		const assumedScreenDPI = 72
		scale := float64(p.cfg.DPITarget) / assumedScreenDPI
		if scale > 1.0 {
			gray = toGray(resizeScale(gray, scale))
		}
	}

	if p.cfg.GaussianBlurSigma > 0 {
		gray = gaussianBlur(gray, p.cfg.GaussianBlurSigma)
	}

	if p.cfg.Denoise {
		gray = medianFilter3x3(gray)
	}

	if p.cfg.AdaptiveThreshold {
		bounds := gray.Bounds()
		if bounds.Dx()*bounds.Dy() > p.cfg.AdaptiveThresholdMaxPixels {
			gray = otsuThreshold(gray)
		} else {
			gray = adaptiveThreshold(gray, 15)
		}
	}

	if p.cfg.EnhanceContrast {
		gray = equalizeHistogram(gray)
	}

	return gray
}

func resizeScale(img image.Image, scale float64) image.Image {
	b := img.Bounds()
	newW := uint(math.Max(1, float64(b.Dx())*scale))
	newH := uint(math.Max(1, float64(b.Dy())*scale))
	return resize.Resize(newW, newH, img, resize.Lanczos3)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// gaussianBlur applies a separable approximate-Gaussian blur.
func gaussianBlur(img *image.Gray, sigma float64) *image.Gray {
	radius := int(math.Ceil(sigma * 3))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	b := img.Bounds()
	tmp := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				xx := clampInt(x+k, b.Min.X, b.Max.X-1)
				acc += float64(img.GrayAt(xx, y).Y) * kernel[k+radius]
			}
			tmp.SetGray(x, y, color.Gray{Y: uint8(clampFloat(acc, 0, 255))})
		}
	}

	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				yy := clampInt(y+k, b.Min.Y, b.Max.Y-1)
				acc += float64(tmp.GrayAt(x, yy).Y) * kernel[k+radius]
			}
			out.SetGray(x, y, color.Gray{Y: uint8(clampFloat(acc, 0, 255))})
		}
	}
	return out
}

func medianFilter3x3(img *image.Gray) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	var window [9]uint8
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx := clampInt(x+dx, b.Min.X, b.Max.X-1)
					yy := clampInt(y+dy, b.Min.Y, b.Max.Y-1)
					window[i] = img.GrayAt(xx, yy).Y
					i++
				}
			}
			out.SetGray(x, y, color.Gray{Y: median9(window)})
		}
	}
	return out
}

func median9(w [9]uint8) uint8 {
	sorted := w
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return sorted[4]
}

// adaptiveThreshold binarizes against a local mean within a window.
func adaptiveThreshold(img *image.Gray, window int) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	half := window / 2
	const meanBias = 0.9 // pixel must clear mean*bias to count as foreground

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum, count := 0, 0
			for dy := -half; dy <= half; dy++ {
				for dx := -half; dx <= half; dx++ {
					xx, yy := x+dx, y+dy
					if xx < b.Min.X || xx >= b.Max.X || yy < b.Min.Y || yy >= b.Max.Y {
						continue
					}
					sum += int(img.GrayAt(xx, yy).Y)
					count++
				}
			}
			mean := float64(sum) / float64(count)
			v := img.GrayAt(x, y).Y
			if float64(v) > mean*meanBias {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// otsuThreshold is the adaptive-threshold fallback for very large images.
func otsuThreshold(img *image.Gray) *image.Gray {
	var histogram [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			histogram[img.GrayAt(x, y).Y]++
		}
	}

	total := float64(b.Dx() * b.Dy())
	var sumTotal float64
	for i, c := range histogram {
		sumTotal += float64(i) * float64(c)
	}

	var sumBackground, weightBackground, maxVariance float64
	threshold := uint8(0)
	for t := 0; t < 256; t++ {
		weightBackground += float64(histogram[t])
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}
		sumBackground += float64(t) * float64(histogram[t])
		meanBackground := sumBackground / weightBackground
		meanForeground := (sumTotal - sumBackground) / weightForeground
		between := weightBackground * weightForeground * math.Pow(meanBackground-meanForeground, 2)
		if between > maxVariance {
			maxVariance = between
			threshold = uint8(t)
		}
	}

	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// equalizeHistogram boosts contrast via cumulative-distribution remapping.
func equalizeHistogram(img *image.Gray) *image.Gray {
	var histogram [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			histogram[img.GrayAt(x, y).Y]++
		}
	}

	var cdf [256]int
	cdf[0] = histogram[0]
	for i := 1; i < 256; i++ {
		cdf[i] = cdf[i-1] + histogram[i]
	}

	total := float64(b.Dx() * b.Dy())
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			old := img.GrayAt(x, y).Y
			newV := uint8(clampFloat(float64(cdf[old])/total*255.0, 0, 255))
			out.SetGray(x, y, color.Gray{Y: newV})
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
