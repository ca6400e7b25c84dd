package classifier

import (
	"math"

	"github.com/cube-ocr/cube/segment"
)

// Extractor turns a CharSample into the fixed-width feature vector a neural
// net expects (§4.5): a scaled bitmap, a set of Chebyshev border-profile
// coefficients, or their concatenation.
type Extractor interface {
	FeatureCount() int
	ComputeFeatures(samp *segment.CharSample) ([]float32, bool)
}

// BmpExtractor scales a CharSample to a gridSize x gridSize raster and
// appends the five context attributes, grounded on FeatureBmp and
// CharSamp::ComputeFeatures: per-pixel features are 255-pixelValue (so
// black ink reads as high activation), in raster order, followed by
// FirstChar, LastChar, NormTop, NormBottom, NormAspectRatio.
type BmpExtractor struct {
	GridSize int
}

func NewBmpExtractor(gridSize int) *BmpExtractor {
	return &BmpExtractor{GridSize: gridSize}
}

func (e *BmpExtractor) FeatureCount() int {
	return 5 + e.GridSize*e.GridSize
}

func (e *BmpExtractor) ComputeFeatures(samp *segment.CharSample) ([]float32, bool) {
	scaled := scaleSample(samp, e.GridSize, e.GridSize, true)
	if scaled == nil {
		return nil, false
	}
	features := make([]float32, e.FeatureCount())
	i := 0
	for y := 0; y < e.GridSize; y++ {
		for x := 0; x < e.GridSize; x++ {
			features[i] = 255.0 - float32(scaled.At(x, y))
			i++
		}
	}
	features[i] = boolToFloat(samp.Context.FirstChar)
	i++
	features[i] = boolToFloat(samp.Context.LastChar)
	i++
	features[i] = float32(samp.Context.NormTop)
	i++
	features[i] = float32(samp.Context.NormBottom)
	i++
	features[i] = float32(samp.Context.NormAspectRatio)
	return features, true
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// scaleSample resizes samp to (width, height), nearest-neighbor on
// up-scale and box-averaging on down-scale along each axis independently,
// optionally preserving aspect ratio by centering the source within the
// destination (isotropic), matching Bmp8::ScaleFrom.
func scaleSample(samp *segment.CharSample, width, height int, isotropic bool) *segment.CharSample {
	srcW, srcH := samp.Box.Width, samp.Box.Height
	if srcW <= 0 || srcH <= 0 || width <= 0 || height <= 0 {
		return nil
	}

	xNum, xDenom, yNum, yDenom := width, srcW, height, srcH
	if isotropic {
		if width*srcH > height*srcW {
			xNum, yNum = height, height
			xDenom, yDenom = srcH, srcH
		} else {
			xNum, yNum = width, width
			xDenom, yDenom = srcW, srcW
		}
	}

	xOff := (width - (xNum * srcW / xDenom)) / 2
	yOff := (height - (yNum * srcH / yDenom)) / 2

	dst := &segment.CharSample{
		Box:    segment.Box{Width: width, Height: height},
		Pixels: make([]uint8, width*height),
	}

	if yNum > yDenom {
		// up-scale: nearest neighbor
		for ydst := yOff; ydst < height-yOff; ydst++ {
			ysrc := int(0.5 + float64(ydst-yOff)*float64(yDenom)/float64(yNum))
			if ysrc < 0 || ysrc >= srcH {
				continue
			}
			for xdst := xOff; xdst < width-xOff; xdst++ {
				xsrc := int(0.5 + float64(xdst-xOff)*float64(xDenom)/float64(xNum))
				if xsrc < 0 || xsrc >= srcW {
					continue
				}
				dst.Pixels[ydst*width+xdst] = samp.At(xsrc, ysrc)
			}
		}
		return dst
	}

	// down-scale: accumulate then average over each destination cell's
	// source footprint.
	sums := make([]uint32, width*height)
	counts := make([]uint32, width*height)
	for ysrc := 0; ysrc < srcH; ysrc++ {
		ydst := yOff + ysrc*yNum/yDenom
		if ydst < 0 || ydst >= height {
			continue
		}
		for xsrc := 0; xsrc < srcW; xsrc++ {
			xdst := xOff + xsrc*xNum/xDenom
			if xdst < 0 || xdst >= width {
				continue
			}
			idx := ydst*width + xdst
			sums[idx] += uint32(samp.At(xsrc, ysrc))
			counts[idx]++
		}
	}
	for i := range dst.Pixels {
		if counts[i] > 0 {
			dst.Pixels[i] = uint8(sums[i] / counts[i])
		}
	}
	return dst
}

// ChebyshevExtractor computes the Chebyshev-polynomial coefficients of the
// left/top/right/bottom ink-boundary profiles, grounded on
// FeatureChebyshev::ComputeChebyshevCoefficients.
type ChebyshevExtractor struct {
	CoeffCount int // per profile; original uses 40
}

func NewChebyshevExtractor() *ChebyshevExtractor {
	return &ChebyshevExtractor{CoeffCount: 40}
}

func (e *ChebyshevExtractor) FeatureCount() int {
	return 4 * e.CoeffCount
}

func (e *ChebyshevExtractor) ComputeFeatures(samp *segment.CharSample) ([]float32, bool) {
	if samp.Context.NormBottom == 0 {
		return nil, false
	}
	wordHgt := 255 * (samp.Box.Top + samp.Box.Height) / int(samp.Context.NormBottom)
	if wordHgt <= 0 {
		wordHgt = 1
	}

	left := make([]float32, wordHgt)
	right := make([]float32, wordHgt)
	for y := 0; y < samp.Box.Height; y++ {
		minX, maxX := samp.Box.Width, -1
		for x := 0; x < samp.Box.Width; x++ {
			if samp.At(x, y) == 0 {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
			}
		}
		row := samp.Box.Top + y
		if row >= 0 && row < wordHgt {
			if minX == samp.Box.Width {
				left[row] = 0
			} else {
				left[row] = float32(minX+1) / float32(samp.Box.Width)
			}
			if maxX == -1 {
				right[row] = 0
			} else {
				right[row] = float32(samp.Box.Width-maxX) / float32(samp.Box.Width)
			}
		}
	}

	top := make([]float32, samp.Box.Width)
	bottom := make([]float32, samp.Box.Width)
	for x := 0; x < samp.Box.Width; x++ {
		minY, maxY := wordHgt, -1
		for y := 0; y < samp.Box.Height; y++ {
			if samp.At(x, y) == 0 {
				row := y + samp.Box.Top
				if row < minY {
					minY = row
				}
				if row > maxY {
					maxY = row
				}
			}
		}
		if minY == wordHgt {
			top[x] = 0
		} else {
			top[x] = float32(minY+1) / float32(wordHgt)
		}
		if maxY == -1 {
			bottom[x] = 0
		} else {
			bottom[x] = float32(wordHgt-maxY) / float32(wordHgt)
		}
	}

	features := make([]float32, e.FeatureCount())
	chebyshevCoefficients(left, e.CoeffCount, features[0:e.CoeffCount])
	chebyshevCoefficients(top, e.CoeffCount, features[e.CoeffCount:2*e.CoeffCount])
	chebyshevCoefficients(right, e.CoeffCount, features[2*e.CoeffCount:3*e.CoeffCount])
	chebyshevCoefficients(bottom, e.CoeffCount, features[3*e.CoeffCount:4*e.CoeffCount])
	return features, true
}

// chebyshevCoefficients resamples input at coeffCount Chebyshev nodes, then
// projects onto the first coeffCount Chebyshev basis functions.
func chebyshevCoefficients(input []float32, coeffCnt int, out []float32) {
	inputRange := float64(len(input) - 1)
	resamp := make([]float64, coeffCnt)
	for i := 0; i < coeffCnt; i++ {
		sampPos := inputRange * (1 + math.Cos(math.Pi*(float64(i)+0.5)/float64(coeffCnt))) / 2
		sampStart := int(sampPos)
		sampEnd := int(sampPos + 0.5)
		if sampEnd >= len(input) {
			sampEnd = len(input) - 1
		}
		if sampStart >= len(input) {
			sampStart = len(input) - 1
		}
		delta := float64(input[sampEnd]) - float64(input[sampStart])
		resamp[i] = float64(input[sampStart]) + (sampPos-float64(sampStart))*delta
	}
	normalizer := 2.0 / float64(coeffCnt)
	for c := 0; c < coeffCnt; c++ {
		sum := 0.0
		for i := 0; i < coeffCnt; i++ {
			sum += resamp[i] * math.Cos(math.Pi*float64(c)*(float64(i)+0.5)/float64(coeffCnt))
		}
		out[c] = float32(normalizer * sum)
	}
}

// HybridExtractor concatenates a BmpExtractor's and a ChebyshevExtractor's
// output, grounded on FeatureHybrid.
type HybridExtractor struct {
	Bmp       *BmpExtractor
	Chebyshev *ChebyshevExtractor
}

func NewHybridExtractor(gridSize int) *HybridExtractor {
	return &HybridExtractor{Bmp: NewBmpExtractor(gridSize), Chebyshev: NewChebyshevExtractor()}
}

func (e *HybridExtractor) FeatureCount() int {
	return e.Bmp.FeatureCount() + e.Chebyshev.FeatureCount()
}

func (e *HybridExtractor) ComputeFeatures(samp *segment.CharSample) ([]float32, bool) {
	bmpFeatures, ok := e.Bmp.ComputeFeatures(samp)
	if !ok {
		return nil, false
	}
	chebFeatures, ok := e.Chebyshev.ComputeFeatures(samp)
	if !ok {
		return nil, false
	}
	out := make([]float32, 0, len(bmpFeatures)+len(chebFeatures))
	out = append(out, bmpFeatures...)
	out = append(out, chebFeatures...)
	return out, true
}
