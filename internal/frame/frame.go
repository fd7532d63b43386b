// Package frame provides the 2D detector frame type shared by the analysis
// packages, along with summary statistics and display normalization.
package frame

import (
	"math"
)

// Frame holds one detector exposure as a row-major grid of counts plus the
// optional header key/value pairs reported by the loader.
type Frame struct {
	Pixels [][]float64
	Header map[string]string
}

// New allocates a zeroed frame of the given size.
func New(width, height int) *Frame {
	pixels := make([][]float64, height)
	for y := range pixels {
		pixels[y] = make([]float64, width)
	}
	return &Frame{Pixels: pixels}
}

// Width returns the number of columns, 0 for an empty frame.
func (f *Frame) Width() int {
	if len(f.Pixels) == 0 {
		return 0
	}
	return len(f.Pixels[0])
}

// Height returns the number of rows.
func (f *Frame) Height() int {
	return len(f.Pixels)
}

// Size returns the total pixel count.
func (f *Frame) Size() int {
	return f.Width() * f.Height()
}

// Max returns the maximum pixel value, 0 for an empty frame.
func (f *Frame) Max() float64 {
	first := true
	var max float64
	for _, row := range f.Pixels {
		for _, v := range row {
			if first || v > max {
				max = v
				first = false
			}
		}
	}
	return max
}

// Total returns the sum of all pixel values.
func (f *Frame) Total() float64 {
	var sum float64
	for _, row := range f.Pixels {
		for _, v := range row {
			sum += v
		}
	}
	return sum
}

// NonZero returns the number of pixels with a nonzero value.
func (f *Frame) NonZero() int {
	n := 0
	for _, row := range f.Pixels {
		for _, v := range row {
			if v != 0 {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{Pixels: make([][]float64, len(f.Pixels))}
	for y, row := range f.Pixels {
		out.Pixels[y] = make([]float64, len(row))
		copy(out.Pixels[y], row)
	}
	if f.Header != nil {
		out.Header = make(map[string]string, len(f.Header))
		for k, v := range f.Header {
			out.Header[k] = v
		}
	}
	return out
}

// Stats summarizes the pixel distribution of a frame.
type Stats struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	NonZero int     `json:"non_zero_pixels"`
	Pixels  int     `json:"pixels"`
}

// Summarize computes summary statistics in a single pass.
func (f *Frame) Summarize() Stats {
	s := Stats{Pixels: f.Size()}
	if s.Pixels == 0 {
		return s
	}

	var sum, sumSq float64
	first := true
	for _, row := range f.Pixels {
		for _, v := range row {
			if first {
				s.Min, s.Max = v, v
				first = false
			} else {
				if v < s.Min {
					s.Min = v
				}
				if v > s.Max {
					s.Max = v
				}
			}
			if v != 0 {
				s.NonZero++
			}
			sum += v
			sumSq += v * v
		}
	}

	n := float64(s.Pixels)
	s.Mean = sum / n
	variance := sumSq/n - s.Mean*s.Mean
	if variance > 0 {
		s.Std = math.Sqrt(variance)
	}
	return s
}

// ClampTo returns a copy of the frame adjusted to the given size.
// A smaller frame is zero-padded at the bottom/right; a larger frame is
// cropped. The overlapping region is preserved pixel for pixel.
func (f *Frame) ClampTo(width, height int) *Frame {
	out := New(width, height)
	out.Header = f.Header
	for y := 0; y < height && y < f.Height(); y++ {
		row := f.Pixels[y]
		for x := 0; x < width && x < len(row); x++ {
			out.Pixels[y][x] = row[x]
		}
	}
	return out
}
