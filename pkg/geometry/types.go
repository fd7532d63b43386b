// Package geometry provides the pixel and plane primitives shared by the
// analysis packages.
package geometry

import (
	"math"
)

// Point2D is a position in continuous detector coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean separation of two points.
func (p Point2D) Distance(other Point2D) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// PointInt is a pixel coordinate (X column, Y row).
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToFloat widens the pixel coordinate to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// RectInt is an axis-aligned rectangle in pixel coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the pixel (x, y) lies inside the rectangle.
func (r RectInt) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width &&
		y >= r.Y && y < r.Y+r.Height
}

// Center returns the midpoint of the rectangle.
func (r RectInt) Center() Point2D {
	return Point2D{
		X: float64(r.X) + float64(r.Width)/2,
		Y: float64(r.Y) + float64(r.Height)/2,
	}
}

// Area returns the pixel area of the rectangle.
func (r RectInt) Area() int {
	return r.Width * r.Height
}

// BoundsOf returns the tightest rectangle covering every pixel in the set.
// The box is pixel-inclusive, so a single pixel yields a 1x1 box.
func BoundsOf(pixels []PointInt) RectInt {
	if len(pixels) == 0 {
		return RectInt{}
	}
	min, max := pixels[0], pixels[0]
	for _, p := range pixels[1:] {
		if p.X < min.X {
			min.X = p.X
		} else if p.X > max.X {
			max.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		} else if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return RectInt{X: min.X, Y: min.Y, Width: max.X - min.X + 1, Height: max.Y - min.Y + 1}
}

// WeightedCentroid returns the weight-averaged position of a set of pixels.
// When the weights sum to zero it degrades to the unweighted centroid.
func WeightedCentroid(pixels []PointInt, weights []float64) Point2D {
	if len(pixels) == 0 {
		return Point2D{}
	}

	var sumX, sumY, sumW float64
	for i, p := range pixels {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		sumX += float64(p.X) * w
		sumY += float64(p.Y) * w
		sumW += w
	}

	if sumW == 0 {
		n := float64(len(pixels))
		sumX, sumY = 0, 0
		for _, p := range pixels {
			sumX += float64(p.X)
			sumY += float64(p.Y)
		}
		return Point2D{X: sumX / n, Y: sumY / n}
	}

	return Point2D{X: sumX / sumW, Y: sumY / sumW}
}
