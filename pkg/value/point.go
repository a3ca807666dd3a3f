package value

import (
	"strconv"
)

// Point is a geographic point. X holds the latitude and Y the longitude,
// in the order the server sends them.
type Point struct {
	X float64
	Y float64
}

// Latitude returns X.
func (p Point) Latitude() float64 { return p.X }

// Longitude returns Y.
func (p Point) Longitude() float64 { return p.Y }

func (p Point) String() string {
	return "Point{latitude=" + strconv.FormatFloat(p.X, 'g', -1, 64) +
		", longitude=" + strconv.FormatFloat(p.Y, 'g', -1, 64) + "}"
}

// Vector is an ordered numeric sequence returned for vector values.
type Vector []float64

// Dim returns the number of components.
func (v Vector) Dim() int { return len(v) }

// Float32s converts the vector to float32 components.
func (v Vector) Float32s() []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

func (v Vector) String() string {
	buf := make([]byte, 0, len(v)*8+8)
	buf = append(buf, "vecf32(["...)
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ", "...)
		}
		buf = strconv.AppendFloat(buf, f, 'g', -1, 32)
	}
	return string(append(buf, "])"...))
}
