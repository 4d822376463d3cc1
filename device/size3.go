package device

import "fmt"

// Size3 is a 3-D extent or index. Sizes use all three fields; a 1-D
// kernel has Y = Z = 1.
type Size3 struct {
	X, Y, Z int
}

// Volume returns X*Y*Z, the number of points in the extent.
func (s Size3) Volume() int {
	return s.X * s.Y * s.Z
}

// String formats the value as "(x,y,z)", matching report output.
func (s Size3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", s.X, s.Y, s.Z)
}

// Unflatten decodes a linear index into 3-D coordinates within extent,
// x fastest-varying: linear = x + extent.X*(y + extent.Y*z).
func Unflatten(linear int, extent Size3) Size3 {
	return Size3{
		X: linear % extent.X,
		Y: (linear / extent.X) % extent.Y,
		Z: linear / (extent.X * extent.Y),
	}
}

// Mod returns the component-wise remainder of s by extent. Used to derive
// local coordinates from global ones.
func (s Size3) Mod(extent Size3) Size3 {
	return Size3{s.X % extent.X, s.Y % extent.Y, s.Z % extent.Z}
}

// Div returns the component-wise quotient of s by extent. Used to derive
// group coordinates from global ones.
func (s Size3) Div(extent Size3) Size3 {
	return Size3{s.X / extent.X, s.Y / extent.Y, s.Z / extent.Z}
}
