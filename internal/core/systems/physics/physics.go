package physics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vec2 is a planar point.
type Vec2 [2]float64

func (v Vec2) X() float64 { return v[0] }
func (v Vec2) Y() float64 { return v[1] }

// Vec3 is a point in world coordinates.
type Vec3 [3]float64

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// XY drops the height component.
func (v Vec3) XY() Vec2 { return Vec2{v[0], v[1]} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v Vec3) Scale(k float64) Vec3 { return Vec3{v[0] * k, v[1] * k, v[2] * k} }

// Clip clamps every component into [low, high].
func (v Vec3) Clip(low, high Vec3) Vec3 {
	return Vec3{
		Clamp(v[0], low[0], high[0]),
		Clamp(v[1], low[1], high[1]),
		Clamp(v[2], low[2], high[2]),
	}
}

// Pose is a planar position plus a rotation about the vertical axis.
type Pose struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Theta float64 `json:"theta" yaml:"theta"`
}

// Slice returns the pose as [x, y, theta].
func (p Pose) Slice() []float64 { return []float64{p.X, p.Y, p.Theta} }

// XY returns the planar position.
func (p Pose) XY() Vec2 { return Vec2{p.X, p.Y} }

// Clip clamps x, y and theta into [low, high] independently.
func (p Pose) Clip(low, high Pose) Pose {
	return Pose{
		X:     Clamp(p.X, low.X, high.X),
		Y:     Clamp(p.Y, low.Y, high.Y),
		Theta: Clamp(p.Theta, low.Theta, high.Theta),
	}
}

// Clamp limits x to [low, high]. NaN passes through.
func Clamp(x, low, high float64) float64 {
	if x < low {
		return low
	}
	if x > high {
		return high
	}
	return x
}

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(x1, y1, x2, y2 float64) float64 { return math.Hypot(x2-x1, y2-y1) }

// Distance2V computes distance from two Vector2.
func Distance2V(a, b Vector2) float64 { return math.Hypot(b.X()-a.X(), b.Y()-a.Y()) }

// Distance3V computes distance between two Vector3.
func Distance3V(a, b Vector3) float64 {
	return floats.Distance(
		[]float64{a.X(), a.Y(), a.Z()},
		[]float64{b.X(), b.Y(), b.Z()},
		2,
	)
}

// PoseDistance is the Euclidean norm of the (x, y, theta) difference. The
// angle difference is not wrapped.
func PoseDistance(a, b Pose) float64 {
	return floats.Distance(a.Slice(), b.Slice(), 2)
}
