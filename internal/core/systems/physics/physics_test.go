package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampIdempotent(t *testing.T) {
	for _, x := range []float64{-3, -1, -0.2, 0, 0.7, 1, 12} {
		once := Clamp(x, -1, 1)
		assert.Equal(t, once, Clamp(once, -1, 1))
		assert.GreaterOrEqual(t, once, -1.0)
		assert.LessOrEqual(t, once, 1.0)
	}
}

func TestVec3Clip(t *testing.T) {
	low := Vec3{-0.1, 0.5, 0}
	high := Vec3{0.1, 0.7, 0.5}
	assert.Equal(t, Vec3{0.1, 0.5, 0.25}, Vec3{0.4, 0.1, 0.25}.Clip(low, high))
}

func TestPoseClip(t *testing.T) {
	low := Pose{X: -0.05, Y: 0.55, Theta: -0.2}
	high := Pose{X: 0.05, Y: 0.65, Theta: 0.2}
	got := Pose{X: 0.3, Y: 0.6, Theta: -1}.Clip(low, high)
	assert.Equal(t, Pose{X: 0.05, Y: 0.6, Theta: -0.2}, got)
}

func TestDistances(t *testing.T) {
	assert.InDelta(t, 5, Distance2(0, 0, 3, 4), 1e-12)
	assert.InDelta(t, 5, Distance2V(Vec2{0, 0}, Vec2{3, 4}), 1e-12)
	assert.InDelta(t, math.Sqrt(3), Distance3V(Vec3{0, 0, 0}, Vec3{1, 1, 1}), 1e-12)
	assert.InDelta(t, 1, PoseDistance(Pose{}, Pose{Theta: 1}), 1e-12)
}
