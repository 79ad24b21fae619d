// Package pose converts 3-D body landmarks from a camera into calibrated
// servo-channel values for the Loly animatronic.
//
// Mapping is pure and deterministic: the same landmark set always produces
// the same servo pose. Two calibration profiles are provided, selectable at
// construction (see NewMapper).
package pose

import "math"

// Landmark names produced by the detector. These follow the anatomical
// points the mappers consume; a detector may report more, extras are ignored.
const (
	Nose          = "nose"
	MouthLeft     = "mouth_left"
	MouthRight    = "mouth_right"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
)

// Vec3 is a point or direction in normalized camera space.
type Vec3 struct {
	X, Y, Z float64
}

// Landmarks maps landmark names to their normalized camera-space positions.
type Landmarks map[string]Vec3

// Has reports whether every named landmark is present.
func (l Landmarks) Has(names ...string) bool {
	if l == nil {
		return false
	}
	for _, n := range names {
		if _, ok := l[n]; !ok {
			return false
		}
	}
	return true
}

// HeadPose holds the three head servo channels, each in [0,100].
type HeadPose struct {
	Pitch int `json:"pitch"`
	Yaw   int `json:"yaw"`
	Roll  int `json:"roll"`
}

// WingPose holds the two servo channels of one wing, each in [0,100].
type WingPose struct {
	Vertical   int `json:"vertical"`
	Horizontal int `json:"horizontal"`
}

// ServoPose is a complete servo command set for one captured instant.
type ServoPose struct {
	Head  HeadPose `json:"head"`
	WingL WingPose `json:"wing_L"`
	WingR WingPose `json:"wing_R"`
}

// Neutral returns the centered pose (all channels at 50).
func Neutral() ServoPose {
	return ServoPose{
		Head:  HeadPose{Pitch: 50, Yaw: 50, Roll: 50},
		WingL: WingPose{Vertical: 50, Horizontal: 50},
		WingR: WingPose{Vertical: 50, Horizontal: 50},
	}
}

// Mapper converts a landmark set into a servo pose. Implementations must be
// side-effect-free.
type Mapper interface {
	// Map produces the servo pose for one frame. width and height are the
	// source image dimensions in pixels.
	Map(lm Landmarks, width, height int) ServoPose
}

// vector helpers

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector, or v unchanged when near zero.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n < 1e-6 {
		return v
	}
	return v.Scale(1 / n)
}

func midpoint(a, b Vec3) Vec3 { return a.Add(b).Scale(0.5) }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// angleInPlane projects v onto the plane spanned by axis1 and axis2 and
// returns the atan2 angle of the in-plane components, in degrees.
func angleInPlane(v, axis1, axis2 Vec3) float64 {
	x := v.Dot(axis1)
	y := v.Dot(axis2)
	return degrees(math.Atan2(y, x))
}

// planeAngle returns the atan2 angle of components (a, b) in degrees, or 0
// when both components are near zero.
func planeAngle(a, b float64) float64 {
	if math.Hypot(a, b) < 1e-6 {
		return 0
	}
	return degrees(math.Atan2(b, a))
}

// to0180 wraps any angle into [0,180] degrees.
func to0180(deg float64) float64 {
	a := math.Mod(deg+360, 360)
	if a > 180 {
		return 360 - a
	}
	return a
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TorsoBasis is the torso-local orthonormal frame built from shoulder (and
// optionally hip) landmarks. It makes head and limb angles invariant to
// camera roll and operator distance.
type TorsoBasis struct {
	X, Y, Z        Vec3
	ShoulderCenter Vec3
}

// BuildTorsoBasis constructs the torso frame. X runs left shoulder to right
// shoulder. The vertical axis comes from the hip centers when both hips are
// present, otherwise the camera vertical is used as a provisional axis and
// re-orthogonalized against X.
func BuildTorsoBasis(lm Landmarks) (TorsoBasis, bool) {
	if !lm.Has(LeftShoulder, RightShoulder) {
		return TorsoBasis{}, false
	}
	ls, rs := lm[LeftShoulder], lm[RightShoulder]
	center := midpoint(ls, rs)

	x := rs.Sub(ls).Normalize()

	y := Vec3{0, 1, 0}
	if lm.Has(LeftHip, RightHip) {
		hips := midpoint(lm[LeftHip], lm[RightHip])
		y = center.Sub(hips).Normalize()
	}

	z := x.Cross(y).Normalize()
	y = z.Cross(x).Normalize()

	return TorsoBasis{X: x, Y: y, Z: z, ShoulderCenter: center}, true
}
