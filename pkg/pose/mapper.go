package pose

import (
	"fmt"
	"math"
)

// Profile selects which calibration profile a Mapper uses. The two profiles
// diverge in both raw-angle source and numeric ranges; they are deployable
// alternatives, not variants of one curve.
type Profile string

const (
	// ProfileTable maps camera-plane angles through measured per-channel
	// calibration tables. This is the profile the recording pipeline uses.
	ProfileTable Profile = "table"

	// ProfileTorso builds a torso-local basis and maps gained, clipped
	// plane angles linearly onto the servo range.
	ProfileTorso Profile = "torso"
)

// NewMapper constructs the mapper for a calibration profile.
func NewMapper(profile Profile) (Mapper, error) {
	switch profile {
	case ProfileTable:
		tables, err := LoadTables()
		if err != nil {
			return nil, err
		}
		return &TableMapper{Tables: tables}, nil
	case ProfileTorso:
		return &TorsoMapper{}, nil
	default:
		return nil, fmt.Errorf("unknown pose profile %q", profile)
	}
}

// TableMapper maps raw camera-space angles through per-channel calibration
// tables and applies the servo deadzone.
//
// Neutral fallbacks when a channel's landmarks are missing: pitch 127 degrees
// (top of table), yaw 0, roll 90, left wing 90, right wing -90. Each lands on
// the channel's calibrated center except pitch, which pins fully up; the
// physical rig reads that as "operator not found, look at the audience".
type TableMapper struct {
	Tables *Tables
}

// Map implements Mapper.
func (m *TableMapper) Map(lm Landmarks, width, height int) ServoPose {
	p := ServoPose{
		Head: HeadPose{
			Pitch: m.Tables.Pitch.Lookup(rawPitch(lm)),
			Yaw:   m.Tables.Yaw.Lookup(rawYaw(lm)),
			Roll:  m.Tables.Roll.Lookup(rawRoll(lm)),
		},
		WingL: WingPose{
			Vertical:   m.Tables.WingLeftV.Lookup(rawWingLeftV(lm)),
			Horizontal: m.Tables.WingLeftH.Lookup(rawWingLeftH(lm)),
		},
		WingR: WingPose{
			Vertical:   m.Tables.WingRightV.Lookup(rawWingRightV(lm)),
			Horizontal: m.Tables.WingRightH.Lookup(rawWingRightH(lm)),
		},
	}

	p.Head.Pitch = ApplyDeadzone(p.Head.Pitch)
	p.Head.Yaw = ApplyDeadzone(p.Head.Yaw)
	p.Head.Roll = ApplyDeadzone(p.Head.Roll)
	p.WingL.Vertical = ApplyDeadzone(p.WingL.Vertical)
	p.WingL.Horizontal = ApplyDeadzone(p.WingL.Horizontal)
	p.WingR.Vertical = ApplyDeadzone(p.WingR.Vertical)
	p.WingR.Horizontal = ApplyDeadzone(p.WingR.Horizontal)
	return p
}

// pitchScale is the fixed depth used when turning the vertical nose-shoulder
// offset into an angle.
const pitchScale = 0.4

func rawPitch(lm Landmarks) float64 {
	if !lm.Has(Nose, LeftShoulder, RightShoulder) {
		return 127.0
	}
	shouldersY := (lm[LeftShoulder].Y + lm[RightShoulder].Y) / 2
	dy := shouldersY - lm[Nose].Y
	return to0180(degrees(math.Atan2(dy, pitchScale)))
}

func rawYaw(lm Landmarks) float64 {
	if !lm.Has(Nose, LeftShoulder, RightShoulder) {
		return 0.0
	}
	ls, rs := lm[LeftShoulder], lm[RightShoulder]
	center := midpoint(ls, rs)
	dx := lm[Nose].X - center.X
	// Shoulder width as depth scale keeps the angle distance-invariant.
	dz := rs.Sub(ls).Norm()
	return degrees(math.Atan2(dx, dz))
}

func rawRoll(lm Landmarks) float64 {
	if !lm.Has(MouthLeft, MouthRight) {
		return 90.0
	}
	u := lm[MouthRight].Sub(lm[MouthLeft])
	if math.Hypot(u.X, u.Y) < 1e-6 {
		return 90.0
	}
	return planeAngle(u.X, u.Y)
}

func rawWingLeftV(lm Landmarks) float64 {
	if !lm.Has(LeftShoulder, LeftWrist) {
		return 90.0
	}
	v := lm[LeftShoulder].Sub(lm[LeftWrist]).Normalize()
	return planeAngle(v.X, v.Y)
}

func rawWingLeftH(lm Landmarks) float64 {
	if !lm.Has(LeftShoulder, LeftWrist) {
		return 90.0
	}
	v := lm[LeftShoulder].Sub(lm[LeftWrist]).Normalize()
	return planeAngle(v.X, v.Z)
}

func rawWingRightV(lm Landmarks) float64 {
	if !lm.Has(RightShoulder, RightWrist) {
		return -90.0
	}
	v := lm[RightWrist].Sub(lm[RightShoulder]).Normalize()
	return planeAngle(v.X, v.Y)
}

func rawWingRightH(lm Landmarks) float64 {
	if !lm.Has(RightShoulder, RightWrist) {
		return -90.0
	}
	v := lm[RightWrist].Sub(lm[RightShoulder]).Normalize()
	return planeAngle(v.X, v.Z)
}

// TorsoMapper maps angles measured in the torso-local basis, with per-axis
// gain, an angle-space deadzone and linear normalization onto [0,100].
type TorsoMapper struct{}

// Head sensitivity tuning for the torso profile.
const (
	headGainPitch    = 1.6
	headGainYaw      = 1.6
	headGainRoll     = 1.3
	headDeadzoneDeg  = 2.0
	wristElbowWeight = 0.7
)

// Map implements Mapper.
func (m *TorsoMapper) Map(lm Landmarks, width, height int) ServoPose {
	p := Neutral()

	basis, ok := BuildTorsoBasis(lm)
	if !ok || !lm.Has(Nose, LeftHip, RightHip) {
		return p
	}

	head := lm[Nose].Sub(basis.ShoulderCenter).Normalize()

	pitch := angleDeadzone(angleInPlane(head, basis.Y, basis.Z)*headGainPitch, headDeadzoneDeg)
	yaw := angleDeadzone(angleInPlane(head, basis.X, basis.Z)*headGainYaw, headDeadzoneDeg)
	roll := angleDeadzone(angleInPlane(head, basis.X, basis.Y)*headGainRoll, headDeadzoneDeg)

	p.Head.Pitch = normalizeToServo(clampF(pitch, -60, 60), -60, 60)
	p.Head.Yaw = normalizeToServo(clampF(yaw, -60, 60), -60, 60)
	p.Head.Roll = normalizeToServo(clampF(roll, -45, 45), -45, 45)

	if lm.Has(LeftShoulder, LeftWrist, LeftElbow) {
		p.WingL = torsoWing(lm[LeftShoulder], lm[LeftWrist], lm[LeftElbow], basis)
	}
	if lm.Has(RightShoulder, RightWrist, RightElbow) {
		p.WingR = torsoWing(lm[RightShoulder], lm[RightWrist], lm[RightElbow], basis)
	}
	return p
}

// torsoWing maps one arm onto wing servo channels. The arm direction blends
// wrist and elbow so a bent arm still reads as raised.
func torsoWing(shoulder, wrist, elbow Vec3, basis TorsoBasis) WingPose {
	v := wrist.Sub(shoulder).Scale(wristElbowWeight).
		Add(elbow.Sub(shoulder).Scale(1 - wristElbowWeight)).
		Normalize()

	vertical := angleInPlane(v, basis.Y, basis.Z)
	horizontal := clampF(v.Dot(basis.Z), -1, 1)

	return WingPose{
		Vertical:   100 - normalizeToServo(clampF(vertical, -90, 90), -90, 90),
		Horizontal: normalizeToServo(-horizontal, -0.8, 0.8),
	}
}

// angleDeadzone removes jitter below dz degrees and re-centers the remainder
// so the response stays continuous at the deadzone edge.
func angleDeadzone(deg, dz float64) float64 {
	if math.Abs(deg) <= dz {
		return 0
	}
	return deg - math.Copysign(dz, deg)
}

// normalizeToServo scales a value from [min,max] onto the servo range with
// clipping.
func normalizeToServo(value, min, max float64) int {
	if max == min {
		return ServoCenter
	}
	f := (value - min) / (max - min)
	return int(clampF(f*100, 0, 100))
}
