package pose

import (
	"testing"
)

func TestTable_Lookup(t *testing.T) {
	table := NewTable(
		Point{Angle: 39, Servo: 0},
		Point{Angle: 47, Servo: 50},
		Point{Angle: 57, Servo: 100},
	)

	tests := []struct {
		name  string
		angle float64
		want  int
	}{
		{"exact first control point", 39, 0},
		{"exact middle control point", 47, 50},
		{"exact last control point", 57, 100},
		{"midpoint interpolation", 43, 25},
		{"clamp below range", 10, 0},
		{"clamp above range", 90, 100},
		{"interpolation in upper segment", 52, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Lookup(tt.angle); got != tt.want {
				t.Errorf("Lookup(%v) = %d, want %d", tt.angle, got, tt.want)
			}
		})
	}
}

func TestTable_LookupMonotonic(t *testing.T) {
	table := NewTable(
		Point{Angle: 39, Servo: 0},
		Point{Angle: 47, Servo: 50},
		Point{Angle: 57, Servo: 100},
	)

	prev := -1
	for angle := 35.0; angle <= 60.0; angle += 0.25 {
		got := table.Lookup(angle)
		if got < prev {
			t.Fatalf("Lookup not monotonic: angle %v gave %d after %d", angle, got, prev)
		}
		prev = got
	}
}

func TestTable_LookupDescendingServo(t *testing.T) {
	// Wing tables map increasing angles to decreasing servo values.
	table := NewTable(
		Point{Angle: 70, Servo: 100},
		Point{Angle: 90, Servo: 50},
		Point{Angle: 114, Servo: 0},
	)

	if got := table.Lookup(70); got != 100 {
		t.Errorf("Lookup(70) = %d, want 100", got)
	}
	if got := table.Lookup(114); got != 0 {
		t.Errorf("Lookup(114) = %d, want 0", got)
	}
	if got := table.Lookup(80); got != 75 {
		t.Errorf("Lookup(80) = %d, want 75", got)
	}
}

func TestApplyDeadzone(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{50, 50},
		{49, 50},
		{51, 50},
		{48, 48},
		{52, 52},
		{0, 0},
		{100, 100},
	}
	for _, tt := range tests {
		if got := ApplyDeadzone(tt.in); got != tt.want {
			t.Errorf("ApplyDeadzone(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLoadTables(t *testing.T) {
	tables, err := LoadTables()
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}

	// The embedded data must reproduce the measured rig calibration.
	if got := tables.Pitch.Lookup(47); got != 50 {
		t.Errorf("pitch center: got %d, want 50", got)
	}
	if got := tables.Yaw.Lookup(0); got != 50 {
		t.Errorf("yaw center: got %d, want 50", got)
	}
	if got := tables.WingLeftV.Lookup(70); got != 100 {
		t.Errorf("wing left vertical at 70: got %d, want 100", got)
	}
	if got := tables.WingRightV.Lookup(-90); got != 50 {
		t.Errorf("wing right vertical at -90: got %d, want 50", got)
	}
}

// frontFacing returns a landmark set for an operator centered in frame,
// arms hanging down.
func frontFacing() Landmarks {
	return Landmarks{
		Nose:          {X: 0.5, Y: 0.3, Z: -0.1},
		MouthLeft:     {X: 0.48, Y: 0.35, Z: -0.08},
		MouthRight:    {X: 0.52, Y: 0.35, Z: -0.08},
		LeftShoulder:  {X: 0.4, Y: 0.5, Z: 0},
		RightShoulder: {X: 0.6, Y: 0.5, Z: 0},
		LeftElbow:     {X: 0.4, Y: 0.7, Z: 0},
		RightElbow:    {X: 0.6, Y: 0.7, Z: 0},
		LeftWrist:     {X: 0.4, Y: 0.9, Z: 0},
		RightWrist:    {X: 0.6, Y: 0.9, Z: 0},
		LeftHip:       {X: 0.42, Y: 0.9, Z: 0},
		RightHip:      {X: 0.58, Y: 0.9, Z: 0},
	}
}

func TestTableMapper_Deterministic(t *testing.T) {
	mapper, err := NewMapper(ProfileTable)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	lm := frontFacing()
	first := mapper.Map(lm, 640, 480)
	for i := 0; i < 10; i++ {
		if got := mapper.Map(lm, 640, 480); got != first {
			t.Fatalf("mapper not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestTableMapper_MissingLandmarksNeutral(t *testing.T) {
	mapper, err := NewMapper(ProfileTable)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	got := mapper.Map(nil, 640, 480)

	// Every channel except pitch falls back to its calibrated center;
	// pitch pins up so the rig visibly signals a lost operator.
	if got.Head.Pitch != 100 {
		t.Errorf("pitch fallback: got %d, want 100", got.Head.Pitch)
	}
	if got.Head.Yaw != 50 || got.Head.Roll != 50 {
		t.Errorf("head fallback: got yaw=%d roll=%d, want 50/50", got.Head.Yaw, got.Head.Roll)
	}
	if got.WingL != (WingPose{Vertical: 50, Horizontal: 50}) {
		t.Errorf("left wing fallback: got %+v", got.WingL)
	}
	if got.WingR != (WingPose{Vertical: 50, Horizontal: 50}) {
		t.Errorf("right wing fallback: got %+v", got.WingR)
	}
}

func TestTableMapper_YawTracksNose(t *testing.T) {
	mapper, err := NewMapper(ProfileTable)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	centered := mapper.Map(frontFacing(), 640, 480)
	if centered.Head.Yaw != 50 {
		t.Errorf("centered yaw: got %d, want 50", centered.Head.Yaw)
	}

	turned := frontFacing()
	turned[Nose] = Vec3{X: 0.6, Y: 0.3, Z: -0.1}
	right := mapper.Map(turned, 640, 480)
	if right.Head.Yaw <= centered.Head.Yaw {
		t.Errorf("turned yaw %d should exceed centered %d", right.Head.Yaw, centered.Head.Yaw)
	}

	turned[Nose] = Vec3{X: 0.4, Y: 0.3, Z: -0.1}
	left := mapper.Map(turned, 640, 480)
	if left.Head.Yaw >= centered.Head.Yaw {
		t.Errorf("turned yaw %d should be below centered %d", left.Head.Yaw, centered.Head.Yaw)
	}
}

func TestBuildTorsoBasis(t *testing.T) {
	basis, ok := BuildTorsoBasis(frontFacing())
	if !ok {
		t.Fatal("basis should build from full landmark set")
	}

	const tol = 1e-9
	if d := basis.X.Dot(basis.Y); d > tol || d < -tol {
		t.Errorf("X·Y = %v, want 0", d)
	}
	if d := basis.X.Dot(basis.Z); d > tol || d < -tol {
		t.Errorf("X·Z = %v, want 0", d)
	}
	if d := basis.Y.Dot(basis.Z); d > tol || d < -tol {
		t.Errorf("Y·Z = %v, want 0", d)
	}
	for _, axis := range []Vec3{basis.X, basis.Y, basis.Z} {
		if n := axis.Norm(); n < 1-1e-9 || n > 1+1e-9 {
			t.Errorf("axis %+v not unit length: %v", axis, n)
		}
	}
}

func TestBuildTorsoBasis_MissingShoulders(t *testing.T) {
	if _, ok := BuildTorsoBasis(Landmarks{Nose: {X: 0.5}}); ok {
		t.Error("basis should not build without shoulders")
	}
}

func TestTorsoMapper_MissingLandmarksNeutral(t *testing.T) {
	mapper, err := NewMapper(ProfileTorso)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	if got := mapper.Map(nil, 640, 480); got != Neutral() {
		t.Errorf("nil landmarks: got %+v, want neutral", got)
	}

	partial := Landmarks{LeftShoulder: {X: 0.4, Y: 0.5}, RightShoulder: {X: 0.6, Y: 0.5}}
	if got := mapper.Map(partial, 640, 480); got != Neutral() {
		t.Errorf("shoulders only: got %+v, want neutral", got)
	}
}

func TestTorsoMapper_WingVertical(t *testing.T) {
	mapper, err := NewMapper(ProfileTorso)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	down := mapper.Map(frontFacing(), 640, 480)
	if down.WingL.Vertical != 0 {
		t.Errorf("hanging arm: got vertical %d, want 0", down.WingL.Vertical)
	}

	raised := frontFacing()
	raised[LeftWrist] = Vec3{X: 0.0, Y: 0.5, Z: 0}
	raised[LeftElbow] = Vec3{X: 0.2, Y: 0.5, Z: 0}
	side := mapper.Map(raised, 640, 480)
	if side.WingL.Vertical <= down.WingL.Vertical {
		t.Errorf("raised arm vertical %d should exceed hanging %d",
			side.WingL.Vertical, down.WingL.Vertical)
	}
}

func TestNewMapper_UnknownProfile(t *testing.T) {
	if _, err := NewMapper(Profile("bogus")); err == nil {
		t.Error("expected error for unknown profile")
	}
}
