package pose

import (
	_ "embed"
	"fmt"
	"math"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// Servo deadzone around the center value. Outputs closer than this snap to
// center to suppress jitter from landmark noise.
const (
	ServoCenter   = 50
	ServoDeadzone = 2
)

//go:embed calibration.toml
var calibrationTOML []byte

// Point is one calibration control point: a raw angle in degrees and the
// servo value it maps to.
type Point struct {
	Angle float64
	Servo float64
}

// Table is an ordered list of calibration control points for one channel.
// Lookup interpolates linearly between bracketing points and clamps to the
// endpoints outside the covered range.
type Table []Point

// NewTable builds a table from (angle, servo) pairs, sorted by angle.
func NewTable(points ...Point) Table {
	t := make(Table, len(points))
	copy(t, points)
	sort.Slice(t, func(i, j int) bool { return t[i].Angle < t[j].Angle })
	return t
}

// Lookup maps a raw angle through the calibration curve.
func (t Table) Lookup(angle float64) int {
	if len(t) == 0 {
		return ServoCenter
	}
	if angle <= t[0].Angle {
		return int(math.Round(t[0].Servo))
	}
	if angle >= t[len(t)-1].Angle {
		return int(math.Round(t[len(t)-1].Servo))
	}
	for i := 0; i < len(t)-1; i++ {
		a, b := t[i], t[i+1]
		if b.Angle == a.Angle {
			continue
		}
		if angle >= a.Angle && angle <= b.Angle {
			f := (angle - a.Angle) / (b.Angle - a.Angle)
			return int(math.Round(a.Servo + f*(b.Servo-a.Servo)))
		}
	}
	return int(math.Round(t[len(t)-1].Servo))
}

// ApplyDeadzone snaps a servo value to the center when within the deadzone.
func ApplyDeadzone(value int) int {
	if value > ServoCenter-ServoDeadzone && value < ServoCenter+ServoDeadzone {
		return ServoCenter
	}
	return value
}

// Tables holds the per-channel calibration curves of the table profile.
// Loaded once from embedded configuration, immutable thereafter.
type Tables struct {
	Pitch      Table
	Yaw        Table
	Roll       Table
	WingLeftV  Table
	WingLeftH  Table
	WingRightV Table
	WingRightH Table
}

type calibrationFile struct {
	Table struct {
		Pitch      [][]float64 `toml:"pitch"`
		Yaw        [][]float64 `toml:"yaw"`
		Roll       [][]float64 `toml:"roll"`
		WingLeftV  [][]float64 `toml:"wing_left_vertical"`
		WingLeftH  [][]float64 `toml:"wing_left_horizontal"`
		WingRightV [][]float64 `toml:"wing_right_vertical"`
		WingRightH [][]float64 `toml:"wing_right_horizontal"`
	} `toml:"table"`
}

func parseTable(rows [][]float64, name string) (Table, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("calibration table %q needs at least 2 points, got %d", name, len(rows))
	}
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("calibration table %q: each point is [angle, servo], got %v", name, row)
		}
		if row[1] < 0 || row[1] > 100 {
			return nil, fmt.Errorf("calibration table %q: servo value %v outside [0,100]", name, row[1])
		}
		points = append(points, Point{Angle: row[0], Servo: row[1]})
	}
	return NewTable(points...), nil
}

// LoadTables parses the embedded calibration data.
func LoadTables() (*Tables, error) {
	var file calibrationFile
	if err := toml.Unmarshal(calibrationTOML, &file); err != nil {
		return nil, fmt.Errorf("parse calibration: %w", err)
	}

	t := &Tables{}
	var err error
	for _, entry := range []struct {
		dst  *Table
		rows [][]float64
		name string
	}{
		{&t.Pitch, file.Table.Pitch, "pitch"},
		{&t.Yaw, file.Table.Yaw, "yaw"},
		{&t.Roll, file.Table.Roll, "roll"},
		{&t.WingLeftV, file.Table.WingLeftV, "wing_left_vertical"},
		{&t.WingLeftH, file.Table.WingLeftH, "wing_left_horizontal"},
		{&t.WingRightV, file.Table.WingRightV, "wing_right_vertical"},
		{&t.WingRightH, file.Table.WingRightH, "wing_right_horizontal"},
	} {
		if *entry.dst, err = parseTable(entry.rows, entry.name); err != nil {
			return nil, err
		}
	}
	return t, nil
}
