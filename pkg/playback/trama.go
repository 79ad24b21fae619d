package playback

import (
	"encoding/hex"
	"fmt"
)

// Actuator wire format: a fixed 9-byte trama per motion frame.
const (
	TramaOpcode = 2
	TramaSize   = 9

	// The beak is not captured; every frame holds it at center.
	BeakCenter = 50
)

// Trama packs the frame into the actuator byte layout:
// [opcode, pitch, yaw, roll, wingL.v, wingL.h, wingR.v, wingR.h, beak].
func (f MotionFrame) Trama() []byte {
	return []byte{
		TramaOpcode,
		clampServo(f.Head.Pitch),
		clampServo(f.Head.Yaw),
		clampServo(f.Head.Roll),
		clampServo(f.WingL.Vertical),
		clampServo(f.WingL.Horizontal),
		clampServo(f.WingR.Vertical),
		clampServo(f.WingR.Horizontal),
		BeakCenter,
	}
}

// TramaHex returns the trama as an 18-character hex string, the form pushed
// to remote robot clients.
func (f MotionFrame) TramaHex() string {
	return hex.EncodeToString(f.Trama())
}

// DecodeTrama parses an 18-character hex trama back into raw bytes.
func DecodeTrama(s string) ([]byte, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode trama: %w", err)
	}
	if len(raw) != TramaSize {
		return nil, fmt.Errorf("decode trama: got %d bytes, want %d", len(raw), TramaSize)
	}
	if raw[0] != TramaOpcode {
		return nil, fmt.Errorf("decode trama: unexpected opcode %d", raw[0])
	}
	return raw, nil
}

func clampServo(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return byte(v)
}
