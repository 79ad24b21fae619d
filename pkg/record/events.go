package record

// EventType identifies a live recording event.
type EventType string

const (
	// EventCountdown ticks once per second before recording starts.
	EventCountdown EventType = "countdown"

	// EventFrame carries one captured frame's thumbnail and the time left.
	EventFrame EventType = "frame"

	// EventFinished closes the recording with the total frame count.
	EventFinished EventType = "finished"
)

// Event is one element of the live recording stream pushed to the operator
// UI.
type Event struct {
	Type EventType `json:"type"`

	// Countdown is the seconds remaining, for EventCountdown.
	Countdown int `json:"countdown,omitempty"`

	// Image is the base64 JPEG thumbnail, for EventFrame.
	Image string `json:"image,omitempty"`

	// TimeLeft is the remaining recording time in seconds, floored at
	// zero, for EventFrame.
	TimeLeft float64 `json:"time_left,omitempty"`

	// Frames is the total captured frame count, for EventFinished.
	Frames int `json:"frames,omitempty"`
}
