package capture

import "github.com/adampresley/photostrip/pkg/models"

type EventType string

const (
	EventTick          EventType = "tick"
	EventFlash         EventType = "flash"
	EventFrameCaptured EventType = "frame-captured"
	EventComplete      EventType = "complete"
	EventCancelled     EventType = "cancelled"
	EventRetake        EventType = "retake"
	EventError         EventType = "error"
)

/*
Event describes a session change. Generation identifies the sequence the
event belongs to; a listener that acts later can compare it against
Snapshot().Generation to tell whether the sequence is still current.
*/
type Event struct {
	Type       EventType
	State      State
	LayoutID   string
	ThemeID    string
	PhotoIndex int
	PhotoCount int
	FrameCount int
	Countdown  *int
	Generation uint64
	Frame      *models.Frame
	Frames     []models.Frame
	Err        error
}

type Listener func(event Event)
