package capture

import "github.com/adampresley/photostrip/pkg/models"

type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateCountdown State = "countdown"
	StateCapturing State = "capturing"
	StatePause     State = "pause"
	StateComplete  State = "complete"
	StateCancelled State = "cancelled"
)

/*
IsActive reports whether a sequence is running in this state.
*/
func (s State) IsActive() bool {
	return s == StateStarting || s == StateCountdown || s == StateCapturing || s == StatePause
}

/*
Snapshot is a point-in-time copy of the session, safe to hand to other
goroutines or serialize.
*/
type Snapshot struct {
	State      State             `json:"state"`
	LayoutID   string            `json:"layoutId"`
	ThemeID    string            `json:"themeId"`
	PhotoCount int               `json:"photoCount"`
	PhotoIndex int               `json:"photoIndex"`
	FrameCount int               `json:"frameCount"`
	Countdown  *int              `json:"countdown"`
	FacingMode models.FacingMode `json:"facingMode"`
	Generation uint64            `json:"generation"`
	Error      string            `json:"error,omitempty"`
	Err        error             `json:"-"`
}
