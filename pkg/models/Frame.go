package models

import "time"

type FacingMode string

const (
	FacingUser        FacingMode = "user"
	FacingEnvironment FacingMode = "environment"
)

func (f FacingMode) IsValid() bool {
	return f == FacingUser || f == FacingEnvironment
}

/*
Frame is a single still captured from the camera. Data holds the encoded
image bytes. Frames are never modified after capture.
*/
type Frame struct {
	Data        []byte     `json:"-"`
	ContentType string     `json:"contentType"`
	CapturedAt  time.Time  `json:"capturedAt"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	FacingMode  FacingMode `json:"facingMode"`
}

type CompositeResult struct {
	Data        []byte    `json:"-"`
	ContentType string    `json:"contentType"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func (r CompositeResult) IsEmpty() bool {
	return len(r.Data) == 0
}
