package camera

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindPermissionDenied ErrorKind = iota + 1
	KindNotFound
	KindDeviceBusy
	KindUnsupported
	KindNotStreaming
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission-denied"
	case KindNotFound:
		return "not-found"
	case KindDeviceBusy:
		return "device-busy"
	case KindUnsupported:
		return "unsupported"
	case KindNotStreaming:
		return "not-streaming"
	case KindTimeout:
		return "timeout"
	}

	return "unknown"
}

/*
Message is the text shown to a person standing at the booth.
*/
func (k ErrorKind) Message() string {
	switch k {
	case KindPermissionDenied:
		return "Camera access denied. Please allow camera permissions and try again."
	case KindNotFound:
		return "No camera found. Please connect a camera and try again."
	case KindDeviceBusy:
		return "Camera is already in use by another application."
	case KindTimeout:
		return "The camera did not respond in time."
	}

	return "Unable to access the camera. Please check your camera settings."
}

/*
CaptureError reports that the camera could not be acquired or read.
*/
type CaptureError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewCaptureError(kind ErrorKind, op string, err error) *CaptureError {
	return &CaptureError{Kind: kind, Op: op, Err: err}
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("camera %s: %s", e.Op, e.Kind)
	}

	return fmt.Sprintf("camera %s: %s: %s", e.Op, e.Kind, e.Err.Error())
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

func IsKind(err error, kind ErrorKind) bool {
	var captureErr *CaptureError

	if errors.As(err, &captureErr) {
		return captureErr.Kind == kind
	}

	return false
}

func AsCaptureError(err error) (*CaptureError, bool) {
	var captureErr *CaptureError
	ok := errors.As(err, &captureErr)
	return captureErr, ok
}
