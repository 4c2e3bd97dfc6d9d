package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adampresley/photostrip/pkg/camera"
	"github.com/adampresley/photostrip/pkg/models"
)

var (
	ErrSessionActive     = fmt.Errorf("a capture sequence is already running")
	ErrSessionIdle       = fmt.Errorf("no capture sequence to stop")
	ErrSessionClosed     = fmt.Errorf("capture session is closed")
	ErrInvalidFacingMode = fmt.Errorf("invalid facing mode")
	ErrInvalidLayout     = fmt.Errorf("layout must hold at least one photo")
	ErrStartCancelled    = fmt.Errorf("capture was stopped while the camera was starting")
)

const (
	DefaultCountdown      = 3
	DefaultTickInterval   = time.Second
	DefaultInterShotPause = 1500 * time.Millisecond
)

type SessionConfig struct {
	Countdown      int
	Device         camera.Device
	DeviceID       string
	FacingMode     models.FacingMode
	InterShotPause time.Duration
	Logger         *slog.Logger
	OnEvent        Listener
	TickInterval   time.Duration
}

/*
Session runs one timed capture sequence at a time: a countdown before
each photo, a grab from the camera, a short pause, and so on until the
layout's photo count is reached. Cancel and Retake take effect
immediately; a frame grabbed after cancellation is thrown away.
*/
type Session struct {
	config SessionConfig
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	frames     []models.Frame
	layout     models.Layout
	themeID    string
	countdown  *int
	photoIndex int
	facing     models.FacingMode
	lastErr    error
	stream     camera.Stream
	generation uint64
	cancelRun  context.CancelFunc
	done       chan struct{}
	closed     bool

	wg sync.WaitGroup
}

func NewSession(config SessionConfig) *Session {
	if config.Countdown <= 0 {
		config.Countdown = DefaultCountdown
	}

	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}

	if config.InterShotPause <= 0 {
		config.InterShotPause = DefaultInterShotPause
	}

	if !config.FacingMode.IsValid() {
		config.FacingMode = models.FacingUser
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Session{
		config: config,
		logger: config.Logger.With("component", "capture-session"),
		state:  StateIdle,
		facing: config.FacingMode,
	}
}

/*
Start begins a capture sequence for layout. It is accepted from idle,
complete, or cancelled; any frames from a previous sequence are dropped.
The camera stream is acquired here (or re-acquired when the facing mode
changed), and a failure to acquire it leaves the session cancelled. ctx
bounds stream acquisition only; the sequence itself runs until it
completes, fails, or is cancelled.

The session lock is not held while the camera opens. The session sits in
the starting state meanwhile, and Cancel, Retake or Close during that
window abort the start and release whatever stream was opened.
*/
func (s *Session) Start(ctx context.Context, layout models.Layout, themeID string) error {
	var (
		err    error
		opened camera.Stream
	)

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	if s.state.IsActive() {
		s.mu.Unlock()
		return ErrSessionActive
	}

	if layout.PhotoCount < 1 {
		s.mu.Unlock()
		return fmt.Errorf("%w: '%s' has %d", ErrInvalidLayout, layout.ID, layout.PhotoCount)
	}

	s.generation++
	gen := s.generation

	s.layout = layout
	s.themeID = themeID
	s.frames = make([]models.Frame, 0, layout.PhotoCount)
	s.photoIndex = 0
	s.countdown = nil
	s.lastErr = nil
	s.state = StateStarting

	facing := s.facing
	stale := s.stream

	if stale != nil && stale.FacingMode() == facing {
		stale = nil
	} else {
		s.stream = nil
	}

	acquireCtx, cancelAcquire := context.WithCancel(ctx)
	defer cancelAcquire()

	s.cancelRun = cancelAcquire
	needStream := s.stream == nil

	s.wg.Add(1)
	s.mu.Unlock()

	if stale != nil {
		if stopErr := s.config.Device.StopStream(stale); stopErr != nil {
			s.logger.Warn("error stopping camera stream before switching facing mode", "error", stopErr)
		}
	}

	if needStream {
		opened, err = s.config.Device.StartStream(acquireCtx, facing, s.config.DeviceID)
	}

	s.mu.Lock()

	if s.generation != gen {
		s.mu.Unlock()

		if opened != nil {
			if stopErr := s.config.Device.StopStream(opened); stopErr != nil {
				s.logger.Warn("error releasing camera stream opened by a cancelled start", "error", stopErr)
			}
		}

		s.wg.Done()
		s.logger.Info("capture start abandoned while the camera was opening", "layout", layout.ID)
		return ErrStartCancelled
	}

	s.wg.Done()

	if err != nil {
		s.state = StateCancelled
		s.frames = nil
		s.lastErr = err
		s.cancelRun = nil

		event := s.event(EventError)
		event.Err = err
		s.mu.Unlock()

		s.logger.Error("unable to start camera stream", "layout", layout.ID, "facing", facing, "error", err)
		s.emit(event)
		return fmt.Errorf("error starting capture: %w", err)
	}

	if opened != nil {
		s.stream = opened
	}

	n := s.config.Countdown
	s.countdown = &n
	s.state = StateCountdown

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.cancelRun = cancel
	s.done = done
	stream := s.stream
	event := s.event(EventTick)

	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("capture sequence started", "layout", layout.ID, "theme", themeID, "photos", layout.PhotoCount, "facing", stream.FacingMode())
	s.emit(event)

	go s.run(runCtx, gen, stream, done)
	return nil
}

func (s *Session) run(ctx context.Context, gen uint64, stream camera.Stream, done chan struct{}) {
	defer s.wg.Done()
	defer close(done)

	for {
		for remaining := s.config.Countdown - 1; remaining >= 0; remaining-- {
			if !sleep(ctx, s.config.TickInterval) {
				return
			}

			value := remaining

			ok := s.advance(gen, func() Event {
				s.countdown = &value

				if value == 0 {
					s.state = StateCapturing
				}

				return s.event(EventTick)
			})

			if !ok {
				return
			}
		}

		frame, err := s.config.Device.GrabFrame(ctx, stream)

		s.mu.Lock()

		if s.generation != gen {
			s.mu.Unlock()
			s.logger.Debug("discarding frame from a cancelled sequence")
			return
		}

		if err != nil {
			s.fail(err)
			return
		}

		s.frames = append(s.frames, frame)
		s.countdown = nil

		flash := s.event(EventFlash)
		captured := s.event(EventFrameCaptured)
		captured.Frame = &frame

		if len(s.frames) >= s.layout.PhotoCount {
			s.state = StateComplete
			s.cancelRun = nil

			complete := s.event(EventComplete)
			complete.Frames = s.copyFrames()
			s.mu.Unlock()

			s.logger.Info("capture sequence complete", "layout", complete.LayoutID, "frames", len(complete.Frames))
			s.emit(flash)
			s.emit(captured)
			s.emit(complete)
			return
		}

		s.state = StatePause
		s.mu.Unlock()

		s.emit(flash)
		s.emit(captured)

		if !sleep(ctx, s.config.InterShotPause) {
			return
		}

		ok := s.advance(gen, func() Event {
			n := s.config.Countdown
			s.photoIndex++
			s.countdown = &n
			s.state = StateCountdown
			return s.event(EventTick)
		})

		if !ok {
			return
		}
	}
}

/*
fail is called with the lock held and releases it. A camera failure ends
the sequence, drops its frames, and gives the stream back so the next
Start acquires a fresh one.
*/
func (s *Session) fail(err error) {
	s.state = StateCancelled
	s.frames = nil
	s.countdown = nil
	s.lastErr = err
	s.cancelRun = nil

	stream := s.stream
	s.stream = nil

	event := s.event(EventError)
	event.Err = err
	s.mu.Unlock()

	if stream != nil {
		if stopErr := s.config.Device.StopStream(stream); stopErr != nil {
			s.logger.Warn("error releasing camera stream after failure", "error", stopErr)
		}
	}

	s.logger.Error("capture sequence failed", "layout", event.LayoutID, "photoIndex", event.PhotoIndex, "error", err)
	s.emit(event)
}

func (s *Session) advance(gen uint64, apply func() Event) bool {
	s.mu.Lock()

	if s.generation != gen {
		s.mu.Unlock()
		return false
	}

	event := apply()
	s.mu.Unlock()

	s.emit(event)
	return true
}

/*
Cancel stops the running sequence, drops every frame, and returns the
session to idle. It does not wait for an in-flight camera read.
*/
func (s *Session) Cancel() error {
	return s.reset(EventCancelled)
}

/*
Retake drops the frames of the current (or just completed) sequence and
returns to idle so a new sequence can be started.
*/
func (s *Session) Retake() error {
	return s.reset(EventRetake)
}

func (s *Session) reset(eventType EventType) error {
	s.mu.Lock()

	if s.state == StateIdle {
		s.mu.Unlock()
		return ErrSessionIdle
	}

	s.generation++

	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}

	s.state = StateIdle
	s.frames = nil
	s.countdown = nil
	s.photoIndex = 0
	s.lastErr = nil

	event := s.event(eventType)
	s.mu.Unlock()

	s.logger.Info("capture sequence reset", "reason", eventType)
	s.emit(event)
	return nil
}

/*
SetFacingMode selects the camera used by the next Start. It is rejected
while a sequence is running.
*/
func (s *Session) SetFacingMode(mode models.FacingMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: '%s'", ErrInvalidFacingMode, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsActive() {
		return ErrSessionActive
	}

	s.facing = mode
	return nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := Snapshot{
		State:      s.state,
		LayoutID:   s.layout.ID,
		ThemeID:    s.themeID,
		PhotoCount: s.layout.PhotoCount,
		PhotoIndex: s.photoIndex,
		FrameCount: len(s.frames),
		FacingMode: s.facing,
		Generation: s.generation,
		Err:        s.lastErr,
	}

	if s.countdown != nil {
		n := *s.countdown
		result.Countdown = &n
	}

	if s.lastErr != nil {
		result.Error = s.lastErr.Error()
	}

	return result
}

/*
Frames returns a copy of the frames captured so far.
*/
func (s *Session) Frames() []models.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.copyFrames()
}

func (s *Session) copyFrames() []models.Frame {
	result := make([]models.Frame, len(s.frames))
	copy(result, s.frames)
	return result
}

/*
Wait blocks until the current sequence stops running, or ctx ends.
*/
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

/*
Close stops any running sequence and releases the camera stream. It is
safe to call more than once.
*/
func (s *Session) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	s.generation++

	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}

	if s.state.IsActive() {
		s.state = StateCancelled
		s.frames = nil
		s.countdown = nil
	}

	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	s.wg.Wait()

	if stream != nil {
		if err := s.config.Device.StopStream(stream); err != nil {
			return fmt.Errorf("error releasing camera stream: %w", err)
		}
	}

	return nil
}

/*
event builds an event from the current state. Call with the lock held.
*/
func (s *Session) event(eventType EventType) Event {
	result := Event{
		Type:       eventType,
		State:      s.state,
		LayoutID:   s.layout.ID,
		ThemeID:    s.themeID,
		PhotoIndex: s.photoIndex,
		PhotoCount: s.layout.PhotoCount,
		FrameCount: len(s.frames),
		Generation: s.generation,
	}

	if s.countdown != nil {
		n := *s.countdown
		result.Countdown = &n
	}

	return result
}

func (s *Session) emit(event Event) {
	s.logger.Debug("capture event", "type", event.Type, "state", event.State, "photoIndex", event.PhotoIndex, "frames", event.FrameCount)

	if s.config.OnEvent != nil {
		s.config.OnEvent(event)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
