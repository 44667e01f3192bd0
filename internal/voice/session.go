package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain"
	"github.com/dishcast/dishcast/domain/entities"
	"github.com/dishcast/dishcast/internal/audio"
)

// State is the capture session lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

const (
	defaultChunkInterval   = time.Second
	defaultQualityInterval = 500 * time.Millisecond
)

// Session owns one recording lifecycle: it acquires the input device, buffers
// timestamped chunks, polls quality on an interval, and enforces duration
// bounds on stop. One session per device at a time.
type Session struct {
	id       string
	deviceID string
	device   InputDevice
	config   entities.RecorderConfig
	analyzer *audio.Analyzer
	emitter  *Emitter
	logger   *zap.Logger

	chunkInterval   time.Duration
	qualityInterval time.Duration
	now             func() time.Time

	mu          sync.Mutex
	state       State
	chunks      []entities.AudioChunk
	startedAt   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	timersDone  chan struct{}
	autoStop    *time.Timer
}

// NewSession creates an idle session. Unset config fields take defaults.
func NewSession(deviceID string, device InputDevice, config entities.RecorderConfig, analyzer *audio.Analyzer, logger *zap.Logger) *Session {
	return &Session{
		id:              uuid.NewString(),
		deviceID:        deviceID,
		device:          device,
		config:          config.WithDefaults(),
		analyzer:        analyzer,
		emitter:         NewEmitter(logger),
		logger:          logger,
		chunkInterval:   defaultChunkInterval,
		qualityInterval: defaultQualityInterval,
		now:             time.Now,
		state:           StateIdle,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Events exposes the session's event emitter for listeners.
func (s *Session) Events() *Emitter {
	return s.emitter
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the immutable configuration snapshot.
func (s *Session) Config() entities.RecorderConfig {
	return s.config
}

// Start acquires the device and begins chunk emission and quality monitoring.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("session already started (state %s)", s.state)
	}

	if err := acquireDevice(s.deviceID); err != nil {
		s.mu.Unlock()
		return err
	}

	if err := s.device.Open(ctx); err != nil {
		releaseDevice(s.deviceID)
		s.mu.Unlock()
		permErr := domain.NewPermissionError("microphone access denied", err)
		s.emitter.Emit(Event{Type: EventErrorOccurred, SessionID: s.id, Timestamp: s.now(), Err: permErr})
		return permErr
	}

	s.state = StateRecording
	s.startedAt = s.now()
	s.startTimersLocked()
	s.scheduleAutoStopLocked(s.config.MaxDuration)
	s.mu.Unlock()

	s.logger.Info("Recording started",
		zap.String("session_id", s.id),
		zap.String("device_id", s.deviceID))
	s.emitter.Emit(Event{Type: EventRecordingStarted, SessionID: s.id, Timestamp: s.startedAt})
	return nil
}

// Pause suspends chunk emission and the quality monitor. No-op unless
// recording.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return
	}
	s.state = StatePaused
	s.pausedAt = s.now()
	s.stopTimersLocked()
	s.logger.Info("Recording paused", zap.String("session_id", s.id))
}

// Resume restarts chunk emission and monitoring. No-op unless paused.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return
	}
	s.pausedTotal += s.now().Sub(s.pausedAt)
	s.state = StateRecording
	s.startTimersLocked()
	if s.config.AutoStop {
		remaining := s.config.MaxDuration - s.elapsedLocked()
		if remaining < 0 {
			remaining = 0
		}
		s.scheduleAutoStopLocked(remaining)
	}
	s.logger.Info("Recording resumed", zap.String("session_id", s.id))
}

// Stop finalizes the chunk list and releases the device. The device and all
// timers are released even when the recording is rejected as too short.
func (s *Session) Stop() ([]entities.AudioChunk, error) {
	s.mu.Lock()
	if s.state != StateRecording && s.state != StatePaused {
		s.mu.Unlock()
		return nil, fmt.Errorf("session is not recording (state %s)", s.state)
	}

	elapsed := s.elapsedLocked()
	chunks := s.chunks
	s.cleanupLocked()
	s.mu.Unlock()

	if elapsed < s.config.MinDuration {
		err := domain.NewQualityError(fmt.Sprintf(
			"recording too short: %.1fs, minimum is %.1fs",
			elapsed.Seconds(), s.config.MinDuration.Seconds()))
		s.emitter.Emit(Event{Type: EventErrorOccurred, SessionID: s.id, Timestamp: s.now(), Err: err})
		return nil, err
	}

	s.logger.Info("Recording stopped",
		zap.String("session_id", s.id),
		zap.Duration("duration", elapsed),
		zap.Int("chunks", len(chunks)))
	s.emitter.Emit(Event{Type: EventRecordingStopped, SessionID: s.id, Timestamp: s.now(), Duration: elapsed})
	return chunks, nil
}

// elapsedLocked excludes paused time. Caller holds s.mu.
func (s *Session) elapsedLocked() time.Duration {
	if s.state == StatePaused {
		return s.pausedAt.Sub(s.startedAt) - s.pausedTotal
	}
	return s.now().Sub(s.startedAt) - s.pausedTotal
}

// cleanupLocked releases the device and timers. Runs on every exit path;
// timers never fire after it returns. Caller holds s.mu.
func (s *Session) cleanupLocked() {
	s.stopTimersLocked()
	s.state = StateStopped
	if err := s.device.Close(); err != nil {
		s.logger.Warn("Failed to close input device", zap.Error(err))
	}
	releaseDevice(s.deviceID)
}

func (s *Session) startTimersLocked() {
	done := make(chan struct{})
	s.timersDone = done

	go func() {
		chunkTicker := time.NewTicker(s.chunkInterval)
		qualityTicker := time.NewTicker(s.qualityInterval)
		defer chunkTicker.Stop()
		defer qualityTicker.Stop()
		for {
			select {
			case <-done:
				return
			case <-chunkTicker.C:
				s.captureChunk()
			case <-qualityTicker.C:
				s.monitorQuality()
			}
		}
	}()
}

func (s *Session) stopTimersLocked() {
	if s.timersDone != nil {
		close(s.timersDone)
		s.timersDone = nil
	}
	if s.autoStop != nil {
		s.autoStop.Stop()
		s.autoStop = nil
	}
}

func (s *Session) scheduleAutoStopLocked(after time.Duration) {
	if !s.config.AutoStop {
		return
	}
	s.autoStop = time.AfterFunc(after, func() {
		if _, err := s.Stop(); err != nil {
			s.logger.Debug("Auto-stop skipped", zap.Error(err))
		}
	})
}

func (s *Session) captureChunk() {
	data, err := s.device.ReadChunk()
	if err != nil {
		s.logger.Warn("Failed to read audio chunk", zap.Error(err))
		s.emitter.Emit(Event{Type: EventErrorOccurred, SessionID: s.id, Timestamp: s.now(), Err: err})
		return
	}

	quality := s.analyzer.Analyze(s.device.FrequencyData())

	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return
	}
	chunk := entities.AudioChunk{
		Data:      data,
		Timestamp: s.now(),
		Quality:   quality,
		Duration:  s.elapsedLocked().Seconds(),
	}
	s.chunks = append(s.chunks, chunk)
	s.mu.Unlock()
}

func (s *Session) monitorQuality() {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	quality := s.analyzer.Analyze(s.device.FrequencyData())
	if quality.Level == entities.QualityPoor || quality.Level == entities.QualityUnusable {
		s.emitter.Emit(Event{
			Type:      EventQualityWarning,
			SessionID: s.id,
			Timestamp: s.now(),
			Quality:   &quality,
		})
	}
}
