package entities

import (
	"errors"
	"time"
)

// AudioQualityLevel classifies a quality snapshot on an ordinal scale.
type AudioQualityLevel string

const (
	QualityExcellent AudioQualityLevel = "excellent"
	QualityGood      AudioQualityLevel = "good"
	QualityPoor      AudioQualityLevel = "poor"
	QualityUnusable  AudioQualityLevel = "unusable"
)

// Rank returns the ordinal position of the level, 0 being best.
func (l AudioQualityLevel) Rank() int {
	switch l {
	case QualityExcellent:
		return 0
	case QualityGood:
		return 1
	case QualityPoor:
		return 2
	case QualityUnusable:
		return 3
	default:
		return 3
	}
}

// WorseOf returns the worse of the two levels.
func (l AudioQualityLevel) WorseOf(other AudioQualityLevel) AudioQualityLevel {
	if other.Rank() > l.Rank() {
		return other
	}
	return l
}

// AudioQuality is an advisory snapshot of capture quality, recomputed on
// every monitoring tick and never persisted.
type AudioQuality struct {
	Level      AudioQualityLevel `json:"level"`
	Volume     float64           `json:"volume"`      // 0-100
	NoiseLevel float64           `json:"noise_level"` // 0-100
	Clarity    float64           `json:"clarity"`     // 0-100
	Warnings   []string          `json:"warnings"`
}

// AudioChunk is one tick's worth of captured audio. Immutable, owned by the
// capture session until handed to post-processing.
type AudioChunk struct {
	Data      []byte       `json:"-"`
	Timestamp time.Time    `json:"timestamp"`
	Quality   AudioQuality `json:"quality"`
	Duration  float64      `json:"duration"` // seconds elapsed since capture start
}

// RecorderConfig is an immutable configuration snapshot taken at session start.
type RecorderConfig struct {
	MaxDuration      time.Duration     `json:"max_duration"`
	MinDuration      time.Duration     `json:"min_duration"`
	QualityThreshold AudioQualityLevel `json:"quality_threshold"`
	AutoStop         bool              `json:"auto_stop"`
	NoiseReduction   bool              `json:"noise_reduction"`
	EchoCancellation bool              `json:"echo_cancellation"`
	SampleRate       int               `json:"sample_rate"`
	ChannelCount     int               `json:"channel_count"`
}

// DefaultRecorderConfig returns the recorder defaults used when the caller
// leaves fields unset. 44.1kHz mono matches what browser capture delivers.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		MaxDuration:      3 * time.Minute,
		MinDuration:      2 * time.Second,
		QualityThreshold: QualityGood,
		AutoStop:         true,
		NoiseReduction:   true,
		EchoCancellation: true,
		SampleRate:       44100,
		ChannelCount:     1,
	}
}

// WithDefaults fills unset fields from DefaultRecorderConfig.
func (c RecorderConfig) WithDefaults() RecorderConfig {
	def := DefaultRecorderConfig()
	if c.MaxDuration == 0 {
		c.MaxDuration = def.MaxDuration
	}
	if c.MinDuration == 0 {
		c.MinDuration = def.MinDuration
	}
	if c.QualityThreshold == "" {
		c.QualityThreshold = def.QualityThreshold
	}
	if c.SampleRate == 0 {
		c.SampleRate = def.SampleRate
	}
	if c.ChannelCount == 0 {
		c.ChannelCount = def.ChannelCount
	}
	return c
}

// Validate validates the recorder configuration.
func (c RecorderConfig) Validate() error {
	if c.MinDuration < 0 || c.MaxDuration < 0 {
		return errors.New("durations must be positive")
	}
	if c.MaxDuration > 0 && c.MinDuration > c.MaxDuration {
		return errors.New("min duration must not exceed max duration")
	}
	if c.SampleRate < 8000 || c.SampleRate > 48000 {
		return errors.New("sample rate must be between 8000 and 48000")
	}
	if c.ChannelCount != 1 && c.ChannelCount != 2 {
		return errors.New("channel count must be 1 or 2")
	}
	return nil
}

// TranscriptSegment is a timestamped portion of a transcript.
type TranscriptSegment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"` // seconds
	End        float64 `json:"end"`   // seconds
	Confidence float64 `json:"confidence"`
}

// TranscriptionResult is the normalized output of a speech-to-text call.
// Immutable once produced.
type TranscriptionResult struct {
	Text           string              `json:"text"`
	Confidence     float64             `json:"confidence"` // 0-1
	Language       string              `json:"language"`
	Segments       []TranscriptSegment `json:"segments"`
	ProcessingTime time.Duration       `json:"processing_time"`
}
