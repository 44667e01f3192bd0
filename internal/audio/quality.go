package audio

import (
	"math"

	"github.com/dishcast/dishcast/domain/entities"
)

// QualityThresholds holds the tunable cutoffs for warning and level
// classification. The defaults are not calibrated against measured speech
// data; they are kept configurable for that reason.
type QualityThresholds struct {
	VolumeTooLow     float64 // warn below
	VolumeClipping   float64 // warn above
	NoiseWarning     float64 // warn above
	ClarityWarning   float64 // warn below
	VolumePoor       float64 // degrade below
	VolumeUnusable   float64
	NoisePoor        float64 // degrade above
	NoiseUnusable    float64
	ClarityPoor      float64 // degrade below
	ClarityUnusable  float64
	VolumeGood       float64 // below this the level is at best good
	NoiseGood        float64
	ClarityGood      float64
	NoiseBinFraction float64 // share of lowest bins treated as rumble
}

// DefaultQualityThresholds returns the stock cutoffs.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		VolumeTooLow:     10,
		VolumeClipping:   90,
		NoiseWarning:     35,
		ClarityWarning:   45,
		VolumePoor:       15,
		VolumeUnusable:   5,
		NoisePoor:        40,
		NoiseUnusable:    70,
		ClarityPoor:      50,
		ClarityUnusable:  25,
		VolumeGood:       25,
		NoiseGood:        30,
		ClarityGood:      60,
		NoiseBinFraction: 0.125,
	}
}

// Analyzer derives volume, noise and clarity metrics from a frequency-domain
// snapshot. Pure, no side effects; safe to call on every monitoring tick.
type Analyzer struct {
	thresholds QualityThresholds
}

// NewAnalyzer creates an analyzer with the given thresholds.
func NewAnalyzer(thresholds QualityThresholds) *Analyzer {
	return &Analyzer{thresholds: thresholds}
}

// Analyze computes a quality snapshot from FFT magnitude bins (0-255 each).
func (a *Analyzer) Analyze(frequencyBins []byte) entities.AudioQuality {
	volume, noise, clarity := a.metrics(frequencyBins)
	return entities.AudioQuality{
		Level:      a.classify(volume, noise, clarity),
		Volume:     volume,
		NoiseLevel: noise,
		Clarity:    clarity,
		Warnings:   a.warnings(volume, noise, clarity),
	}
}

func (a *Analyzer) metrics(bins []byte) (volume, noise, clarity float64) {
	if len(bins) == 0 {
		return 0, 0, 0
	}

	var sumSquares, total float64
	for _, b := range bins {
		v := float64(b)
		sumSquares += v * v
		total += v
	}

	// RMS over all bins, scaled to 0-100.
	volume = math.Sqrt(sumSquares/float64(len(bins))) / 255 * 100

	if total == 0 {
		return volume, 0, 0
	}

	// Energy share of the lowest bins is a proxy for hum and rumble.
	lowCount := int(float64(len(bins)) * a.thresholds.NoiseBinFraction)
	if lowCount < 1 {
		lowCount = 1
	}
	var lowEnergy float64
	for _, b := range bins[:lowCount] {
		lowEnergy += float64(b)
	}
	noise = lowEnergy / total * 100

	// Mid/high-bin energy share is a proxy for speech presence. Scaled up
	// because even clean speech leaves energy in the low bins.
	var midEnergy float64
	for _, b := range bins[len(bins)/4 : len(bins)*3/4] {
		midEnergy += float64(b)
	}
	clarity = math.Min(midEnergy/total*100*1.8, 100)

	return volume, noise, clarity
}

// classify combines the three metrics with worst-signal-wins ordinal logic.
// Additive scoring would mask a catastrophic single metric.
func (a *Analyzer) classify(volume, noise, clarity float64) entities.AudioQualityLevel {
	level := a.volumeLevel(volume)
	level = level.WorseOf(a.noiseLevel(noise))
	level = level.WorseOf(a.clarityLevel(clarity))
	return level
}

func (a *Analyzer) volumeLevel(volume float64) entities.AudioQualityLevel {
	switch {
	case volume < a.thresholds.VolumeUnusable:
		return entities.QualityUnusable
	case volume < a.thresholds.VolumePoor:
		return entities.QualityPoor
	case volume < a.thresholds.VolumeGood:
		return entities.QualityGood
	default:
		return entities.QualityExcellent
	}
}

func (a *Analyzer) noiseLevel(noise float64) entities.AudioQualityLevel {
	switch {
	case noise > a.thresholds.NoiseUnusable:
		return entities.QualityUnusable
	case noise > a.thresholds.NoisePoor:
		return entities.QualityPoor
	case noise > a.thresholds.NoiseGood:
		return entities.QualityGood
	default:
		return entities.QualityExcellent
	}
}

func (a *Analyzer) clarityLevel(clarity float64) entities.AudioQualityLevel {
	switch {
	case clarity < a.thresholds.ClarityUnusable:
		return entities.QualityUnusable
	case clarity < a.thresholds.ClarityPoor:
		return entities.QualityPoor
	case clarity < a.thresholds.ClarityGood:
		return entities.QualityGood
	default:
		return entities.QualityExcellent
	}
}

func (a *Analyzer) warnings(volume, noise, clarity float64) []string {
	var warnings []string
	if volume < a.thresholds.VolumeTooLow {
		warnings = append(warnings, "Volume too low - speak closer to the microphone")
	}
	if volume > a.thresholds.VolumeClipping {
		warnings = append(warnings, "Audio clipping - lower your input volume")
	}
	if noise > a.thresholds.NoiseWarning {
		warnings = append(warnings, "High background noise detected")
	}
	if clarity < a.thresholds.ClarityWarning {
		warnings = append(warnings, "Poor clarity - reduce background sound")
	}
	return warnings
}
