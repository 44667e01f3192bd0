package audio

import (
	"testing"

	"github.com/dishcast/dishcast/domain/entities"
)

// cleanSpeechBins simulates a spectrum with energy concentrated in the mid
// bins and quiet lows: loud, low-noise, clear.
func cleanSpeechBins() []byte {
	bins := make([]byte, 32)
	for i := 8; i < 24; i++ {
		bins[i] = 200
	}
	return bins
}

// rumbleBins simulates a spectrum dominated by low-frequency hum.
func rumbleBins() []byte {
	bins := make([]byte, 32)
	for i := 0; i < 4; i++ {
		bins[i] = 255
	}
	for i := 4; i < 32; i++ {
		bins[i] = 10
	}
	return bins
}

func TestAnalyzeCleanSpeech(t *testing.T) {
	analyzer := NewAnalyzer(DefaultQualityThresholds())

	quality := analyzer.Analyze(cleanSpeechBins())

	if quality.Level != entities.QualityExcellent {
		t.Errorf("Expected excellent for clean speech, got %s", quality.Level)
	}
	if len(quality.Warnings) != 0 {
		t.Errorf("Expected no warnings for clean speech, got %v", quality.Warnings)
	}
	if quality.Volume < 25 {
		t.Errorf("Expected volume above the good threshold, got %.1f", quality.Volume)
	}
}

func TestAnalyzeRumble(t *testing.T) {
	analyzer := NewAnalyzer(DefaultQualityThresholds())

	quality := analyzer.Analyze(rumbleBins())

	if quality.Level != entities.QualityUnusable {
		t.Errorf("Expected unusable for rumble-dominated spectrum, got %s", quality.Level)
	}
	if quality.NoiseLevel <= 70 {
		t.Errorf("Expected noise level above 70, got %.1f", quality.NoiseLevel)
	}
	if len(quality.Warnings) == 0 {
		t.Error("Expected warnings for rumble-dominated spectrum")
	}
}

func TestAnalyzeEmptyBins(t *testing.T) {
	analyzer := NewAnalyzer(DefaultQualityThresholds())

	quality := analyzer.Analyze(nil)

	if quality.Level != entities.QualityUnusable {
		t.Errorf("Expected unusable for empty spectrum, got %s", quality.Level)
	}
	if quality.Volume != 0 {
		t.Errorf("Expected zero volume for empty spectrum, got %.1f", quality.Volume)
	}
}

func TestClassifyWorstSignalWins(t *testing.T) {
	analyzer := NewAnalyzer(DefaultQualityThresholds())

	tests := []struct {
		name                   string
		volume, noise, clarity float64
		expected               entities.AudioQualityLevel
	}{
		{"all excellent", 60, 10, 80, entities.QualityExcellent},
		{"quiet but clean", 20, 10, 80, entities.QualityGood},
		{"noisy drags down loud audio", 60, 45, 80, entities.QualityPoor},
		{"extreme noise dominates", 5, 85, 80, entities.QualityUnusable},
		{"silent input", 3, 10, 80, entities.QualityUnusable},
		{"muddy audio", 60, 10, 30, entities.QualityPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := analyzer.classify(tt.volume, tt.noise, tt.clarity)
			if level != tt.expected {
				t.Errorf("classify(%.0f, %.0f, %.0f) = %s, expected %s",
					tt.volume, tt.noise, tt.clarity, level, tt.expected)
			}
		})
	}
}

func TestClassifyVolumeMonotonic(t *testing.T) {
	analyzer := NewAnalyzer(DefaultQualityThresholds())

	// With noise and clarity held clean, raising the volume never makes the
	// classification worse.
	prev := entities.QualityUnusable
	for volume := 0.0; volume <= 100; volume++ {
		level := analyzer.classify(volume, 10, 80)
		if level.Rank() > prev.Rank() {
			t.Fatalf("Level degraded from %s to %s at volume %.0f", prev, level, volume)
		}
		prev = level
	}
}

func TestWarningsAreIndependent(t *testing.T) {
	analyzer := NewAnalyzer(DefaultQualityThresholds())

	// Quiet, noisy and muddy at once: all three warnings fire.
	warnings := analyzer.warnings(5, 50, 20)
	if len(warnings) != 3 {
		t.Errorf("Expected 3 warnings, got %d: %v", len(warnings), warnings)
	}

	// Clipping is reported separately from the low-volume warning.
	warnings = analyzer.warnings(95, 10, 80)
	if len(warnings) != 1 {
		t.Errorf("Expected 1 clipping warning, got %d: %v", len(warnings), warnings)
	}
}

func TestQualityLevelOrdering(t *testing.T) {
	if entities.QualityExcellent.WorseOf(entities.QualityPoor) != entities.QualityPoor {
		t.Error("Expected poor to win over excellent")
	}
	if entities.QualityUnusable.WorseOf(entities.QualityGood) != entities.QualityUnusable {
		t.Error("Expected unusable to win over good")
	}
	if entities.AudioQualityLevel("bogus").Rank() != entities.QualityUnusable.Rank() {
		t.Error("Expected unknown level to rank as unusable")
	}
}
