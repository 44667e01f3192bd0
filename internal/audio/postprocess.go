package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain"
	"github.com/dishcast/dishcast/domain/entities"
)

const (
	// MaxFileBytes is the upload ceiling enforced before transcription.
	MaxFileBytes = 25 * 1024 * 1024
	// MinFileBytes rejects empty or corrupt captures.
	MinFileBytes = 1024
	// CompressionThresholdBytes is the size above which assembled audio is
	// downsampled before upload.
	CompressionThresholdBytes = 1024 * 1024
	// TranscriptionSampleRate is the rate compression targets. 16kHz mono is
	// what speech models expect; fidelity beyond that is wasted upload.
	TranscriptionSampleRate = 16000

	bitDepth       = 16
	bytesPerSample = 2

	normalizeTarget = 0.89 // of full scale
	kneeThreshold   = 0.6  // samples above this are range-compressed
	kneeRatio       = 0.5  // slope above the knee
	maxGain         = 8.0  // never amplify silence into noise
)

// AcceptedMIMETypes is the upload allow-list.
var AcceptedMIMETypes = map[string]bool{
	"audio/wav":  true,
	"audio/webm": true,
	"audio/mpeg": true,
	"audio/mp4":  true,
	"audio/ogg":  true,
}

// File is an assembled, encoded audio object ready for upload.
type File struct {
	Data       []byte  // encoded WAV
	PCM        []byte  // raw little-endian 16-bit samples
	MIMEType   string
	SampleRate int
	Channels   int
	Duration   float64 // seconds
	ChunkSizes []int   // byte length of each source chunk, in capture order
}

// ValidationReport lists every violated upload constraint.
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// PostProcessor turns captured chunks into one transcription-ready file.
type PostProcessor struct {
	logger *zap.Logger
}

// NewPostProcessor creates a post-processor.
func NewPostProcessor(logger *zap.Logger) *PostProcessor {
	return &PostProcessor{logger: logger}
}

// Assemble concatenates chunk payloads in capture order into one WAV file.
func (p *PostProcessor) Assemble(chunks []entities.AudioChunk, sampleRate, channels int) (*File, error) {
	if len(chunks) == 0 {
		return nil, domain.NewEmptyInputError("no audio chunks to assemble")
	}

	var total int
	sizes := make([]int, 0, len(chunks))
	for _, chunk := range chunks {
		sizes = append(sizes, len(chunk.Data))
		total += len(chunk.Data)
	}

	pcm := make([]byte, 0, total)
	for _, chunk := range chunks {
		pcm = append(pcm, chunk.Data...)
	}

	encoded, err := encodeWAV(pcm, sampleRate, channels)
	if err != nil {
		return nil, domain.NewProcessingError("failed to encode wav", err)
	}

	file := &File{
		Data:       encoded,
		PCM:        pcm,
		MIMEType:   "audio/wav",
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   pcmDuration(len(pcm), sampleRate, channels),
		ChunkSizes: sizes,
	}

	p.logger.Info("Assembled audio file",
		zap.Int("chunks", len(chunks)),
		zap.Int("bytes", len(encoded)),
		zap.Float64("duration_s", file.Duration))

	return file, nil
}

// Compress downsamples to the transcription rate and normalizes loudness.
// Intelligibility wins over fidelity here; this is preprocessing for a speech
// model, not archival encoding.
func (p *PostProcessor) Compress(file *File) (*File, error) {
	samples, err := decodeSamples(file.PCM)
	if err != nil {
		return nil, domain.NewProcessingError("failed to decode samples", err)
	}

	if file.Channels > 1 {
		samples = downmixMono(samples, file.Channels)
	}
	if file.SampleRate > TranscriptionSampleRate {
		samples = resample(samples, file.SampleRate, TranscriptionSampleRate)
	}
	samples = normalizeLoudness(samples)

	pcm := encodeSamples(samples)
	encoded, err := encodeWAV(pcm, TranscriptionSampleRate, 1)
	if err != nil {
		return nil, domain.NewProcessingError("failed to re-encode wav", err)
	}

	compressed := &File{
		Data:       encoded,
		PCM:        pcm,
		MIMEType:   "audio/wav",
		SampleRate: TranscriptionSampleRate,
		Channels:   1,
		Duration:   pcmDuration(len(pcm), TranscriptionSampleRate, 1),
		ChunkSizes: file.ChunkSizes,
	}

	p.logger.Info("Compressed audio file",
		zap.Int("bytes_before", len(file.Data)),
		zap.Int("bytes_after", len(encoded)))

	return compressed, nil
}

// Validate enforces upload bounds and returns every violated constraint
// rather than short-circuiting on the first.
func (p *PostProcessor) Validate(file *File) ValidationReport {
	var errs []string
	if len(file.Data) > MaxFileBytes {
		errs = append(errs, fmt.Sprintf("file exceeds maximum size of %d bytes", MaxFileBytes))
	}
	if len(file.Data) < MinFileBytes {
		errs = append(errs, fmt.Sprintf("file below minimum size of %d bytes", MinFileBytes))
	}
	if !AcceptedMIMETypes[file.MIMEType] {
		errs = append(errs, fmt.Sprintf("unsupported audio type: %s", file.MIMEType))
	}
	return ValidationReport{Valid: len(errs) == 0, Errors: errs}
}

func pcmDuration(byteLen, sampleRate, channels int) float64 {
	if sampleRate == 0 || channels == 0 {
		return 0
	}
	return float64(byteLen) / float64(bytesPerSample*channels) / float64(sampleRate)
}

func encodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	samples, err := decodeSamples(pcm)
	if err != nil {
		return nil, err
	}

	out := &writerseeker.WriterSeeker{}
	encoder := wav.NewEncoder(out, sampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("wav write: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("wav close: %w", err)
	}

	return io.ReadAll(out.Reader())
}

func decodeSamples(pcm []byte) ([]int, error) {
	if len(pcm)%bytesPerSample != 0 {
		return nil, fmt.Errorf("pcm length %d is not sample-aligned", len(pcm))
	}
	samples := make([]int, len(pcm)/bytesPerSample)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:])))
	}
	return samples, nil
}

func encodeSamples(samples []int) []byte {
	pcm := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*bytesPerSample:], uint16(int16(clampSample(s))))
	}
	return pcm
}

func clampSample(s int) int {
	if s > 32767 {
		return 32767
	}
	if s < -32768 {
		return -32768
	}
	return s
}

func downmixMono(samples []int, channels int) []int {
	mono := make([]int, 0, len(samples)/channels)
	for i := 0; i+channels <= len(samples); i += channels {
		var sum int
		for c := 0; c < channels; c++ {
			sum += samples[i+c]
		}
		mono = append(mono, sum/channels)
	}
	return mono
}

// resample decimates with block averaging. Crude against a proper filter but
// adequate for speech headed into a recognizer.
func resample(samples []int, fromRate, toRate int) []int {
	if fromRate <= toRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]int, 0, outLen)
	for i := 0; i < outLen; i++ {
		start := int(float64(i) * ratio)
		end := int(float64(i+1) * ratio)
		if end > len(samples) {
			end = len(samples)
		}
		if start >= end {
			start = end - 1
		}
		var sum int
		for _, s := range samples[start:end] {
			sum += s
		}
		out = append(out, sum/(end-start))
	}
	return out
}

// normalizeLoudness applies peak normalization followed by soft dynamic-range
// compression above the knee so quiet speech survives the downsample.
func normalizeLoudness(samples []int) []int {
	var peak int
	for _, s := range samples {
		if s > peak {
			peak = s
		}
		if -s > peak {
			peak = -s
		}
	}
	if peak == 0 {
		return samples
	}

	gain := normalizeTarget * 32767 / float64(peak)
	if gain > maxGain {
		gain = maxGain
	}

	knee := kneeThreshold * 32767
	out := make([]int, len(samples))
	for i, s := range samples {
		v := float64(s) * gain
		if v > knee {
			v = knee + (v-knee)*kneeRatio
		} else if v < -knee {
			v = -knee + (v+knee)*kneeRatio
		}
		out[i] = clampSample(int(v))
	}
	return out
}
