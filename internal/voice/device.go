package voice

import (
	"context"
	"fmt"
	"sync"
)

// InputDevice abstracts the audio input a capture session records from. Real
// implementations sit on top of the browser/WebSocket transport; tests use
// fakes.
type InputDevice interface {
	// Open acquires the device. Failure maps to a permission error.
	Open(ctx context.Context) error
	// ReadChunk returns roughly one second of raw PCM audio.
	ReadChunk() ([]byte, error)
	// FrequencyData returns the current frequency-domain snapshot. Read-only,
	// shared with the quality monitor.
	FrequencyData() []byte
	// Close releases the device. Must be safe to call more than once.
	Close() error
}

// deviceLocks enforces one active capture session per device.
var deviceLocks = struct {
	mu     sync.Mutex
	active map[string]bool
}{active: make(map[string]bool)}

func acquireDevice(deviceID string) error {
	deviceLocks.mu.Lock()
	defer deviceLocks.mu.Unlock()
	if deviceLocks.active[deviceID] {
		return fmt.Errorf("device %s already has an active session", deviceID)
	}
	deviceLocks.active[deviceID] = true
	return nil
}

func releaseDevice(deviceID string) {
	deviceLocks.mu.Lock()
	defer deviceLocks.mu.Unlock()
	delete(deviceLocks.active, deviceID)
}
