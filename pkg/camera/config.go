// Package camera keeps the freshest frame from a USB camera available to
// readers and repairs the link when the camera drops out.
package camera

import "time"

// Config holds acquisition parameters.
type Config struct {
	// === Device scan ===
	ScanFrom int `json:"scan_from"` // First device index to probe
	ScanTo   int `json:"scan_to"`   // Last device index to probe (inclusive)

	// === Capture format ===
	Width      int `json:"width"`       // Requested frame width in pixels
	Height     int `json:"height"`      // Requested frame height in pixels
	BufferSize int `json:"buffer_size"` // Driver-side frame buffer; 1 keeps frames fresh

	// === Reconnect ===
	// FailureThreshold is how many consecutive failed reads trigger a reconnect.
	FailureThreshold int `json:"failure_threshold"`

	// ReconnectPause is the wait between releasing the device and rescanning.
	ReconnectPause time.Duration `json:"reconnect_pause"`
}

// DefaultConfig returns the settings used for the tutoring camera.
// Index 0 is usually a built-in webcam, so scanning starts at 1.
func DefaultConfig() Config {
	return Config{
		ScanFrom:         1,
		ScanTo:           5,
		Width:            640,
		Height:           480,
		BufferSize:       1,
		FailureThreshold: 30,
		ReconnectPause:   2 * time.Second,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.ScanFrom < 0 || c.ScanTo < c.ScanFrom {
		errors = append(errors, "scan range must be non-negative and ordered")
	}
	if c.Width < 160 || c.Height < 120 {
		errors = append(errors, "resolution must be at least 160x120")
	}
	if c.BufferSize < 0 {
		errors = append(errors, "buffer_size must not be negative")
	}
	if c.FailureThreshold < 1 {
		errors = append(errors, "failure_threshold must be at least 1")
	}
	if c.ReconnectPause < 0 {
		errors = append(errors, "reconnect_pause must not be negative")
	}

	return errors
}
