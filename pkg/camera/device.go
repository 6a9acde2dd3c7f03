package camera

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrNoCamera is returned when no device in the scan range yields a frame.
var ErrNoCamera = errors.New("camera: no working camera found")

// Device is an open camera. *gocv.VideoCapture satisfies it.
type Device interface {
	// Read fills dst with the next frame and reports success.
	Read(dst *gocv.Mat) bool

	// Close releases the device.
	Close() error
}

// Opener opens the device at an index.
type Opener func(index int) (Device, error)

// OpenGoCV returns an Opener for V4L2/AVFoundation devices via OpenCV,
// configured with the requested resolution and buffer size.
func OpenGoCV(cfg Config) Opener {
	return func(index int) (Device, error) {
		vc, err := gocv.VideoCaptureDevice(index)
		if err != nil {
			return nil, fmt.Errorf("open camera %d: %w", index, err)
		}
		if !vc.IsOpened() {
			vc.Close()
			return nil, fmt.Errorf("open camera %d: device not opened", index)
		}
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
		if cfg.BufferSize > 0 {
			vc.Set(gocv.VideoCaptureBufferSize, float64(cfg.BufferSize))
		}
		return vc, nil
	}
}

// Scan probes indices from..to and returns the first one that opens and
// delivers a frame. The probe handle is released before returning.
func Scan(open Opener, from, to int) (int, bool) {
	frame := gocv.NewMat()
	defer frame.Close()

	for i := from; i <= to; i++ {
		dev, err := open(i)
		if err != nil {
			continue
		}
		ok := dev.Read(&frame) && !frame.Empty()
		dev.Close()
		if ok {
			return i, true
		}
	}
	return -1, false
}
