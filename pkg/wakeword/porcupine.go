package wakeword

import (
	"fmt"
	"os"
	"strings"

	porcupine "github.com/Picovoice/porcupine/binding/go/v3"
)

// Porcupine is an Engine backed by Picovoice Porcupine with a custom
// keyword file (e.g. "Hey Nova").
type Porcupine struct {
	p porcupine.Porcupine
}

// NewPorcupine initializes Porcupine with the given access key and keyword
// files. Missing inputs are reported before touching the native library.
func NewPorcupine(accessKey string, keywordPaths ...string) (*Porcupine, error) {
	if strings.TrimSpace(accessKey) == "" {
		return nil, ErrNoAccessKey
	}
	for _, path := range keywordPaths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrKeywordFile, path)
		}
	}

	e := &Porcupine{p: porcupine.Porcupine{
		AccessKey:    accessKey,
		KeywordPaths: keywordPaths,
	}}
	if err := e.p.Init(); err != nil {
		return nil, fmt.Errorf("porcupine init: %w", err)
	}
	return e, nil
}

// Process implements Engine.
func (e *Porcupine) Process(frame []int16) (int, error) {
	return e.p.Process(frame)
}

// FrameLength implements Engine.
func (e *Porcupine) FrameLength() int {
	return porcupine.FrameLength
}

// SampleRate is the rate Porcupine expects its input at.
func (e *Porcupine) SampleRate() int {
	return porcupine.SampleRate
}

// Close implements Engine.
func (e *Porcupine) Close() error {
	return e.p.Delete()
}
