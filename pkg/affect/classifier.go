package affect

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Labels are the emotions a Classifier may report.
var Labels = []string{"angry", "disgust", "fear", "happy", "sad", "surprise", "neutral"}

// Result is the raw output of one classification.
type Result struct {
	Emotion    string
	Confidence float64 // 0-100
	Region     image.Rectangle
	Scores     map[string]float64
}

// Classifier finds the dominant face in a frame and scores its emotion.
// A frame without a face yields a zero Region, not an error.
type Classifier interface {
	Classify(frame gocv.Mat) (Result, error)
	Close() error
}

// RejectReason explains why a classification was not stored.
type RejectReason string

const (
	RejectNone          RejectReason = ""
	RejectNoFace        RejectReason = "no_face"
	RejectFaceTooSmall  RejectReason = "face_too_small"
	RejectFaceTooLarge  RejectReason = "face_too_large"
	RejectLowConfidence RejectReason = "low_confidence"
)

// Outcome is the accept/reject decision for one Result.
type Outcome struct {
	Reading  Reading
	Accepted bool
	Reason   RejectReason
}

// Gate holds the thresholds a Result must pass to become a Reading.
type Gate struct {
	MinConfidence   float64 // inclusive
	MinFaceArea     int     // pixels, inclusive
	MaxFaceFraction float64 // of frame area, inclusive
}

// DefaultGate returns the standard thresholds.
func DefaultGate() Gate {
	return Gate{
		MinConfidence:   80,
		MinFaceArea:     100,
		MaxFaceFraction: 0.90,
	}
}

// Evaluate checks res against the frame size. A region covering almost the
// whole frame is what the classifier reports when it found no face.
func (g Gate) Evaluate(res Result, frame image.Point) Outcome {
	area := res.Region.Dx() * res.Region.Dy()
	frameArea := frame.X * frame.Y

	switch {
	case area == 0:
		return Outcome{Reason: RejectNoFace}
	case float64(area) > float64(frameArea)*g.MaxFaceFraction:
		return Outcome{Reason: RejectFaceTooLarge}
	case area < g.MinFaceArea:
		return Outcome{Reason: RejectFaceTooSmall}
	}

	conf := roundTo(res.Confidence, 2)
	if conf < g.MinConfidence {
		return Outcome{Reason: RejectLowConfidence, Reading: Reading{Emotion: res.Emotion, Confidence: conf}}
	}
	return Outcome{
		Accepted: true,
		Reading:  Reading{Emotion: res.Emotion, Confidence: conf},
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
