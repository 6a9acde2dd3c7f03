package affect

import (
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// ferLabels is the output order of the FER+ emotion network.
var ferLabels = []string{"neutral", "happy", "surprise", "sad", "angry", "disgust", "fear", "contempt"}

// ferInput is the FER+ network input size (grayscale).
const ferInput = 64

// FERConfig configures FERClassifier.
type FERConfig struct {
	// DetectorModel is the YuNet face detection ONNX model.
	DetectorModel string

	// EmotionModel is the FER+ ONNX model (emotion-ferplus-8.onnx).
	EmotionModel string

	// FaceThreshold is the minimum YuNet face score.
	FaceThreshold float64
}

// DefaultFERConfig returns the model locations used by the agent.
func DefaultFERConfig() FERConfig {
	return FERConfig{
		DetectorModel: "models/face_detection_yunet.onnx",
		EmotionModel:  "models/emotion-ferplus-8.onnx",
		FaceThreshold: 0.6,
	}
}

// FERClassifier detects the largest face with YuNet and scores its
// expression with the FER+ network.
type FERClassifier struct {
	mu       sync.Mutex
	detector gocv.FaceDetectorYN
	net      gocv.Net
}

// NewFERClassifier loads both models.
func NewFERClassifier(cfg FERConfig) (*FERClassifier, error) {
	for _, path := range []string{cfg.DetectorModel, cfg.EmotionModel} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("model file not found: %s", path)
		}
	}
	if cfg.FaceThreshold <= 0 {
		cfg.FaceThreshold = DefaultFERConfig().FaceThreshold
	}

	net := gocv.ReadNetFromONNX(cfg.EmotionModel)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load emotion model from %s", cfg.EmotionModel)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.DetectorModel,
		"",
		image.Pt(320, 240),
		float32(cfg.FaceThreshold),
		0.3,  // NMS threshold
		5000, // top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &FERClassifier{detector: detector, net: net}, nil
}

// Classify implements Classifier.
func (c *FERClassifier) Classify(frame gocv.Mat) (Result, error) {
	if frame.Empty() {
		return Result{}, fmt.Errorf("empty frame")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	c.detector.SetInputSize(bounds.Max)

	faces := gocv.NewMat()
	defer faces.Close()
	c.detector.Detect(frame, &faces)

	face, ok := largestFace(faces, bounds)
	if !ok {
		return Result{}, nil
	}

	scores, err := c.score(frame, face)
	if err != nil {
		return Result{}, err
	}

	res := Result{Region: face, Scores: scores}
	for _, label := range Labels {
		if scores[label] > res.Confidence {
			res.Emotion, res.Confidence = label, scores[label]
		}
	}
	return res, nil
}

// Close releases both models.
func (c *FERClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detector.Close()
	return c.net.Close()
}

func (c *FERClassifier) score(frame gocv.Mat, face image.Rectangle) (map[string]float64, error) {
	crop := frame.Region(face)
	defer crop.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)

	blob := gocv.BlobFromImage(gray, 1.0, image.Pt(ferInput, ferInput), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	c.net.SetInput(blob, "")
	out := c.net.Forward("")
	defer out.Close()

	if out.Total() < len(ferLabels) {
		return nil, fmt.Errorf("unexpected emotion output size %d", out.Total())
	}
	logits := make([]float64, len(ferLabels))
	for i := range logits {
		logits[i] = float64(out.GetFloatAt(0, i))
	}
	return ferScores(logits), nil
}

// ferScores turns raw FER+ logits into percentages keyed by Labels.
// Contempt has no descriptor of its own and is folded into disgust.
func ferScores(logits []float64) map[string]float64 {
	probs := softmax(logits)
	scores := make(map[string]float64, len(Labels))
	for i, label := range ferLabels {
		if label == "contempt" {
			label = "disgust"
		}
		scores[label] += probs[i] * 100
	}
	return scores
}

func softmax(xs []float64) []float64 {
	peak := math.Inf(-1)
	for _, x := range xs {
		peak = math.Max(peak, x)
	}
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// largestFace picks the biggest YuNet detection, clipped to bounds.
// YuNet rows are x, y, w, h, five landmark pairs, score.
func largestFace(faces gocv.Mat, bounds image.Rectangle) (image.Rectangle, bool) {
	var best image.Rectangle
	for r := 0; r < faces.Rows(); r++ {
		x := int(faces.GetFloatAt(r, 0))
		y := int(faces.GetFloatAt(r, 1))
		w := int(faces.GetFloatAt(r, 2))
		h := int(faces.GetFloatAt(r, 3))
		rect := image.Rect(x, y, x+w, y+h).Intersect(bounds)
		if area(rect) > area(best) {
			best = rect
		}
	}
	return best, !best.Empty()
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
