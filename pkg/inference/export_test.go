package inference

import (
	"iter"

	"google.golang.org/genai"
)

// StreamFromSeq exposes the SDK iterator adapter to tests.
func StreamFromSeq(seq iter.Seq2[*genai.GenerateContentResponse, error]) Stream {
	return newSeqStream(seq)
}
