// Package inference streams tutor replies from a generative model.
//
// A Generator keeps one conversation for the life of the process, so each
// Send continues the same chat. Replies arrive as a Stream of text
// fragments the caller can speak while the rest is still generating.
//
// Example usage:
//
//	gen, _ := inference.NewGemini(ctx,
//	    inference.WithAPIKey(os.Getenv("GOOGLE_KEY")),
//	    inference.WithSystemInstruction(prompt.SystemInstruction(false)),
//	)
//
//	stream, _ := gen.Send(ctx, "What is a derivative?")
//	defer stream.Close()
//	for {
//	    chunk, err := stream.Recv()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        continue // a bad fragment does not end the reply
//	    }
//	    fmt.Print(chunk.Delta)
//	}
package inference

import "context"

// Generator starts a streamed reply to a prompt.
type Generator interface {
	// Send submits prompt to the ongoing conversation.
	Send(ctx context.Context, prompt string) (Stream, error)
}

// Stream is a streaming response for real-time output.
type Stream interface {
	// Recv returns the next chunk. It returns io.EOF when the reply is
	// complete. Any other error concerns a single fragment; the caller may
	// keep receiving.
	Recv() (*StreamChunk, error)

	// Close stops the stream and releases resources.
	Close() error
}

// StreamChunk is a piece of a streaming response.
type StreamChunk struct {
	// Delta is the incremental text content.
	Delta string

	// FinishReason is set on the last chunk when the model reports one.
	FinishReason string
}
