package inference

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"

	"google.golang.org/genai"
)

const providerGemini = "gemini"

// Gemini implements Generator with a single Gemini chat session, so the
// conversation history carries across turns.
type Gemini struct {
	config *Config
	client *genai.Client
	logger *slog.Logger

	mu   sync.Mutex
	chat *genai.Chat
}

// NewGemini creates the client and opens the chat session.
func NewGemini(ctx context.Context, opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, WrapError(providerGemini, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("create client: %w", err))
	}

	g := &Gemini{
		config: cfg,
		client: client,
		logger: cfg.Logger.With("component", "inference.gemini", "model", cfg.Model),
	}
	if err := g.Reset(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// Reset starts a fresh chat session with no history.
func (g *Gemini) Reset(ctx context.Context) error {
	chat, err := g.client.Chats.Create(ctx, g.config.Model, g.generateConfig(), nil)
	if err != nil {
		return WrapError(providerGemini, fmt.Errorf("create chat: %w", err))
	}
	g.mu.Lock()
	g.chat = chat
	g.mu.Unlock()
	return nil
}

func (g *Gemini) generateConfig() *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{}
	if g.config.SystemInstruction != "" {
		gc.SystemInstruction = genai.NewContentFromText(g.config.SystemInstruction, genai.RoleUser)
	}
	if g.config.Temperature > 0 {
		gc.Temperature = genai.Ptr(g.config.Temperature)
	}
	if g.config.MaxTokens > 0 {
		gc.MaxOutputTokens = g.config.MaxTokens
	}
	return gc
}

// Send implements Generator. Chats are not safe for overlapping sends;
// the orchestrator runs one turn at a time.
func (g *Gemini) Send(ctx context.Context, prompt string) (Stream, error) {
	g.mu.Lock()
	chat := g.chat
	g.mu.Unlock()
	if chat == nil {
		return nil, WrapError(providerGemini, ErrStreamClosed)
	}

	g.logger.Debug("sending prompt", "chars", len(prompt))
	seq := chat.SendMessageStream(ctx, genai.Part{Text: prompt})
	return newSeqStream(seq), nil
}

// History returns the number of messages in the chat so far.
func (g *Gemini) History() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chat == nil {
		return 0
	}
	return len(g.chat.History(false))
}

// seqStream adapts the SDK's push iterator to Recv.
type seqStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()

	mu     sync.Mutex
	closed bool
}

func newSeqStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *seqStream {
	next, stop := iter.Pull2(seq)
	return &seqStream{next: next, stop: stop}
}

// Recv implements Stream.
func (s *seqStream) Recv() (*StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, io.EOF
	}

	resp, err, ok := s.next()
	if !ok {
		s.closed = true
		s.stop()
		return nil, io.EOF
	}
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}

	chunk := &StreamChunk{Delta: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		chunk.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	return chunk, nil
}

// Close implements Stream.
func (s *seqStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.stop()
	}
	return nil
}

var _ Generator = (*Gemini)(nil)
