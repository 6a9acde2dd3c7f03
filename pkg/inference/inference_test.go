package inference_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"google.golang.org/genai"

	"github.com/teslashibe/go-nova/pkg/inference"
)

func response(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
	}
}

func TestStreamFromSeq(t *testing.T) {
	blip := errors.New("blip")
	stopped := false
	seq := func(yield func(*genai.GenerateContentResponse, error) bool) {
		defer func() { stopped = true }()
		if !yield(response("Hello "), nil) {
			return
		}
		if !yield(nil, blip) {
			return
		}
		yield(response("there."), nil)
	}

	s := inference.StreamFromSeq(seq)

	chunk, err := s.Recv()
	if err != nil || chunk.Delta != "Hello " {
		t.Fatalf("expected first fragment, got %+v, %v", chunk, err)
	}
	if _, err := s.Recv(); !errors.Is(err, blip) {
		t.Fatalf("expected fragment error, got %v", err)
	}
	chunk, err = s.Recv()
	if err != nil || chunk.Delta != "there." {
		t.Fatalf("expected stream to continue after a bad fragment, got %+v, %v", chunk, err)
	}
	if _, err := s.Recv(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
	if _, err := s.Recv(); err != io.EOF {
		t.Errorf("expected io.EOF to be sticky, got %v", err)
	}
	if !stopped {
		t.Error("expected iterator to finish")
	}
}

func TestStreamFromSeqCloseEarly(t *testing.T) {
	stopped := false
	seq := func(yield func(*genai.GenerateContentResponse, error) bool) {
		defer func() { stopped = true }()
		for i := 0; i < 10; i++ {
			if !yield(response("x"), nil) {
				return
			}
		}
	}

	s := inference.StreamFromSeq(seq)
	if _, err := s.Recv(); err != nil {
		t.Fatalf("recv: %v", err)
	}
	s.Close()

	if !stopped {
		t.Error("expected Close to stop the iterator")
	}
	if _, err := s.Recv(); err != io.EOF {
		t.Errorf("expected io.EOF after close, got %v", err)
	}
}

func TestMock(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	m := inference.NewMock(inference.Text("One. "), inference.Fail(boom), inference.Text("Two."))

	s, err := m.Send(ctx, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	var got string
	var errs int
	for {
		chunk, err := s.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs++
			continue
		}
		got += chunk.Delta
	}
	if got != "One. Two." || errs != 1 {
		t.Errorf("expected %q with 1 error, got %q with %d", "One. Two.", got, errs)
	}
	if p := m.Prompts(); len(p) != 1 || p[0] != "hello" {
		t.Errorf("unexpected prompts %v", p)
	}

	if _, err := inference.WithError(boom).Send(ctx, "x"); !errors.Is(err, boom) {
		t.Errorf("expected send error, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := inference.DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, inference.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
	cfg.Apply(inference.WithAPIKey("k"), inference.WithModel(""))
	if err := cfg.Validate(); !errors.Is(err, inference.ErrNoModel) {
		t.Errorf("expected ErrNoModel, got %v", err)
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := inference.NewGemini(context.Background())
	var perr *inference.ProviderError
	if !errors.As(err, &perr) || !errors.Is(err, inference.ErrNoAPIKey) {
		t.Errorf("expected wrapped ErrNoAPIKey, got %v", err)
	}
}
