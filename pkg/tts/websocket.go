package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const elevenLabsWSBaseURL = "wss://api.elevenlabs.io/v1/text-to-speech"

// Websocket synthesizes each sentence over its own stream-input
// connection: the sentence is sent whole and audio is read until the
// server marks the final chunk.
type Websocket struct {
	s      *settings
	dialer *websocket.Dialer
	logger *slog.Logger
}

// NewWebsocket creates a websocket synthesizer.
func NewWebsocket(opts ...Option) (*Websocket, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	if s.baseURL == "" {
		s.baseURL = elevenLabsWSBaseURL
	}
	return &Websocket{
		s: s,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		logger: s.logger.With("component", "tts.ws"),
	}, nil
}

// Synthesize dials, sends the sentence and returns a reader over the
// decoded audio. Cancelling ctx closes the connection.
func (w *Websocket) Synthesize(ctx context.Context, sentence string) (io.ReadCloser, error) {
	start := time.Now()

	q := url.Values{}
	q.Set("model_id", w.s.voice.Model)
	q.Set("output_format", "mp3_44100_128")
	u := fmt.Sprintf("%s/%s/stream-input?%s", w.s.baseURL, w.s.voice.ID, q.Encode())

	headers := http.Header{}
	headers.Set("xi-api-key", w.s.apiKey)

	conn, resp, err := w.dialer.DialContext(ctx, u, headers)
	if err != nil {
		if resp != nil {
			return nil, &StatusError{Transport: "ws", Status: resp.StatusCode, Message: err.Error()}
		}
		return nil, fmt.Errorf("tts ws: dial: %w", err)
	}

	// Open the stream, send the sentence, then flush with an empty text.
	msgs := []any{
		map[string]any{
			"text": " ",
			"voice_settings": voiceSettings{
				Stability:       w.s.voice.Stability,
				SimilarityBoost: w.s.voice.Similarity,
			},
			"generation_config": map[string]any{
				"chunk_length_schedule": []int{120, 160, 250, 290},
			},
		},
		map[string]any{"text": sentence + " ", "try_trigger_generation": true},
		map[string]any{"text": ""},
	}
	for _, m := range msgs {
		if err := conn.WriteJSON(m); err != nil {
			conn.Close()
			return nil, fmt.Errorf("tts ws: send: %w", err)
		}
	}

	w.logger.Debug("sentence sent",
		"chars", len(sentence),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	r := &wsReader{conn: conn}
	r.stop = context.AfterFunc(ctx, func() { conn.Close() })
	return r, nil
}

// Close is a no-op; connections live as long as their sentence.
func (w *Websocket) Close() error {
	return nil
}

type wsMessage struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// wsReader is an io.Reader over the audio messages of one sentence.
type wsReader struct {
	conn *websocket.Conn
	stop func() bool
	buf  []byte
	done bool
}

func (r *wsReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.done {
			return 0, io.EOF
		}
		if err := r.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// next reads one message into buf.
func (r *wsReader) next() error {
	_, data, err := r.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			r.done = true
			return nil
		}
		return fmt.Errorf("tts ws: %w", err)
	}

	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("tts ws: parse message: %w", err)
	}
	if msg.Error != "" {
		return &StatusError{Transport: "ws", Code: msg.Error, Message: msg.Message}
	}
	r.done = msg.IsFinal
	if msg.Audio == "" {
		return nil
	}
	r.buf, err = base64.StdEncoding.DecodeString(msg.Audio)
	if err != nil {
		return fmt.Errorf("tts ws: decode audio: %w", err)
	}
	return nil
}

func (r *wsReader) Close() error {
	r.stop()
	err := r.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

var _ Synthesizer = (*Websocket)(nil)
