package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-nova/internal/config"
)

func clearKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ELEVEN_KEY", "GOOGLE_KEY", "PICOVOICE_KEY", "WHISPER_KEY",
		"NOVA_KEYS_ELEVEN", "NOVA_KEYS_GOOGLE", "NOVA_KEYS_PICOVOICE", "NOVA_KEYS_WHISPER"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearKeys(t)

	cfg, err := config.Load("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := config.Default()
	if cfg.Capture.Silence != 800*time.Millisecond {
		t.Errorf("expected 800ms silence, got %v", cfg.Capture.Silence)
	}
	if cfg.Capture.Threshold != 10 || cfg.Capture.MaxWait != 10*time.Second {
		t.Errorf("unexpected capture defaults %+v", cfg.Capture)
	}
	if cfg.Affect.HistorySize != d.Affect.HistorySize {
		t.Errorf("expected history size %d, got %d", d.Affect.HistorySize, cfg.Affect.HistorySize)
	}
	if cfg.Camera.FailureThreshold != 30 {
		t.Errorf("expected failure threshold 30, got %d", cfg.Camera.FailureThreshold)
	}
	if cfg.TTS.VoiceID != "CwhRBWXzGAHq8TQ4Fs17" {
		t.Errorf("unexpected voice %q", cfg.TTS.VoiceID)
	}
	if len(cfg.TTS.Player) != 5 || cfg.TTS.Player[0] != "mpv" {
		t.Errorf("unexpected player %v", cfg.TTS.Player)
	}
}

func TestLoadEnvAliases(t *testing.T) {
	clearKeys(t)
	t.Setenv("ELEVEN_KEY", "eleven-secret")
	t.Setenv("GOOGLE_KEY", "google-secret")
	t.Setenv("NOVA_KEYS_PICOVOICE", "pico-secret")
	t.Setenv("NOVA_CAPTURE_THRESHOLD", "250")

	cfg, err := config.Load("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Keys.ElevenLabs != "eleven-secret" {
		t.Errorf("expected eleven key from ELEVEN_KEY, got %q", cfg.Keys.ElevenLabs)
	}
	if cfg.Keys.Google != "google-secret" {
		t.Errorf("expected google key from GOOGLE_KEY, got %q", cfg.Keys.Google)
	}
	if cfg.Keys.Picovoice != "pico-secret" {
		t.Errorf("expected picovoice key from prefixed var, got %q", cfg.Keys.Picovoice)
	}
	if cfg.Capture.Threshold != 250 {
		t.Errorf("expected threshold 250, got %v", cfg.Capture.Threshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadFiles(t *testing.T) {
	clearKeys(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "nova.yaml")
	yamlBody := "affect:\n  interval: 5s\n  history_size: 12\nui:\n  addr: 127.0.0.1:6000\n"
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0o644); err != nil {
		t.Fatal(err)
	}

	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("WHISPER_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv sets the variable directly; make sure it is cleaned up.
	t.Cleanup(func() { os.Unsetenv("WHISPER_KEY") })
	os.Unsetenv("WHISPER_KEY")

	cfg, err := config.Load(yamlPath, envPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Affect.Interval != 5*time.Second {
		t.Errorf("expected 5s interval, got %v", cfg.Affect.Interval)
	}
	if cfg.Affect.HistorySize != 12 {
		t.Errorf("expected history size 12, got %d", cfg.Affect.HistorySize)
	}
	if cfg.UI.Addr != "127.0.0.1:6000" {
		t.Errorf("expected addr from file, got %q", cfg.UI.Addr)
	}
	if cfg.Keys.Whisper != "from-dotenv" {
		t.Errorf("expected whisper key from .env, got %q", cfg.Keys.Whisper)
	}
	// Untouched values keep their defaults.
	if cfg.Affect.MinConfidence != 80 {
		t.Errorf("expected min confidence 80, got %v", cfg.Affect.MinConfidence)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		c := config.Default()
		c.Keys.ElevenLabs, c.Keys.Google, c.Keys.Picovoice = "e", "g", "p"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"missing picovoice", func(c *config.Config) { c.Keys.Picovoice = "" }, "keys.picovoice"},
		{"missing google", func(c *config.Config) { c.Keys.Google = "" }, "keys.google"},
		{"missing eleven", func(c *config.Config) { c.Keys.ElevenLabs = "" }, "keys.eleven"},
		{"bad tts backend", func(c *config.Config) { c.TTS.Backend = "grpc" }, "tts.backend"},
		{"empty player", func(c *config.Config) { c.TTS.Player = nil }, "tts.player"},
		{"zero silence", func(c *config.Config) { c.Capture.Silence = 0 }, "capture.silence"},
		{"inverted scan", func(c *config.Config) { c.Camera.ScanFrom = 6 }, "camera.scan_from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var cfgErr *config.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestCheckAssets(t *testing.T) {
	c := config.Default()
	c.Assets.KeywordFile = filepath.Join(t.TempDir(), "Hey_Nova.ppn")

	if err := c.CheckAssets(); err == nil {
		t.Fatal("expected error for missing keyword file")
	}

	if err := os.WriteFile(c.Assets.KeywordFile, []byte("ppn"), 0o644); err != nil {
		t.Fatal(err)
	}
	c.TTS.Player = []string{"definitely-not-a-real-player-binary"}
	var cfgErr *config.ConfigError
	if err := c.CheckAssets(); !errors.As(err, &cfgErr) || cfgErr.Field != "tts.player" {
		t.Errorf("expected tts.player error, got %v", err)
	}
}

func TestMasked(t *testing.T) {
	c := config.Default()
	c.Keys.Google = "AIzaSyExample"
	m := c.Masked()
	if m.Keys.Google == c.Keys.Google {
		t.Error("expected key to be masked")
	}
	if m.Keys.Google[:4] != "AIza" {
		t.Errorf("expected prefix to survive, got %q", m.Keys.Google)
	}
	if m.Keys.ElevenLabs != "" {
		t.Errorf("expected empty key to stay empty, got %q", m.Keys.ElevenLabs)
	}
}
