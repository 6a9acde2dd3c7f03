// Package config loads go-nova configuration from defaults, an optional
// YAML file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (NOVA_TTS_VOICE_ID ...).
const EnvPrefix = "NOVA"

// Config is the full application configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	Debug    bool   `mapstructure:"debug" yaml:"debug"`

	Keys       Keys       `mapstructure:"keys" yaml:"keys"`
	Assets     Assets     `mapstructure:"assets" yaml:"assets"`
	Audio      Audio      `mapstructure:"audio" yaml:"audio"`
	Capture    Capture    `mapstructure:"capture" yaml:"capture"`
	STT        STT        `mapstructure:"stt" yaml:"stt"`
	Generation Generation `mapstructure:"generation" yaml:"generation"`
	TTS        TTS        `mapstructure:"tts" yaml:"tts"`
	Camera     Camera     `mapstructure:"camera" yaml:"camera"`
	Affect     Affect     `mapstructure:"affect" yaml:"affect"`
	UI         UI         `mapstructure:"ui" yaml:"ui"`
}

// Keys holds API credentials.
type Keys struct {
	ElevenLabs string `mapstructure:"eleven" yaml:"eleven"`
	Google     string `mapstructure:"google" yaml:"google"`
	Picovoice  string `mapstructure:"picovoice" yaml:"picovoice"`
	Whisper    string `mapstructure:"whisper" yaml:"whisper"`
}

// Assets are local files the agent needs.
type Assets struct {
	KeywordFile string `mapstructure:"keyword_file" yaml:"keyword_file"`
	BeepFile    string `mapstructure:"beep_file" yaml:"beep_file"`
}

// Audio configures the microphone.
type Audio struct {
	Backend    string        `mapstructure:"backend" yaml:"backend"`
	SampleRate int           `mapstructure:"sample_rate" yaml:"sample_rate"`
	Buffer     time.Duration `mapstructure:"buffer" yaml:"buffer"`
	Device     string        `mapstructure:"device" yaml:"device"`
}

// Capture tunes utterance capture.
type Capture struct {
	Threshold float64       `mapstructure:"threshold" yaml:"threshold"`
	Silence   time.Duration `mapstructure:"silence" yaml:"silence"`
	MaxWait   time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
}

// STT configures the Whisper-compatible transcription endpoint.
type STT struct {
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url"`
	Model    string        `mapstructure:"model" yaml:"model"`
	Language string        `mapstructure:"language" yaml:"language"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Generation configures the chat model.
type Generation struct {
	Model string `mapstructure:"model" yaml:"model"`
}

// TTS configures speech synthesis and playback.
type TTS struct {
	Backend    string   `mapstructure:"backend" yaml:"backend"` // "http" or "ws"
	VoiceID    string   `mapstructure:"voice_id" yaml:"voice_id"`
	ModelID    string   `mapstructure:"model_id" yaml:"model_id"`
	Stability  float64  `mapstructure:"stability" yaml:"stability"`
	Similarity float64  `mapstructure:"similarity" yaml:"similarity"`
	Player     []string `mapstructure:"player" yaml:"player"`
}

// Camera configures frame acquisition.
type Camera struct {
	Enabled          bool          `mapstructure:"enabled" yaml:"enabled"`
	ScanFrom         int           `mapstructure:"scan_from" yaml:"scan_from"`
	ScanTo           int           `mapstructure:"scan_to" yaml:"scan_to"`
	Width            int           `mapstructure:"width" yaml:"width"`
	Height           int           `mapstructure:"height" yaml:"height"`
	FailureThreshold int           `mapstructure:"failure_threshold" yaml:"failure_threshold"`
	ReconnectPause   time.Duration `mapstructure:"reconnect_pause" yaml:"reconnect_pause"`
}

// Affect configures the analysis loop and summarizer.
type Affect struct {
	HistorySize   int           `mapstructure:"history_size" yaml:"history_size"`
	Interval      time.Duration `mapstructure:"interval" yaml:"interval"`
	MinConfidence float64       `mapstructure:"min_confidence" yaml:"min_confidence"`
	Staleness     time.Duration `mapstructure:"staleness" yaml:"staleness"`
	DetectorModel string        `mapstructure:"detector_model" yaml:"detector_model"`
	EmotionModel  string        `mapstructure:"emotion_model" yaml:"emotion_model"`
}

// UI configures the display server.
type UI struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	StaticDir    string        `mapstructure:"static_dir" yaml:"static_dir"`
	ReadyTimeout time.Duration `mapstructure:"ready_timeout" yaml:"ready_timeout"`
	WelcomeDelay time.Duration `mapstructure:"welcome_delay" yaml:"welcome_delay"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		LogLevel: "info",
		Assets: Assets{
			KeywordFile: "assets/Hey_Nova.ppn",
			BeepFile:    "assets/beep.wav",
		},
		Audio: Audio{
			Backend:    "portaudio",
			SampleRate: 16000,
			Buffer:     32 * time.Millisecond,
		},
		Capture: Capture{
			Threshold: 10,
			Silence:   800 * time.Millisecond,
			MaxWait:   10 * time.Second,
		},
		STT: STT{
			BaseURL: "http://127.0.0.1:8000/v1",
			Model:   "tiny.en",
			Timeout: 30 * time.Second,
		},
		Generation: Generation{
			Model: "gemini-2.5-flash",
		},
		TTS: TTS{
			Backend:    "http",
			VoiceID:    "CwhRBWXzGAHq8TQ4Fs17",
			ModelID:    "eleven_turbo_v2_5",
			Stability:  0.5,
			Similarity: 0.7,
			Player:     []string{"mpv", "--no-cache", "--no-terminal", "--", "fd://0"},
		},
		Camera: Camera{
			Enabled:          true,
			ScanFrom:         1,
			ScanTo:           5,
			Width:            640,
			Height:           480,
			FailureThreshold: 30,
			ReconnectPause:   2 * time.Second,
		},
		Affect: Affect{
			HistorySize:   10,
			Interval:      3 * time.Second,
			MinConfidence: 80,
			Staleness:     30 * time.Second,
			DetectorModel: "models/face_detection_yunet.onnx",
			EmotionModel:  "models/emotion-ferplus-8.onnx",
		},
		UI: UI{
			Addr:         "0.0.0.0:5000",
			StaticDir:    "./web",
			ReadyTimeout: 10 * time.Second,
			WelcomeDelay: 2 * time.Second,
		},
	}
}

// envAliases are the bare variable names the agent has always read.
var envAliases = map[string]string{
	"keys.eleven":    "ELEVEN_KEY",
	"keys.google":    "GOOGLE_KEY",
	"keys.picovoice": "PICOVOICE_KEY",
	"keys.whisper":   "WHISPER_KEY",
}

// Load reads configuration. path may name a YAML file; when empty, an
// optional nova.yaml in the working directory is used. envFile, when it
// exists, is loaded into the process environment first without
// overriding variables that are already set.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("nova")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("debug", d.Debug)

	v.SetDefault("keys.eleven", "")
	v.SetDefault("keys.google", "")
	v.SetDefault("keys.picovoice", "")
	v.SetDefault("keys.whisper", "")

	v.SetDefault("assets.keyword_file", d.Assets.KeywordFile)
	v.SetDefault("assets.beep_file", d.Assets.BeepFile)

	v.SetDefault("audio.backend", d.Audio.Backend)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.buffer", d.Audio.Buffer)
	v.SetDefault("audio.device", d.Audio.Device)

	v.SetDefault("capture.threshold", d.Capture.Threshold)
	v.SetDefault("capture.silence", d.Capture.Silence)
	v.SetDefault("capture.max_wait", d.Capture.MaxWait)

	v.SetDefault("stt.base_url", d.STT.BaseURL)
	v.SetDefault("stt.model", d.STT.Model)
	v.SetDefault("stt.language", d.STT.Language)
	v.SetDefault("stt.timeout", d.STT.Timeout)

	v.SetDefault("generation.model", d.Generation.Model)

	v.SetDefault("tts.backend", d.TTS.Backend)
	v.SetDefault("tts.voice_id", d.TTS.VoiceID)
	v.SetDefault("tts.model_id", d.TTS.ModelID)
	v.SetDefault("tts.stability", d.TTS.Stability)
	v.SetDefault("tts.similarity", d.TTS.Similarity)
	v.SetDefault("tts.player", d.TTS.Player)

	v.SetDefault("camera.enabled", d.Camera.Enabled)
	v.SetDefault("camera.scan_from", d.Camera.ScanFrom)
	v.SetDefault("camera.scan_to", d.Camera.ScanTo)
	v.SetDefault("camera.width", d.Camera.Width)
	v.SetDefault("camera.height", d.Camera.Height)
	v.SetDefault("camera.failure_threshold", d.Camera.FailureThreshold)
	v.SetDefault("camera.reconnect_pause", d.Camera.ReconnectPause)

	v.SetDefault("affect.history_size", d.Affect.HistorySize)
	v.SetDefault("affect.interval", d.Affect.Interval)
	v.SetDefault("affect.min_confidence", d.Affect.MinConfidence)
	v.SetDefault("affect.staleness", d.Affect.Staleness)
	v.SetDefault("affect.detector_model", d.Affect.DetectorModel)
	v.SetDefault("affect.emotion_model", d.Affect.EmotionModel)

	v.SetDefault("ui.addr", d.UI.Addr)
	v.SetDefault("ui.static_dir", d.UI.StaticDir)
	v.SetDefault("ui.ready_timeout", d.UI.ReadyTimeout)
	v.SetDefault("ui.welcome_delay", d.UI.WelcomeDelay)
}

// Validate checks that required credentials are present and values are sane.
func (c *Config) Validate() error {
	switch {
	case c.Keys.Picovoice == "":
		return &ConfigError{Field: "keys.picovoice", Message: "PICOVOICE_KEY environment variable is required"}
	case c.Keys.Google == "":
		return &ConfigError{Field: "keys.google", Message: "GOOGLE_KEY environment variable is required"}
	case c.Keys.ElevenLabs == "":
		return &ConfigError{Field: "keys.eleven", Message: "ELEVEN_KEY environment variable is required"}
	case c.TTS.Backend != "http" && c.TTS.Backend != "ws":
		return &ConfigError{Field: "tts.backend", Message: fmt.Sprintf("tts.backend must be http or ws, got %q", c.TTS.Backend)}
	case len(c.TTS.Player) == 0:
		return &ConfigError{Field: "tts.player", Message: "tts.player command is empty"}
	case c.Capture.Threshold <= 0:
		return &ConfigError{Field: "capture.threshold", Message: "capture.threshold must be positive"}
	case c.Capture.Silence <= 0:
		return &ConfigError{Field: "capture.silence", Message: "capture.silence must be positive"}
	case c.Affect.HistorySize <= 0:
		return &ConfigError{Field: "affect.history_size", Message: "affect.history_size must be positive"}
	case c.Camera.ScanFrom > c.Camera.ScanTo:
		return &ConfigError{Field: "camera.scan_from", Message: "camera.scan_from must not exceed camera.scan_to"}
	}
	return nil
}

// CheckAssets verifies the local files and binaries the agent cannot run
// without. The beep cue is optional and not checked.
func (c *Config) CheckAssets() error {
	if _, err := os.Stat(c.Assets.KeywordFile); err != nil {
		return &ConfigError{
			Field:   "assets.keyword_file",
			Message: fmt.Sprintf("could not find wake word file %s", c.Assets.KeywordFile),
		}
	}
	if _, err := exec.LookPath(c.TTS.Player[0]); err != nil {
		return &ConfigError{
			Field:   "tts.player",
			Message: fmt.Sprintf("%s not found in PATH (install it, e.g. sudo apt-get install %s)", c.TTS.Player[0], c.TTS.Player[0]),
		}
	}
	return nil
}

// Masked returns a copy safe to print, with credentials shortened.
func (c Config) Masked() Config {
	c.Keys.ElevenLabs = mask(c.Keys.ElevenLabs)
	c.Keys.Google = mask(c.Keys.Google)
	c.Keys.Picovoice = mask(c.Keys.Picovoice)
	c.Keys.Whisper = mask(c.Keys.Whisper)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", 8)
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
