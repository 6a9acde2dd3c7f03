package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-nova/internal/config"
	"github.com/teslashibe/go-nova/internal/log"
	"github.com/teslashibe/go-nova/pkg/camera"
	"github.com/teslashibe/go-nova/pkg/tts"
)

func newCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate keys, assets, models and the camera without starting",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			failed := false
			step := func(name string, err error) {
				if err != nil {
					failed = true
					fmt.Printf("❌ %-10s %v\n", name, err)
					return
				}
				fmt.Printf("✅ %s\n", name)
			}

			step("config", cfg.Validate())
			step("assets", cfg.CheckAssets())
			if cfg.Keys.ElevenLabs != "" {
				step("voice", checkVoice(cmd.Context(), cfg))
			}

			// Missing models and cameras only disable emotion detection.
			for _, path := range []string{cfg.Affect.DetectorModel, cfg.Affect.EmotionModel} {
				if _, err := os.Stat(path); err != nil {
					fmt.Printf("⚠️  model %s not found, emotion detection will be off\n", path)
				}
			}
			if cfg.Camera.Enabled {
				camCfg := camera.DefaultConfig()
				camCfg.Width, camCfg.Height = cfg.Camera.Width, cfg.Camera.Height
				if idx, ok := camera.Scan(camera.OpenGoCV(camCfg), cfg.Camera.ScanFrom, cfg.Camera.ScanTo); ok {
					fmt.Printf("✅ camera     index %d\n", idx)
				} else {
					fmt.Printf("⚠️  %v (indices %d-%d)\n", camera.ErrNoCamera, cfg.Camera.ScanFrom, cfg.Camera.ScanTo)
				}
			}

			if failed {
				return errors.New("check failed")
			}
			return nil
		},
	}
}

// checkVoice confirms ElevenLabs accepts the configured key.
func checkVoice(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	synth, err := tts.NewHTTP(
		tts.WithAPIKey(cfg.Keys.ElevenLabs),
		tts.WithVoice(tts.Voice{ID: cfg.TTS.VoiceID, Model: cfg.TTS.ModelID}),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		return err
	}
	defer synth.Close()
	return synth.CheckKey(ctx)
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with keys masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg.Masked())
		},
	}
}
