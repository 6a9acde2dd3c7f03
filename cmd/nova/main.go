// Nova - voice tutoring agent with wake word, streamed replies and
// affect-aware prompting.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-nova/internal/config"
	"github.com/teslashibe/go-nova/internal/log"
)

// Version information (set at build time)
var version = "dev"

type rootFlags struct {
	configPath string
	envFile    string
	logLevel   string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "nova",
		Short: "Nova - a voice tutor that listens for \"Hey Nova\"",
		Long: `Nova waits for the wake phrase, transcribes what the student says,
streams a reply from Gemini and speaks it sentence by sentence. A camera,
when present, lets the tutor adapt its tone to the student's expression.

Keys are read from the environment or a .env file:
  PICOVOICE_KEY  GOOGLE_KEY  ELEVEN_KEY`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML config file (default ./nova.yaml if present)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file with API keys")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flags.debug, "debug", false, "tell the model to answer in debug mode and log verbosely")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Start the tutor (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAgent(cmd.Context(), flags)
			},
		},
		newCheckCmd(flags),
		newConfigCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println("nova", version)
			},
		},
	)
	return root
}

// loadConfig loads configuration and applies flag overrides.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath, flags.envFile)
	if err != nil {
		return nil, err
	}
	if flags.debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	log.Init(cfg.LogLevel)
	return cfg, nil
}
