// mididevd simulates a MIDI device management plane. It loads a YAML
// profile, builds an in-memory hardware bundle, and answers framed SysEx
// requests on stdio or a TCP listener, exactly as the embedded firmware
// would.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/velobit/go-mididev/profile"
)

var (
	flagProfile string
	flagStorage string
	flagListen  string
	flagSerial  string
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "mididevd",
	Short: "MIDI device management-plane simulator",
	Long: `mididevd runs the management plane of a MIDI device as a host process.

It reads SysEx frames (0xF0 ... 0xF7) from stdin and writes replies to
stdout, or serves the same exchange on a TCP listener. Configuration is
persisted to a storage file when one is given, so the simulated device
keeps its name and port count across runs.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := newLogger(flagDebug)

		p, err := profile.Load(flagProfile)
		if err != nil {
			return err
		}
		if err := profile.Validate(p); err != nil {
			return fmt.Errorf("profile %s: %w", flagProfile, err)
		}

		sim, err := newSimulator(p, flagStorage, flagSerial, log)
		if err != nil {
			return err
		}
		defer sim.Close()

		if flagListen != "" {
			return sim.ServeTCP(flagListen)
		}
		return sim.ServeStdio()
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagProfile, "profile", "", "device profile YAML file (required)")
	rootCmd.Flags().StringVar(&flagStorage, "storage", "", "configuration storage file (default: in-memory)")
	rootCmd.Flags().StringVar(&flagListen, "listen", "", "TCP listen address (default: stdio)")
	rootCmd.Flags().StringVar(&flagSerial, "serial", "SIM0001", "board serial number")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	_ = rootCmd.MarkFlagRequired("profile")
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
