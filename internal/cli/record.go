package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Fikrifrds/meeting-notes/internal/audio"
	"github.com/Fikrifrds/meeting-notes/internal/session"
	"github.com/Fikrifrds/meeting-notes/internal/store"
	"github.com/Fikrifrds/meeting-notes/internal/transcribe"
)

// NewRecordCmd runs a foreground recording session: start, wait for
// Ctrl+C, stop, and print where the WAV landed.
func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var micDevice, systemDevice string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a meeting in the foreground (Ctrl+C to stop)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			logger := deps.Logger

			if err := cfg.EnsureDirs(); err != nil {
				return fmt.Errorf("preparing directories: %w", err)
			}

			st, err := store.Open(cfg.Paths.DatabasePath, logger)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer st.Close()

			manager, err := audio.NewManager()
			if err != nil {
				return fmt.Errorf("initializing audio backend: %w", err)
			}
			defer manager.Close()

			recognizer := transcribe.NewService()
			defer recognizer.Close()

			gains := audio.NewGainControl(cfg.Audio.MicGain, cfg.Audio.SystemGain)
			backend := session.NewDeviceBackend(manager, logger)
			controller := session.NewController(backend, st, recognizer, session.NopSink{},
				cfg.Paths.RecordingsDir, cfg.ChunkSizeSamples(), gains, logger)

			if micDevice != "" || systemDevice != "" {
				controller.SetDevices(&micDevice, &systemDevice)
			}

			start, err := controller.StartRecording()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), start.Message)
			fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop.")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			stop, err := controller.StopRecording()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stop.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&micDevice, "mic", "", "Microphone device name (default device when empty)")
	cmd.Flags().StringVar(&systemDevice, "system", "", "System-audio device name (auto-detected when empty)")

	return cmd
}
