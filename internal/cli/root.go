// Package cli defines the command-line surface of the recorder.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Fikrifrds/meeting-notes/internal/config"
)

// Dependencies carries what every subcommand needs.
type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meeting-notes",
		Short: "Record meetings, transcribe, and summarize",
		Long:  "A local meeting recorder that captures microphone and system audio, transcribes with whisper.cpp, and generates AI meeting minutes.",
	}

	rootCmd.AddCommand(NewServeCmd(deps))
	rootCmd.AddCommand(NewDevicesCmd(deps))
	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewTranscribeCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}
