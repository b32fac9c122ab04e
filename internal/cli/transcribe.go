package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Fikrifrds/meeting-notes/internal/audio"
	"github.com/Fikrifrds/meeting-notes/internal/transcribe"
)

// NewTranscribeCmd transcribes one audio file and prints the segments.
func NewTranscribeCmd(deps *Dependencies) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recognizer := transcribe.NewService()
			defer recognizer.Close()
			if err := recognizer.Init(deps.Config.Paths.ModelsDir); err != nil {
				return err
			}

			samples, _, err := audio.ReadWAV(args[0])
			if err != nil {
				return err
			}

			res, err := recognizer.TranscribeWithSegments(samples, language)
			if err != nil {
				return err
			}

			for _, seg := range res.Segments {
				fmt.Fprintf(cmd.OutOrStdout(), "[%8.2f - %8.2f] %s\n", seg.Start, seg.End, seg.Text)
			}
			if len(res.Segments) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), res.FullText)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Language hint (auto-detect when empty)")

	return cmd
}
