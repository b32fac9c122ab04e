package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Fikrifrds/meeting-notes/internal/audio"
	"github.com/Fikrifrds/meeting-notes/internal/models"
	"github.com/Fikrifrds/meeting-notes/internal/transcribe"
)

// NewDoctorCmd checks prerequisites: directories, whisper model, audio
// backend, and provider credentials.
func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	var fetchModel bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			out := cmd.OutOrStdout()
			ok := true

			check := func(name string, passed bool, detail string) {
				mark := "ok"
				if !passed {
					mark = "MISSING"
					ok = false
				}
				fmt.Fprintf(out, "  %-22s %-8s %s\n", name, mark, detail)
			}

			if err := cfg.EnsureDirs(); err != nil {
				check("Directories", false, err.Error())
			} else {
				check("Directories", true, cfg.Paths.BaseDir)
			}

			if fetchModel {
				if err := models.Download(cfg.Paths.ModelsDir, "", out); err != nil {
					check("Model download", false, err.Error())
				}
			}

			if path, err := transcribe.FindModel(cfg.Paths.ModelsDir); err != nil {
				check("Whisper model", false, "no ggml model in "+cfg.Paths.ModelsDir+" (run with --fetch-model)")
			} else {
				check("Whisper model", true, path)
			}

			if manager, err := audio.NewManager(); err != nil {
				check("Audio backend", false, err.Error())
			} else {
				if report, err := manager.TestMicrophoneAccess(); err != nil {
					check("Microphone", false, err.Error())
				} else {
					check("Microphone", true, report)
				}
				manager.Close()
			}

			if os.Getenv("OPENAI_API_KEY") != "" {
				check("OpenAI API key", true, "configured")
			} else {
				check("OpenAI API key", false, "not set; generate_meeting_minutes will fail (Ollama still works)")
			}

			if ok {
				fmt.Fprintln(out, "\nAll prerequisites met. Ready to record.")
			} else {
				fmt.Fprintln(out, "\nSome prerequisites are missing.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fetchModel, "fetch-model", false, "Download the default whisper model when missing")

	return cmd
}
