package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Fikrifrds/meeting-notes/internal/audio"
	"github.com/Fikrifrds/meeting-notes/internal/export"
	"github.com/Fikrifrds/meeting-notes/internal/minutes"
	"github.com/Fikrifrds/meeting-notes/internal/server"
	"github.com/Fikrifrds/meeting-notes/internal/session"
	"github.com/Fikrifrds/meeting-notes/internal/store"
	"github.com/Fikrifrds/meeting-notes/internal/transcribe"
)

// NewServeCmd runs the command surface the UI host talks to.
func NewServeCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local command surface (HTTP + websocket events)",
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

			// Legacy timestamp-named recordings are matched to their
			// meetings on every start; the repair is idempotent.
			if updated, _, err := st.ReconcileAudioPaths(cfg.Paths.RecordingsDir); err != nil {
				logger.Warn().Err(err).Msg("audio path reconciliation failed")
			} else if updated > 0 {
				logger.Info().Int("updated", updated).Msg("reconciled legacy audio paths")
			}

			manager, err := audio.NewManager()
			if err != nil {
				return fmt.Errorf("initializing audio backend: %w", err)
			}
			defer manager.Close()

			recognizer := transcribe.NewService()
			defer recognizer.Close()
			if err := recognizer.Init(cfg.Paths.ModelsDir); err != nil {
				logger.Warn().Err(err).Msg("whisper not initialized; transcription commands will fail until initialize_whisper succeeds")
			}

			mcfg, err := minutes.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading minutes config: %w", err)
			}

			gains := audio.NewGainControl(cfg.Audio.MicGain, cfg.Audio.SystemGain)
			hub := server.NewHub(logger)
			backend := session.NewDeviceBackend(manager, logger)
			controller := session.NewController(backend, st, recognizer, hub,
				cfg.Paths.RecordingsDir, cfg.ChunkSizeSamples(), gains, logger)

			srv := server.New(controller, manager, st, recognizer,
				minutes.NewOpenAI(mcfg, ""), minutes.NewOllama(mcfg, ""),
				export.NewExporter(cfg.Paths.ExportsDir), cfg, hub, logger)

			return srv.ListenAndServe()
		},
	}
}
