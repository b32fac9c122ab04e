package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Fikrifrds/meeting-notes/internal/audio"
)

// NewDevicesCmd lists capture and playback devices.
func NewDevicesCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := audio.NewManager()
			if err != nil {
				return fmt.Errorf("initializing audio backend: %w", err)
			}
			defer manager.Close()

			inputs, outputs, err := manager.List()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Input devices:")
			for _, d := range inputs {
				fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s\n", d.Type, d.Name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Output devices:")
			for _, d := range outputs {
				fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s\n", d.Type, d.Name)
			}
			return nil
		},
	}
}
