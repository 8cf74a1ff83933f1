package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"plasmacut/protocol"
)

// Version is set at build time with -ldflags "-X ...commands.Version=..."
var Version = "dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "plasma-host %s (bridge protocol %s)\n", Version, protocol.Version)
			return nil
		},
	}
}
