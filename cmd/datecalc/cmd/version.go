package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"datecalc/internal/mcp"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (MCP %s, %s)\n", serverName, Version, mcp.ProtocolVersion, runtime.Version())
		},
	}
}
