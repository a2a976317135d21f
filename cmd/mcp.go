package cmd

import (
	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the catalogsync MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents browse the cached catalog
and trigger a refresh. Logs go to stderr because stdout carries the protocol.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		var src contract.CatalogSource
		if cfg.Source != "" {
			var err error
			if src, err = newSource(); err != nil {
				return err
			}
		}
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager, src, logger)
	},
}
