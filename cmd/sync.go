package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/oedokumaci/catalogsync/core"
	"github.com/spf13/cobra"
)

// syncCmd fetches the catalog once.
var syncCmd = &cobra.Command{
	Use:   "sync [prefix...]",
	Short: "Fetch the catalog once, cache it and print the view",
	Long: `Page through the configured source until it is exhausted, replace the cached
snapshot and print the entries below the prefix.

The cached snapshot is shown instead when the source fails, so a flaky source never
hides data that was fetched before. Source-reported errors are printed next to it.

Examples:
  # Sync a GraphQL endpoint and list the root
  catalogsync sync --source http://localhost:3000/graphql

  # Sync from a catalog file and list below raw/events
  catalogsync sync raw events --source catalog.yaml

  # Sync a single asset group
  catalogsync sync --source http://localhost:3000/graphql --scope-group core`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		src, err := newSource()
		if err != nil {
			return err
		}
		return core.ExecuteSync(rootCtx, cfg, cacheManager, src, logger)
	},
}

// watchCmd keeps the catalog fresh until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch [prefix...]",
	Short: "Keep the catalog fresh and reprint the view when it changes",
	Long: `Show the cached snapshot right away, fetch the catalog and then refresh it every
--refresh-interval until interrupted. At most one fetch runs at a time; ticks that fire
while a fetch is running are skipped.

Examples:
  # Refresh every minute
  catalogsync watch --source http://localhost:3000/graphql --refresh-interval 1m`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		src, err := newSource()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return core.ExecuteWatch(ctx, cfg, cacheManager, src, logger)
	},
}

// listCmd prints the cached snapshot without contacting the source.
var listCmd = &cobra.Command{
	Use:   "list [prefix...]",
	Short: "Print the cached snapshot without contacting the source",
	Long: `Print the entries below the prefix from the cached snapshot.

Directory view shows one row per child namespace with the number of entries below it,
followed by the entries that sit directly below the prefix. Flat view shows every entry
with its full key.

Examples:
  # Directory view of the root
  catalogsync list

  # Flat view below raw as JSON
  catalogsync list raw --view flat --output json`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteList(rootCtx, cfg, cacheManager, logger)
	},
}
