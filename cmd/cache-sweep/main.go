// cache-sweep：手动清理持久缓存中的过期条目，或在区划重新导入后清空缓存
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"region-api/internal/app"
	"region-api/internal/config"
	"region-api/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cache-sweep",
	Short: "Remove expired resolver cache entries",
	Long: `Remove expired entries from the persistent resolver cache tier selected
by CACHE_BACKEND. Expired entries are never served even before they are
swept; this only reclaims storage. With --all every entry is removed, which
is what you want after re-importing the region table.

Examples:
  cache-sweep
  cache-sweep --all --env prod.env`,
	Args: cobra.NoArgs,
	RunE: run,
}

func init() {
	f := rootCmd.Flags()
	f.String("env", ".env", "dotenv file to load before reading the environment")
	f.Bool("all", false, "remove every entry, not just expired ones")
}

func run(cmd *cobra.Command, _ []string) error {
	envFile, _ := cmd.Flags().GetString("env")
	config.LoadDotenv(envFile)
	logger.Setup()
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	l := logger.Configure(cfg.LogFormat, cfg.LogLevel)
	if cfg.CacheBackend == config.CacheNone {
		return fmt.Errorf("CACHE_BACKEND=none: nothing to sweep")
	}
	ctx := cmd.Context()
	a, err := app.OpenFromEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	before := a.Cache.Stats(ctx)
	if all, _ := cmd.Flags().GetBool("all"); all {
		if err := a.Cache.Clear(ctx); err != nil {
			return err
		}
		l.Info("cache_sweep_cleared", "tier", before.PersistTier, "entries", before.PersistEntries)
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %d entries from %s\n", before.PersistEntries, before.PersistTier)
		return nil
	}
	removed := a.Cache.Cleanup(ctx)
	after := a.Cache.Stats(ctx)
	l.Info("cache_sweep_done", "tier", after.PersistTier, "removed", removed, "left", after.PersistEntries)
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries from %s, %d left\n", removed, after.PersistTier, after.PersistEntries)
	return nil
}

func main() {
	rootCmd.SilenceUsage = true
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
