// resolve：命令行单次解析，输出 JSON，便于排查级联结果与缓存来源
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"region-api/internal/app"
	"region-api/internal/config"
	"region-api/internal/locate"
	"region-api/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "resolve [name...]",
	Short: "Resolve Chinese place names to administrative regions",
	Long: `Resolve one or more place names through the same cascade the HTTP
service uses (exact, alias, hierarchical, phonetic, fuzzy, contains) and
print one JSON document per name.

Examples:
  resolve 北京 朝阳区 广东广州
  resolve --index --no-cache guangzhou
  resolve --locate --city 广州市 天河区`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	f := rootCmd.Flags()
	f.String("env", ".env", "dotenv file to load before reading the environment")
	f.Bool("index", false, "build the in-memory index before resolving")
	f.Bool("no-cache", false, "disable the persistent cache tier")
	f.Bool("locate", false, "look up coordinates (AMap fallback when AMAP_SERVER_KEY is set)")
	f.String("city", "", "city hint for --locate")
	f.String("province", "", "province hint for --locate")
}

func run(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env")
	config.LoadDotenv(envFile)
	logger.Setup()
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	logger.Configure(cfg.LogFormat, cfg.LogLevel)
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.CacheBackend = config.CacheNone
	}
	ctx := cmd.Context()
	a, err := app.OpenFromEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if useIndex, _ := cmd.Flags().GetBool("index"); useIndex {
		if _, err := a.ReloadIndex(ctx); err != nil {
			return err
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	doLocate, _ := cmd.Flags().GetBool("locate")
	city, _ := cmd.Flags().GetString("city")
	province, _ := cmd.Flags().GetString("province")
	failed := 0
	for _, name := range args {
		out, err := resolveOne(ctx, a, name, doLocate, city, province)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", name, err)
			continue
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d names failed", failed, len(args))
	}
	return nil
}

func resolveOne(ctx context.Context, a *app.App, name string, doLocate bool, city, province string) (any, error) {
	if doLocate {
		return a.Locator.Locate(ctx, locate.Query{Name: name, City: city, Province: province})
	}
	res, err := a.Resolver.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return map[string]any{"query": name, "match": res.Match, "source": res.Source, "hit_count": res.HitCount}, nil
}

func main() {
	rootCmd.SilenceUsage = true
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
