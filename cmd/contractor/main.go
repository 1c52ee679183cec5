// Command contractor is the offline-aware sync agent: it mirrors an account's
// records into a local cache and writes through to the remote store while
// online.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/tradeworks/contractor-hub/internal/agent"
	"github.com/tradeworks/contractor-hub/internal/pkg/config"
	"github.com/tradeworks/contractor-hub/pkg/logger"
)

var flags struct {
	account      string
	store        string
	cache        string
	cachePath    string
	logLevel     string
	ensureSchema bool
}

var rootCmd = &cobra.Command{
	Use:   "contractor",
	Short: "Offline-aware sync agent for contractor accounts",
	Long: `contractor keeps a local mirror of an account's profile, jobs, documents,
clients, inventory and price book. Reads are served from the mirror; writes
go to the remote store only while it is reachable.

Configuration comes from the environment (ACCOUNT_ID, STORE_DRIVER,
CACHE_DRIVER, CACHE_PATH, MONGO_URI, ...). Flags override it.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.account, "account", "", "account id (overrides ACCOUNT_ID)")
	pf.StringVar(&flags.store, "store", "", "remote store driver: mongo|memory")
	pf.StringVar(&flags.cache, "cache", "", "local cache driver: sqlite|redis|memory")
	pf.StringVar(&flags.cachePath, "cache-path", "", "sqlite cache file")
	pf.StringVar(&flags.logLevel, "log-level", "", "trace|debug|info|warn|error")
	pf.BoolVar(&flags.ensureSchema, "ensure-schema", false, "create missing remote collections and indexes at start")

	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync:"},
		&cobra.Group{ID: "records", Title: "Records:"},
	)
	rootCmd.AddCommand(syncCmd, watchCmd, limitsCmd, recurringCmd, jobsCmd, clientsCmd, inventoryCmd, itemsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(ctx context.Context) (*config.AgentConfig, error) {
	cfg, err := config.LoadAgent(ctx, envconfig.OsLookuper())
	if err != nil {
		return nil, err
	}
	for dst, src := range map[*string]string{
		&cfg.AccountID:   flags.account,
		&cfg.StoreDriver: flags.store,
		&cfg.CacheDriver: flags.cache,
		&cfg.CachePath:   flags.cachePath,
		&cfg.LogLevel:    flags.logLevel,
	} {
		if src != "" {
			*dst = src
		}
	}
	return cfg, nil
}

// withAgent starts an agent, runs fn and closes the agent.
func withAgent(cmd *cobra.Command, fn func(ctx context.Context, a *agent.Agent) error) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Output:  os.Stderr,
		Service: "contractor-agent",
	})

	a, err := agent.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Warn().Err(cerr).Msg("close agent")
		}
	}()

	if err := a.Start(ctx, flags.ensureSchema); err != nil {
		log.Warn().Err(err).Msg("initial refresh incomplete")
	}
	return fn(ctx, a)
}
