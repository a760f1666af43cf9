package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"code.byted.org/khicago/treestore"
)

const Version = "0.3.0"

var (
	store *treestore.Store

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "treectl",
		Short: "hierarchical configuration on a flat key/value store",
		Long: fmt.Sprintf(`treectl (v%s)

Reads and writes nested configuration stored in Redis as one key per
leaf plus a set of child names per object.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of treectl",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("treectl v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	key := "redis-addr"
	RootCmd.PersistentFlags().String(key, "localhost:6379", "address of the Redis server")
	key = "redis-password"
	RootCmd.PersistentFlags().String(key, "", "password of the Redis server")
	key = "redis-db"
	RootCmd.PersistentFlags().Int(key, 0, "Redis database number")
	key = "namespace"
	RootCmd.PersistentFlags().String(key, treestore.DefaultNamespace, "namespace prefixed to every key (empty disables prefixing)")
	key = "cache-ttl"
	RootCmd.PersistentFlags().Duration(key, treestore.DefaultTTL, "how long fetched values are trusted before reading Redis again")
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "warn", "log level (debug, info, warn, error)")
	key = "format"
	RootCmd.PersistentFlags().String(key, "json", "output format (json, yaml)")

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(treeCommands()...)
	RootCmd.AddCommand(rawCommands)
}

// initConfig initializes configuration from env files and environment variables
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("treectl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// setupStore binds flags and opens the store; used as PersistentPreRunE.
func setupStore(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	level, err := parseLogLevel(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	rdb := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis-addr"),
		Password: viper.GetString("redis-password"),
		DB:       viper.GetInt("redis-db"),
	})

	store, err = treestore.New(treestore.NewRedis(rdb),
		treestore.WithNamespace(viper.GetString("namespace")),
		treestore.WithTTL(viper.GetDuration("cache-ttl")),
		treestore.WithLogger(treestore.NewSlogLogger(logger)),
		treestore.WithLogTag("[treectl]"),
	)
	return err
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", level)
	}
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
