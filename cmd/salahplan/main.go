package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sandeepkv93/salahplan/internal/config"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "salahplan:", err)
		return 1
	}
	return 0
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "salahplan",
		Short:         "Daily planner built around the five prayers",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", filepath.Join(config.DefaultDataDir(), "config.toml"), "config file (.toml, .yaml)")
	pf.String("storage", "", "storage driver: sqlite, postgres, file, memory")
	pf.String("data", "", "state file or sqlite database path")
	pf.String("dsn", "", "postgres connection string")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(tuiCmd(opts))
	root.AddCommand(todayCmd(opts))
	root.AddCommand(addCmd(opts))
	root.AddCommand(aiCmd(opts))
	root.AddCommand(toggleCmd(opts))
	root.AddCommand(deleteCmd(opts))
	root.AddCommand(repeatCmd(opts))
	root.AddCommand(prayerCmd(opts))
	root.AddCommand(healthCmd(opts))
	root.AddCommand(quranCmd(opts))
	root.AddCommand(themeCmd(opts))
	root.AddCommand(notificationsCmd(opts))
	root.AddCommand(statsCmd(opts))
	root.AddCommand(exportCmd(opts))
	root.AddCommand(importCmd(opts))
	root.AddCommand(serveCmd(opts))
	return root
}

// loadConfig layers the persistent flags over the file and environment.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.RuntimeConfig, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.RuntimeConfig{}, err
	}
	applyFlags(cmd.Flags(), &cfg)
	return cfg, nil
}

func applyFlags(fs *pflag.FlagSet, cfg *config.RuntimeConfig) {
	set := func(name string, dst *string) {
		if !fs.Changed(name) {
			return
		}
		if v, err := fs.GetString(name); err == nil {
			*dst = v
		}
	}
	set("storage", &cfg.StorageDriver)
	set("data", &cfg.StoragePath)
	set("dsn", &cfg.PostgresDSN)
	set("log-level", &cfg.LogLevel)
}
