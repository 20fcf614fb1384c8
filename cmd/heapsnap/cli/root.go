// Package cli wires the heapsnap cobra command: flag parsing, config
// loading, and dispatch into internal/service.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	heapSource  string
	queries     []string
	topN        int
	reportPath  string
	configPath  string
	pprofEnable bool
	pprofMode   string
	pprofDir    string
	pprofAddr   string
)

// Execute builds and runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "heapsnap",
		Short:         "Decode and analyze a V8 heap snapshot",
		Long:          "heapsnap decodes a V8 heap snapshot's column-oriented JSON, walks the object graph for BFS distance and additive retain-size, and persists node/edge/location tables to a queryable sqlite database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runAnalyze,
	}

	cmd.Flags().StringVar(&heapSource, "heap", "", "path or cos://bucket/key to the .heapsnapshot file (required)")
	cmd.Flags().StringArrayVar(&queries, "query", nil, "SQL statement to run after ingestion; repeatable, executed in flag order")
	cmd.Flags().IntVar(&topN, "top", 10, "number of top retainers to report")
	cmd.Flags().StringVar(&reportPath, "report", "", "optional path to write a JSON ingestion summary (.gz/.zst compress)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file (defaults to ./config.yaml)")

	cmd.Flags().BoolVar(&pprofEnable, "pprof", false, "enable self-profiling of the heapsnap process")
	cmd.Flags().StringVar(&pprofMode, "pprof-mode", "file", "self-profiling mode: file or http")
	cmd.Flags().StringVar(&pprofDir, "pprof-dir", "./pprof", "output directory for file-mode self-profiling")
	cmd.Flags().StringVar(&pprofAddr, "pprof-addr", ":6060", "listen address for http-mode self-profiling")

	_ = cmd.MarkFlagRequired("heap")

	return cmd
}
