package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	mock       bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "quantdash",
		Short:         "Terminal dashboard for the quant analytics service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd.Context(), flags)
		},
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default $CONFIG_PATH or configs/config.yaml)")
	root.PersistentFlags().BoolVar(&flags.mock, "mock", false, "serve generated data instead of calling the analytics service")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Start the interactive dashboard (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runDashboard(cmd.Context(), flags)
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Run the scheduler headless with the HTTP and WebSocket API",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), flags)
			},
		},
		newExportCmd(flags),
	)
	return root
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export SYMBOL",
		Short: "Write a symbol's full price history as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), flags, args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
