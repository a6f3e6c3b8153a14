// Package main provides the CLI entry point for autotable.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/config"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/logging"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/oracle"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "autotable",
	Short: "Fill Word templates from a knowledge base",
	Long: `autotable fills the blanks of a .docx template (underlined gaps, empty
cells, "label:" lines) with values an LLM picks from a knowledge base.

The knowledge base is an .xlsx workbook, a JSON file, or a Word document
whose content is extracted first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(fillCmd, extractCmd, historyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newOracle builds the configured client with call logging.
func newOracle() (oracle.Client, error) {
	client, err := oracle.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return oracle.WithLogging(client, logger.Named("oracle")), nil
}
