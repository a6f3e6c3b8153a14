package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/history"
)

var pruneHistory bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List filled documents kept in the history directory",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&pruneHistory, "prune", false, "Delete entries beyond history.max_records first")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store := history.New(cfg.History.Dir, cfg.History.MaxRecords, logger)

	if pruneHistory {
		removed, err := store.Prune()
		if err != nil {
			return fmt.Errorf("prune failed: %w", err)
		}
		for _, name := range removed {
			fmt.Printf("deleted %s\n", name)
		}
	}

	entries, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Printf("No history in %s\n", cfg.History.Dir)
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %8d  %s\n", e.ModTime.Format("2006-01-02 15:04:05"), e.Size, e.Name)
	}
	return nil
}
