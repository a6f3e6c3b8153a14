package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/extract"
)

var (
	extractFormat string
	extractOutput string
)

var extractCmd = &cobra.Command{
	Use:   "extract [source.docx]",
	Short: "Turn a Word document into a knowledge file",
	Long: `Converts a Word document into a knowledge base.

  json: the document text is sent to the LLM in chunks and the returned
        key-value objects are merged (requires a configured provider)
  xlsx: header/footer/body text and every table are copied into sheets
        without calling the LLM`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractFormat, "format", "json", "Output format: json, xlsx")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output file path (default: <source>_extracted.<format>)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	src := args[0]
	format := strings.ToLower(extractFormat)
	if format != "json" && format != "xlsx" {
		return fmt.Errorf("invalid format: %s (must be json or xlsx)", extractFormat)
	}

	out := extractOutput
	if out == "" {
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		out = filepath.Join(cfg.Output.Dir, base+"_extracted."+format)
	}

	doc, err := docx.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	if format == "xlsx" {
		if err := extract.TablesToWorkbook(doc, out); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		fmt.Println(out)
		return nil
	}

	client, err := newOracle()
	if err != nil {
		return err
	}
	data, err := extract.ToJSON(cmd.Context(), doc, client, extract.Options{
		ChunkSize:   cfg.Extract.ChunkChars,
		Concurrency: cfg.Extract.Concurrency,
		Temperature: cfg.LLM.Temperature,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if err := extract.WriteJSON(out, data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println(out)
	return nil
}
