package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TonyLiu0329/Autotable/pkg/autotable"
)

var (
	templatePath  string
	knowledgePath string
	sourcePath    string
	outputName    string
	outputDir     string
	noHistory     bool
	printReport   bool
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill a template from a knowledge base",
	Long: `Fills every slot of the template. Body paragraphs are filled first and
then each table in order; tables that describe different people or projects
receive different entities from the knowledge base.

Example:
  autotable fill -t 申报书.docx -k 人员.xlsx
  autotable fill -t 申报书.docx -s 简历.docx -o 张三_申报书`,
	Args: cobra.NoArgs,
	RunE: runFill,
}

func init() {
	fillCmd.Flags().StringVarP(&templatePath, "template", "t", "", "Template .docx to fill (required)")
	fillCmd.Flags().StringVarP(&knowledgePath, "knowledge", "k", "", "Knowledge base (.xlsx or .json)")
	fillCmd.Flags().StringVarP(&sourcePath, "source", "s", "", "Word document to extract knowledge from (ignored with -k)")
	fillCmd.Flags().StringVarP(&outputName, "output", "o", "", "Output file name (default: <template>_filled_<time>.docx)")
	fillCmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory (default: output.dir from config)")
	fillCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not keep a copy in the history directory")
	fillCmd.Flags().BoolVar(&printReport, "json", false, "Print the run result as JSON")
	_ = fillCmd.MarkFlagRequired("template")
	fillCmd.MarkFlagsOneRequired("knowledge", "source")
}

func runFill(cmd *cobra.Command, args []string) error {
	client, err := newOracle()
	if err != nil {
		return err
	}

	opts := autotable.Options{
		TemplatePath:  templatePath,
		KnowledgePath: knowledgePath,
		SourcePath:    sourcePath,
		OutputDir:     outputDir,
		OutputName:    outputName,
	}
	if noHistory {
		off := false
		opts.SaveHistory = &off
	}

	p, err := autotable.NewPipeline(cfg, client, logger, opts)
	if err != nil {
		return err
	}
	res, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	if printReport {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Printf("Filled %d slot(s) -> %s\n", res.Filled, res.OutputPath)
		for _, s := range res.Scopes {
			if s.Anchors == 0 {
				continue
			}
			fmt.Printf("  %-12s %d/%d filled (%s)", s.Name, s.Result.Filled, s.Anchors, s.Reply)
			if s.Identity != "" {
				fmt.Printf(" [%s]", s.Identity)
			}
			fmt.Println()
		}
	}

	if !res.Success {
		return errors.New("fill did not complete")
	}
	return nil
}
