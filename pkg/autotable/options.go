// Package autotable fills Word templates from a knowledge source with the
// help of an LLM oracle.
package autotable

import (
	"path/filepath"
	"strings"
	"time"
)

// OutputTimeLayout is the timestamp format of generated output names.
const OutputTimeLayout = "20060102_150405"

// Options configures one pipeline run.
type Options struct {
	// TemplatePath is the .docx template to fill.
	TemplatePath string
	// KnowledgePath is a .xlsx or .json knowledge file.
	KnowledgePath string
	// SourcePath is a .docx to extract knowledge from. It is used when
	// KnowledgePath is empty.
	SourcePath string
	// OutputDir receives the filled document.
	OutputDir string
	// OutputName overrides the generated output file name.
	OutputName string
	// SaveHistory specifies whether to copy the output into history.
	// If nil, the history.enabled setting decides.
	SaveHistory *bool
}

// ShouldSaveHistory returns whether to keep a history copy.
func (o Options) ShouldSaveHistory(enabled bool) bool {
	if o.SaveHistory != nil {
		return *o.SaveHistory
	}
	return enabled
}

// OutputFileName returns OutputName, or "<template base>_filled_<timestamp>.docx".
func (o Options) OutputFileName(now time.Time) string {
	if o.OutputName != "" {
		if !strings.EqualFold(filepath.Ext(o.OutputName), ".docx") {
			return o.OutputName + ".docx"
		}
		return o.OutputName
	}
	base := strings.TrimSuffix(filepath.Base(o.TemplatePath), filepath.Ext(o.TemplatePath))
	return base + "_filled_" + now.Format(OutputTimeLayout) + ".docx"
}
