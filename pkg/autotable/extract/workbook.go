package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
)

// TextSheet is the sheet holding header, footer and body text.
const TextSheet = "Text_Content"

// inlineKeyRe finds a short Chinese key with a colon preceded by whitespace,
// as in "工作单位：某所 职务：研究员".
var inlineKeyRe = regexp.MustCompile(`\s+([\x{4e00}-\x{9fa5}]{2,10}[：:])`)

// CleanCellText trims text and moves every inline "key：" onto its own line.
func CleanCellText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return inlineKeyRe.ReplaceAllString(text, "\n$1")
}

type textRow struct {
	content string
	kind    string
}

// TablesToWorkbook writes the document's text and tables to an .xlsx file.
// Text goes to the Text_Content sheet with Content and Type columns; table n
// goes to sheet Table_n with one row per table row and no header row.
func TablesToWorkbook(doc *docx.Document, path string) error {
	var texts []textRow
	for _, hf := range doc.HeaderFooterTexts() {
		kind := "Header"
		if hf.Footer {
			kind = "Footer"
		}
		texts = append(texts, textRow{hf.Text, kind})
	}
	for _, p := range doc.Paragraphs() {
		if text := strings.TrimSpace(p.Text()); text != "" {
			texts = append(texts, textRow{text, "Text"})
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	first := true
	sheet := func(name string) (string, error) {
		if first {
			first = false
			return name, f.SetSheetName(f.GetSheetName(0), name)
		}
		_, err := f.NewSheet(name)
		return name, err
	}

	tables := doc.Tables()
	if len(texts) > 0 || len(tables) == 0 {
		name, err := sheet(TextSheet)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, "A1", &[]any{"Content", "Type"}); err != nil {
			return err
		}
		for i, t := range texts {
			if err := f.SetSheetRow(name, fmt.Sprintf("A%d", i+2), &[]any{t.content, t.kind}); err != nil {
				return err
			}
		}
	}

	for i, t := range tables {
		name, err := sheet(fmt.Sprintf("Table_%d", i+1))
		if err != nil {
			return err
		}
		for r := 0; r < t.Rows(); r++ {
			row := make([]any, 0, t.Cols(r))
			for c := 0; c < t.Cols(r); c++ {
				cell, err := t.Cell(r, c)
				if err != nil {
					row = append(row, "")
					continue
				}
				row = append(row, CleanCellText(cell.Text()))
			}
			if len(row) == 0 {
				continue
			}
			if err := f.SetSheetRow(name, fmt.Sprintf("A%d", r+1), &row); err != nil {
				return err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return f.SaveAs(path)
}
