package docx_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
	dt "github.com/TonyLiu0329/Autotable/pkg/autotable/docx/docxtest"
)

func TestOpenRejectsNonZip(t *testing.T) {
	_, err := docx.OpenBytes([]byte("\xd0\xcf\x11\xe0 legacy word binary"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, docx.ErrNotDocx))
}

func TestOpenRejectsMissingMainPart(t *testing.T) {
	var buf bytes.Buffer
	// An empty zip is a valid archive but not a Word package.
	buf.Write([]byte{0x50, 0x4b, 0x05, 0x06, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	_, err := docx.OpenBytes(buf.Bytes())
	require.Error(t, err)
	assert.True(t, errors.Is(err, docx.ErrNotDocx))
}

func TestParagraphText(t *testing.T) {
	doc := dt.Doc(t,
		dt.P(dt.R("姓名："), dt.U("    ")),
		dt.P(`<w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r>`),
		dt.P(`<w:hyperlink><w:r><w:t>link</w:t></w:r></w:hyperlink>`, dt.R("!")),
		dt.P(),
	)
	paras := doc.Paragraphs()
	require.Len(t, paras, 4)
	assert.Equal(t, "姓名：    ", paras[0].Text())
	assert.Equal(t, "a\tb\nc", paras[1].Text())
	assert.Equal(t, "link!", paras[2].Text())
	assert.Equal(t, "", paras[3].Text())
	assert.Len(t, paras[0].Runs(), 2)
}

func TestRunUnderline(t *testing.T) {
	doc := dt.Doc(t, dt.P(
		dt.R("plain"),
		dt.U("  "),
		dt.RWithProps(`<w:u/>`, "bare"),
		dt.RWithProps(`<w:u w:val="none"/>`, "none"),
	))
	runs := doc.Paragraphs()[0].Runs()
	require.Len(t, runs, 4)
	assert.False(t, runs[0].Underlined())
	assert.True(t, runs[1].Underlined())
	assert.True(t, runs[2].Underlined())
	assert.False(t, runs[3].Underlined())

	runs[0].SetUnderline(true)
	assert.True(t, runs[0].Underlined())
	runs[1].SetUnderline(false)
	assert.False(t, runs[1].Underlined())
}

func TestRunSetTextKeepsFormatting(t *testing.T) {
	doc := dt.Doc(t, dt.P(dt.RWithProps(`<w:b/><w:u w:val="single"/>`, "____")))
	run := doc.Paragraphs()[0].Runs()[0]
	run.SetText(" 张三 ")
	assert.Equal(t, " 张三 ", run.Text())
	assert.True(t, run.Underlined())
	f := run.Font()
	require.NotNil(t, f.Bold)
	assert.True(t, *f.Bold)
}

func TestParagraphDefaultFont(t *testing.T) {
	doc := dt.Doc(t,
		dt.PWithProps(`<w:pStyle w:val="Body"/><w:rPr><w:rFonts w:ascii="Times" w:eastAsia="宋体"/><w:b/><w:color w:val="auto"/><w:sz w:val="152400"/></w:rPr>`),
		dt.PWithProps(`<w:rPr><w:rFonts w:ascii="Arial"/><w:i w:val="0"/><w:color w:val="FF0000"/><w:sz w:val="24"/></w:rPr>`),
		dt.P(dt.R("x")),
	)
	paras := doc.Paragraphs()

	f := paras[0].DefaultFont()
	assert.Equal(t, "宋体", f.Name)
	assert.Equal(t, 24, f.Size)
	require.NotNil(t, f.Bold)
	assert.True(t, *f.Bold)
	assert.Empty(t, f.Color)
	assert.Equal(t, "Body", paras[0].StyleID())

	f = paras[1].DefaultFont()
	assert.Equal(t, "Arial", f.Name)
	assert.Equal(t, 24, f.Size)
	require.NotNil(t, f.Italic)
	assert.False(t, *f.Italic)
	assert.Equal(t, "FF0000", f.Color)

	assert.True(t, paras[2].DefaultFont().IsZero())
}

func TestParagraphSetTextKeepsStyle(t *testing.T) {
	doc := dt.Doc(t, dt.PWithProps(`<w:pStyle w:val="Title"/>`, dt.R("old"), dt.R(" text")))
	p := doc.Paragraphs()[0]
	p.SetText("new")
	assert.Equal(t, "new", p.Text())
	assert.Equal(t, "Title", p.StyleID())
	assert.Len(t, p.Runs(), 1)
}

func TestTableMergedCells(t *testing.T) {
	doc := dt.Doc(t, dt.Tbl(
		dt.Tr(dt.Tc("项目名称"), dt.Span(2, "")),
		dt.Tr(dt.VStart("完成人"), dt.Tc("姓名"), dt.Tc("")),
		dt.Tr(dt.VCont(), dt.Tc("单位"), dt.Tc("")),
	))
	tables := doc.Tables()
	require.Len(t, tables, 1)
	tbl := tables[0]

	assert.Equal(t, 3, tbl.Rows())
	assert.Equal(t, 3, tbl.Cols(0))

	id1, err := tbl.CellID(0, 1)
	require.NoError(t, err)
	id2, err := tbl.CellID(0, 2)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	top, err := tbl.CellID(1, 0)
	require.NoError(t, err)
	below, err := tbl.CellID(2, 0)
	require.NoError(t, err)
	assert.Equal(t, top, below)

	cell, err := tbl.Cell(2, 0)
	require.NoError(t, err)
	assert.Equal(t, "完成人", cell.Text())

	_, err = tbl.Cell(3, 0)
	assert.True(t, errors.Is(err, docx.ErrOutOfRange))
	_, err = tbl.Cell(0, 9)
	assert.True(t, errors.Is(err, docx.ErrOutOfRange))
	assert.Equal(t, 0, tbl.Cols(-1))
}

func TestCellEditing(t *testing.T) {
	doc := dt.Doc(t, dt.Tbl(dt.Tr(dt.Tc("1. 成果简介", "第二行"))))
	cell, err := doc.Tables()[0].Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "1. 成果简介\n第二行", cell.Text())

	cell.AddParagraph("追加")
	assert.Len(t, cell.Paragraphs(), 3)

	cell.SetText("覆盖")
	assert.Equal(t, "覆盖", cell.Text())
	assert.Len(t, cell.Paragraphs(), 1)
}

func TestHeaderFooterTexts(t *testing.T) {
	doc := dt.Package{
		Body:    dt.P(dt.R("body")),
		Headers: []string{dt.P(dt.R(" 机密 ")) + dt.P()},
		Footers: []string{dt.P(dt.R("第 1 页"))},
	}.Open(t)
	got := doc.HeaderFooterTexts()
	assert.Equal(t, []docx.HeaderFooterText{
		{Footer: false, Text: "机密"},
		{Footer: true, Text: "第 1 页"},
	}, got)
}

func TestSaveRoundTrip(t *testing.T) {
	doc := dt.Package{
		Body:    dt.P(dt.R("姓名："), dt.U("    ")) + dt.Tbl(dt.Tr(dt.Tc("a"), dt.Tc(""))),
		Headers: []string{dt.P(dt.R("页眉"))},
	}.Open(t)

	runs := doc.Paragraphs()[0].Runs()
	runs[1].SetText(" 张三 ")
	cell, err := doc.Tables()[0].Cell(0, 1)
	require.NoError(t, err)
	cell.SetText("b")

	path := filepath.Join(t.TempDir(), "out", "filled.docx")
	require.NoError(t, doc.Save(path))

	again, err := docx.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "姓名： 张三 ", again.Paragraphs()[0].Text())
	assert.True(t, again.Paragraphs()[0].Runs()[1].Underlined())
	cell, err = again.Tables()[0].Cell(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", cell.Text())
	assert.Equal(t, []docx.HeaderFooterText{{Text: "页眉"}}, again.HeaderFooterTexts())
}

func TestUnitConversions(t *testing.T) {
	assert.Equal(t, 24, docx.EMUToHalfPoints(152400))
}
