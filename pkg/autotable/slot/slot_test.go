package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx/docxtest"
)

func TestIsSlot(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"whitespace", "  \t\u3000 ", true},
		{"zero width only", "\u200b\ufeff", true},
		{"role header", "第（ ）完成人", false},
		{"role header ascii parens", "第( )完成单位", false},
		{"role header with colon", "第（）作者：", false},
		{"blank parens", "（    ）", true},
		{"underscores only", "____", true},
		{"underscores inside", "姓名：____", true},
		{"single underscore", "a_b", false},
		{"empty paren", "备注（）", true},
		{"paren hint", "成果简介（限200字）", true},
		{"paren fill hint", "（请填写单位全称）", true},
		{"paren plain", "（盖章）", false},
		{"date blank", "    年   月   日", true},
		{"date with underscores", "日期：__年__月", true},
		{"date filled starting with digit", "2024年 5月", false},
		{"date without blank", "年月日", false},
		{"dangling colon", "联系电话：", true},
		{"dangling ascii colon", "Phone: ", true},
		{"colon with content", "联系电话：123", false},
		{"long ordinal prompt", "1. 成果主要创新点", true},
		{"long ordinal enumeration comma", "2、推广应用情况说明", true},
		{"short ordinal heading", "1.概述", false},
		{"plain label", "项目名称", false},
		{"plain sentence", "本表一式两份", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSlot(tt.text))
			assert.Equal(t, tt.want, IsSlot(tt.text), "classification must be stable")
		})
	}
}

func TestHasVisualPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		para string
		want bool
	}{
		{"underlined spaces", docxtest.P(docxtest.R("姓名"), docxtest.U("      ")), true},
		{"underlined full-width spaces", docxtest.P(docxtest.U("\u3000\u3000")), true},
		{"underlined nbsp and tab", docxtest.P(docxtest.U("\u00a0\t")), true},
		{"single underlined space", docxtest.P(docxtest.U(" ")), false},
		{"plain spaces", docxtest.P(docxtest.R("      ")), false},
		{"underlined text", docxtest.P(docxtest.U("张三")), false},
		{"underlined underscores", docxtest.P(docxtest.U("____")), false},
		{"no runs", docxtest.P(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := docxtest.Doc(t, tt.para)
			assert.Equal(t, tt.want, HasVisualPlaceholder(doc.Paragraphs()...))
		})
	}
}

func TestHasVisualPlaceholderAcrossCellParagraphs(t *testing.T) {
	doc := docxtest.Doc(t, docxtest.Tbl(docxtest.Tr(
		docxtest.TcRaw(docxtest.P(docxtest.R("签名"))+docxtest.P(docxtest.U("        "))),
	)))
	cell, err := doc.Tables()[0].Cell(0, 0)
	assert.NoError(t, err)
	assert.True(t, HasVisualPlaceholder(cell.Paragraphs()...))
	assert.False(t, IsSlot(cell.Text()))
}

func TestClean(t *testing.T) {
	assert.Equal(t, "姓名", Clean("\u200b 姓\u200b名 \n"))
	assert.Equal(t, "", Clean("\ufeff"))
}
