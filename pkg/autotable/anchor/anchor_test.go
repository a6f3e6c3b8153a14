package anchor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dt "github.com/TonyLiu0329/Autotable/pkg/autotable/docx/docxtest"
)

func TestMapParagraphs(t *testing.T) {
	doc := dt.Doc(t,
		dt.P(dt.R("项目申报书")),
		dt.P(),
		dt.P(dt.R("姓名："), dt.U("      ")),
		dt.P(dt.R("联系电话：")),
		dt.P(dt.U("        ")),
		dt.P(dt.R("本表一式两份。")),
		dt.P(dt.R("    年   月   日")),
	)
	s := MapParagraphs(doc.Paragraphs())

	require.Equal(t, 4, s.Len())
	assert.Equal(t, KindParagraphs, s.Kind)
	for i, a := range s.Anchors() {
		assert.Equal(t, fmt.Sprintf("{{ID_%03d}}", i+1), a.ID)
	}
	assert.Equal(t, []int{2, 3, 4, 6}, []int{
		s.Anchors()[0].Locator.Paragraph,
		s.Anchors()[1].Locator.Paragraph,
		s.Anchors()[2].Locator.Paragraph,
		s.Anchors()[3].Locator.Paragraph,
	})

	want := "- 项目申报书\n" +
		"- {{ID_001}} (原: 姓名：)\n" +
		"- {{ID_002}} (原: 联系电话：)\n" +
		"- {{ID_003}} (原: [下划线填空区])\n" +
		"- 本表一式两份。\n" +
		"- {{ID_004}} (原: 年   月   日)"
	assert.Equal(t, want, s.Rendered)

	ctx := s.Contexts()
	require.Len(t, ctx, 4)
	assert.Equal(t, Context{ID: "{{ID_001}}", Text: "原内容: '姓名：'"}, ctx[0])
	assert.Equal(t, "原内容: '[下划线填空区]'", ctx[2].Text)
}

func TestMapTableMergedCellsShareAnchor(t *testing.T) {
	doc := dt.Doc(t, dt.Tbl(
		dt.Tr(dt.Tc("项目名称"), dt.Span(3, "")),
		dt.Tr(dt.Tc("简介"), dt.VStart(""), dt.Tc("备注"), dt.Tc("")),
		dt.Tr(dt.Tc(""), dt.VCont(), dt.Tc("单位"), dt.Tc("盖章")),
	))
	s := MapTable(doc.Tables()[0], 0)

	// 3-wide span counts once; the 2-high vertical merge counts once.
	require.Equal(t, 4, s.Len())
	assert.Equal(t, KindTable, s.Kind)
	assert.Equal(t, "table 1", s.Name())

	want := "| 项目名称 | {{ID_001}} | {{ID_001}} | {{ID_001}} |\n" +
		"| 简介 | {{ID_002}} | 备注 | {{ID_003}} |\n" +
		"| {{ID_004}} | {{ID_002}} | 单位 | 盖章 |"
	assert.Equal(t, want, s.Rendered)

	a, ok := s.Lookup("{{ID_002}}")
	require.True(t, ok)
	assert.Equal(t, Locator{Row: 1, Col: 1}, a.Locator)
	assert.Equal(t, " | 左侧Label: 简介", a.Hint)
}

func TestMapTableHints(t *testing.T) {
	long := "这是一个非常长的单元格说明文字超过二十个字符的限制了"
	doc := dt.Doc(t, dt.Tbl(
		dt.Tr(dt.Tc("姓名"), dt.Tc("性别")),
		dt.Tr(dt.Tc(""), dt.Tc("")),
		dt.Tr(dt.Tc(long), dt.Tc("____")),
	))
	s := MapTable(doc.Tables()[0], 2)

	require.Equal(t, 3, s.Len())
	assert.Equal(t, " | 上方Label: 姓名", s.Anchors()[0].Hint)
	assert.Equal(t, " | 上方Label: 性别", s.Anchors()[1].Hint, "empty left neighbour falls back to the cell above")
	assert.Equal(t, "", s.Anchors()[2].Hint, "long left label and empty top label give no hint")
	assert.Equal(t, "table 3", s.Name())
	assert.Equal(t, "原内容: '____'", s.Anchors()[2].Context())
}

func TestMapTableRendersBreaks(t *testing.T) {
	doc := dt.Doc(t, dt.Tbl(dt.Tr(dt.Tc("现从事工作", "及专长"), dt.Tc(""))))
	s := MapTable(doc.Tables()[0], 0)
	assert.Equal(t, "| 现从事工作<br>及专长 | {{ID_001}} |", s.Rendered)
	assert.Equal(t, " | 左侧Label: 现从事工作\n及专长", s.Anchors()[0].Hint)
}

func TestLookupAcceptsBareIDs(t *testing.T) {
	doc := dt.Doc(t, dt.P(dt.R("____")))
	s := MapParagraphs(doc.Paragraphs())
	for _, id := range []string{"{{ID_001}}", "ID_001", " {{ID_001}} ", "{ID_001}"} {
		_, ok := s.Lookup(id)
		assert.True(t, ok, id)
	}
	_, ok := s.Lookup("{{ID_002}}")
	assert.False(t, ok)
}

func TestNumberingRestartsPerScope(t *testing.T) {
	doc := dt.Doc(t,
		dt.Tbl(dt.Tr(dt.Tc("a"), dt.Tc(""))),
		dt.Tbl(dt.Tr(dt.Tc("b"), dt.Tc(""))),
	)
	for i, tbl := range doc.Tables() {
		s := MapTable(tbl, i)
		require.Equal(t, 1, s.Len())
		assert.Equal(t, "{{ID_001}}", s.Anchors()[0].ID)
	}
}
