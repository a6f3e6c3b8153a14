package fill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/anchor"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
	dt "github.com/TonyLiu0329/Autotable/pkg/autotable/docx/docxtest"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/prompt"
)

func firstPara(t *testing.T, block string) *docx.Paragraph {
	t.Helper()
	paras := dt.Doc(t, block).Paragraphs()
	require.NotEmpty(t, paras)
	return paras[0]
}

func firstCell(t *testing.T, cell string) *docx.Cell {
	t.Helper()
	doc := dt.Doc(t, dt.Tbl(dt.Tr(cell)))
	c, err := doc.Tables()[0].Cell(0, 0)
	require.NoError(t, err)
	return c
}

func decideAndApply(t *testing.T, target Target, value string) Decision {
	t.Helper()
	d := Decide(target, value)
	require.NoError(t, Apply(d))
	return d
}

func TestSmartFillKeepsLabel(t *testing.T) {
	p := firstPara(t, dt.P(dt.R("姓名："), dt.U("____")))

	d := decideAndApply(t, Target{Paragraph: p}, "姓名：张三")
	assert.Equal(t, Smart, d.Strategy)
	assert.Equal(t, 1, d.Placeholder)
	assert.Equal(t, "张三", d.Text)

	assert.Equal(t, "姓名： 张三 ", p.Text())
	runs := p.Runs()
	assert.Equal(t, "姓名：", runs[0].Text())
	assert.False(t, runs[0].Underlined())
	assert.True(t, runs[1].Underlined())
}

func TestSmartFillLabelWithSpaces(t *testing.T) {
	p := firstPara(t, dt.P(dt.R("联 系 人："), dt.U("      ")))
	d := decideAndApply(t, Target{Paragraph: p}, "联系人： 李四")
	assert.Equal(t, Smart, d.Strategy)
	assert.Equal(t, "联 系 人： 李四 ", p.Text())
}

func TestSmartFillClearsSplitPlaceholder(t *testing.T) {
	p := firstPara(t, dt.P(dt.R("电话："), dt.U("   "), dt.U("___"), dt.U("\u3000"), dt.R("（手机）")))

	d := decideAndApply(t, Target{Paragraph: p}, "13800000000")
	assert.Equal(t, Smart, d.Strategy)
	assert.Equal(t, "电话： 13800000000 （手机）", p.Text())
}

func TestSmartFillNoLabel(t *testing.T) {
	p := firstPara(t, dt.P(dt.U("        ")))
	d := decideAndApply(t, Target{Paragraph: p}, " 北京市海淀区 ")
	assert.Equal(t, Smart, d.Strategy)
	assert.Equal(t, " 北京市海淀区 ", p.Text())
}

func TestSmartFillAbortsOnRewrittenLabel(t *testing.T) {
	p := firstPara(t, dt.P(dt.R("姓名："), dt.U("____")))

	// The value contains the label but does not start with it.
	d := decideAndApply(t, Target{Paragraph: p}, "申请人姓名：张三")
	assert.Equal(t, Replace, d.Strategy)
	assert.Equal(t, "申请人姓名：张三", p.Text())
}

func TestParagraphLabelOnlyAppends(t *testing.T) {
	p := firstPara(t, dt.P(dt.R("联系电话：")))
	d := decideAndApply(t, Target{Paragraph: p}, "13800000000")
	assert.Equal(t, AppendRun, d.Strategy)
	assert.Equal(t, "联系电话： 13800000000", p.Text())
	assert.Len(t, p.Runs(), 2)

	p = firstPara(t, dt.P(dt.R("联系电话：")))
	d = decideAndApply(t, Target{Paragraph: p}, "联系电话：13800000000")
	assert.Equal(t, Replace, d.Strategy)
	assert.Equal(t, "联系电话：13800000000", p.Text())
}

func TestParagraphReplaceKeepsStyle(t *testing.T) {
	p := firstPara(t, dt.PWithProps(`<w:pStyle w:val="Heading2"/>`, dt.R("  年  月  日")))
	d := decideAndApply(t, Target{Paragraph: p}, " 2024年1月1日\n")
	assert.Equal(t, Replace, d.Strategy)
	assert.Equal(t, "2024年1月1日", p.Text())
	assert.Equal(t, "Heading2", p.StyleID())
}

func TestCellAppendsBelowInstructionalHeader(t *testing.T) {
	header := "1. 成果简介（不超过200字）"
	c := firstCell(t, dt.TcRaw(dt.P(dt.RWithProps(`<w:b/><w:sz w:val="28"/>`, header))))

	d := decideAndApply(t, Target{Cell: c}, "本成果解决了...")
	assert.Equal(t, AppendParagraph, d.Strategy)

	paras := c.Paragraphs()
	require.Len(t, paras, 2)
	assert.Equal(t, header, paras[0].Text())
	assert.Equal(t, "本成果解决了...", paras[1].Text())

	f := paras[1].Runs()[0].Font()
	require.NotNil(t, f.Bold)
	assert.True(t, *f.Bold)
	assert.Equal(t, 28, f.Size)
}

func TestCellHeaderEchoedOverwrites(t *testing.T) {
	header := "1. 成果简介（不超过200字）"
	c := firstCell(t, dt.Tc(header))
	value := header + "\n本成果解决了..."

	d := decideAndApply(t, Target{Cell: c}, value)
	assert.Equal(t, Overwrite, d.Strategy)
	assert.Equal(t, value, c.Text())
}

func TestIsInstructionalHeader(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"1. 成果简介", true},
		{"2.1.3 主要创新点", true},
		{"3、推广应用情况", true},
		{"成果简介（不超过500字）", true},
		{"1 项目背景与意义", true},
		{"1", false},
		{"2024年", false},
		{"姓名", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, isInstructionalHeader(tt.text))
		})
	}
}

func TestCellOverwriteKeepsRunFont(t *testing.T) {
	c := firstCell(t, dt.TcRaw(dt.P(
		dt.RWithProps(`<w:rFonts w:ascii="宋体" w:hAnsi="宋体" w:eastAsia="宋体"/><w:sz w:val="21"/>`, " "),
	)))

	d := decideAndApply(t, Target{Cell: c}, "张三")
	assert.Equal(t, Overwrite, d.Strategy)
	assert.Equal(t, "张三", c.Text())

	f := c.Paragraphs()[0].Runs()[0].Font()
	assert.Equal(t, "宋体", f.Name)
	assert.Equal(t, 21, f.Size)
}

func TestCellOverwriteUsesParagraphDefaults(t *testing.T) {
	c := firstCell(t, dt.TcRaw(dt.PWithProps(`<w:rPr><w:b/><w:sz w:val="152400"/></w:rPr>`)))

	d := decideAndApply(t, Target{Cell: c}, "张三")
	assert.Equal(t, Overwrite, d.Strategy)
	assert.Equal(t, 24, d.Font.Size)

	f := c.Paragraphs()[0].Runs()[0].Font()
	assert.Equal(t, 24, f.Size)
	require.NotNil(t, f.Bold)
	assert.True(t, *f.Bold)
}

func TestCellWithoutParagraphsIsRaw(t *testing.T) {
	c := firstCell(t, dt.TcRaw(""))
	d := decideAndApply(t, Target{Cell: c}, "张三")
	assert.Equal(t, Raw, d.Strategy)
	assert.Equal(t, "张三", c.Text())
}

func TestEmptyValueIsSkipped(t *testing.T) {
	p := firstPara(t, dt.P(dt.R("姓名："), dt.U("____")))
	d := decideAndApply(t, Target{Paragraph: p}, " \n")
	assert.Equal(t, Skip, d.Strategy)
	assert.Equal(t, "姓名：____", p.Text())

	assert.Equal(t, Skip, Decide(Target{}, "x").Strategy)
}

func TestApplyWithoutTarget(t *testing.T) {
	for _, s := range []Strategy{Smart, AppendParagraph, AppendRun, Overwrite, Replace, Raw} {
		assert.ErrorIs(t, Apply(Decision{Strategy: s}), ErrNoTarget, s.String())
	}
	assert.Error(t, Apply(Decision{Strategy: Strategy(99)}))
}

func TestApplyScopeParagraphs(t *testing.T) {
	doc := dt.Doc(t,
		dt.P(dt.R("项目申报书")),
		dt.P(dt.R("姓名："), dt.U("      ")),
		dt.P(dt.R("联系电话：")),
	)
	scope := anchor.MapParagraphs(doc.Paragraphs())
	require.Equal(t, 2, scope.Len())

	core, logs := observer.New(zapcore.DebugLevel)
	res := NewApplier(zap.New(core)).ApplyScope(doc, scope, prompt.Reply{
		Kind: prompt.ReplyMapping,
		Entries: []prompt.Entry{
			{ID: "{{ID_009}}", Value: "x"},
			{ID: "{{ID_002}}", Value: ""},
			{ID: "ID_001", Value: "张三"},
		},
	})

	assert.Equal(t, Result{Filled: 1, Skipped: 1, Unknown: 1}, res)
	paras := doc.Paragraphs()
	assert.Equal(t, "项目申报书", paras[0].Text())
	assert.Equal(t, "姓名： 张三 ", paras[1].Text())
	assert.Equal(t, "联系电话：", paras[2].Text())

	assert.Equal(t, 1, logs.FilterMessage("unknown anchor id").Len())
	done := logs.FilterMessage("scope done").All()
	require.Len(t, done, 1)
	assert.Equal(t, int64(1), done[0].ContextMap()["filled"])
}

func TestApplyScopeTable(t *testing.T) {
	doc := dt.Doc(t, dt.Tbl(
		dt.Tr(dt.Tc("姓名"), dt.Span(2, "")),
		dt.Tr(dt.Tc("1. 成果简介（不超过200字）"), dt.Tc("备注"), dt.Tc("")),
	))
	scope := anchor.MapTable(doc.Tables()[0], 0)
	require.Equal(t, 3, scope.Len())

	res := NewApplier(nil).ApplyScope(doc, scope, prompt.Reply{
		Kind: prompt.ReplyMapping,
		Entries: []prompt.Entry{
			{ID: "{{ID_001}}", Value: "张三"},
			{ID: "{{ID_002}}", Value: "本成果解决了..."},
		},
	})
	assert.Equal(t, Result{Filled: 2}, res)

	table := doc.Tables()[0]
	c, err := table.Cell(0, 2)
	require.NoError(t, err)
	assert.Equal(t, "张三", c.Text())

	c, err = table.Cell(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "1. 成果简介（不超过200字）\n本成果解决了...", c.Text())
}

func TestApplyScopeIgnoresNonMapping(t *testing.T) {
	doc := dt.Doc(t, dt.P(dt.R("姓名："), dt.U("      ")))
	scope := anchor.MapParagraphs(doc.Paragraphs())

	res := NewApplier(nil).ApplyScope(doc, scope, prompt.ParseReply("not json"))
	assert.Equal(t, Result{}, res)
	assert.Equal(t, "姓名：      ", doc.Paragraphs()[0].Text())
}

func TestApplyScopeMissingTable(t *testing.T) {
	doc := dt.Doc(t, dt.Tbl(dt.Tr(dt.Tc(""))))
	scope := anchor.MapTable(doc.Tables()[0], 3)

	res := NewApplier(nil).ApplyScope(doc, scope, prompt.Reply{
		Kind:    prompt.ReplyMapping,
		Entries: []prompt.Entry{{ID: "{{ID_001}}", Value: "x"}},
	})
	assert.Equal(t, Result{Failed: 1}, res)
}
