// Package prompt builds the oracle request for one anchor scope and parses
// the oracle's answer.
package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/template"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/anchor"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/knowledge"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/oracle"
)

// Temperature is the sampling temperature used for fill requests.
const Temperature = 0.1

const defaultSystemTemplate = "你是一个专业的文档填充助手，擅长处理复杂表格和多层级数据映射。"

// ErrEmptyScope is returned when a scope has no anchors to fill.
var ErrEmptyScope = errors.New("scope has no anchors")

// Options configures the builder. InlineSystemTemplate wins over
// SystemTemplatePath; with neither set the built-in system prompt is used.
type Options struct {
	InlineSystemTemplate string `yaml:"inline_system_template" json:"inline_system_template"`
	SystemTemplatePath   string `yaml:"system_template_path" json:"system_template_path"`
}

// SystemData is the value the system template is executed with.
type SystemData struct {
	Scope     string
	Shape     string
	Anchors   int
	UsedCount int
}

// Request is everything needed to ask for one scope's values.
type Request struct {
	Scope     *anchor.Scope
	Knowledge *knowledge.Base

	// Used lists the identities already consumed by earlier scopes.
	Used []string
}

// Builder renders fill requests. Templates are parsed at construction and
// Build does no I/O.
type Builder struct {
	sysT *template.Template
}

// New creates a builder.
func New(opts *Options) (*Builder, error) {
	o := Options{}
	if opts != nil {
		o = *opts
	}

	src := defaultSystemTemplate
	if o.InlineSystemTemplate != "" {
		src = o.InlineSystemTemplate
	} else if o.SystemTemplatePath != "" {
		b, err := os.ReadFile(o.SystemTemplatePath)
		if err != nil {
			return nil, fmt.Errorf("system template read: %w", err)
		}
		src = string(b)
	}
	tpl, err := template.New("system").Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("system template parse: %w", err)
	}
	return &Builder{sysT: tpl}, nil
}

// Build returns the system and user messages for a scope.
func (b *Builder) Build(ctx context.Context, req Request) ([]oracle.Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if req.Scope == nil || req.Scope.Len() == 0 {
		return nil, ErrEmptyScope
	}
	if req.Knowledge == nil {
		return nil, errors.New("prompt: nil knowledge")
	}

	var sys bytes.Buffer
	err := b.sysT.Execute(&sys, SystemData{
		Scope:     req.Scope.Name(),
		Shape:     req.Knowledge.Shape().Describe(),
		Anchors:   req.Scope.Len(),
		UsedCount: len(req.Used),
	})
	if err != nil {
		return nil, fmt.Errorf("system render: %w", err)
	}

	kb, err := req.Knowledge.JSON()
	if err != nil {
		return nil, fmt.Errorf("knowledge encode: %w", err)
	}
	contexts, err := contextJSON(req.Scope.Contexts())
	if err != nil {
		return nil, fmt.Errorf("context encode: %w", err)
	}

	var uw bytes.Buffer
	uw.Grow(len(kb) + len(req.Scope.Rendered) + len(contexts) + 4096)
	uw.WriteString("请分析以下带有锚点（格式如 {{ID_XXX}}）的文档内容（表格或段落），并结合提供的知识库数据，将正确的值填入对应的锚点。\n\n")
	fmt.Fprintf(&uw, "知识库数据（%s）：\n", req.Knowledge.Shape().Describe())
	uw.Write(kb)
	uw.WriteString("\n\n文档内容结构（Markdown）：\n")
	uw.WriteString(req.Scope.Rendered)
	uw.WriteString("\n\n锚点对应的原始文本（参考用，可能包含提示信息）：\n")
	uw.Write(contexts)
	uw.WriteString("\n")
	if len(req.Used) > 0 {
		used, err := marshalNoEscape(req.Used)
		if err != nil {
			return nil, fmt.Errorf("used identities encode: %w", err)
		}
		uw.WriteString(usedHeader)
		uw.Write(used)
		uw.WriteString(usedFooter)
	}
	uw.WriteString(rules)

	return []oracle.Message{
		{Role: oracle.RoleSystem, Content: sys.String()},
		{Role: oracle.RoleUser, Content: uw.String()},
	}, nil
}

// contextJSON writes the id to description map as a JSON object in id order.
func contextJSON(ctxs []anchor.Context) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range ctxs {
		if i > 0 {
			buf.WriteString(", ")
		}
		k, err := marshalNoEscape(c.ID)
		if err != nil {
			return nil, err
		}
		v, err := marshalNoEscape(c.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

const usedHeader = `
**上下文去重约束（重要）**：
当前文档中包含多个结构相似的表格，用于填写不同实体（人员/项目）的信息。
以下实体标识（如姓名、项目名）**已被前面的表格使用过**：
`

const usedFooter = `

**请务必从知识库中选择一个【未使用过】的新实体数据进行填充。**
- 如果知识库是人员列表，请选择下一个不同的人员。
- 如果知识库是项目列表，请选择下一个不同的项目。
- 如果确实没有更多新数据，才允许重复。
`

const rules = `
**核心原则：严格基于知识库**
1. **绝对禁止编造数据**：你只能使用“知识库数据”中显式提供的信息。
2. **禁止推测**：不要根据常识或上下文去猜测缺失的信息（例如：不要自己编造邮编、电话、日期，也不要推测上级单位）。原文没有就是没有。

请仔细思考字段的对应关系。
注意：知识库数据可能为以下两种格式之一：
1. 按 Sheet（来源）分组的二维数组（矩阵）格式。
2. 扁平化的 JSON 键值对（Key-Value）。

请根据上下文自动推断。
- 如果遇到包含换行符被拼接的字段名（如“现从事工作及专长”），请尝试模糊匹配。
- **必须**参考提供的“锚点对应的原始文本”中的上下文线索（如“左侧Label”或“上方Label”）来确定填入内容。

特别注意以下字段的提取和填充：
1. **多键合并与分发**：
   - **合并**：如果表格中只有一个对应字段的单元格，但知识库中有多个相关键（如 "奖项_1", "奖项_2"），请将它们合并为一个完整段落（如 "1. A奖；2. B奖"）。
   - **分发**：如果表格中针对同一属性（如“爱好”）预留了**多个独立**的单元格（即多个锚点），且知识库中有对应的多条数据，请将数据**分散填入**不同的锚点，不要重复。
      - 例如：表格“爱好”下有 ` + "`{{ID_001}}` 和 `{{ID_002}}`" + `，知识库有 ` + "`爱好_1: A`, `爱好_2: B`" + `。
      - 正确：` + "`\"{{ID_001}}\": \"A\"`, `\"{{ID_002}}\": \"B\"`" + `
      - 错误：` + "`\"{{ID_001}}\": \"A, B\"`, `\"{{ID_002}}\": \"A, B\"`" + `
      - **注意**：如果数据条数少于单元格数（如只有 ` + "`爱好_1: A`" + `），请只填入第一个锚点，其余锚点**不要**在返回的JSON中出现（即留空）。
2. **复杂文本字段**：如“现从事工作及专长”、“何时何地受何奖励”。这些内容可能较长，包含多行，请务必提取完整。
3. **基础信息字段**：如“工作单位”、“电子信箱”、“通讯地址”。这些信息可能散落在不同位置，请仔细查找。
4. **格式处理**：如果源数据中包含换行符（\n），请根据目标表格的语境合理保留或替换为逗号/空格。
5. **问答式填充**：
   - 如果锚点对应的“原始文本”是一个问题或指令（例如 "1. 成果简介..."），请**只返回该问题的答案内容**，不要重复问题本身。程序会自动将答案追加在问题下方。

如果一个字段在多个地方出现，请优先选择最匹配上下文的值。

**禁止行为**：
- 严禁在表格末尾或其他空位自动生成“总结”、“备注”或“额外说明”，除非表格中有明确的“备注”或“总结”标签指示。
- 如果锚点没有明确的上下文指示（Label），且无法确定其对应关系，请保持为空，不要强行填入剩余的知识库信息。
- **再次强调**：知识库中不存在的信息，填入值必须为空字符串。

重要：请返回**完整**的填入内容。
如果原始文本是占位符（如 "____"），直接返回填入值。
如果原始文本包含提示信息且你需要保留（例如 "姓名：____"），请返回完整内容（例如 "姓名：张三"）。
如果原始文本是日期格式（如 "____年__月__日"），请返回填充好的完整日期字符串（例如 "2024年1月1日"）。
通常情况下，对于包含下划线的单元格，用户希望你填充内容并覆盖原有占位符。

返回 JSON 格式：
{
    "__identity__": "这里填入你本次使用的实体唯一标识（如姓名：张三），用于后续去重",
    "{{ID_001}}": "填入的值1",
    "{{ID_002}}": "",
    ...
}
请确保只返回JSON格式数据，不要包含其他内容。
`
