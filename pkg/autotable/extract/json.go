package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/oracle"
)

// Keys used when some or all chunks could not be turned into JSON.
const (
	RawContentKey = "Raw_Content"
	ErrorKey      = "Error"
	parseFailed   = "JSON解析失败"
)

const extractSystemPrompt = "你是一个专业的数据提取专家，擅长将非结构化文档转化为结构化数据。"

const extractUserPrompt = `请分析以下文档内容片段（第%d/%d段），将其提取为扁平化 JSON 键值对。

文档内容片段：
%s

要求：
1. 区分短事实与长段落，短事实细粒度拆分，长段落保留原文。
2. 列表类内容可保留为序号文本或拆分为键_1、键_2。
3. 键名简洁规范，特定小标题直接用原标题。
4. 处理 ' // ' 作为换行提示，合理还原。
5. 仅返回 JSON 对象。
`

var errNoJSON = errors.New("未找到JSON内容")

// Lines flattens a document into the text lines sent for extraction: header
// and footer lines, body paragraphs, then every table as "[表格 n]" followed
// by one "a | b" line per row.
func Lines(doc *docx.Document) []string {
	var lines []string
	for _, hf := range doc.HeaderFooterTexts() {
		tag := "[页眉] "
		if hf.Footer {
			tag = "[页脚] "
		}
		lines = append(lines, tag+hf.Text)
	}
	for _, p := range doc.Paragraphs() {
		if text := strings.TrimSpace(p.Text()); text != "" {
			lines = append(lines, text)
		}
	}
	for i, t := range doc.Tables() {
		lines = append(lines, fmt.Sprintf("\n[表格 %d]", i+1))
		for r := 0; r < t.Rows(); r++ {
			var cells []string
			for c := 0; c < t.Cols(r); c++ {
				cell, err := t.Cell(r, c)
				if err != nil {
					continue
				}
				text := strings.TrimSpace(cell.Text())
				if text == "" {
					continue
				}
				cells = append(cells, strings.ReplaceAll(text, "\n", " // "))
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
	}
	return lines
}

// splitChunks groups lines into newline-joined chunks of at most max
// characters. A single longer line forms a chunk of its own.
func splitChunks(lines []string, max int) []string {
	var (
		chunks []string
		buf    []string
		length int
	)
	for _, line := range lines {
		n := utf8.RuneCountInString(line) + 1
		if length+n > max && len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, "\n"))
			buf, length = nil, 0
		}
		buf = append(buf, line)
		length += n
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, "\n"))
	}
	return chunks
}

type chunkResult struct {
	data map[string]any
	err  error
}

// ToJSON asks the oracle to turn the document into flat key-value JSON.
// Chunks are extracted concurrently and merged in document order. A chunk
// that fails is kept verbatim under Raw_Content_Chunk_n with its error under
// Error_Chunk_n. Only context cancellation is returned as an error.
func ToJSON(ctx context.Context, doc *docx.Document, client oracle.Client, opts Options) (map[string]any, error) {
	log := opts.logger()
	lines := Lines(doc)
	chunks := splitChunks(lines, opts.chunkSize())
	results := make([]chunkResult, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency())
	for i, chunk := range chunks {
		g.Go(func() error {
			data, err := extractChunk(gctx, client, chunk, i+1, len(chunks), opts.Temperature)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				err = &ChunkError{Index: i + 1, Total: len(chunks), Err: err}
				log.Warn("chunk extraction failed", zap.Int("chunk", i+1), zap.Error(err))
			} else {
				log.Debug("chunk extracted", zap.Int("chunk", i+1), zap.Int("keys", len(data)))
			}
			results[i] = chunkResult{data: data, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]any)
	fallback := make(map[string]any)
	for i, res := range results {
		if res.err != nil {
			fallback[fmt.Sprintf("Raw_Content_Chunk_%d", i+1)] = chunks[i]
			fallback[fmt.Sprintf("Error_Chunk_%d", i+1)] = errors.Unwrap(res.err).Error()
			continue
		}
		merge(merged, res.data)
	}
	if len(merged) == 0 {
		merged = map[string]any{
			RawContentKey: strings.Join(lines, "\n"),
			ErrorKey:      parseFailed,
		}
	}
	for k, v := range fallback {
		merged[k] = v
	}
	log.Info("extraction done",
		zap.Int("chunks", len(chunks)),
		zap.Int("failed", len(fallback)/2),
		zap.Int("keys", len(merged)))
	return merged, nil
}

func extractChunk(ctx context.Context, client oracle.Client, chunk string, idx, total int, temperature float64) (map[string]any, error) {
	msgs := []oracle.Message{
		{Role: oracle.RoleSystem, Content: extractSystemPrompt},
		{Role: oracle.RoleUser, Content: fmt.Sprintf(extractUserPrompt, idx, total, chunk)},
	}
	raw, err := client.Complete(ctx, msgs, temperature)
	if err != nil {
		return nil, err
	}
	return decodeObject(raw)
}

// decodeObject parses the JSON object found between the first '{' and the
// last '}' of text.
func decodeObject(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errNoJSON
	}
	dec := json.NewDecoder(strings.NewReader(text[start : end+1]))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errNoJSON
	}
	return out, nil
}

// merge folds b into a. Objects merge recursively, lists are extended and
// differing scalars are collected into a list.
func merge(a, b map[string]any) {
	for k, v := range b {
		av, ok := a[k]
		if !ok {
			a[k] = v
			continue
		}
		am, aIsMap := av.(map[string]any)
		bm, bIsMap := v.(map[string]any)
		if aIsMap && bIsMap {
			merge(am, bm)
			continue
		}
		if al, ok := av.([]any); ok {
			if bl, ok := v.([]any); ok {
				a[k] = append(al, bl...)
			} else {
				a[k] = append(al, v)
			}
			continue
		}
		if !reflect.DeepEqual(av, v) {
			a[k] = []any{av, v}
		}
	}
}

// WriteJSON writes extracted data as indented JSON without escaping
// non-ASCII or HTML characters.
func WriteJSON(path string, data map[string]any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(data); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
