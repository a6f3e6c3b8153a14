// Package knowledge loads the knowledge source a template is filled from.
//
// The loaded value is opaque to the filling pipeline: it is serialized into
// the oracle prompt and never indexed. Two shapes are recognised so the
// prompt can describe the data correctly.
package knowledge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for knowledge files that are neither
// .xlsx nor .json.
var ErrUnsupportedFormat = errors.New("unsupported knowledge format (only .xlsx and .json are supported)")

// Shape tells how the knowledge is organised.
type Shape int

const (
	// ShapeKeyValue is a mapping from key to scalar or nested value.
	ShapeKeyValue Shape = iota

	// ShapeMatrix maps a sheet or source name to an ordered list of rows.
	ShapeMatrix
)

func (s Shape) String() string {
	if s == ShapeMatrix {
		return "matrix"
	}
	return "key-value"
}

// Describe returns the prompt wording for the shape.
func (s Shape) Describe() string {
	if s == ShapeMatrix {
		return "按 Sheet（来源）分组的二维数组（矩阵）格式"
	}
	return "扁平化的 JSON 键值对（Key-Value）"
}

// Sheet is one named matrix of cell values. Values are int64, float64 or
// string.
type Sheet struct {
	Name string
	Rows [][]any
}

// Base is a loaded knowledge source.
type Base struct {
	shape  Shape
	sheets []Sheet
	raw    json.RawMessage
	source string
}

// Load reads a knowledge file, choosing the loader by extension.
func Load(path string) (*Base, error) {
	var (
		b   *Base
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		b, err = LoadXLSX(path)
	case ".json":
		b, err = LoadJSON(path)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	b.source = path
	return b, nil
}

// LoadJSON reads a JSON knowledge file.
func LoadJSON(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return b, nil
}

// FromJSON wraps JSON knowledge. The bytes are kept verbatim; they are only
// decoded to validate them and detect the shape.
func FromJSON(data []byte) (*Base, error) {
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("\xef\xbb\xbf"))
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON knowledge: %w", err)
	}
	b := &Base{shape: ShapeKeyValue, raw: json.RawMessage(data)}
	if isMatrix(v) {
		b.shape = ShapeMatrix
	}
	return b, nil
}

// FromSheets wraps already-loaded matrices.
func FromSheets(sheets []Sheet) *Base {
	return &Base{shape: ShapeMatrix, sheets: sheets}
}

// isMatrix reports whether v is a non-empty object whose values are all
// arrays of arrays.
func isMatrix(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return false
	}
	for _, val := range obj {
		rows, ok := val.([]any)
		if !ok {
			return false
		}
		for _, r := range rows {
			if _, ok := r.([]any); !ok {
				return false
			}
		}
	}
	return true
}

// Shape returns the detected shape.
func (b *Base) Shape() Shape {
	return b.shape
}

// Source returns the path the base was loaded from, if any.
func (b *Base) Source() string {
	return b.source
}

// Sheets returns the matrices of a spreadsheet source.
func (b *Base) Sheets() []Sheet {
	return b.sheets
}

// JSON serializes the knowledge for the prompt. Sheets keep workbook order
// and HTML characters are not escaped.
func (b *Base) JSON() ([]byte, error) {
	if b.raw != nil {
		return b.raw, nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range b.sheets {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeCompact(&buf, s.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		rows := s.Rows
		if rows == nil {
			rows = [][]any{}
		}
		if err := encodeCompact(&buf, rows); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.Name, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Records counts rows for matrices and top-level keys otherwise.
func (b *Base) Records() int {
	if b.raw == nil {
		n := 0
		for _, s := range b.sheets {
			n += len(s.Rows)
		}
		return n
	}
	var v any
	if err := json.Unmarshal(b.raw, &v); err != nil {
		return 0
	}
	switch t := v.(type) {
	case map[string]any:
		if b.shape == ShapeMatrix {
			n := 0
			for _, rows := range t {
				n += len(rows.([]any))
			}
			return n
		}
		return len(t)
	case []any:
		return len(t)
	}
	return 1
}

func encodeCompact(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
