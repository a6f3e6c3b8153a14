package knowledge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected any
	}{
		{"123", int64(123)},
		{"-456", int64(-456)},
		{"0", int64(0)},
		{"3.14", float64(3.14)},
		{"0.5", float64(0.5)},
		{"-2.5", float64(-2.5)},
		{"hello", "hello"},
		{"", ""},
		{"0571-88888888", "0571-88888888"},
		{"013800138000", "013800138000"},
		{"NaN", "NaN"},
		{"1e3", float64(1000)},
		{"0x1F", "0x1F"},
		{"张三", "张三"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseValue(tt.input))
		})
	}
}

func TestParseValueNormalizesNFC(t *testing.T) {
	decomposed := "e\u0301"
	assert.Equal(t, "\u00e9", parseValue(decomposed))
}

func TestFindDataBounds(t *testing.T) {
	minRow, maxRow, minCol, maxCol := findDataBounds([][]string{
		{},
		{"", "", "a"},
		{"", "b", "", "c"},
		{"", " "},
	})
	assert.Equal(t, []int{1, 2, 1, 3}, []int{minRow, maxRow, minCol, maxCol})

	minRow, _, _, _ = findDataBounds([][]string{{"", " "}})
	assert.Equal(t, -1, minRow)
}

func TestMatrixCropsAndPads(t *testing.T) {
	got := matrix([][]string{
		{},
		{"", "姓名", "年龄"},
		{"", "张三"},
		{"", "李四", "30", "备注"},
	})
	assert.Equal(t, [][]any{
		{"姓名", "年龄", ""},
		{"张三", "", ""},
		{"李四", int64(30), "备注"},
	}, got)
	assert.Equal(t, [][]any{}, matrix(nil))
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "人员"))
	require.NoError(t, f.SetCellValue("人员", "A1", "姓名"))
	require.NoError(t, f.SetCellValue("人员", "B1", "单位"))
	require.NoError(t, f.SetCellValue("人员", "A2", "张三"))
	require.NoError(t, f.SetCellValue("人员", "B2", "<研究院>"))
	require.NoError(t, f.SetCellValue("人员", "A3", "李四"))

	_, err := f.NewSheet("项目")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("项目", "B2", "项目名称"))
	require.NoError(t, f.SetCellValue("项目", "C2", 2024))

	path := filepath.Join(t.TempDir(), "kb.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := writeWorkbook(t)

	kb, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ShapeMatrix, kb.Shape())
	assert.Equal(t, path, kb.Source())
	assert.Equal(t, 4, kb.Records())

	sheets := kb.Sheets()
	require.Len(t, sheets, 2)
	assert.Equal(t, "人员", sheets[0].Name)
	assert.Equal(t, "项目", sheets[1].Name)
	assert.Equal(t, [][]any{{"项目名称", int64(2024)}}, sheets[1].Rows)

	data, err := kb.JSON()
	require.NoError(t, err)
	assert.Equal(t,
		`{"人员":[["姓名","单位"],["张三","<研究院>"],["李四",""]],"项目":[["项目名称",2024]]}`,
		string(data))
}

func TestLoadJSONShapes(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		shape   Shape
		records int
	}{
		{"flat", `{"爱好_1": "阅读", "爱好_2": "绘画"}`, ShapeKeyValue, 2},
		{"nested", `{"人员": {"姓名": "张三"}, "奖项": ["A", "B"]}`, ShapeKeyValue, 2},
		{"matrix", `{"Sheet1": [["姓名", "张三"], ["年龄", 30]], "Sheet2": []}`, ShapeMatrix, 2},
		{"array", `[{"姓名": "张三"}]`, ShapeKeyValue, 1},
		{"empty object", `{}`, ShapeKeyValue, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte("\xef\xbb\xbf"+tt.content+"\n"), 0644))

			kb, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, kb.Shape())
			assert.Equal(t, tt.records, kb.Records())

			data, err := kb.JSON()
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "kb.csv"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"a":`), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)
}

func TestShapeDescribe(t *testing.T) {
	assert.Contains(t, ShapeMatrix.Describe(), "矩阵")
	assert.Contains(t, ShapeKeyValue.Describe(), "Key-Value")
	assert.Equal(t, "matrix", ShapeMatrix.String())
}
