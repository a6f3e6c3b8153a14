package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	var tr Tracker
	assert.Empty(t, tr.Used())

	assert.True(t, tr.Record("张三"))
	assert.False(t, tr.Record("  "))
	assert.True(t, tr.Record(" 李四 "))
	assert.True(t, tr.Record("张三"))

	assert.Equal(t, []string{"张三", "李四", "张三"}, tr.Used())
	assert.Equal(t, 3, tr.Len())
}

func TestUsedReturnsCopy(t *testing.T) {
	var tr Tracker
	tr.Record("张三")

	used := tr.Used()
	used[0] = "changed"
	used = append(used, "extra")

	assert.Equal(t, []string{"张三"}, tr.Used())
	assert.Len(t, used, 2)
}
