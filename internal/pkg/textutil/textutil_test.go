package textutil_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/internal/pkg/textutil"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{"相同向量", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"正交向量", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0},
		{"相反向量", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1.0},
		{"空向量", []float32{}, []float32{}, 0.0},
		{"长度不匹配", []float32{1, 2}, []float32{1}, 0.0},
		{"零向量", []float32{0, 0}, []float32{1, 1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, textutil.CosineSimilarity(tt.a, tt.b), 0.0001)
		})
	}
}

func TestHashString(t *testing.T) {
	hash1 := textutil.HashString("test")
	assert.Equal(t, hash1, textutil.HashString("test"))
	assert.NotEqual(t, hash1, textutil.HashString("different"))
	assert.Len(t, hash1, 32)

	assert.Equal(t, textutil.HashString("a|1|b"), textutil.HashParts("a", "1", "b"))
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"短于限制", "hello", 10, "hello"},
		{"等于限制", "hello", 5, "hello"},
		{"超过限制", "hello world", 5, "hello"},
		{"中文字符", "你好世界", 2, "你好"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutil.TruncateString(tt.input, tt.maxLen))
		})
	}
}

func TestSplitIntoChunks(t *testing.T) {
	tests := []struct {
		name      string
		length    int
		chunkSize int
		overlap   int
	}{
		{"短文本无需分割", 5, 10, 2},
		{"恰好等于窗口", 10, 10, 2},
		{"正常分割", 1200, 500, 50},
		{"无重叠", 1000, 100, 0},
		{"最大重叠", 30, 10, 9},
		{"末尾正好对齐", 950, 500, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("a", tt.length)
			chunks := textutil.SplitIntoChunks(text, tt.chunkSize, tt.overlap)

			require.Len(t, chunks, textutil.ChunkCount(tt.length, tt.chunkSize, tt.overlap))
			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), tt.chunkSize)
			}
		})
	}
}

func TestSplitIntoChunks_Overlap(t *testing.T) {
	// 用不重复的字符确认相邻块的重叠部分
	var b strings.Builder
	for i := 0; i < 260; i++ {
		b.WriteRune(rune('一' + i))
	}
	text := b.String()

	chunks := textutil.SplitIntoChunks(text, 100, 20)
	require.Len(t, chunks, 3)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		assert.Equal(t, string(prev[len(prev)-20:]), string(cur[:20]))
	}
	assert.Equal(t, text, string([]rune(chunks[0]))+string([]rune(chunks[1])[20:])+string([]rune(chunks[2])[20:]))
}

func TestSplitIntoChunks_InvalidParams(t *testing.T) {
	assert.Nil(t, textutil.SplitIntoChunks("abc", 0, 0))
	assert.Nil(t, textutil.SplitIntoChunks("abc", 10, 10))
	assert.Nil(t, textutil.SplitIntoChunks("abc", 10, -1))
	assert.Equal(t, 0, textutil.ChunkCount(100, 10, 10))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, textutil.IsBlank(""))
	assert.True(t, textutil.IsBlank(" \n\t "))
	assert.False(t, textutil.IsBlank(" a "))
}
