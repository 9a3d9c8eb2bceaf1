// Package textutil 提供文本切分、相似度与哈希等工具函数。
package textutil

import (
	"crypto/md5"
	"encoding/hex"
	"math"
	"strings"
	"unicode/utf8"
)

// CosineSimilarity 计算两个向量的余弦相似度。
// 返回值范围为 [-1, 1]，1 表示完全相同，-1 表示完全相反。
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// HashString 计算字符串的 MD5 哈希值。
func HashString(s string) string {
	hash := md5.Sum([]byte(s))
	return hex.EncodeToString(hash[:])
}

// HashParts 以 "|" 连接各部分后计算 MD5。
func HashParts(parts ...string) string {
	return HashString(strings.Join(parts, "|"))
}

// TruncateString 截断字符串到指定的最大 Unicode 字符数。
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// IsBlank 判断字符串是否只包含空白字符。
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// SplitIntoChunks 将文本按 Unicode 字符切分为重叠的窗口。
// 窗口大小为 chunkSize，每次前进 chunkSize-overlap；最后一个窗口到达文本末尾即停止。
// 调用方负责保证 0 <= overlap < chunkSize，参数非法时返回 nil。
func SplitIntoChunks(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	step := chunkSize - overlap

	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}

// ChunkCount 返回 SplitIntoChunks 对长度为 length 的文本产生的块数。
func ChunkCount(length, chunkSize, overlap int) int {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return 0
	}
	if length <= chunkSize {
		return 1
	}
	step := chunkSize - overlap
	return (length - overlap + step - 1) / step
}
