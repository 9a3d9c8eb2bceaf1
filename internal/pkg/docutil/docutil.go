// Package docutil 提供语料目录相关的文件工具函数。
package docutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFiles 在目录中查找匹配指定扩展名的文件，结果按路径排序。
// extensions 是文件扩展名列表，如 []string{".pdf"}，比较时忽略大小写。
// recursive 为 false 时只查找 dir 本层。
func FindFiles(dir string, extensions []string, recursive bool) ([]string, error) {
	extMap := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extMap[strings.ToLower(ext)] = true
	}
	match := func(path string) bool {
		return extMap[strings.ToLower(filepath.Ext(path))]
	}

	var files []string
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && match(e.Name()) {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
		sort.Strings(files)
		return files, nil
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && match(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// EnsureDir 确保目录存在，如果不存在则创建。
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// FileExists 检查文件是否存在。
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirExists 检查目录是否存在。
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
