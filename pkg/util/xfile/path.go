package xfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// isWindowsAbsPath 识别 "C:\..."、"C:foo" 以及以反斜杠开头的路径。
// 非 Windows 平台上 filepath.IsAbs 不认这些形式，需要单独拒绝。
func isWindowsAbsPath(path string) bool {
	if len(path) >= 2 && isASCIILetter(path[0]) && path[1] == ':' {
		return true
	}
	return len(path) >= 1 && path[0] == '\\'
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// hasDotDotSegment 逐字节扫描，'/' 与 '\' 都视为分隔符，零分配。
func hasDotDotSegment(path string) bool {
	for i := 0; i < len(path); {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 对文件路径做格式净化并返回规范化结果。
//
// 拒绝空路径、空字节、以分隔符结尾的目录路径以及相对路径穿越。
// 绝对路径中的 ".." 由 filepath.Clean 正常折叠，不视为穿越；
// 需要目录隔离时使用 [SafeJoin]。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// Clean 会吃掉尾部分隔符，必须先判断
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}
	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// userHomeDir 测试注入点，非并发安全。
var userHomeDir = os.UserHomeDir

// ResolvePath 将日志目标路径解析为规范化的绝对路径。
//
// 处理顺序：
//  1. "~/" 前缀展开为当前用户主目录（"~user" 形式不支持，按普通文件名处理）
//  2. 格式净化（见 [SanitizePath]）
//  3. 相对路径基于当前工作目录解析为绝对路径
func ResolvePath(filename string) (string, error) {
	if filename == "~" || strings.HasPrefix(filename, "~/") {
		home, err := userHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory for %q: %w", filename, err)
		}
		filename = filepath.Join(home, strings.TrimPrefix(filename[1:], "/"))
	}

	cleaned, err := SanitizePath(filename)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(cleaned) {
		return cleaned, nil
	}
	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", filename, err)
	}
	return abs, nil
}

// SafeJoin 将相对路径 path 拼接到绝对目录 base 下，并保证结果不逃逸出 base。
//
// 不解析符号链接；检查与后续文件操作之间存在 TOCTOU 窗口，
// 适用于可信环境下构建日志路径。
//
//	SafeJoin("/var/log", "tenant-a/app.log") // "/var/log/tenant-a/app.log"
//	SafeJoin("/var/log", "/etc/passwd")      // ErrInvalidPath
func SafeJoin(base, path string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("base directory is required: %w", ErrEmptyPath)
	}
	if containsNullByte(base) {
		return "", fmt.Errorf("base contains null byte: %w", ErrNullByte)
	}
	cleanBase := filepath.Clean(base)
	if !filepath.IsAbs(cleanBase) {
		return "", fmt.Errorf("base must be an absolute path: %w", ErrInvalidPath)
	}

	if path == "" {
		return "", fmt.Errorf("path is required: %w", ErrEmptyPath)
	}
	if containsNullByte(path) {
		return "", fmt.Errorf("path contains null byte: %w", ErrNullByte)
	}
	if filepath.IsAbs(path) || isWindowsAbsPath(path) {
		return "", fmt.Errorf("path must be relative: %w", ErrInvalidPath)
	}
	cleanPath := filepath.Clean(path)
	if hasDotDotSegment(cleanPath) {
		return "", fmt.Errorf("path traversal in path: %w", ErrPathTraversal)
	}
	if cleanPath == "." {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}

	joined := filepath.Join(cleanBase, cleanPath)
	rel, err := filepath.Rel(cleanBase, joined)
	if err != nil || hasDotDotSegment(rel) {
		return "", ErrPathEscaped
	}
	return joined, nil
}
